package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SinkKind selects where records go.
type SinkKind string

const (
	SinkNone     SinkKind = ""
	SinkFile     SinkKind = "file"
	SinkAPI      SinkKind = "api"
	SinkPostgres SinkKind = "postgres"
)

// Format is an output file format.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatXLSX   Format = "xlsx"
	FormatSQLite Format = "sqlite"
)

var formatsByExt = map[string]Format{
	"csv":    FormatCSV,
	"json":   FormatJSON,
	"xlsx":   FormatXLSX,
	"xls":    FormatXLSX,
	"sqlite": FormatSQLite,
}

// DetectFormat derives the output format from a file extension, case-insensitively.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if f, ok := formatsByExt[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q (supported: csv, json, xlsx, xls, sqlite)", ErrUnsupportedFormat, ext)
}

// SinkTarget is the single active destination for a run.
type SinkTarget struct {
	Kind  SinkKind
	Path  string // file sink
	URL   string // api sink, or postgres DSN
	Table string // sqlite and postgres sinks
}

// ResolveTarget picks exactly one target. An API endpoint wins over a
// database, which wins over a file. The names of ignored targets are returned
// so callers can warn about them.
func ResolveTarget(filePath, apiURL, databaseURL, table string) (SinkTarget, []string) {
	var ignored []string
	target := SinkTarget{Table: table}

	switch {
	case apiURL != "":
		target.Kind, target.URL = SinkAPI, apiURL
		if databaseURL != "" {
			ignored = append(ignored, string(SinkPostgres))
		}
		if filePath != "" {
			ignored = append(ignored, string(SinkFile))
		}
	case databaseURL != "":
		target.Kind, target.URL = SinkPostgres, databaseURL
		if filePath != "" {
			ignored = append(ignored, string(SinkFile))
		}
	case filePath != "":
		target.Kind, target.Path = SinkFile, filePath
	}
	return target, ignored
}

// String renders the target without credentials-bearing DSNs.
func (t SinkTarget) String() string {
	switch t.Kind {
	case SinkFile:
		return "file:" + t.Path
	case SinkAPI:
		return "api:" + t.URL
	case SinkPostgres:
		return "postgres:" + t.Table
	default:
		return "none"
	}
}
