package domain

import "errors"

var (
	// ErrNavigation is returned when the renderer cannot load or drive a page.
	ErrNavigation = errors.New("navigation failed")
	// ErrParse is returned when rendered markup cannot be turned into a document.
	ErrParse = errors.New("markup could not be parsed")
	// ErrUnsupportedFormat is returned for an output file with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported output format")
	// ErrSchemaMismatch is returned when records in one batch carry different field sets.
	ErrSchemaMismatch = errors.New("records do not share the same fields")
	// ErrPublishFailed is returned when every publish attempt failed.
	ErrPublishFailed = errors.New("publish failed after all retries")
	// ErrNoTarget is returned when no sink is configured.
	ErrNoTarget = errors.New("no sink target configured")
)
