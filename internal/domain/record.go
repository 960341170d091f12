package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field names produced by the default listing extractor.
const (
	FieldTitle = "Title"
	FieldImage = "Image"
	FieldLink  = "Link"
)

// Field is a single named value inside a Record.
type Field struct {
	Name  string
	Value string
}

// Record is an ordered, immutable mapping of field name to value.
type Record struct {
	fields []Field
}

// NewRecord builds a record from fields in the given order. A repeated name
// keeps its first position and takes the last value.
func NewRecord(fields ...Field) Record {
	out := make([]Field, 0, len(fields))
	index := make(map[string]int, len(fields))
	for _, f := range fields {
		if i, ok := index[f.Name]; ok {
			out[i].Value = f.Value
			continue
		}
		index[f.Name] = len(out)
		out = append(out, f)
	}
	return Record{fields: out}
}

// Get returns the value stored under name.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.fields)
}

// Names returns the field names in order.
func (r Record) Names() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

// Values returns the field values in order.
func (r Record) Values() []string {
	values := make([]string, len(r.fields))
	for i, f := range r.fields {
		values[i] = f.Value
	}
	return values
}

// Fields returns a copy of the ordered fields.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// SameShape reports whether both records carry the same field names in the same order.
func (r Record) SameShape(other Record) bool {
	if len(r.fields) != len(other.fields) {
		return false
	}
	for i := range r.fields {
		if r.fields[i].Name != other.fields[i].Name {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the record as a flat object, keeping field order and
// leaving HTML characters unescaped.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(f.Name); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1) // Encode appends a newline
		buf.WriteByte(':')
		if err := enc.Encode(f.Value); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat object of string values, keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record: expected object, got %v", tok)
	}

	var fields []Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("record: unexpected key %v", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		switch v := value.(type) {
		case string:
			fields = append(fields, Field{Name: key, Value: v})
		case nil:
			fields = append(fields, Field{Name: key})
		default:
			fields = append(fields, Field{Name: key, Value: fmt.Sprint(v)})
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = NewRecord(fields...)
	return nil
}

// Columns returns the field names of the first record and checks that every
// other record has exactly the same names in the same order.
func Columns(records []Record) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}
	first := records[0]
	for i, r := range records[1:] {
		if !r.SameShape(first) {
			return nil, fmt.Errorf("%w: record %d has fields %v, want %v", ErrSchemaMismatch, i+1, r.Names(), first.Names())
		}
	}
	return first.Names(), nil
}
