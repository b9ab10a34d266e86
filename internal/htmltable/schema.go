package htmltable

import "fmt"

// Schema declares the expected shape of one table kind: its ordered field
// names and the minimum number of columns a row must carry before any of
// them may be indexed. Min defaults to len(Fields).
type Schema struct {
	Kind   string
	Fields []string
	Min    int
}

// SchemaError reports a row that cannot be read as its record type. Either
// the row is narrower than the schema minimum, or a single named field did
// not parse.
type SchemaError struct {
	Kind  string
	Field string
	Want  int
	Got   int
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("htmltable: %s row: malformed %s", e.Kind, e.Field)
	}
	return fmt.Sprintf("htmltable: %s row has %d columns, need at least %d", e.Kind, e.Got, e.Want)
}

// Check validates the row's width. Indexing via Col is only safe after
// Check returns nil.
func (s Schema) Check(row Row) error {
	min := s.Min
	if min == 0 {
		min = len(s.Fields)
	}
	if len(row) < min {
		return &SchemaError{Kind: s.Kind, Want: min, Got: len(row)}
	}
	return nil
}

// Col returns the position of a named field. Unknown names panic: they are
// programming errors, not remote conditions.
func (s Schema) Col(name string) int {
	for i, f := range s.Fields {
		if f == name {
			return i
		}
	}
	panic("htmltable: schema " + s.Kind + " has no field " + name)
}

// Malformed builds the field-level error for a cell that failed to parse.
func (s Schema) Malformed(field string) *SchemaError {
	return &SchemaError{Kind: s.Kind, Field: field}
}
