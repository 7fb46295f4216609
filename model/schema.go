package model

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// FieldType is the closed set of field kinds a backend schema may declare.
type FieldType string

const (
	FieldString   FieldType = "string"
	FieldText     FieldType = "text"
	FieldInteger  FieldType = "integer"
	FieldDecimal  FieldType = "decimal"
	FieldBoolean  FieldType = "boolean"
	FieldDate     FieldType = "date"
	FieldDateTime FieldType = "datetime"
	FieldEmail    FieldType = "email"
	FieldURL      FieldType = "url"
	FieldPassword FieldType = "password"
	FieldJSON     FieldType = "json"
)

// FieldTypes lists every declared field type, in schema-document order.
var FieldTypes = []FieldType{
	FieldString, FieldText, FieldInteger, FieldDecimal, FieldBoolean,
	FieldDate, FieldDateTime, FieldEmail, FieldURL, FieldPassword, FieldJSON,
}

// ParseFieldType validates a wire type string against the closed enum.
func ParseFieldType(s string) (FieldType, error) {
	for _, t := range FieldTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", NewDecodeError(fmt.Sprintf("schema: unknown field type %q", s), nil)
}

// Field describes one column of a table: its wire name, declared type, and
// the independent readonly/required bits. The ID is a local identity assigned
// at decode time; the server does not supply one.
type Field struct {
	ID       uuid.UUID
	Name     string
	Type     FieldType
	ReadOnly bool
	Required bool
}

// Table is a named, ordered list of fields.
type Table struct {
	ID     uuid.UUID
	Name   string
	Fields []Field
}

// Field returns the field with the given name.
func (t Table) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Schema is the server-declared description of available tables. It is
// constructed once per fetch and immutable thereafter; a re-fetch replaces
// it wholesale.
type Schema struct {
	Tables []Table
}

// Table returns the table with the given name.
func (s *Schema) Table(name string) (Table, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// TableNames returns the table names in schema order.
func (s *Schema) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// wireTable is a table as the backend's schema document declares it.
type wireTable struct {
	Name   *string     `json:"name"`
	Fields []wireField `json:"fields"`
}

type wireField struct {
	Name     *string `json:"name"`
	Type     string  `json:"type"`
	ReadOnly bool    `json:"readonly"`
	Required bool    `json:"required"`
}

// ParseSchema decodes a schema document. Each table and field receives a
// fresh local identity; readonly and required default to false when absent.
// Missing name or fields/tables keys and unknown type strings fail with a
// DECODE_ERROR.
func ParseSchema(data []byte) (*Schema, error) {
	var doc struct {
		Tables *[]wireTable `json:"tables"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, NewDecodeError("schema: malformed document", err)
	}
	if doc.Tables == nil {
		return nil, NewDecodeError("schema: missing tables key", nil)
	}

	schema := &Schema{Tables: make([]Table, 0, len(*doc.Tables))}
	for i, wt := range *doc.Tables {
		if wt.Name == nil || *wt.Name == "" {
			return nil, NewDecodeError(fmt.Sprintf("schema: table %d: missing name", i), nil)
		}
		if wt.Fields == nil {
			return nil, NewDecodeError(fmt.Sprintf("schema: table %q: missing fields", *wt.Name), nil)
		}

		table := Table{ID: uuid.New(), Name: *wt.Name, Fields: make([]Field, 0, len(wt.Fields))}
		for j, wf := range wt.Fields {
			if wf.Name == nil || *wf.Name == "" {
				return nil, NewDecodeError(
					fmt.Sprintf("schema: table %q: field %d: missing name", table.Name, j), nil)
			}
			ftype, err := ParseFieldType(wf.Type)
			if err != nil {
				return nil, NewDecodeError(
					fmt.Sprintf("schema: table %q: field %q: unknown type %q", table.Name, *wf.Name, wf.Type), nil)
			}
			table.Fields = append(table.Fields, Field{
				ID:       uuid.New(),
				Name:     *wf.Name,
				Type:     ftype,
				ReadOnly: wf.ReadOnly,
				Required: wf.Required,
			})
		}
		schema.Tables = append(schema.Tables, table)
	}

	return schema, nil
}
