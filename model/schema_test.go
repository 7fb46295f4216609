package model

import (
	"testing"

	"github.com/google/uuid"
)

const sampleSchemaJSON = `{
	"tables": [
		{
			"name": "companies",
			"fields": [
				{"name": "id", "type": "integer", "readonly": true},
				{"name": "name", "type": "string", "required": true},
				{"name": "email", "type": "email", "required": true},
				{"name": "settings_json", "type": "json"},
				{"name": "created_at", "type": "datetime", "readonly": true}
			]
		},
		{
			"name": "users",
			"fields": [
				{"name": "username", "type": "string", "required": true},
				{"name": "password", "type": "password", "required": true},
				{"name": "active", "type": "boolean"},
				{"name": "balance", "type": "decimal"},
				{"name": "birthday", "type": "date"},
				{"name": "homepage", "type": "url"},
				{"name": "bio", "type": "text"}
			]
		}
	]
}`

func TestParseSchema_success(t *testing.T) {
	schema, err := ParseSchema([]byte(sampleSchemaJSON))
	if err != nil {
		t.Fatalf("ParseSchema error: %v", err)
	}
	if len(schema.Tables) != 2 {
		t.Fatalf("len(Tables) = %d, want 2", len(schema.Tables))
	}

	companies, ok := schema.Table("companies")
	if !ok {
		t.Fatal("companies table not found")
	}
	if len(companies.Fields) != 5 {
		t.Fatalf("len(Fields) = %d, want 5", len(companies.Fields))
	}

	id, ok := companies.Field("id")
	if !ok {
		t.Fatal("id field not found")
	}
	if id.Type != FieldInteger {
		t.Errorf("id type = %v, want integer", id.Type)
	}
	if !id.ReadOnly {
		t.Error("id must be readonly")
	}
	if id.Required {
		t.Error("required must default to false")
	}
	if id.ID == uuid.Nil {
		t.Error("field must receive a local identity")
	}

	name, _ := companies.Field("name")
	if !name.Required || name.ReadOnly {
		t.Errorf("name flags = readonly:%v required:%v", name.ReadOnly, name.Required)
	}
}

func TestParseSchema_readonlyAndRequiredIndependent(t *testing.T) {
	schema, err := ParseSchema([]byte(`{
		"tables": [{"name": "t", "fields": [
			{"name": "locked", "type": "string", "readonly": true, "required": true}
		]}]
	}`))
	if err != nil {
		t.Fatalf("ParseSchema error: %v", err)
	}
	f, _ := schema.Tables[0].Field("locked")
	if !f.ReadOnly || !f.Required {
		t.Errorf("flags = readonly:%v required:%v, want both true", f.ReadOnly, f.Required)
	}
}

func TestParseSchema_errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing tables key", `{"version": 1}`},
		{"missing table name", `{"tables": [{"fields": []}]}`},
		{"missing fields key", `{"tables": [{"name": "t"}]}`},
		{"missing field name", `{"tables": [{"name": "t", "fields": [{"type": "string"}]}]}`},
		{"unknown field type", `{"tables": [{"name": "t", "fields": [{"name": "f", "type": "blob"}]}]}`},
		{"malformed document", `{"tables": `},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSchema([]byte(tc.input))
			if err == nil {
				t.Fatal("expected error")
			}
			envErr, ok := err.(*ErrorEnvelope)
			if !ok {
				t.Fatalf("error type = %T, want *ErrorEnvelope", err)
			}
			if envErr.Code != ErrDecodeError {
				t.Errorf("code = %s, want %s", envErr.Code, ErrDecodeError)
			}
		})
	}
}

func TestParseFieldType(t *testing.T) {
	for _, ft := range FieldTypes {
		got, err := ParseFieldType(string(ft))
		if err != nil {
			t.Errorf("ParseFieldType(%q) error: %v", ft, err)
		}
		if got != ft {
			t.Errorf("ParseFieldType(%q) = %v", ft, got)
		}
	}
	if _, err := ParseFieldType("uuid"); err == nil {
		t.Error("ParseFieldType(uuid): expected error")
	}
}

func TestSchema_tableNames(t *testing.T) {
	schema, err := ParseSchema([]byte(sampleSchemaJSON))
	if err != nil {
		t.Fatalf("ParseSchema error: %v", err)
	}
	names := schema.TableNames()
	if len(names) != 2 || names[0] != "companies" || names[1] != "users" {
		t.Errorf("TableNames = %v", names)
	}
}
