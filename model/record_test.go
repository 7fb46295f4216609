package model

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

// --- identity resolution ---

func TestParseRecord_uuidID(t *testing.T) {
	const id = "550e8400-e29b-41d4-a716-446655440000"
	rec, err := ParseRecord([]byte(`{"id":"` + id + `","name":"x"}`))
	if err != nil {
		t.Fatalf("ParseRecord error: %v", err)
	}
	if rec.ServerID != id {
		t.Errorf("ServerID = %q, want %q", rec.ServerID, id)
	}
	if rec.LocalID != uuid.MustParse(id) {
		t.Errorf("LocalID = %v, want %v", rec.LocalID, id)
	}
}

func TestParseRecord_numericID(t *testing.T) {
	rec, err := ParseRecord([]byte(`{"id":42,"name":"x"}`))
	if err != nil {
		t.Fatalf("ParseRecord error: %v", err)
	}
	if rec.ServerID != "42" {
		t.Errorf("ServerID = %q, want %q", rec.ServerID, "42")
	}
	if rec.LocalID == uuid.Nil {
		t.Error("LocalID must be freshly generated")
	}
}

func TestParseRecord_opaqueStringID(t *testing.T) {
	rec, err := ParseRecord([]byte(`{"id":"rec_0091"}`))
	if err != nil {
		t.Fatalf("ParseRecord error: %v", err)
	}
	if rec.ServerID != "rec_0091" {
		t.Errorf("ServerID = %q, want rec_0091", rec.ServerID)
	}
	if rec.LocalID == uuid.Nil {
		t.Error("LocalID must be freshly generated")
	}
}

func TestParseRecord_missingID(t *testing.T) {
	rec, err := ParseRecord([]byte(`{"name":"x"}`))
	if err != nil {
		t.Fatalf("ParseRecord error: %v", err)
	}
	if rec.ServerID != "" {
		t.Errorf("ServerID = %q, want empty", rec.ServerID)
	}
	if rec.LocalID == uuid.Nil {
		t.Error("LocalID must be freshly generated")
	}
}

// --- data decoding ---

func TestParseRecord_dataEntries(t *testing.T) {
	rec, err := ParseRecord([]byte(`{
		"id": 1,
		"name": "acme",
		"count": 10,
		"score": 9.5,
		"active": true,
		"note": null,
		"created_at": "2024-03-01T10:00:00Z",
		"updated_at": "2024-03-02T11:30:00Z"
	}`))
	if err != nil {
		t.Fatalf("ParseRecord error: %v", err)
	}

	if len(rec.Data) != 5 {
		t.Fatalf("len(Data) = %d, want 5", len(rec.Data))
	}
	if _, ok := rec.Data["id"]; ok {
		t.Error("id must not appear in Data")
	}
	if _, ok := rec.Data["created_at"]; ok {
		t.Error("created_at must not appear in Data")
	}
	if rec.Data["count"].Kind() != KindInt {
		t.Errorf("count kind = %v, want int", rec.Data["count"].Kind())
	}
	if rec.CreatedAt == nil || rec.UpdatedAt == nil {
		t.Fatal("timestamps must be parsed")
	}
	if rec.CreatedAt.Year() != 2024 {
		t.Errorf("CreatedAt = %v", rec.CreatedAt)
	}
}

func TestParseRecord_lossyFieldTolerance(t *testing.T) {
	// A nested array fails the scalar layer: the record still decodes with
	// that one key absent and flagged.
	rec, err := ParseRecord([]byte(`{"id":1,"name":"x","tags":["a","b"]}`))
	if err != nil {
		t.Fatalf("ParseRecord error: %v", err)
	}
	if _, ok := rec.Data["tags"]; ok {
		t.Error("tags must be dropped")
	}
	if _, ok := rec.Data["name"]; !ok {
		t.Error("name must survive")
	}
	if len(rec.Dropped) != 1 || rec.Dropped[0] != "tags" {
		t.Errorf("Dropped = %v, want [tags]", rec.Dropped)
	}
}

func TestParseRecord_badTimestampLeftAbsent(t *testing.T) {
	rec, err := ParseRecord([]byte(`{"id":1,"created_at":"not a date"}`))
	if err != nil {
		t.Fatalf("ParseRecord error: %v", err)
	}
	if rec.CreatedAt != nil {
		t.Errorf("CreatedAt = %v, want nil", rec.CreatedAt)
	}
}

func TestParseRecord_malformed(t *testing.T) {
	if _, err := ParseRecord([]byte(`[1,2]`)); err == nil {
		t.Fatal("expected error for non-object record")
	}
}

// --- encode asymmetry ---

func TestEncodeCreate_neverEmitsID(t *testing.T) {
	rec := NewRecord()
	rec.ServerID = "42"
	rec.Data["name"] = String("acme")

	encoded, err := rec.EncodeCreate()
	if err != nil {
		t.Fatalf("EncodeCreate error: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(encoded, &out); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if _, ok := out["id"]; ok {
		t.Error("EncodeCreate output must not contain id")
	}
	if out["name"] != "acme" {
		t.Errorf("name = %v, want acme", out["name"])
	}
}

func TestEncodeUpdate_usesServerID(t *testing.T) {
	rec := NewRecord()
	rec.ServerID = "42"
	rec.Data["name"] = String("acme")

	encoded, err := rec.EncodeUpdate()
	if err != nil {
		t.Fatalf("EncodeUpdate error: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(encoded, &out); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if out["id"] != "42" {
		t.Errorf("id = %v, want 42", out["id"])
	}
}

func TestEncodeUpdate_fallsBackToLocalID(t *testing.T) {
	rec := NewRecord()
	rec.Data["name"] = String("acme")

	encoded, err := rec.EncodeUpdate()
	if err != nil {
		t.Fatalf("EncodeUpdate error: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(encoded, &out); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if out["id"] != rec.LocalID.String() {
		t.Errorf("id = %v, want %v", out["id"], rec.LocalID)
	}
}

func TestEncodeCreate_jsonFieldSpecialCase(t *testing.T) {
	rec := NewRecord()
	rec.Data["extra_json"] = String(`{"a":1}`)
	rec.Data["note"] = String(`{"a":1}`) // no "json" in the key: stays a string

	encoded, err := rec.EncodeCreate()
	if err != nil {
		t.Fatalf("EncodeCreate error: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(encoded, &out); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}

	nested, ok := out["extra_json"].(map[string]any)
	if !ok {
		t.Fatalf("extra_json = %v (%T), want nested object", out["extra_json"], out["extra_json"])
	}
	if nested["a"] != float64(1) {
		t.Errorf("extra_json.a = %v, want 1", nested["a"])
	}
	if _, ok := out["note"].(string); !ok {
		t.Errorf("note = %v (%T), want escaped string", out["note"], out["note"])
	}
}

func TestEncodeCreate_jsonFieldInvalidStringStaysRaw(t *testing.T) {
	rec := NewRecord()
	rec.Data["extra_json"] = String("{not json")

	encoded, err := rec.EncodeCreate()
	if err != nil {
		t.Fatalf("EncodeCreate error: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(encoded, &out); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if out["extra_json"] != "{not json" {
		t.Errorf("extra_json = %v, want the raw string", out["extra_json"])
	}
}

func TestEncode_timestampsRoundTrip(t *testing.T) {
	rec, err := ParseRecord([]byte(`{"id":1,"name":"x","created_at":"2024-03-01T10:00:00Z"}`))
	if err != nil {
		t.Fatalf("ParseRecord error: %v", err)
	}
	encoded, err := rec.EncodeUpdate()
	if err != nil {
		t.Fatalf("EncodeUpdate error: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(encoded, &out); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if out["created_at"] != "2024-03-01T10:00:00Z" {
		t.Errorf("created_at = %v", out["created_at"])
	}
}

func TestWireID(t *testing.T) {
	rec := NewRecord()
	if rec.WireID() != rec.LocalID.String() {
		t.Errorf("WireID = %q, want local id", rec.WireID())
	}
	rec.ServerID = "99"
	if rec.WireID() != "99" {
		t.Errorf("WireID = %q, want 99", rec.WireID())
	}
}
