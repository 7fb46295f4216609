package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reserved top-level keys that never become data entries.
const (
	keyID        = "id"
	keyCreatedAt = "created_at"
	keyUpdatedAt = "updated_at"
)

// timestampLayouts are tried in order when parsing created_at/updated_at.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Record is one row of dynamic, schema-typed data. Identity is tracked in
// two fields with different stability requirements: LocalID is the
// client-generated key UI layers can rely on, ServerID is the backend's
// identifier in string form and is the only one ever used for wire
// addressing. ServerID is empty until the backend assigns one.
type Record struct {
	LocalID  uuid.UUID
	ServerID string

	Data map[string]Value

	CreatedAt *time.Time
	UpdatedAt *time.Time

	// Dropped lists field names whose values failed scalar decode and were
	// omitted from Data. Callers are expected to log these.
	Dropped []string
}

// NewRecord returns an empty record with a fresh local identity, ready to be
// populated by a form before a create request.
func NewRecord() *Record {
	return &Record{LocalID: uuid.New(), Data: make(map[string]Value)}
}

// WireID returns the identifier to address this record with on the wire:
// the server id when present, else the local id's string form.
func (r *Record) WireID() string {
	if r.ServerID != "" {
		return r.ServerID
	}
	return r.LocalID.String()
}

// ParseRecord decodes an arbitrary JSON object into a Record.
//
// The id key resolves identity: a UUID-shaped string becomes both the local
// and server id, any other string or a number becomes the server id with a
// fresh local id, and a missing id leaves the server id empty. Every other
// key except created_at/updated_at becomes a data entry decoded through the
// scalar value codec; entries that fail are recorded in Dropped rather than
// failing the record. Timestamp parse failures leave the field absent.
func ParseRecord(data []byte) (*Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewDecodeError("record: malformed object", err)
	}

	rec := &Record{Data: make(map[string]Value, len(raw))}
	rec.LocalID, rec.ServerID = resolveIdentity(raw[keyID])

	for key, rawValue := range raw {
		switch key {
		case keyID:
			continue
		case keyCreatedAt:
			rec.CreatedAt = parseTimestamp(rawValue)
		case keyUpdatedAt:
			rec.UpdatedAt = parseTimestamp(rawValue)
		default:
			value, err := DecodeScalar(rawValue)
			if err != nil {
				rec.Dropped = append(rec.Dropped, key)
				continue
			}
			rec.Data[key] = value
		}
	}

	return rec, nil
}

// resolveIdentity inspects the raw id value. Absent or unusable ids yield a
// fresh local id and no server id.
func resolveIdentity(rawID json.RawMessage) (local uuid.UUID, server string) {
	if rawID == nil {
		return uuid.New(), ""
	}

	var s string
	if err := json.Unmarshal(rawID, &s); err == nil {
		if parsed, err := uuid.Parse(s); err == nil {
			return parsed, s
		}
		return uuid.New(), s
	}

	var num json.Number
	if err := json.Unmarshal(rawID, &num); err == nil {
		return uuid.New(), num.String()
	}

	return uuid.New(), ""
}

func parseTimestamp(raw json.RawMessage) *time.Time {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// EncodeCreate encodes the record for a POST body. The id is never emitted.
func (r *Record) EncodeCreate() ([]byte, error) {
	return r.encode(false)
}

// EncodeUpdate encodes the record for a PUT body. Unlike EncodeCreate it
// emits an id key (the server id when present, else the local id's string
// form) because updates must address an existing row.
func (r *Record) EncodeUpdate() ([]byte, error) {
	return r.encode(true)
}

func (r *Record) encode(includeID bool) ([]byte, error) {
	out := make(map[string]any, len(r.Data)+3)

	for key, value := range r.Data {
		out[key] = encodeEntry(key, value)
	}

	if includeID {
		out[keyID] = r.WireID()
	}
	if r.CreatedAt != nil {
		out[keyCreatedAt] = r.CreatedAt.Format(time.RFC3339)
	}
	if r.UpdatedAt != nil {
		out[keyUpdatedAt] = r.UpdatedAt.Format(time.RFC3339)
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		return nil, NewEncodeError("record: " + err.Error())
	}
	return encoded, nil
}

// encodeEntry emits a data entry. A string value under a key whose name
// contains "json" is emitted as the parsed JSON structure when it parses,
// so nested JSON fields are not double-encoded as escaped strings.
func encodeEntry(key string, value Value) any {
	if s, ok := value.AsString(); ok && strings.Contains(strings.ToLower(key), "json") {
		if json.Valid([]byte(s)) {
			return json.RawMessage(s)
		}
	}
	return value
}
