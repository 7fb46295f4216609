package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// MockBackend simulates a schema-defined remote backend over /api/remote/*.
// It keeps records in memory with integer auto-increment ids, enforces
// required fields, and honors the X-Remote-Secret header.
type MockBackend struct {
	t      *testing.T
	server *httptest.Server
	secret string

	mu       sync.Mutex
	schema   map[string]any
	tables   map[string]*mockTable
	requests []RecordedRequest
}

type mockTable struct {
	nextID   int
	order    []int
	rows     map[int]map[string]any
	required []string
}

// RecordedRequest captures one request received by the mock backend.
type RecordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Secret string
	Body   map[string]any
}

// NewMockBackend starts a backend with the given schema document and required
// fields per table.
func NewMockBackend(t *testing.T, secret string, schema map[string]any, required map[string][]string) *MockBackend {
	t.Helper()

	mb := &MockBackend{
		t:      t,
		secret: secret,
		schema: schema,
		tables: make(map[string]*mockTable),
	}
	for name, fields := range required {
		mb.tables[name] = &mockTable{
			nextID:   1,
			rows:     make(map[int]map[string]any),
			required: fields,
		}
	}

	mb.server = httptest.NewServer(http.HandlerFunc(mb.handle))
	t.Cleanup(mb.server.Close)
	return mb
}

// URL returns the backend's base URL.
func (mb *MockBackend) URL() string {
	return mb.server.URL
}

// Seed inserts a row directly and returns its id.
func (mb *MockBackend) Seed(table string, data map[string]any) int {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	tbl := mb.mustTable(table)
	id := tbl.nextID
	tbl.nextID++

	row := make(map[string]any, len(data)+2)
	for k, v := range data {
		row[k] = v
	}
	row["created_at"] = time.Now().UTC().Format(time.RFC3339)
	row["updated_at"] = row["created_at"]
	tbl.rows[id] = row
	tbl.order = append(tbl.order, id)
	return id
}

// Row returns a copy of a stored row, or nil.
func (mb *MockBackend) Row(table string, id int) map[string]any {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	row, ok := mb.mustTable(table).rows[id]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// Requests returns all recorded requests.
func (mb *MockBackend) Requests() []RecordedRequest {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	out := make([]RecordedRequest, len(mb.requests))
	copy(out, mb.requests)
	return out
}

func (mb *MockBackend) mustTable(name string) *mockTable {
	tbl, ok := mb.tables[name]
	if !ok {
		mb.t.Fatalf("mock backend: unknown table %q", name)
	}
	return tbl
}

func (mb *MockBackend) handle(w http.ResponseWriter, r *http.Request) {
	rec := RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  make(map[string]string),
		Secret: r.Header.Get("X-Remote-Secret"),
	}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			rec.Query[key] = values[0]
		}
	}
	if r.Body != nil {
		var parsed map[string]any
		if err := json.NewDecoder(r.Body).Decode(&parsed); err == nil {
			rec.Body = parsed
		}
	}

	mb.mu.Lock()
	mb.requests = append(mb.requests, rec)
	mb.mu.Unlock()

	if rec.Secret != mb.secret {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "invalid secret"})
		return
	}

	rest, ok := strings.CutPrefix(r.URL.Path, "/api/remote/")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case rest == "check-access":
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	case rest == "schema":
		writeJSON(w, http.StatusOK, mb.schema)
	default:
		mb.handleRecords(w, r, rest, rec.Body)
	}
}

func (mb *MockBackend) handleRecords(w http.ResponseWriter, r *http.Request, rest string, body map[string]any) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	table, idPart, hasID := strings.Cut(rest, "/")
	tbl, ok := mb.tables[table]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "no such table"})
		return
	}

	if !hasID {
		switch r.Method {
		case http.MethodGet:
			mb.listRows(w, r, tbl)
		case http.MethodPost:
			mb.createRow(w, tbl, body)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id, err := strconv.Atoi(idPart)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "bad id"})
		return
	}
	row, exists := tbl.rows[id]
	if !exists {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "no such record"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, rowPayload(id, row))
	case http.MethodPut:
		if verr := validate(tbl, body); verr != nil {
			writeJSON(w, http.StatusBadRequest, verr)
			return
		}
		for k, v := range body {
			if k == "id" {
				continue
			}
			row[k] = v
		}
		row["updated_at"] = time.Now().UTC().Format(time.RFC3339)
		writeJSON(w, http.StatusOK, rowPayload(id, row))
	case http.MethodDelete:
		delete(tbl.rows, id)
		for i, v := range tbl.order {
			if v == id {
				tbl.order = append(tbl.order[:i], tbl.order[i+1:]...)
				break
			}
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (mb *MockBackend) listRows(w http.ResponseWriter, r *http.Request, tbl *mockTable) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	total := len(tbl.order)
	pages := (total + limit - 1) / limit
	start := (page - 1) * limit
	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	data := make([]map[string]any, 0, end-start)
	for _, id := range tbl.order[start:end] {
		data = append(data, rowPayload(id, tbl.rows[id]))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": data,
		"pagination": map[string]any{
			"page":     page,
			"limit":    limit,
			"total":    total,
			"pages":    pages,
			"has_more": end < total,
		},
	})
}

func (mb *MockBackend) createRow(w http.ResponseWriter, tbl *mockTable, body map[string]any) {
	if verr := validate(tbl, body); verr != nil {
		writeJSON(w, http.StatusBadRequest, verr)
		return
	}

	id := tbl.nextID
	tbl.nextID++

	row := make(map[string]any, len(body)+2)
	for k, v := range body {
		if k == "id" {
			continue
		}
		row[k] = v
	}
	row["created_at"] = time.Now().UTC().Format(time.RFC3339)
	row["updated_at"] = row["created_at"]
	tbl.rows[id] = row
	tbl.order = append(tbl.order, id)

	writeJSON(w, http.StatusCreated, rowPayload(id, row))
}

// validate checks required fields and returns a validation error body in the
// shape real backends emit, or nil.
func validate(tbl *mockTable, body map[string]any) map[string]any {
	var fieldErrors []map[string]any
	for _, name := range tbl.required {
		v, present := body[name]
		if !present || v == nil || v == "" {
			fieldErrors = append(fieldErrors, map[string]any{
				"field":   name,
				"message": fmt.Sprintf("%s is required", name),
			})
		}
	}
	if len(fieldErrors) == 0 {
		return nil
	}
	return map[string]any{
		"message":      "Validation failed",
		"field_errors": fieldErrors,
	}
}

func rowPayload(id int, row map[string]any) map[string]any {
	out := make(map[string]any, len(row)+1)
	out["id"] = id
	for k, v := range row {
		out[k] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
