package integration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tablekit/remotectl/internal/client"
	"github.com/tablekit/remotectl/internal/companystore"
	"github.com/tablekit/remotectl/internal/config"
	"github.com/tablekit/remotectl/model"
)

const testSecret = "integration-secret"

// Harness wires a mock backend, a company store, and a client the way the
// CLI does.
type Harness struct {
	Backend *MockBackend
	Store   *companystore.Store
	Client  *client.Client
	Company model.Company
}

// contactsSchema is the schema document the mock backend serves.
func contactsSchema() map[string]any {
	return map[string]any{
		"tables": []map[string]any{
			{
				"name": "contacts",
				"fields": []map[string]any{
					{"name": "email", "type": "email", "required": true},
					{"name": "name", "type": "string"},
					{"name": "age", "type": "integer"},
					{"name": "balance", "type": "decimal"},
					{"name": "active", "type": "boolean"},
					{"name": "joined", "type": "date"},
					{"name": "profile_json", "type": "json"},
				},
			},
			{
				"name": "notes",
				"fields": []map[string]any{
					{"name": "body", "type": "text", "required": true},
					{"name": "pinned", "type": "boolean"},
				},
			},
		},
	}
}

// NewHarness starts a mock backend, registers it as the active company in a
// temp store, and returns a connected client.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	backend := NewMockBackend(t, testSecret, contactsSchema(), map[string][]string{
		"contacts": {"email"},
		"notes":    {"body"},
	})

	store, err := companystore.Open(filepath.Join(t.TempDir(), "companies.db"))
	if err != nil {
		t.Fatalf("open company store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	company := model.NewCompany("integration", backend.URL(), testSecret)
	if err := store.Add(context.Background(), company); err != nil {
		t.Fatalf("add company: %v", err)
	}

	active, err := store.Active(context.Background())
	if err != nil {
		t.Fatalf("resolve active company: %v", err)
	}

	c, err := client.New(active, config.Defaults().Client)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	return &Harness{
		Backend: backend,
		Store:   store,
		Client:  c,
		Company: active,
	}
}
