package companystore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/tablekit/remotectl/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "companies.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAdd_firstCompanyBecomesActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := model.NewCompany("acme", "https://acme.example.com", "s1")
	if err := s.Add(ctx, first); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	active, err := s.Active(ctx)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if active.ID != first.ID {
		t.Errorf("active = %s, want %s", active.ID, first.ID)
	}

	second := model.NewCompany("globex", "https://globex.example.com", "s2")
	if err := s.Add(ctx, second); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	active, err = s.Active(ctx)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if active.ID != first.ID {
		t.Error("adding a second company should not change the active one")
	}
}

func TestAdd_duplicateName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Add(ctx, model.NewCompany("acme", "https://a.example.com", "s")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	err := s.Add(ctx, model.NewCompany("acme", "https://b.example.com", "s"))
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("error = %v, want ErrDuplicateName", err)
	}
}

func TestList_orderedByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"globex", "acme", "initech"} {
		if err := s.Add(ctx, model.NewCompany(name, "https://x.example.com", "s")); err != nil {
			t.Fatalf("Add(%s) error = %v", name, err)
		}
	}

	companies, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"acme", "globex", "initech"}
	if len(companies) != len(want) {
		t.Fatalf("len = %d, want %d", len(companies), len(want))
	}
	for i, name := range want {
		if companies[i].Name != name {
			t.Errorf("companies[%d].Name = %q, want %q", i, companies[i].Name, name)
		}
	}
}

func TestSetActive_exactlyOneActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := model.NewCompany("acme", "https://a.example.com", "s")
	b := model.NewCompany("globex", "https://b.example.com", "s")
	for _, c := range []model.Company{a, b} {
		if err := s.Add(ctx, c); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	if err := s.SetActive(ctx, b.ID); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}

	companies, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	activeCount := 0
	for _, c := range companies {
		if c.IsActive {
			activeCount++
			if c.ID != b.ID {
				t.Errorf("active company = %s, want %s", c.ID, b.ID)
			}
		}
	}
	if activeCount != 1 {
		t.Errorf("active count = %d, want exactly 1", activeCount)
	}
}

func TestSetActive_unknownID(t *testing.T) {
	s := newTestStore(t)
	err := s.SetActive(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := model.NewCompany("acme", "https://a.example.com", "old-secret")
	if err := s.Add(ctx, c); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	c.URL = "https://new.example.com"
	c.Secret = "new-secret"
	if err := s.Update(ctx, c); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := s.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.URL != "https://new.example.com" || got.Secret != "new-secret" {
		t.Errorf("got = %+v", got)
	}
	if !got.IsActive {
		t.Error("update should not clear the active flag")
	}
}

func TestUpdate_unknownID(t *testing.T) {
	s := newTestStore(t)
	c := model.NewCompany("ghost", "https://g.example.com", "s")
	if err := s.Update(context.Background(), c); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDelete_activeCompanyLeavesNoneActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := model.NewCompany("acme", "https://a.example.com", "s")
	if err := s.Add(ctx, c); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := s.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := s.Active(ctx); !errors.Is(err, ErrNoActive) {
		t.Errorf("Active() error = %v, want ErrNoActive", err)
	}
	companies, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(companies) != 0 {
		t.Errorf("len = %d, want 0", len(companies))
	}
}

func TestGetByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := model.NewCompany("acme", "https://a.example.com", "s")
	if err := s.Add(ctx, c); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got, err := s.GetByName(ctx, "acme")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if got.ID != c.ID {
		t.Errorf("ID = %s, want %s", got.ID, c.ID)
	}

	if _, err := s.GetByName(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestOpen_persistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "companies.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	c := model.NewCompany("acme", "https://a.example.com", "s")
	if err := s.Add(ctx, c); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s2.Close()

	got, err := s2.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got.Name != "acme" {
		t.Errorf("Name = %q, want acme", got.Name)
	}
}
