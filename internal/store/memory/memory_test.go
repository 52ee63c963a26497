package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"salesops/internal/core"
	"salesops/internal/store"
)

func event(id string, created time.Time) core.Event {
	return core.Event{
		ID:                  id,
		EventType:           core.EventQuote,
		Date:                created,
		CustomerName:        "Acme",
		SalesRepresentative: core.StringPtr("Clare"),
		Price:               core.Float64Ptr(100),
		CreatedAt:           created,
	}
}

func TestStoreEventLifecycle(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	s := New(event("a", t0))

	if _, err := s.CreateEvent(ctx, event("b", t0.Add(time.Hour))); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := s.ListEvents(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("list: %v %v", list, err)
	}
	if list[0].ID != "b" {
		t.Fatalf("expected newest first, got %s", list[0].ID)
	}

	upd := list[1]
	upd.Status = "Completed"
	if _, err := s.UpdateEvent(ctx, upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetEvent(ctx, "a")
	if err != nil || got.Status != "Completed" || !got.CreatedAt.Equal(t0) {
		t.Fatalf("get after update: %+v %v", got, err)
	}

	if err := s.DeleteEvent(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetEvent(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteEvent(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStoreRejectsInvalidEvent(t *testing.T) {
	bad := event("x", time.Now())
	bad.CustomerName = ""
	if _, err := New().CreateEvent(context.Background(), bad); !errors.Is(err, core.ErrEmptyCustomer) {
		t.Fatalf("expected ErrEmptyCustomer, got %v", err)
	}
}

func TestStoreSnapshotsDoNotAlias(t *testing.T) {
	ctx := context.Background()
	s := New(event("a", time.Now()))

	list, _ := s.ListEvents(ctx)
	*list[0].Price = 999
	*list[0].SalesRepresentative = "Mallory"

	again, _ := s.GetEvent(ctx, "a")
	if *again.Price != 100 || *again.SalesRepresentative != "Clare" {
		t.Fatalf("caller mutation leaked into store: %+v", again)
	}
}

func TestStoreCompanies(t *testing.T) {
	ctx := context.Background()
	s := New()

	c, err := s.CreateCompany(ctx, core.Company{CompanyName: "Acme", CompanyNumber: "CMP-000001"})
	if err != nil || c.ID == "" {
		t.Fatalf("create: %+v %v", c, err)
	}
	if _, err := s.CreateCompany(ctx, core.Company{CompanyName: "acme", CompanyNumber: "CMP-000002"}); !errors.Is(err, store.ErrCompanyExists) {
		t.Fatalf("duplicate name: %v", err)
	}
	if _, err := s.CreateCompany(ctx, core.Company{CompanyName: "Other", CompanyNumber: "CMP-000001"}); !errors.Is(err, store.ErrCompanyExists) {
		t.Fatalf("duplicate number: %v", err)
	}
	if _, err := s.CreateCompany(ctx, core.Company{}); !errors.Is(err, core.ErrEmptyCompanyName) {
		t.Fatalf("blank name: %v", err)
	}

	list, _ := s.ListCompanies(ctx)
	if len(list) != 1 {
		t.Fatalf("expected one company, got %v", list)
	}
	if err := s.DeleteCompany(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteCompany(ctx, c.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewFromFile(t *testing.T) {
	s, err := NewFromFile("")
	if err != nil {
		t.Fatalf("empty path: %v", err)
	}
	if list, _ := s.ListEvents(context.Background()); len(list) != 0 {
		t.Fatalf("expected empty store")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "seed.json")
	seed := `{
  "events": [
    {"id": "e1", "eventType": "ORDER", "date": "2025-04-02T10:00:00Z", "poReceived": true,
     "price": 600, "salesRepresentative": "Shaun", "customerName": "Acme", "status": "Pending"}
  ],
  "companies": [{"id": "c1", "companyName": "Acme", "companyNumber": "CMP-123456"}]
}`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	e, err := s.GetEvent(context.Background(), "e1")
	if err != nil || e.Amount() != 600 || e.Representative() != "Shaun" {
		t.Fatalf("seeded event: %+v %v", e, err)
	}
	companies, _ := s.ListCompanies(context.Background())
	if len(companies) != 1 {
		t.Fatalf("seeded companies: %v", companies)
	}

	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}
