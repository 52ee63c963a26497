// Package memory is an in-process implementation of the store ports, used
// for development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"salesops/internal/core"
	"salesops/internal/store"
)

type Store struct {
	mu        sync.Mutex
	events    []core.Event
	companies []core.Company
	now       func() time.Time
}

// Seed is the on-disk format read by NewFromFile.
type Seed struct {
	Events    []core.Event   `json:"events"`
	Companies []core.Company `json:"companies"`
}

func New(events ...core.Event) *Store {
	s := &Store{now: time.Now}
	for _, e := range events {
		s.events = append(s.events, cloneEvent(e))
	}
	return s
}

// NewFromFile seeds a store from a JSON file. A missing path yields an
// empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	for _, e := range seed.Events {
		s.events = append(s.events, cloneEvent(e))
	}
	s.companies = append(s.companies, seed.Companies...)
	return s, nil
}

// ListEvents returns copies of all events, newest first by creation time.
func (s *Store) ListEvents(_ context.Context) ([]core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Event, len(s.events))
	for i, e := range s.events {
		out[i] = cloneEvent(e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetEvent(_ context.Context, id string) (core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Event{}, fmt.Errorf("event %s: %w", id, store.ErrNotFound)
	}
	return cloneEvent(s.events[i]), nil
}

func (s *Store) CreateEvent(_ context.Context, e core.Event) (core.Event, error) {
	if err := e.Validate(); err != nil {
		return core.Event{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = fmt.Sprintf("mem-%d", len(s.events)+1)
	}
	if s.indexOf(e.ID) >= 0 {
		return core.Event{}, fmt.Errorf("event %s already stored", e.ID)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	s.events = append(s.events, cloneEvent(e))
	return cloneEvent(e), nil
}

func (s *Store) UpdateEvent(_ context.Context, e core.Event) (core.Event, error) {
	if err := e.Validate(); err != nil {
		return core.Event{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(e.ID)
	if i < 0 {
		return core.Event{}, fmt.Errorf("event %s: %w", e.ID, store.ErrNotFound)
	}
	e.CreatedAt = s.events[i].CreatedAt
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = s.now()
	}
	s.events[i] = cloneEvent(e)
	return cloneEvent(e), nil
}

func (s *Store) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("event %s: %w", id, store.ErrNotFound)
	}
	s.events = append(s.events[:i], s.events[i+1:]...)
	return nil
}

func (s *Store) ListCompanies(_ context.Context) ([]core.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Company(nil), s.companies...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateCompany(_ context.Context, c core.Company) (core.Company, error) {
	if err := c.Validate(); err != nil {
		return core.Company{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.companies {
		if strings.EqualFold(existing.CompanyName, c.CompanyName) ||
			(c.CompanyNumber != "" && existing.CompanyNumber == c.CompanyNumber) {
			return core.Company{}, store.ErrCompanyExists
		}
	}
	if c.ID == "" {
		c.ID = fmt.Sprintf("mem-company-%d", len(s.companies)+1)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.companies = append(s.companies, c)
	return c, nil
}

func (s *Store) DeleteCompany(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.companies {
		if c.ID == id {
			s.companies = append(s.companies[:i], s.companies[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("company %s: %w", id, store.ErrNotFound)
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) indexOf(id string) int {
	for i, e := range s.events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// cloneEvent copies the pointer fields so callers never alias stored state.
func cloneEvent(e core.Event) core.Event {
	if e.Price != nil {
		e.Price = core.Float64Ptr(*e.Price)
	}
	if e.SalesRepresentative != nil {
		e.SalesRepresentative = core.StringPtr(*e.SalesRepresentative)
	}
	if e.LineOfWork != nil {
		e.LineOfWork = core.StringPtr(*e.LineOfWork)
	}
	return e
}
