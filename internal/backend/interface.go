// Package backend builds the event and company store selected by
// configuration, together with the change publisher that goes with it.
package backend

import (
	"context"

	"salesops/internal/services"
	"salesops/internal/store"
)

// Store is everything the application needs from a storage backend.
type Store interface {
	store.EventStore
	store.CompanyStore
	Ping(ctx context.Context) error
}

type CleanupFunc func() error

// Result is a ready backend. Publisher is nil when change notifications
// are disabled.
type Result struct {
	Store     Store
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

type Factory interface {
	Create(ctx context.Context, cfg Config) (*Result, error)
}

type Type string

const (
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
)

func (t Type) IsValid() bool {
	return t == MemoryBackend || t == SQLiteBackend
}

func (t Type) String() string {
	return string(t)
}

type Config struct {
	Type Type

	// Memory
	SeedFile string

	// SQLite
	SQLiteDBPath string

	// AMQP, optional for either backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}
