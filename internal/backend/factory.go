package backend

import (
	"context"
	"errors"
	"fmt"

	"salesops/internal/amqp"
	"salesops/internal/log"
	"salesops/internal/store/memory"
	"salesops/internal/storage"
)

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentBackend)
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create opens the configured store. A configured broker that cannot be
// reached is logged and skipped; writes then go unannounced.
func (f *DefaultFactory) Create(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		st      Store
		closeSt func() error
	)
	switch cfg.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}
		st, closeSt = repo, repo.Close
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case MemoryBackend:
		mem, err := memory.NewFromFile(cfg.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("initialize memory backend: %w", err)
		}
		st, closeSt = mem, mem.Close
		f.logger.InfoContext(ctx, "Initialized memory backend", "seed_file", cfg.SeedFile)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}

	res := &Result{Store: st}
	var client *amqp.Client
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change notifications",
				log.FieldError, err)
		} else {
			client = c
			res.Publisher = c
			f.logger.InfoContext(ctx, "Initialized AMQP publisher",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	res.Cleanup = func() error {
		var errs []error
		if client != nil {
			if err := client.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close amqp: %w", err))
			}
		}
		if err := closeSt(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
		return errors.Join(errs...)
	}
	return res, nil
}
