// Package services holds the application use cases: recording sales
// events and companies, and computing reports from the event log.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"salesops/internal/amqp"
	"salesops/internal/core"
	"salesops/internal/log"
	"salesops/internal/metrics"
	"salesops/internal/store"
)

// Publisher announces event writes to other processes.
type Publisher interface {
	PublishEventChanged(ctx context.Context, eventID string, op amqp.Operation) error
}

// EventService validates and stores sales events. After every successful
// write it notifies subscribers in-process and publishes a change message;
// neither can fail the write.
type EventService struct {
	store     store.EventStore
	publisher Publisher
	logger    *log.Logger
	now       func() time.Time
	newID     func() string

	mu        sync.RWMutex
	listeners []func()
}

type EventServiceOption func(*EventService)

// WithPublisher sets the change publisher. A nil publisher disables publishing.
func WithPublisher(p Publisher) EventServiceOption {
	return func(s *EventService) { s.publisher = p }
}

func WithClock(now func() time.Time) EventServiceOption {
	return func(s *EventService) { s.now = now }
}

func WithIDGenerator(newID func() string) EventServiceOption {
	return func(s *EventService) { s.newID = newID }
}

func NewEventService(st store.EventStore, logger *log.Logger, opts ...EventServiceOption) *EventService {
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentEvents)
	}
	s := &EventService{
		store:  st,
		logger: logger.WithComponent(log.ComponentEvents),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers fn to run after every successful write.
func (s *EventService) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *EventService) ListEvents(ctx context.Context) ([]core.Event, error) {
	return s.store.ListEvents(ctx)
}

func (s *EventService) GetEvent(ctx context.Context, id string) (core.Event, error) {
	return s.store.GetEvent(ctx, id)
}

// CreateEvent assigns identity and defaults to e, validates it and stores it.
func (s *EventService) CreateEvent(ctx context.Context, e core.Event) (core.Event, error) {
	now := s.now()
	e.ID = s.newID()
	if strings.TrimSpace(e.ReferenceCode) == "" {
		e.ReferenceCode = core.NewReferenceCode()
	}
	e.ApplyDefaults()
	e.CreatedAt, e.UpdatedAt = now, now

	if err := e.Validate(); err != nil {
		return core.Event{}, err
	}

	saved, err := s.store.CreateEvent(ctx, e)
	if err != nil {
		return core.Event{}, fmt.Errorf("save event: %w", err)
	}

	s.afterWrite(ctx, saved.ID, amqp.OpCreated)
	s.logger.InfoContext(ctx, "Event created",
		log.NewFields().WithEvent(saved.ID, string(saved.EventType)).WithOperation(log.OpCreate).ToSlice()...)
	return saved, nil
}

// UpdateEvent applies patch to the stored event and saves the result.
func (s *EventService) UpdateEvent(ctx context.Context, id string, patch core.EventPatch) (core.Event, error) {
	current, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return core.Event{}, err
	}

	patch.Apply(&current)
	current.UpdatedAt = s.now()
	if err := current.Validate(); err != nil {
		return core.Event{}, err
	}

	saved, err := s.store.UpdateEvent(ctx, current)
	if err != nil {
		return core.Event{}, fmt.Errorf("update event: %w", err)
	}

	s.afterWrite(ctx, id, amqp.OpUpdated)
	s.logger.InfoContext(ctx, "Event updated",
		log.NewFields().WithEvent(id, string(saved.EventType)).WithOperation(log.OpUpdate).ToSlice()...)
	return saved, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, id, amqp.OpDeleted)
	s.logger.InfoContext(ctx, "Event deleted", log.FieldEventID, id)
	return nil
}

func (s *EventService) afterWrite(ctx context.Context, id string, op amqp.Operation) {
	metrics.EventsWritten.WithLabelValues(string(op)).Inc()

	s.mu.RLock()
	listeners := append([]func(){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEventChanged(ctx, id, op); err != nil {
		metrics.PublishFailures.Inc()
		s.logger.WarnContext(ctx, "Failed to publish event change",
			log.FieldEventID, id, log.FieldOperation, string(op), log.FieldError, err)
	}
}

// Close releases the store and publisher when they hold resources.
func (s *EventService) Close() error {
	var errs []error
	if c, ok := s.store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close event service: %w", err)
	}
	return nil
}
