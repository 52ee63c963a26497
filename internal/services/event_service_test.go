package services

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salesops/internal/amqp"
	"salesops/internal/core"
	"salesops/internal/store"
	"salesops/internal/store/memory"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishEventChanged(ctx context.Context, eventID string, op amqp.Operation) error {
	args := m.Called(ctx, eventID, op)
	return args.Error(0)
}

var fixedNow = time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)

func newTestEventService(pub Publisher, seed ...core.Event) (*EventService, *memory.Store) {
	st := memory.New(seed...)
	ids := 0
	svc := NewEventService(st, nil,
		WithPublisher(pub),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			ids++
			return "evt-" + strconv.Itoa(ids)
		}),
	)
	return svc, st
}

func validEvent() core.Event {
	return core.Event{
		CustomerName:        "Acme Steel",
		SalesRepresentative: core.StringPtr("Shaun"),
		Date:                fixedNow,
		Price:               core.Float64Ptr(1500),
	}
}

func TestEventService_CreateEvent(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("PublishEventChanged", mock.Anything, "evt-1", amqp.OpCreated).Return(nil)
	svc, _ := newTestEventService(pub)

	saved, err := svc.CreateEvent(context.Background(), validEvent())
	require.NoError(t, err)

	assert.Equal(t, "evt-1", saved.ID)
	assert.Equal(t, core.EventOrder, saved.EventType)
	assert.Equal(t, core.DefaultStatus, saved.Status)
	assert.Equal(t, core.Unknown, saved.LineOfWorkCode())
	assert.Regexp(t, `^[A-Z]\d{4}$`, saved.ReferenceCode)
	assert.Equal(t, fixedNow, saved.CreatedAt)
	pub.AssertExpectations(t)
}

func TestEventService_CreateEventKeepsReferenceCode(t *testing.T) {
	svc, _ := newTestEventService(nil)
	e := validEvent()
	e.ReferenceCode = "Q1234"

	saved, err := svc.CreateEvent(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, "Q1234", saved.ReferenceCode)
}

func TestEventService_CreateEventInvalid(t *testing.T) {
	pub := new(mockPublisher)
	svc, st := newTestEventService(pub)

	e := validEvent()
	e.CustomerName = "  "
	_, err := svc.CreateEvent(context.Background(), e)

	assert.ErrorIs(t, err, core.ErrEmptyCustomer)
	pub.AssertNotCalled(t, "PublishEventChanged", mock.Anything, mock.Anything, mock.Anything)
	events, _ := st.ListEvents(context.Background())
	assert.Empty(t, events)
}

func TestEventService_PublishFailureDoesNotFailWrite(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("PublishEventChanged", mock.Anything, mock.Anything, amqp.OpCreated).
		Return(errors.New("broker down"))
	svc, st := newTestEventService(pub)

	saved, err := svc.CreateEvent(context.Background(), validEvent())
	require.NoError(t, err)

	got, err := st.GetEvent(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Steel", got.CustomerName)
}

func TestEventService_UpdateEvent(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("PublishEventChanged", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	svc, _ := newTestEventService(pub)
	ctx := context.Background()

	saved, err := svc.CreateEvent(ctx, validEvent())
	require.NoError(t, err)

	status := "Won"
	updated, err := svc.UpdateEvent(ctx, saved.ID, core.EventPatch{Status: &status, ClearPrice: true})
	require.NoError(t, err)

	assert.Equal(t, "Won", updated.Status)
	assert.Nil(t, updated.Price)
	assert.Equal(t, "Acme Steel", updated.CustomerName)
	pub.AssertCalled(t, "PublishEventChanged", mock.Anything, saved.ID, amqp.OpUpdated)
}

func TestEventService_UpdateEventRejectsInvalidResult(t *testing.T) {
	svc, _ := newTestEventService(nil)
	ctx := context.Background()
	saved, err := svc.CreateEvent(ctx, validEvent())
	require.NoError(t, err)

	negative := -1.0
	_, err = svc.UpdateEvent(ctx, saved.ID, core.EventPatch{Price: &negative})
	assert.ErrorIs(t, err, core.ErrNegativePrice)

	got, err := svc.GetEvent(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, got.Amount())
}

func TestEventService_UpdateMissingEvent(t *testing.T) {
	svc, _ := newTestEventService(nil)
	_, err := svc.UpdateEvent(context.Background(), "nope", core.EventPatch{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEventService_DeleteEventNotifiesListeners(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("PublishEventChanged", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	svc, _ := newTestEventService(pub)
	ctx := context.Background()

	saved, err := svc.CreateEvent(ctx, validEvent())
	require.NoError(t, err)

	calls := 0
	svc.OnChange(func() { calls++ })

	require.NoError(t, svc.DeleteEvent(ctx, saved.ID))
	assert.Equal(t, 1, calls)
	pub.AssertCalled(t, "PublishEventChanged", mock.Anything, saved.ID, amqp.OpDeleted)

	assert.ErrorIs(t, svc.DeleteEvent(ctx, saved.ID), store.ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestEventService_Close(t *testing.T) {
	svc, _ := newTestEventService(nil)
	assert.NoError(t, svc.Close())
}
