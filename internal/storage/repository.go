// Package storage persists events and companies in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"salesops/internal/core"
	"salesops/internal/log"
	"salesops/internal/store"

	_ "modernc.org/sqlite"
)

// Timestamps are stored as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies migrations.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return newRepository(db, logger), nil
}

func newRepository(db *sql.DB, logger *log.Logger) *SQLiteRepository {
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentStorage)
	}
	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
		now:    time.Now,
	}
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const eventColumns = `id, reference_code, event_type, date, quote_sent, po_received, status, price,
	sales_representative, line_of_work, customer_name, company_name, contact_person, phone,
	notes, quote_number, po_number, created_at, updated_at`

const listEvents = `SELECT ` + eventColumns + ` FROM events ORDER BY created_at DESC, id`

func (r *SQLiteRepository) ListEvents(ctx context.Context) ([]core.Event, error) {
	rows, err := r.db.QueryContext(ctx, listEvents)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []core.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

const getEvent = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`

func (r *SQLiteRepository) GetEvent(ctx context.Context, id string) (core.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, getEvent, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Event{}, fmt.Errorf("event %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.Event{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return e, nil
}

const createEvent = `INSERT INTO events (` + eventColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (r *SQLiteRepository) CreateEvent(ctx context.Context, e core.Event) (core.Event, error) {
	if err := e.Validate(); err != nil {
		return core.Event{}, err
	}
	if e.ID == "" {
		return core.Event{}, errors.New("create event: id is required")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, createEvent,
		e.ID, e.ReferenceCode, string(e.EventType), formatTime(e.Date), e.QuoteSent, e.PoReceived,
		e.Status, nullFloat(e.Price), nullString(e.SalesRepresentative), nullString(e.LineOfWork),
		e.CustomerName, e.CompanyName, e.ContactPerson, e.Phone, e.Notes, e.QuoteNumber, e.PoNumber,
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		return core.Event{}, fmt.Errorf("create event: %w", err)
	}

	r.logger.InfoContext(ctx, "Event saved to SQLite",
		log.FieldEventID, e.ID,
		log.FieldEventType, string(e.EventType),
		"reference_code", e.ReferenceCode)
	return e, nil
}

const updateEvent = `UPDATE events SET
	reference_code = ?, event_type = ?, date = ?, quote_sent = ?, po_received = ?, status = ?,
	price = ?, sales_representative = ?, line_of_work = ?, customer_name = ?, company_name = ?,
	contact_person = ?, phone = ?, notes = ?, quote_number = ?, po_number = ?, updated_at = ?
WHERE id = ?`

func (r *SQLiteRepository) UpdateEvent(ctx context.Context, e core.Event) (core.Event, error) {
	if err := e.Validate(); err != nil {
		return core.Event{}, err
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = r.now()
	}

	res, err := r.db.ExecContext(ctx, updateEvent,
		e.ReferenceCode, string(e.EventType), formatTime(e.Date), e.QuoteSent, e.PoReceived, e.Status,
		nullFloat(e.Price), nullString(e.SalesRepresentative), nullString(e.LineOfWork), e.CustomerName,
		e.CompanyName, e.ContactPerson, e.Phone, e.Notes, e.QuoteNumber, e.PoNumber,
		formatTime(e.UpdatedAt), e.ID)
	if err != nil {
		return core.Event{}, fmt.Errorf("update event %s: %w", e.ID, err)
	}
	if err := expectOneRow(res, "event", e.ID); err != nil {
		return core.Event{}, err
	}
	return r.GetEvent(ctx, e.ID)
}

func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	return expectOneRow(res, "event", id)
}

const listCompanies = `SELECT id, company_name, company_number, location, email, on_board, created_at
FROM companies ORDER BY created_at DESC, company_name`

func (r *SQLiteRepository) ListCompanies(ctx context.Context) ([]core.Company, error) {
	rows, err := r.db.QueryContext(ctx, listCompanies)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var out []core.Company
	for rows.Next() {
		var (
			c       core.Company
			created string
		)
		if err := rows.Scan(&c.ID, &c.CompanyName, &c.CompanyNumber, &c.Location, &c.Email, &c.OnBoard, &created); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		if c.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("company %s created_at: %w", c.ID, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return out, nil
}

const companyExists = `SELECT COUNT(*) FROM companies
WHERE company_name = ? COLLATE NOCASE OR company_number = ?`

const createCompany = `INSERT INTO companies (id, company_name, company_number, location, email, on_board, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (r *SQLiteRepository) CreateCompany(ctx context.Context, c core.Company) (core.Company, error) {
	if err := c.Validate(); err != nil {
		return core.Company{}, err
	}
	if c.ID == "" {
		return core.Company{}, errors.New("create company: id is required")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now()
	}

	var n int
	if err := r.db.QueryRowContext(ctx, companyExists, c.CompanyName, c.CompanyNumber).Scan(&n); err != nil {
		return core.Company{}, fmt.Errorf("check company %q: %w", c.CompanyName, err)
	}
	if n > 0 {
		return core.Company{}, store.ErrCompanyExists
	}

	_, err := r.db.ExecContext(ctx, createCompany,
		c.ID, c.CompanyName, c.CompanyNumber, c.Location, c.Email, c.OnBoard, formatTime(c.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.Company{}, store.ErrCompanyExists
		}
		return core.Company{}, fmt.Errorf("create company: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) DeleteCompany(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete company %s: %w", id, err)
	}
	return expectOneRow(res, "company", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (core.Event, error) {
	var (
		e                      core.Event
		eventType              string
		date, created, updated string
		price                  sql.NullFloat64
		rep, lineOfWork        sql.NullString
	)
	err := s.Scan(&e.ID, &e.ReferenceCode, &eventType, &date, &e.QuoteSent, &e.PoReceived, &e.Status,
		&price, &rep, &lineOfWork, &e.CustomerName, &e.CompanyName, &e.ContactPerson, &e.Phone,
		&e.Notes, &e.QuoteNumber, &e.PoNumber, &created, &updated)
	if err != nil {
		return core.Event{}, err
	}
	e.EventType = core.EventType(eventType)
	if price.Valid {
		e.Price = core.Float64Ptr(price.Float64)
	}
	if rep.Valid {
		e.SalesRepresentative = core.StringPtr(rep.String)
	}
	if lineOfWork.Valid {
		e.LineOfWork = core.StringPtr(lineOfWork.String)
	}
	if e.Date, err = parseTime(date); err != nil {
		return core.Event{}, fmt.Errorf("event %s date: %w", e.ID, err)
	}
	if e.CreatedAt, err = parseTime(created); err != nil {
		return core.Event{}, fmt.Errorf("event %s created_at: %w", e.ID, err)
	}
	if e.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Event{}, fmt.Errorf("event %s updated_at: %w", e.ID, err)
	}
	return e, nil
}

func expectOneRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s rows affected: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
