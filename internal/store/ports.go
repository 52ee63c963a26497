// Package store declares the ports through which the application reads and
// writes sales events and companies, and publishes finished reports.
package store

import (
	"context"
	"errors"

	"salesops/internal/core"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrCompanyExists = errors.New("company already exists")
)

// Ports for outbound adapters.
type (
	// EventReader returns point-in-time snapshots of the event log.
	EventReader interface {
		// ListEvents returns every event, newest first.
		ListEvents(ctx context.Context) ([]core.Event, error)
		GetEvent(ctx context.Context, id string) (core.Event, error)
	}

	EventWriter interface {
		CreateEvent(ctx context.Context, e core.Event) (core.Event, error)
		// UpdateEvent replaces the stored event with the same ID.
		UpdateEvent(ctx context.Context, e core.Event) (core.Event, error)
		DeleteEvent(ctx context.Context, id string) error
	}

	EventStore interface {
		EventReader
		EventWriter
	}

	CompanyStore interface {
		ListCompanies(ctx context.Context) ([]core.Company, error)
		// CreateCompany fails with ErrCompanyExists when the name or the
		// number is already taken.
		CreateCompany(ctx context.Context, c core.Company) (core.Company, error)
		DeleteCompany(ctx context.Context, id string) error
	}

	// ReportExporter publishes a rendered report table.
	ReportExporter interface {
		ExportReport(ctx context.Context, sheet Sheet) error
	}
)

// Sheet is a titled table ready for export.
type Sheet struct {
	Title  string
	Header []string
	Rows   [][]any
}
