package core

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	EventCGI   EventType = "CGI"
	EventQuote EventType = "QUOTE"
	EventOrder EventType = "ORDER"
)

const (
	// Unknown is the label given to events without a representative or line of work.
	Unknown = "Unknown"

	DefaultStatus = "Pending"
)

type (
	EventType string

	// Event is a single sales-activity record: a customer contact (CGI), a
	// quotation or an order.
	Event struct {
		ID                  string    `json:"id"`
		ReferenceCode       string    `json:"referenceCode,omitempty"`
		EventType           EventType `json:"eventType"`
		Date                time.Time `json:"date"`
		QuoteSent           bool      `json:"quoteSent"`
		PoReceived          bool      `json:"poReceived"`
		Status              string    `json:"status"`
		Price               *float64  `json:"price,omitempty"`
		SalesRepresentative *string   `json:"salesRepresentative,omitempty"`
		LineOfWork          *string   `json:"lineOfWork,omitempty"`
		CustomerName        string    `json:"customerName"`
		CompanyName         string    `json:"companyName,omitempty"`
		ContactPerson       string    `json:"contactPerson,omitempty"`
		Phone               string    `json:"phone,omitempty"`
		Notes               string    `json:"notes,omitempty"`
		QuoteNumber         string    `json:"quoteNumber,omitempty"`
		PoNumber            string    `json:"poNumber,omitempty"`
		CreatedAt           time.Time `json:"createdAt"`
		UpdatedAt           time.Time `json:"updatedAt"`
	}

	Company struct {
		ID            string    `json:"id"`
		CompanyName   string    `json:"companyName"`
		CompanyNumber string    `json:"companyNumber"`
		Location      string    `json:"location,omitempty"`
		Email         string    `json:"email,omitempty"`
		OnBoard       bool      `json:"onBoard"`
		CreatedAt     time.Time `json:"createdAt"`
	}
)

var (
	ErrEmptyCustomer       = errors.New("customer name is required")
	ErrEmptyRepresentative = errors.New("sales representative is required")
	ErrMissingDate         = errors.New("date is required")
	ErrInvalidEventType    = errors.New("invalid event type")
	ErrNegativePrice       = errors.New("price cannot be negative")
	ErrEmptyCompanyName    = errors.New("company name is required")
)

func (t EventType) IsValid() bool {
	switch t {
	case EventCGI, EventQuote, EventOrder:
		return true
	}
	return false
}

// ParseEventType accepts any casing of CGI, QUOTE or ORDER.
func ParseEventType(s string) (EventType, error) {
	t := EventType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidEventType, s)
	}
	return t, nil
}

// Amount is the event price, treating a missing price as zero.
func (e Event) Amount() float64 {
	if e.Price == nil {
		return 0
	}
	return *e.Price
}

// Representative returns the grouping label for the sales representative.
func (e Event) Representative() string {
	return NormalizeLabel(e.SalesRepresentative)
}

// LineOfWorkCode returns the grouping label for the line of work.
func (e Event) LineOfWorkCode() string {
	return NormalizeLabel(e.LineOfWork)
}

// ApplyDefaults fills the fields a newly captured event may omit.
func (e *Event) ApplyDefaults() {
	if strings.TrimSpace(e.Status) == "" {
		e.Status = DefaultStatus
	}
	if e.EventType == "" {
		e.EventType = EventOrder
	}
	if e.LineOfWork == nil || strings.TrimSpace(*e.LineOfWork) == "" {
		e.LineOfWork = StringPtr(Unknown)
	}
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.CustomerName) == "" {
		return ErrEmptyCustomer
	}
	if e.SalesRepresentative == nil || strings.TrimSpace(*e.SalesRepresentative) == "" {
		return ErrEmptyRepresentative
	}
	if e.Date.IsZero() {
		return ErrMissingDate
	}
	if !e.EventType.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidEventType, e.EventType)
	}
	if e.Price != nil && *e.Price < 0 {
		return ErrNegativePrice
	}
	return nil
}

func (c Company) Validate() error {
	if strings.TrimSpace(c.CompanyName) == "" {
		return ErrEmptyCompanyName
	}
	return nil
}

// NormalizeLabel maps a missing or blank label to Unknown.
func NormalizeLabel(s *string) string {
	if s == nil {
		return Unknown
	}
	return LabelOrUnknown(*s)
}

func LabelOrUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unknown
	}
	return s
}

func StringPtr(s string) *string { return &s }

func Float64Ptr(f float64) *float64 { return &f }

// NewReferenceCode returns a short human-friendly code such as "K4821".
func NewReferenceCode() string {
	letter := rune('A' + rand.IntN(26))
	return fmt.Sprintf("%c%04d", letter, rand.IntN(10000))
}

// NewCompanyNumber returns a company number of the form CMP-123456.
func NewCompanyNumber() string {
	return fmt.Sprintf("CMP-%06d", rand.IntN(1_000_000))
}
