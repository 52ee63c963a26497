package core

import "time"

// EventPatch is a partial update. Nil fields are left unchanged.
type EventPatch struct {
	EventType           *EventType
	Date                *time.Time
	QuoteSent           *bool
	PoReceived          *bool
	Status              *string
	Price               *float64
	ClearPrice          bool
	SalesRepresentative *string
	LineOfWork          *string
	CustomerName        *string
	CompanyName         *string
	ContactPerson       *string
	Phone               *string
	Notes               *string
	QuoteNumber         *string
	PoNumber            *string
}

// Apply copies the set fields of p onto e.
func (p EventPatch) Apply(e *Event) {
	if p.EventType != nil {
		e.EventType = *p.EventType
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.QuoteSent != nil {
		e.QuoteSent = *p.QuoteSent
	}
	if p.PoReceived != nil {
		e.PoReceived = *p.PoReceived
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	switch {
	case p.ClearPrice:
		e.Price = nil
	case p.Price != nil:
		e.Price = Float64Ptr(*p.Price)
	}
	if p.SalesRepresentative != nil {
		e.SalesRepresentative = StringPtr(*p.SalesRepresentative)
	}
	if p.LineOfWork != nil {
		e.LineOfWork = StringPtr(*p.LineOfWork)
	}
	setString(&e.CustomerName, p.CustomerName)
	setString(&e.CompanyName, p.CompanyName)
	setString(&e.ContactPerson, p.ContactPerson)
	setString(&e.Phone, p.Phone)
	setString(&e.Notes, p.Notes)
	setString(&e.QuoteNumber, p.QuoteNumber)
	setString(&e.PoNumber, p.PoNumber)
}

// IsEmpty reports whether the patch changes nothing.
func (p EventPatch) IsEmpty() bool {
	return p == (EventPatch{})
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
