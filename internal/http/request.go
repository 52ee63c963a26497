package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"salesops/internal/core"
	"salesops/internal/services"
)

const maxBodyBytes = 1 << 20

const dateLayout = "2006-01-02"

// eventPayload is the JSON body of event create and update requests.
// Price accepts a number, a formatted amount string such as "R 1 200,50",
// or null / "" to clear it.
type eventPayload struct {
	ReferenceCode       *string         `json:"referenceCode"`
	EventType           *string         `json:"eventType"`
	Date                *string         `json:"date"`
	QuoteSent           *bool           `json:"quoteSent"`
	PoReceived          *bool           `json:"poReceived"`
	Status              *string         `json:"status"`
	Price               json.RawMessage `json:"price"`
	SalesRepresentative *string         `json:"salesRepresentative"`
	LineOfWork          *string         `json:"lineOfWork"`
	CustomerName        *string         `json:"customerName"`
	CompanyName         *string         `json:"companyName"`
	ContactPerson       *string         `json:"contactPerson"`
	Phone               *string         `json:"phone"`
	Notes               *string         `json:"notes"`
	QuoteNumber         *string         `json:"quoteNumber"`
	PoNumber            *string         `json:"poNumber"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", errBadRequest, err)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	return nil
}

// patch converts the payload into a partial update.
func (p eventPayload) patch() (core.EventPatch, error) {
	patch := core.EventPatch{
		QuoteSent:           p.QuoteSent,
		PoReceived:          p.PoReceived,
		Status:              trimmed(p.Status),
		SalesRepresentative: trimmed(p.SalesRepresentative),
		LineOfWork:          trimmed(p.LineOfWork),
		CustomerName:        trimmed(p.CustomerName),
		CompanyName:         trimmed(p.CompanyName),
		ContactPerson:       trimmed(p.ContactPerson),
		Phone:               trimmed(p.Phone),
		Notes:               trimmed(p.Notes),
		QuoteNumber:         trimmed(p.QuoteNumber),
		PoNumber:            trimmed(p.PoNumber),
	}

	if p.EventType != nil {
		t, err := core.ParseEventType(*p.EventType)
		if err != nil {
			return core.EventPatch{}, err
		}
		patch.EventType = &t
	}
	if p.Date != nil {
		d, err := parseDate(*p.Date)
		if err != nil {
			return core.EventPatch{}, err
		}
		patch.Date = &d
	}

	price, clear, err := parsePrice(p.Price)
	if err != nil {
		return core.EventPatch{}, err
	}
	patch.Price, patch.ClearPrice = price, clear
	return patch, nil
}

// event converts the payload into a new event.
func (p eventPayload) event() (core.Event, error) {
	patch, err := p.patch()
	if err != nil {
		return core.Event{}, err
	}
	var e core.Event
	patch.Apply(&e)
	if p.ReferenceCode != nil {
		e.ReferenceCode = strings.TrimSpace(*p.ReferenceCode)
	}
	return e, nil
}

func parsePrice(raw json.RawMessage) (price *float64, clear bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false, nil
	}
	if string(raw) == "null" {
		return nil, true, nil
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false, fmt.Errorf("%w: price: %v", errBadRequest, err)
		}
		if strings.TrimSpace(s) == "" {
			return nil, true, nil
		}
	} else {
		s = string(raw)
	}

	v, err := core.ParseAmount(s)
	if err != nil {
		return nil, false, err
	}
	return &v, false, nil
}

// parseDate accepts YYYY-MM-DD, read as local midnight, or RFC 3339.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", errBadRequest, s)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// parseReportQuery reads period, ref, start, end and roster from the query
// string.
func parseReportQuery(q url.Values) (services.ReportQuery, error) {
	rq := services.ReportQuery{Period: q.Get("period")}

	for _, f := range []struct {
		name string
		dst  *time.Time
	}{
		{"ref", &rq.Ref},
		{"start", &rq.Start},
		{"end", &rq.End},
	} {
		v := strings.TrimSpace(q.Get(f.name))
		if v == "" {
			continue
		}
		t, err := parseDate(v)
		if err != nil {
			return services.ReportQuery{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = t
	}

	if v := strings.TrimSpace(q.Get("roster")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return services.ReportQuery{}, fmt.Errorf("%w: roster must be a boolean", errBadRequest)
		}
		rq.Roster = b
	}
	return rq, nil
}
