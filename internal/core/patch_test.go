package core

import (
	"testing"
	"time"
)

func TestEventPatchApply(t *testing.T) {
	e := Event{
		EventType:    EventQuote,
		Status:       "Pending",
		Price:        Float64Ptr(100),
		CustomerName: "Acme",
		Notes:        "keep",
	}

	order := EventOrder
	when := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	po := true
	status := "Completed"
	p := EventPatch{EventType: &order, Date: &when, PoReceived: &po, Status: &status, Price: Float64Ptr(250)}
	if p.IsEmpty() {
		t.Fatal("patch should not be empty")
	}
	p.Apply(&e)

	if e.EventType != EventOrder || !e.Date.Equal(when) || !e.PoReceived || e.Status != "Completed" {
		t.Fatalf("patch not applied: %+v", e)
	}
	if e.Amount() != 250 {
		t.Fatalf("price = %v", e.Amount())
	}
	if e.CustomerName != "Acme" || e.Notes != "keep" {
		t.Fatalf("unset fields changed: %+v", e)
	}

	EventPatch{ClearPrice: true}.Apply(&e)
	if e.Price != nil {
		t.Fatalf("price should be cleared")
	}
	if !(EventPatch{}).IsEmpty() {
		t.Fatal("zero patch should be empty")
	}
}
