package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TicketType struct {
	bun.BaseModel `bun:"table:ticket_types"`

	ID             string     `bun:"id,pk" json:"id"`
	EventID        string     `bun:"event_id,notnull" json:"eventId"`
	Name           string     `bun:"name,notnull" json:"name"`
	Price          float64    `bun:"price,notnull" json:"price"`
	Active         bool       `bun:"active" json:"active"`
	AvailableFrom  *time.Time `bun:"available_from,nullzero" json:"availableFrom,omitempty"`
	AvailableUntil *time.Time `bun:"available_until,nullzero" json:"availableUntil,omitempty"`
}

// AvailableAt reports whether the ticket type can be sold at the given time.
// A nil window bound is open-ended on that side.
func (t *TicketType) AvailableAt(now time.Time) bool {
	if !t.Active {
		return false
	}
	if t.AvailableFrom != nil && now.Before(*t.AvailableFrom) {
		return false
	}
	if t.AvailableUntil != nil && now.After(*t.AvailableUntil) {
		return false
	}
	return true
}
