package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	EventStatusDraft    = "draft"
	EventStatusPending  = "pending"
	EventStatusApproved = "approved"
	EventStatusRejected = "rejected"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID             string     `bun:"id,pk" json:"id"`
	Title          string     `bun:"title,notnull" json:"title"`
	Status         string     `bun:"status,notnull" json:"status"`
	OrganizationID string     `bun:"organization_id" json:"organizationId"`
	VenueID        string     `bun:"venue_id" json:"venueId"`
	StartsAt       time.Time  `bun:"starts_at" json:"startsAt"`
	EndsAt         time.Time  `bun:"ends_at" json:"endsAt"`
	CreatedAt      time.Time  `bun:"created_at,notnull" json:"createdAt"`
	DeletedAt      *time.Time `bun:"deleted_at,nullzero" json:"deletedAt,omitempty"`
}

type Venue struct {
	bun.BaseModel `bun:"table:venues"`

	ID             string    `bun:"id,pk" json:"id"`
	Name           string    `bun:"name,notnull" json:"name"`
	Capacity       int       `bun:"capacity,notnull" json:"capacity"`
	OrganizationID *string   `bun:"organization_id,nullzero" json:"organizationId,omitempty"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"createdAt"`
}
