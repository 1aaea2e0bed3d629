package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

type Registration struct {
	bun.BaseModel `bun:"table:registrations"`

	RegistrationID   string     `bun:"registration_id,pk" json:"registrationId"`
	EventID          string     `bun:"event_id,notnull" json:"eventId"`
	UserID           string     `bun:"user_id,notnull" json:"userId"`
	BuyerID          string     `bun:"buyer_id,notnull" json:"buyerId"`
	VenueID          string     `bun:"venue_id,notnull" json:"venueId"`
	NoOfTickets      int        `bun:"no_of_tickets,notnull" json:"noOfTickets"`
	TotalCost        float64    `bun:"total_cost" json:"totalCost"`
	RegistrationDate time.Time  `bun:"registration_date,notnull" json:"registrationDate"`
	PaymentStatus    string     `bun:"payment_status,notnull" json:"paymentStatus"`
	QRCode           string     `bun:"qr_code,nullzero" json:"qrCode,omitempty"`
	CheckDate        *time.Time `bun:"check_date,nullzero" json:"checkDate,omitempty"`
	Attended         bool       `bun:"attended" json:"attended"`
}

// RegistrationAttendee is one bought-for user of a registration. One row per
// attendee, so duplicate checks can run as a single set-overlap query.
type RegistrationAttendee struct {
	bun.BaseModel `bun:"table:registration_attendees"`

	RegistrationID string `bun:"registration_id,pk" json:"registrationId"`
	UserID         string `bun:"user_id,pk" json:"userId"`
}

// RegistrationTicket is one requested ticket entry. The same ticket type may
// appear on several rows of one registration.
type RegistrationTicket struct {
	bun.BaseModel `bun:"table:registration_tickets"`

	ID             int64  `bun:"id,pk,autoincrement" json:"id"`
	RegistrationID string `bun:"registration_id,notnull" json:"registrationId"`
	TicketTypeID   string `bun:"ticket_type_id,notnull" json:"ticketTypeId"`
}

type RegistrationRequest struct {
	EventID       string   `json:"eventId"`
	UserID        string   `json:"userId"`
	BuyerID       string   `json:"buyerId,omitempty"`
	VenueID       string   `json:"venueId"`
	TicketTypeIDs []string `json:"ticketTypeIds"`
	BoughtForIDs  []string `json:"boughtForIds"`
	NoOfTickets   int      `json:"noOfTickets"`
}

type RegistrationUpdateRequest struct {
	PaymentStatus *string `json:"paymentStatus,omitempty"`
	Attended      *bool   `json:"attended,omitempty"`
}

// RegistrationDetail is a registration with its resolved relations, as
// returned by the read endpoints.
type RegistrationDetail struct {
	Registration Registration `json:"registration"`
	Event        *Event       `json:"event,omitempty"`
	Venue        *Venue       `json:"venue,omitempty"`
	User         *User        `json:"user,omitempty"`
	Buyer        *User        `json:"buyer,omitempty"`
	BoughtFor    []string     `json:"boughtForIds"`
	TicketTypes  []TicketType `json:"ticketTypes"`
}

type QRCodeResponse struct {
	RegistrationID string `json:"registrationId"`
	QRCode         string `json:"qrCode"`
	URL            string `json:"url"`
}
