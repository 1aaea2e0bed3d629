package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"ms-registration/internal/models"
)

// ErrNotFound is returned when a requested registration does not exist.
var ErrNotFound = errors.New("registration not found")

// ErrCapacityExceeded is returned when an insert would push the event's
// ticket sum over the venue capacity.
var ErrCapacityExceeded = errors.New("venue capacity exceeded")

// ErrDuplicateAttendee is returned when an attendee already appears in
// another registration for the same event.
var ErrDuplicateAttendee = errors.New("attendee already registered for this event")

type DB struct {
	Bun *bun.DB
}

// ---------------- EXISTENCE CHECKS ----------------

// EventExists reports whether a non-deleted event with the given ID exists.
func (d *DB) EventExists(ctx context.Context, eventID string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Where("id = ?", eventID).
		Where("deleted_at IS NULL").
		Exists(ctx)
}

func (d *DB) UserExists(ctx context.Context, userID string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Where("id = ?", userID).
		Exists(ctx)
}

func (d *DB) VenueExists(ctx context.Context, venueID string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Venue)(nil)).
		Where("id = ?", venueID).
		Exists(ctx)
}

// FindUsersByIDs resolves a batch of user IDs in one query. Missing IDs are
// simply absent from the result.
func (d *DB) FindUsersByIDs(ctx context.Context, userIDs []string) ([]models.User, error) {
	if len(userIDs) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	err := d.Bun.NewSelect().
		Model(&users).
		Where("id IN (?)", bun.In(userIDs)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// FindTicketTypesByIDs resolves a batch of ticket type IDs in one query.
func (d *DB) FindTicketTypesByIDs(ctx context.Context, ticketTypeIDs []string) ([]models.TicketType, error) {
	if len(ticketTypeIDs) == 0 {
		return []models.TicketType{}, nil
	}
	var ticketTypes []models.TicketType
	err := d.Bun.NewSelect().
		Model(&ticketTypes).
		Where("id IN (?)", bun.In(ticketTypeIDs)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return ticketTypes, nil
}

func (d *DB) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", eventID).
		Where("deleted_at IS NULL").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) GetVenue(ctx context.Context, venueID string) (*models.Venue, error) {
	var venue models.Venue
	err := d.Bun.NewSelect().
		Model(&venue).
		Where("id = ?", venueID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &venue, nil
}

func (d *DB) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ---------------- AGGREGATES ----------------

// SumTicketsForEvent returns the total tickets already registered for an
// event. Zero registrations is a zero sum, not an error.
func (d *DB) SumTicketsForEvent(ctx context.Context, eventID string) (int, error) {
	var total int
	err := d.Bun.NewRaw(
		"SELECT COALESCE(SUM(no_of_tickets), 0) FROM registrations WHERE event_id = ?",
		eventID,
	).Scan(ctx, &total)
	return total, err
}

// FindOverlappingAttendees returns every ID from userIDs that already appears
// as a bought-for attendee of some registration for the event. One set-overlap
// query, not per-ID lookups.
func (d *DB) FindOverlappingAttendees(ctx context.Context, eventID string, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var clashing []string
	err := d.Bun.NewRaw(
		`SELECT DISTINCT ra.user_id
		 FROM registration_attendees ra
		 JOIN registrations r ON r.registration_id = ra.registration_id
		 WHERE r.event_id = ? AND ra.user_id IN (?)`,
		eventID, bun.In(userIDs),
	).Scan(ctx, &clashing)
	if err != nil {
		return nil, err
	}
	return clashing, nil
}

// ---------------- REGISTRATIONS ----------------

// CreateRegistration persists a registration with its attendee and ticket
// rows in one transaction. Capacity is enforced by a conditional insert: the
// row only lands if the event's ticket sum plus the new count still fits the
// venue capacity, so two concurrent requests cannot both squeeze in. The
// duplicate-attendee check is re-run inside the same transaction.
func (d *DB) CreateRegistration(ctx context.Context, reg models.Registration, attendeeIDs, ticketTypeIDs []string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var clashing []string
		err := tx.NewRaw(
			`SELECT DISTINCT ra.user_id
			 FROM registration_attendees ra
			 JOIN registrations r ON r.registration_id = ra.registration_id
			 WHERE r.event_id = ? AND ra.user_id IN (?)`,
			reg.EventID, bun.In(attendeeIDs),
		).Scan(ctx, &clashing)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("duplicate re-check failed: %w", err)
		}
		if len(clashing) > 0 {
			return ErrDuplicateAttendee
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO registrations
			  (registration_id, event_id, user_id, buyer_id, venue_id,
			   no_of_tickets, total_cost, registration_date, payment_status, attended)
			 SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
			 WHERE (SELECT COALESCE(SUM(no_of_tickets), 0) FROM registrations WHERE event_id = ?) + ?
			       <= (SELECT capacity FROM venues WHERE id = ?)`,
			reg.RegistrationID, reg.EventID, reg.UserID, reg.BuyerID, reg.VenueID,
			reg.NoOfTickets, reg.TotalCost, reg.RegistrationDate, reg.PaymentStatus, reg.Attended,
			reg.EventID, reg.NoOfTickets, reg.VenueID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert registration: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrCapacityExceeded
		}

		attendees := make([]models.RegistrationAttendee, 0, len(attendeeIDs))
		for _, userID := range attendeeIDs {
			attendees = append(attendees, models.RegistrationAttendee{
				RegistrationID: reg.RegistrationID,
				UserID:         userID,
			})
		}
		if _, err := tx.NewInsert().Model(&attendees).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert attendees: %w", err)
		}

		tickets := make([]models.RegistrationTicket, 0, len(ticketTypeIDs))
		for _, ticketTypeID := range ticketTypeIDs {
			tickets = append(tickets, models.RegistrationTicket{
				RegistrationID: reg.RegistrationID,
				TicketTypeID:   ticketTypeID,
			})
		}
		if _, err := tx.NewInsert().Model(&tickets).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert ticket entries: %w", err)
		}

		return nil
	})
}

func (d *DB) GetRegistrationByID(ctx context.Context, registrationID string) (*models.Registration, error) {
	var reg models.Registration
	err := d.Bun.NewSelect().
		Model(&reg).
		Where("registration_id = ?", registrationID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// GetAttendeeIDs returns the bought-for set of a registration.
func (d *DB) GetAttendeeIDs(ctx context.Context, registrationID string) ([]string, error) {
	var userIDs []string
	err := d.Bun.NewSelect().
		Column("user_id").
		Table("registration_attendees").
		Where("registration_id = ?", registrationID).
		Scan(ctx, &userIDs)
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

// GetTicketEntries returns the registration's ticket types, one element per
// requested ticket entry (repeats preserved).
func (d *DB) GetTicketEntries(ctx context.Context, registrationID string) ([]models.TicketType, error) {
	var ticketTypes []models.TicketType
	err := d.Bun.NewRaw(
		`SELECT tt.*
		 FROM registration_tickets rt
		 JOIN ticket_types tt ON tt.id = rt.ticket_type_id
		 WHERE rt.registration_id = ?
		 ORDER BY rt.id`,
		registrationID,
	).Scan(ctx, &ticketTypes)
	if err != nil {
		return nil, err
	}
	return ticketTypes, nil
}

// UpdateRegistration writes the mutable fields of a registration.
func (d *DB) UpdateRegistration(ctx context.Context, reg models.Registration) error {
	_, err := d.Bun.NewUpdate().
		Model(&reg).
		Column("payment_status", "attended", "check_date", "qr_code").
		Where("registration_id = ?", reg.RegistrationID).
		Exec(ctx)
	return err
}

// UpdateQRCode is the follow-up write that attaches a generated artifact
// filename to an already persisted registration.
func (d *DB) UpdateQRCode(ctx context.Context, registrationID, filename string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Registration)(nil)).
		Set("qr_code = ?", filename).
		Where("registration_id = ?", registrationID).
		Exec(ctx)
	return err
}

// DeleteRegistration removes a registration and its child rows.
func (d *DB) DeleteRegistration(ctx context.Context, registrationID string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.RegistrationAttendee)(nil)).
			Where("registration_id = ?", registrationID).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().
			Model((*models.RegistrationTicket)(nil)).
			Where("registration_id = ?", registrationID).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().
			Model((*models.Registration)(nil)).
			Where("registration_id = ?", registrationID).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// TotalRegistrationsCount returns the number of registrations in the store.
func (d *DB) TotalRegistrationsCount(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Registration)(nil)).
		Count(ctx)
}
