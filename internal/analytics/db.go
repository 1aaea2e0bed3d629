package analytics

import (
	"context"

	"github.com/uptrace/bun"
)

// DB handles analytics database operations
type DB struct {
	bun *bun.DB
}

func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

// EventStatsRow holds the raw aggregate numbers for one event.
type EventStatsRow struct {
	Registrations int `bun:"registrations"`
	TicketsSold   int `bun:"tickets_sold"`
	Capacity      int `bun:"capacity"`
}

// GetEventStats returns registration totals and the venue capacity for an
// event in a single aggregate query.
func (db *DB) GetEventStats(ctx context.Context, eventID string) (*EventStatsRow, error) {
	var row EventStatsRow
	err := db.bun.NewRaw(
		`SELECT
		   (SELECT COUNT(*) FROM registrations WHERE event_id = ?) AS registrations,
		   (SELECT COALESCE(SUM(no_of_tickets), 0) FROM registrations WHERE event_id = ?) AS tickets_sold,
		   COALESCE((SELECT v.capacity FROM events e JOIN venues v ON v.id = e.venue_id WHERE e.id = ?), 0) AS capacity`,
		eventID, eventID, eventID,
	).Scan(ctx, &row)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// DailyRegistrationData represents registrations grouped by day.
type DailyRegistrationData struct {
	Day           string `bun:"day" json:"day"`
	Registrations int    `bun:"registrations" json:"registrations"`
	Tickets       int    `bun:"tickets" json:"tickets"`
}

// GetDailyRegistrations returns per-day registration and ticket counts for an
// event, oldest first.
func (db *DB) GetDailyRegistrations(ctx context.Context, eventID string) ([]DailyRegistrationData, error) {
	var daily []DailyRegistrationData
	err := db.bun.NewRaw(
		`SELECT DATE(registration_date) AS day,
		        COUNT(*) AS registrations,
		        COALESCE(SUM(no_of_tickets), 0) AS tickets
		 FROM registrations
		 WHERE event_id = ?
		 GROUP BY DATE(registration_date)
		 ORDER BY day`,
		eventID,
	).Scan(ctx, &daily)
	if err != nil {
		return nil, err
	}
	return daily, nil
}
