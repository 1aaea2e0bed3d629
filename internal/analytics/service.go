package analytics

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-registration/internal/cache"
	"ms-registration/internal/logger"
)

// EventRegistrationStats is the analytics payload for one event.
type EventRegistrationStats struct {
	EventID           string                  `json:"eventId"`
	Registrations     int                     `json:"registrations"`
	TicketsSold       int                     `json:"ticketsSold"`
	Capacity          int                     `json:"capacity"`
	CapacityRemaining int                     `json:"capacityRemaining"`
	Daily             []DailyRegistrationData `json:"daily"`
}

type Service struct {
	db     *DB
	cache  *cache.Cache
	logger *logger.Logger
}

func NewService(bunDB *bun.DB, cacheLayer *cache.Cache, log *logger.Logger) *Service {
	return &Service{
		db:     NewDB(bunDB),
		cache:  cacheLayer,
		logger: log,
	}
}

// GetEventStats aggregates registration numbers for an event, read through
// the event-registrations cache key so registration mutations invalidate it.
func (s *Service) GetEventStats(ctx context.Context, eventID string) (*EventRegistrationStats, error) {
	key := cache.EventRegistrationsKey(eventID)

	var cached EventRegistrationStats
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("CACHE", fmt.Sprintf("analytics read failed for %s: %v", key, err))
	}
	if hit {
		return &cached, nil
	}

	row, err := s.db.GetEventStats(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats for event %s: %w", eventID, err)
	}

	daily, err := s.db.GetDailyRegistrations(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily counts for event %s: %w", eventID, err)
	}

	remaining := row.Capacity - row.TicketsSold
	if remaining < 0 {
		remaining = 0
	}

	stats := EventRegistrationStats{
		EventID:           eventID,
		Registrations:     row.Registrations,
		TicketsSold:       row.TicketsSold,
		Capacity:          row.Capacity,
		CapacityRemaining: remaining,
		Daily:             daily,
	}

	if err := s.cache.SetJSON(ctx, key, stats); err != nil {
		s.logger.Warn("CACHE", fmt.Sprintf("analytics write failed for %s: %v", key, err))
	}

	return &stats, nil
}
