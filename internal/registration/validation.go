package registration

import (
	"context"
	"fmt"
	"strings"

	"ms-registration/internal/models"
)

// ValidationResult is the outcome of the ID/shape validation stage. Internal
// is set when a store lookup failed: the request must abort with a generic
// message, but the failure is an outage, not a bad request.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Message  string   `json:"message,omitempty"`
	Internal bool     `json:"-"`
}

// GuardResult is the outcome of a single capacity or duplicate check.
type GuardResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// CostResult is the outcome of the ticket cost calculation.
type CostResult struct {
	Valid     bool    `json:"valid"`
	TotalCost float64 `json:"totalCost,omitempty"`
	Message   string  `json:"message,omitempty"`
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// ValidateRegistrationIDs checks referential integrity and shape of a draft
// registration. Every check runs regardless of earlier failures so one call
// surfaces all violations at once. No state is mutated.
func (s *Service) ValidateRegistrationIDs(ctx context.Context, req models.RegistrationRequest) ValidationResult {
	var errs []string

	internal := func(stage string, err error) ValidationResult {
		s.Logger.Error("VALIDATION", fmt.Sprintf("store lookup failed during %s: %v", stage, err))
		return ValidationResult{
			Valid:    false,
			Errors:   []string{"Unable to validate registration request"},
			Message:  "Unable to validate registration request",
			Internal: true,
		}
	}

	// Rule 1: each referenced entity must resolve to a live row.
	if req.EventID == "" {
		errs = append(errs, "eventId is required")
	} else {
		exists, err := s.DB.EventExists(ctx, req.EventID)
		if err != nil {
			return internal("event lookup", err)
		}
		if !exists {
			errs = append(errs, fmt.Sprintf("event with id %s does not exist", req.EventID))
		}
	}

	if req.UserID == "" {
		errs = append(errs, "userId is required")
	} else {
		exists, err := s.DB.UserExists(ctx, req.UserID)
		if err != nil {
			return internal("user lookup", err)
		}
		if !exists {
			errs = append(errs, fmt.Sprintf("user with id %s does not exist", req.UserID))
		}
	}

	if req.BuyerID == "" {
		errs = append(errs, "buyerId is required")
	} else {
		exists, err := s.DB.UserExists(ctx, req.BuyerID)
		if err != nil {
			return internal("buyer lookup", err)
		}
		if !exists {
			errs = append(errs, fmt.Sprintf("buyer with id %s does not exist", req.BuyerID))
		}
	}

	if req.VenueID == "" {
		errs = append(errs, "venueId is required")
	} else {
		exists, err := s.DB.VenueExists(ctx, req.VenueID)
		if err != nil {
			return internal("venue lookup", err)
		}
		if !exists {
			errs = append(errs, fmt.Sprintf("venue with id %s does not exist", req.VenueID))
		}
	}

	// Rule 2: boughtForIds is a set; every ID must be unique and resolve,
	// existence checked as one batch query.
	if len(req.BoughtForIDs) == 0 {
		errs = append(errs, "boughtForIds must not be empty")
	} else {
		seen := make(map[string]bool, len(req.BoughtForIDs))
		reported := make(map[string]bool)
		for _, id := range req.BoughtForIDs {
			if seen[id] && !reported[id] {
				reported[id] = true
				errs = append(errs, fmt.Sprintf("boughtForIds contains duplicate user id %s", id))
			}
			seen[id] = true
		}

		uniqueAttendees := dedupe(req.BoughtForIDs)
		users, err := s.DB.FindUsersByIDs(ctx, uniqueAttendees)
		if err != nil {
			return internal("bought-for lookup", err)
		}
		found := make(map[string]bool, len(users))
		for _, u := range users {
			found[u.ID] = true
		}
		for _, id := range uniqueAttendees {
			if !found[id] {
				errs = append(errs, fmt.Sprintf("boughtFor user with id %s does not exist", id))
			}
		}
	}

	// Rule 3: attendee count must match the ticket count.
	if len(req.BoughtForIDs) != req.NoOfTickets {
		errs = append(errs, fmt.Sprintf(
			"Number of boughtForIds (%d) must match noOfTickets (%d)",
			len(req.BoughtForIDs), req.NoOfTickets))
	}

	// Rule 4: the primary attendee must hold one of the tickets.
	if req.NoOfTickets > 0 && req.UserID != "" {
		holds := false
		for _, id := range req.BoughtForIDs {
			if id == req.UserID {
				holds = true
				break
			}
		}
		if !holds {
			errs = append(errs, fmt.Sprintf("userId %s must be included in boughtForIds", req.UserID))
		}
	}

	// Rule 5: ticket type entries resolve (deduplicated lookup) and the
	// total entry count, repeats included, equals noOfTickets.
	if len(req.TicketTypeIDs) == 0 {
		errs = append(errs, "ticketTypeIds must not be empty")
	} else {
		uniqueTypes := dedupe(req.TicketTypeIDs)
		ticketTypes, err := s.DB.FindTicketTypesByIDs(ctx, uniqueTypes)
		if err != nil {
			return internal("ticket type lookup", err)
		}
		found := make(map[string]bool, len(ticketTypes))
		for _, tt := range ticketTypes {
			found[tt.ID] = true
		}
		for _, id := range uniqueTypes {
			if !found[id] {
				errs = append(errs, fmt.Sprintf("ticket type with id %s does not exist", id))
			}
		}
		if len(req.TicketTypeIDs) != req.NoOfTickets {
			errs = append(errs, fmt.Sprintf(
				"Number of ticket type entries (%d) must match noOfTickets (%d)",
				len(req.TicketTypeIDs), req.NoOfTickets))
		}
	}

	// Rule 6: positive ticket count.
	if req.NoOfTickets <= 0 {
		errs = append(errs, fmt.Sprintf("noOfTickets must be a positive integer, got %d", req.NoOfTickets))
	}

	if len(errs) > 0 {
		return ValidationResult{
			Valid:   false,
			Errors:  errs,
			Message: strings.Join(errs, "; "),
		}
	}
	return ValidationResult{Valid: true}
}

// ValidateEventCapacity checks that the requested tickets fit into what the
// venue still has free, using one aggregate query over the event's existing
// registrations.
func (s *Service) ValidateEventCapacity(ctx context.Context, eventID, venueID string, requestedTickets int) (GuardResult, error) {
	venue, err := s.DB.GetVenue(ctx, venueID)
	if err != nil {
		return GuardResult{}, fmt.Errorf("failed to fetch venue %s: %w", venueID, err)
	}

	current, err := s.DB.SumTicketsForEvent(ctx, eventID)
	if err != nil {
		return GuardResult{}, fmt.Errorf("failed to sum tickets for event %s: %w", eventID, err)
	}

	available := venue.Capacity - current
	if requestedTickets > available {
		return GuardResult{
			Valid:   false,
			Message: fmt.Sprintf("Venue capacity exceeded. Available: %d, Requested: %d", available, requestedTickets),
		}, nil
	}
	return GuardResult{Valid: true}, nil
}

// ValidateDuplicateRegistration rejects the request when the primary attendee
// or any bought-for attendee already appears in a registration for the event.
func (s *Service) ValidateDuplicateRegistration(ctx context.Context, eventID, userID string, boughtForIDs []string) (GuardResult, error) {
	candidates := dedupe(append([]string{userID}, boughtForIDs...))
	clashing, err := s.DB.FindOverlappingAttendees(ctx, eventID, candidates)
	if err != nil {
		return GuardResult{}, fmt.Errorf("failed to check duplicate attendees for event %s: %w", eventID, err)
	}
	if len(clashing) > 0 {
		return GuardResult{
			Valid:   false,
			Message: fmt.Sprintf("Already registered for this event: %s", strings.Join(clashing, ", ")),
		}, nil
	}
	return GuardResult{Valid: true}, nil
}

// CalculateTicketCost batch-fetches the requested ticket types and sums the
// price once per requested entry. A ticket type repeated across entries is
// charged per entry. Prices stay full precision; rounding is display only.
func (s *Service) CalculateTicketCost(ctx context.Context, ticketTypeIDs []string) (CostResult, error) {
	unique := dedupe(ticketTypeIDs)
	ticketTypes, err := s.DB.FindTicketTypesByIDs(ctx, unique)
	if err != nil {
		return CostResult{}, fmt.Errorf("failed to fetch ticket types: %w", err)
	}

	byID := make(map[string]models.TicketType, len(ticketTypes))
	for _, tt := range ticketTypes {
		byID[tt.ID] = tt
	}

	if len(ticketTypes) != len(unique) {
		var missing []string
		for _, id := range unique {
			if _, ok := byID[id]; !ok {
				missing = append(missing, id)
			}
		}
		return CostResult{
			Valid:   false,
			Message: fmt.Sprintf("Ticket types not found: %s", strings.Join(missing, ", ")),
		}, nil
	}

	now := s.now()
	var total float64
	for _, id := range ticketTypeIDs {
		tt := byID[id]
		if !tt.AvailableAt(now) {
			return CostResult{
				Valid:   false,
				Message: fmt.Sprintf("Ticket type %s is not available for sale", tt.Name),
			}, nil
		}
		total += tt.Price
	}

	return CostResult{Valid: true, TotalCost: total}, nil
}
