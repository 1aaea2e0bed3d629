package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-registration/internal/cache"
	"ms-registration/internal/logger"
	"ms-registration/internal/models"
	"ms-registration/internal/qr"
	regdb "ms-registration/internal/registration/db"
	"ms-registration/internal/utils"
)

type DBLayer interface {
	EventExists(ctx context.Context, eventID string) (bool, error)
	UserExists(ctx context.Context, userID string) (bool, error)
	VenueExists(ctx context.Context, venueID string) (bool, error)
	FindUsersByIDs(ctx context.Context, userIDs []string) ([]models.User, error)
	FindTicketTypesByIDs(ctx context.Context, ticketTypeIDs []string) ([]models.TicketType, error)
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	GetVenue(ctx context.Context, venueID string) (*models.Venue, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	SumTicketsForEvent(ctx context.Context, eventID string) (int, error)
	FindOverlappingAttendees(ctx context.Context, eventID string, userIDs []string) ([]string, error)
	CreateRegistration(ctx context.Context, reg models.Registration, attendeeIDs, ticketTypeIDs []string) error
	GetRegistrationByID(ctx context.Context, registrationID string) (*models.Registration, error)
	GetAttendeeIDs(ctx context.Context, registrationID string) ([]string, error)
	GetTicketEntries(ctx context.Context, registrationID string) ([]models.TicketType, error)
	UpdateRegistration(ctx context.Context, reg models.Registration) error
	UpdateQRCode(ctx context.Context, registrationID, filename string) error
	DeleteRegistration(ctx context.Context, registrationID string) error
	TotalRegistrationsCount(ctx context.Context) (int, error)
}

type QRService interface {
	Generate(registrationID, userID, eventID string) (string, error)
	Regenerate(registrationID, userID, eventID string) (string, error)
	Remove(registrationID string) error
}

type EventPublisher interface {
	PublishRegistrationCreated(reg models.Registration) error
	PublishRegistrationUpdated(reg models.Registration) error
	PublishRegistrationCancelled(reg models.Registration) error
	PublishRegistrationCheckedIn(reg models.Registration) error
}

type CacheLayer interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}) error
	Invalidate(ctx context.Context, keys ...string) error
}

type Service struct {
	DB     DBLayer
	QR     QRService
	Cache  CacheLayer
	Kafka  EventPublisher
	Logger *logger.Logger

	// clock is swappable in tests for availability-window checks.
	clock func() time.Time
}

func NewService(db DBLayer, qrSvc QRService, cacheLayer CacheLayer, publisher EventPublisher, log *logger.Logger) *Service {
	return &Service{
		DB:     db,
		QR:     qrSvc,
		Cache:  cacheLayer,
		Kafka:  publisher,
		Logger: log,
	}
}

func (s *Service) now() time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return time.Now()
}

// Create runs the full registration pipeline: ID/shape validation, capacity
// and duplicate guards, cost calculation, then the transactional write. Each
// stage aborts the whole request on failure; nothing is persisted until all
// of them pass. QR generation happens after the commit and its failure leaves
// the registration standing without an artifact.
func (s *Service) Create(ctx context.Context, req models.RegistrationRequest, requesterID string) (*models.Registration, error) {
	if req.BuyerID == "" {
		req.BuyerID = requesterID
	}

	vr := s.ValidateRegistrationIDs(ctx, req)
	if vr.Internal {
		return nil, fmt.Errorf("%w: id validation unavailable", ErrInternal)
	}
	if !vr.Valid {
		return nil, &ValidationError{Errors: vr.Errors}
	}

	capRes, err := s.ValidateEventCapacity(ctx, req.EventID, req.VenueID, req.NoOfTickets)
	if err != nil {
		return nil, fmt.Errorf("%w: capacity check: %v", ErrInternal, err)
	}
	if !capRes.Valid {
		return nil, &BusinessRuleError{Message: capRes.Message}
	}

	dupRes, err := s.ValidateDuplicateRegistration(ctx, req.EventID, req.UserID, req.BoughtForIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: duplicate check: %v", ErrInternal, err)
	}
	if !dupRes.Valid {
		return nil, &BusinessRuleError{Message: dupRes.Message}
	}

	costRes, err := s.CalculateTicketCost(ctx, req.TicketTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: cost calculation: %v", ErrInternal, err)
	}
	if !costRes.Valid {
		return nil, &BusinessRuleError{Message: costRes.Message}
	}

	reg := models.Registration{
		RegistrationID:   utils.GenerateRegistrationID(),
		EventID:          req.EventID,
		UserID:           req.UserID,
		BuyerID:          req.BuyerID,
		VenueID:          req.VenueID,
		NoOfTickets:      req.NoOfTickets,
		TotalCost:        costRes.TotalCost,
		RegistrationDate: s.now(),
		PaymentStatus:    models.PaymentStatusPending,
	}

	s.Logger.LogRegistration("CREATE", reg.RegistrationID,
		fmt.Sprintf("event=%s tickets=%d cost=%.2f", reg.EventID, reg.NoOfTickets, reg.TotalCost))

	if err := s.DB.CreateRegistration(ctx, reg, req.BoughtForIDs, req.TicketTypeIDs); err != nil {
		switch {
		case errors.Is(err, regdb.ErrCapacityExceeded):
			return nil, &BusinessRuleError{Message: "Venue capacity exceeded"}
		case errors.Is(err, regdb.ErrDuplicateAttendee):
			return nil, &BusinessRuleError{Message: "An attendee is already registered for this event"}
		default:
			return nil, fmt.Errorf("%w: failed to persist registration: %v", ErrInternal, err)
		}
	}

	filename, err := s.QR.Generate(reg.RegistrationID, reg.UserID, reg.EventID)
	if err != nil {
		// Registration stands without an artifact; regenerate recovers it.
		s.Logger.Error("QRCODE", fmt.Sprintf("generation failed for %s: %v", reg.RegistrationID, err))
	} else {
		if err := s.DB.UpdateQRCode(ctx, reg.RegistrationID, filename); err != nil {
			s.Logger.Error("QRCODE", fmt.Sprintf("failed to attach filename to %s: %v", reg.RegistrationID, err))
		} else {
			reg.QRCode = filename
		}
	}

	s.invalidate(ctx, reg)

	if s.Kafka != nil {
		if err := s.Kafka.PublishRegistrationCreated(reg); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("publish registration created failed: %v", err))
		}
	}

	return &reg, nil
}

// Get returns a registration with resolved relations, read through the cache.
func (s *Service) Get(ctx context.Context, registrationID string) (*models.RegistrationDetail, error) {
	key := cache.RegistrationKey(registrationID)

	if s.Cache != nil {
		var cached models.RegistrationDetail
		hit, err := s.Cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.Logger.Warn("CACHE", fmt.Sprintf("read failed for %s: %v", key, err))
		}
		if hit {
			return &cached, nil
		}
	}

	reg, err := s.DB.GetRegistrationByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	detail := models.RegistrationDetail{Registration: *reg}

	if event, err := s.DB.GetEvent(ctx, reg.EventID); err == nil {
		detail.Event = event
	}
	if venue, err := s.DB.GetVenue(ctx, reg.VenueID); err == nil {
		detail.Venue = venue
	}
	if user, err := s.DB.GetUser(ctx, reg.UserID); err == nil {
		detail.User = user
	}
	if buyer, err := s.DB.GetUser(ctx, reg.BuyerID); err == nil {
		detail.Buyer = buyer
	}

	attendees, err := s.DB.GetAttendeeIDs(ctx, registrationID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load attendees: %v", ErrInternal, err)
	}
	detail.BoughtFor = attendees

	ticketTypes, err := s.DB.GetTicketEntries(ctx, registrationID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load ticket entries: %v", ErrInternal, err)
	}
	detail.TicketTypes = ticketTypes

	if s.Cache != nil {
		if err := s.Cache.SetJSON(ctx, key, detail); err != nil {
			s.Logger.Warn("CACHE", fmt.Sprintf("write failed for %s: %v", key, err))
		}
	}

	return &detail, nil
}

// Update changes the mutable fields of a registration (payment status,
// attendance flag).
func (s *Service) Update(ctx context.Context, registrationID string, upd models.RegistrationUpdateRequest) (*models.Registration, error) {
	reg, err := s.DB.GetRegistrationByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	if upd.PaymentStatus != nil {
		switch *upd.PaymentStatus {
		case models.PaymentStatusPending, models.PaymentStatusPaid,
			models.PaymentStatusFailed, models.PaymentStatusRefunded:
			reg.PaymentStatus = *upd.PaymentStatus
		default:
			return nil, &ValidationError{Errors: []string{
				fmt.Sprintf("invalid paymentStatus %q", *upd.PaymentStatus),
			}}
		}
	}
	if upd.Attended != nil {
		reg.Attended = *upd.Attended
	}

	if err := s.DB.UpdateRegistration(ctx, *reg); err != nil {
		return nil, fmt.Errorf("%w: failed to update registration: %v", ErrInternal, err)
	}

	s.invalidate(ctx, *reg)

	if s.Kafka != nil {
		if err := s.Kafka.PublishRegistrationUpdated(*reg); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("publish registration updated failed: %v", err))
		}
	}

	return reg, nil
}

// Delete removes a registration, its child rows and its QR artifact.
func (s *Service) Delete(ctx context.Context, registrationID string) error {
	reg, err := s.DB.GetRegistrationByID(ctx, registrationID)
	if err != nil {
		return err
	}

	if err := s.DB.DeleteRegistration(ctx, registrationID); err != nil {
		return err
	}

	if err := s.QR.Remove(registrationID); err != nil {
		s.Logger.Warn("QRCODE", fmt.Sprintf("failed to remove artifact for %s: %v", registrationID, err))
	}

	s.invalidate(ctx, *reg)

	if s.Kafka != nil {
		if err := s.Kafka.PublishRegistrationCancelled(*reg); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("publish registration cancelled failed: %v", err))
		}
	}

	return nil
}

// GetQRCode returns the stored artifact filename.
func (s *Service) GetQRCode(ctx context.Context, registrationID string) (string, error) {
	reg, err := s.DB.GetRegistrationByID(ctx, registrationID)
	if err != nil {
		return "", err
	}
	if reg.QRCode == "" {
		return "", ErrNoQRCode
	}
	return reg.QRCode, nil
}

// RegenerateQRCode replaces the registration's artifact: the old file is
// unlinked first, a new one is rendered under the same deterministic name and
// the registration row is updated. Safe to call repeatedly.
func (s *Service) RegenerateQRCode(ctx context.Context, registrationID string) (string, error) {
	reg, err := s.DB.GetRegistrationByID(ctx, registrationID)
	if err != nil {
		return "", err
	}

	filename, err := s.QR.Regenerate(reg.RegistrationID, reg.UserID, reg.EventID)
	if err != nil {
		return "", fmt.Errorf("%w: QR regeneration failed: %v", ErrInternal, err)
	}

	if err := s.DB.UpdateQRCode(ctx, registrationID, filename); err != nil {
		return "", fmt.Errorf("%w: failed to attach regenerated filename: %v", ErrInternal, err)
	}

	reg.QRCode = filename
	s.invalidate(ctx, *reg)
	s.Logger.LogQR("REGENERATE", registrationID, "artifact replaced")

	return filename, nil
}

// LookupByQRPayload decodes a scanned base64 payload and returns the matching
// registration. Any mismatch between payload and stored row yields the same
// generic invalid-code error as a malformed payload.
func (s *Service) LookupByQRPayload(ctx context.Context, raw string) (*models.RegistrationDetail, error) {
	payload := qr.Validate(raw)
	if payload == nil {
		return nil, ErrInvalidQRCode
	}

	reg, err := s.DB.GetRegistrationByID(ctx, payload.RegistrationID)
	if err != nil {
		if errors.Is(err, regdb.ErrNotFound) {
			return nil, ErrInvalidQRCode
		}
		return nil, fmt.Errorf("%w: registration lookup: %v", ErrInternal, err)
	}

	if reg.UserID != payload.UserID || reg.EventID != payload.EventID {
		return nil, ErrInvalidQRCode
	}

	return s.Get(ctx, reg.RegistrationID)
}

// CheckIn marks a registration as attended with the scan timestamp.
func (s *Service) CheckIn(ctx context.Context, registrationID string) (*models.Registration, error) {
	reg, err := s.DB.GetRegistrationByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	reg.Attended = true
	reg.CheckDate = &now

	if err := s.DB.UpdateRegistration(ctx, *reg); err != nil {
		return nil, fmt.Errorf("%w: failed to record check-in: %v", ErrInternal, err)
	}

	s.invalidate(ctx, *reg)

	if s.Kafka != nil {
		if err := s.Kafka.PublishRegistrationCheckedIn(*reg); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("publish check-in failed: %v", err))
		}
	}

	return reg, nil
}

// TotalCount returns the total number of registrations.
func (s *Service) TotalCount(ctx context.Context) (int, error) {
	return s.DB.TotalRegistrationsCount(ctx)
}

func (s *Service) invalidate(ctx context.Context, reg models.Registration) {
	if s.Cache == nil {
		return
	}
	keys := cache.RegistrationInvalidationKeys(reg.RegistrationID, reg.EventID)
	if err := s.Cache.Invalidate(ctx, keys...); err != nil {
		s.Logger.Warn("CACHE", fmt.Sprintf("invalidation failed for %s: %v", reg.RegistrationID, err))
	}
}
