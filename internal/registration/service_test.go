package registration_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ms-registration/internal/logger"
	"ms-registration/internal/models"
	"ms-registration/internal/qr"
	"ms-registration/internal/registration"
	regdb "ms-registration/internal/registration/db"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) EventExists(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBLayer) UserExists(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBLayer) VenueExists(ctx context.Context, venueID string) (bool, error) {
	args := m.Called(ctx, venueID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBLayer) FindUsersByIDs(ctx context.Context, userIDs []string) ([]models.User, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockDBLayer) FindTicketTypesByIDs(ctx context.Context, ticketTypeIDs []string) ([]models.TicketType, error) {
	args := m.Called(ctx, ticketTypeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TicketType), args.Error(1)
}

func (m *MockDBLayer) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockDBLayer) GetVenue(ctx context.Context, venueID string) (*models.Venue, error) {
	args := m.Called(ctx, venueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Venue), args.Error(1)
}

func (m *MockDBLayer) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockDBLayer) SumTicketsForEvent(ctx context.Context, eventID string) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

func (m *MockDBLayer) FindOverlappingAttendees(ctx context.Context, eventID string, userIDs []string) ([]string, error) {
	args := m.Called(ctx, eventID, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDBLayer) CreateRegistration(ctx context.Context, reg models.Registration, attendeeIDs, ticketTypeIDs []string) error {
	args := m.Called(ctx, reg, attendeeIDs, ticketTypeIDs)
	return args.Error(0)
}

func (m *MockDBLayer) GetRegistrationByID(ctx context.Context, registrationID string) (*models.Registration, error) {
	args := m.Called(ctx, registrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Registration), args.Error(1)
}

func (m *MockDBLayer) GetAttendeeIDs(ctx context.Context, registrationID string) ([]string, error) {
	args := m.Called(ctx, registrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDBLayer) GetTicketEntries(ctx context.Context, registrationID string) ([]models.TicketType, error) {
	args := m.Called(ctx, registrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TicketType), args.Error(1)
}

func (m *MockDBLayer) UpdateRegistration(ctx context.Context, reg models.Registration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}

func (m *MockDBLayer) UpdateQRCode(ctx context.Context, registrationID, filename string) error {
	args := m.Called(ctx, registrationID, filename)
	return args.Error(0)
}

func (m *MockDBLayer) DeleteRegistration(ctx context.Context, registrationID string) error {
	args := m.Called(ctx, registrationID)
	return args.Error(0)
}

func (m *MockDBLayer) TotalRegistrationsCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockQRService struct {
	mock.Mock
}

func (m *MockQRService) Generate(registrationID, userID, eventID string) (string, error) {
	args := m.Called(registrationID, userID, eventID)
	return args.String(0), args.Error(1)
}

func (m *MockQRService) Regenerate(registrationID, userID, eventID string) (string, error) {
	args := m.Called(registrationID, userID, eventID)
	return args.String(0), args.Error(1)
}

func (m *MockQRService) Remove(registrationID string) error {
	args := m.Called(registrationID)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishRegistrationCreated(reg models.Registration) error {
	args := m.Called(reg)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishRegistrationUpdated(reg models.Registration) error {
	args := m.Called(reg)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishRegistrationCancelled(reg models.Registration) error {
	args := m.Called(reg)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishRegistrationCheckedIn(reg models.Registration) error {
	args := m.Called(reg)
	return args.Error(0)
}

func newTestService(db *MockDBLayer, qrSvc *MockQRService) *registration.Service {
	return registration.NewService(db, qrSvc, nil, nil, logger.NewLogger())
}

func validRequest() models.RegistrationRequest {
	return models.RegistrationRequest{
		EventID:       "event1",
		UserID:        "user1",
		BuyerID:       "buyer1",
		VenueID:       "venue1",
		TicketTypeIDs: []string{"type1", "type1"},
		BoughtForIDs:  []string{"user1", "user2"},
		NoOfTickets:   2,
	}
}

// expectValidRequestLookups wires every store lookup the validation and guard
// stages perform for validRequest so the pipeline reaches the write.
func expectValidRequestLookups(mockDB *MockDBLayer) {
	mockDB.On("EventExists", mock.Anything, "event1").Return(true, nil)
	mockDB.On("UserExists", mock.Anything, "user1").Return(true, nil)
	mockDB.On("UserExists", mock.Anything, "buyer1").Return(true, nil)
	mockDB.On("VenueExists", mock.Anything, "venue1").Return(true, nil)
	mockDB.On("FindUsersByIDs", mock.Anything, []string{"user1", "user2"}).Return([]models.User{
		{ID: "user1"}, {ID: "user2"},
	}, nil)
	mockDB.On("FindTicketTypesByIDs", mock.Anything, []string{"type1"}).Return([]models.TicketType{
		{ID: "type1", Name: "General", Price: 25.0, Active: true},
	}, nil)
	mockDB.On("GetVenue", mock.Anything, "venue1").Return(&models.Venue{
		ID: "venue1", Name: "Main Hall", Capacity: 100,
	}, nil)
	mockDB.On("SumTicketsForEvent", mock.Anything, "event1").Return(10, nil)
	mockDB.On("FindOverlappingAttendees", mock.Anything, "event1", []string{"user1", "user2"}).
		Return([]string{}, nil)
}

func TestCreateRegistration_Success(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockQR := new(MockQRService)
	svc := newTestService(mockDB, mockQR)

	expectValidRequestLookups(mockDB)
	mockDB.On("CreateRegistration", mock.Anything, mock.Anything, []string{"user1", "user2"}, []string{"type1", "type1"}).Return(nil)
	mockQR.On("Generate", mock.Anything, "user1", "event1").Return("qrcode-test.png", nil)
	mockDB.On("UpdateQRCode", mock.Anything, mock.Anything, "qrcode-test.png").Return(nil)

	reg, err := svc.Create(context.Background(), validRequest(), "requester1")

	assert.NoError(t, err)
	assert.NotNil(t, reg)
	assert.NotEmpty(t, reg.RegistrationID)
	assert.Equal(t, "buyer1", reg.BuyerID)
	assert.Equal(t, 50.0, reg.TotalCost)
	assert.Equal(t, models.PaymentStatusPending, reg.PaymentStatus)
	assert.Equal(t, "qrcode-test.png", reg.QRCode)

	mockDB.AssertExpectations(t)
	mockQR.AssertExpectations(t)
}

func TestCreateRegistration_BuyerDefaultsToRequester(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockQR := new(MockQRService)
	svc := newTestService(mockDB, mockQR)

	req := validRequest()
	req.BuyerID = ""

	mockDB.On("EventExists", mock.Anything, "event1").Return(true, nil)
	mockDB.On("UserExists", mock.Anything, "user1").Return(true, nil)
	mockDB.On("UserExists", mock.Anything, "requester1").Return(true, nil)
	mockDB.On("VenueExists", mock.Anything, "venue1").Return(true, nil)
	mockDB.On("FindUsersByIDs", mock.Anything, []string{"user1", "user2"}).Return([]models.User{
		{ID: "user1"}, {ID: "user2"},
	}, nil)
	mockDB.On("FindTicketTypesByIDs", mock.Anything, []string{"type1"}).Return([]models.TicketType{
		{ID: "type1", Name: "General", Price: 25.0, Active: true},
	}, nil)
	mockDB.On("GetVenue", mock.Anything, "venue1").Return(&models.Venue{
		ID: "venue1", Capacity: 100,
	}, nil)
	mockDB.On("SumTicketsForEvent", mock.Anything, "event1").Return(0, nil)
	mockDB.On("FindOverlappingAttendees", mock.Anything, "event1", []string{"user1", "user2"}).
		Return([]string{}, nil)
	mockDB.On("CreateRegistration", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockQR.On("Generate", mock.Anything, "user1", "event1").Return("qrcode-test.png", nil)
	mockDB.On("UpdateQRCode", mock.Anything, mock.Anything, "qrcode-test.png").Return(nil)

	reg, err := svc.Create(context.Background(), req, "requester1")

	assert.NoError(t, err)
	assert.Equal(t, "requester1", reg.BuyerID)
	mockDB.AssertExpectations(t)
}

func TestCreateRegistration_ValidationFailure(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockQR := new(MockQRService)
	svc := newTestService(mockDB, mockQR)

	req := validRequest()
	req.BoughtForIDs = []string{"user1"} // count mismatch against noOfTickets=2

	mockDB.On("EventExists", mock.Anything, "event1").Return(true, nil)
	mockDB.On("UserExists", mock.Anything, "user1").Return(true, nil)
	mockDB.On("UserExists", mock.Anything, "buyer1").Return(true, nil)
	mockDB.On("VenueExists", mock.Anything, "venue1").Return(true, nil)
	mockDB.On("FindUsersByIDs", mock.Anything, []string{"user1"}).Return([]models.User{{ID: "user1"}}, nil)
	mockDB.On("FindTicketTypesByIDs", mock.Anything, []string{"type1"}).Return([]models.TicketType{
		{ID: "type1", Name: "General", Price: 25.0, Active: true},
	}, nil)

	reg, err := svc.Create(context.Background(), req, "requester1")

	assert.Error(t, err)
	assert.Nil(t, reg)

	var vErr *registration.ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Errors, "Number of boughtForIds (1) must match noOfTickets (2)")

	// Nothing persisted or published on a rejected request.
	mockDB.AssertNotCalled(t, "CreateRegistration", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockQR.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateRegistration_CapacityExceeded(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockQR := new(MockQRService)
	svc := newTestService(mockDB, mockQR)

	mockDB.On("EventExists", mock.Anything, "event1").Return(true, nil)
	mockDB.On("UserExists", mock.Anything, "user1").Return(true, nil)
	mockDB.On("UserExists", mock.Anything, "buyer1").Return(true, nil)
	mockDB.On("VenueExists", mock.Anything, "venue1").Return(true, nil)
	mockDB.On("FindUsersByIDs", mock.Anything, []string{"user1", "user2"}).Return([]models.User{
		{ID: "user1"}, {ID: "user2"},
	}, nil)
	mockDB.On("FindTicketTypesByIDs", mock.Anything, []string{"type1"}).Return([]models.TicketType{
		{ID: "type1", Name: "General", Price: 25.0, Active: true},
	}, nil)
	mockDB.On("GetVenue", mock.Anything, "venue1").Return(&models.Venue{
		ID: "venue1", Capacity: 10,
	}, nil)
	mockDB.On("SumTicketsForEvent", mock.Anything, "event1").Return(9, nil)

	reg, err := svc.Create(context.Background(), validRequest(), "requester1")

	assert.Error(t, err)
	assert.Nil(t, reg)

	var bErr *registration.BusinessRuleError
	assert.True(t, errors.As(err, &bErr))
	assert.Equal(t, "Venue capacity exceeded. Available: 1, Requested: 2", bErr.Message)

	mockDB.AssertNotCalled(t, "CreateRegistration", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateRegistration_DuplicateAttendee(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockQR := new(MockQRService)
	svc := newTestService(mockDB, mockQR)

	mockDB.On("EventExists", mock.Anything, "event1").Return(true, nil)
	mockDB.On("UserExists", mock.Anything, "user1").Return(true, nil)
	mockDB.On("UserExists", mock.Anything, "buyer1").Return(true, nil)
	mockDB.On("VenueExists", mock.Anything, "venue1").Return(true, nil)
	mockDB.On("FindUsersByIDs", mock.Anything, []string{"user1", "user2"}).Return([]models.User{
		{ID: "user1"}, {ID: "user2"},
	}, nil)
	mockDB.On("FindTicketTypesByIDs", mock.Anything, []string{"type1"}).Return([]models.TicketType{
		{ID: "type1", Name: "General", Price: 25.0, Active: true},
	}, nil)
	mockDB.On("GetVenue", mock.Anything, "venue1").Return(&models.Venue{
		ID: "venue1", Capacity: 100,
	}, nil)
	mockDB.On("SumTicketsForEvent", mock.Anything, "event1").Return(0, nil)
	mockDB.On("FindOverlappingAttendees", mock.Anything, "event1", []string{"user1", "user2"}).
		Return([]string{"user2"}, nil)

	reg, err := svc.Create(context.Background(), validRequest(), "requester1")

	assert.Error(t, err)
	assert.Nil(t, reg)

	var bErr *registration.BusinessRuleError
	assert.True(t, errors.As(err, &bErr))
	assert.Contains(t, bErr.Message, "user2")

	mockDB.AssertNotCalled(t, "CreateRegistration", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateRegistration_RaceLostAtInsert(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockQR := new(MockQRService)
	svc := newTestService(mockDB, mockQR)

	expectValidRequestLookups(mockDB)
	// Guards passed, but a concurrent writer filled the venue before commit.
	mockDB.On("CreateRegistration", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(regdb.ErrCapacityExceeded)

	reg, err := svc.Create(context.Background(), validRequest(), "requester1")

	assert.Error(t, err)
	assert.Nil(t, reg)

	var bErr *registration.BusinessRuleError
	assert.True(t, errors.As(err, &bErr))
	mockQR.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateRegistration_QRFailureKeepsRegistration(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockQR := new(MockQRService)
	svc := newTestService(mockDB, mockQR)

	expectValidRequestLookups(mockDB)
	mockDB.On("CreateRegistration", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockQR.On("Generate", mock.Anything, "user1", "event1").Return("", errors.New("disk full"))

	reg, err := svc.Create(context.Background(), validRequest(), "requester1")

	assert.NoError(t, err)
	assert.NotNil(t, reg)
	assert.Empty(t, reg.QRCode)
	mockDB.AssertNotCalled(t, "UpdateQRCode", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateRegistration_PublishesEvent(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockQR := new(MockQRService)
	mockKafka := new(MockEventPublisher)
	svc := registration.NewService(mockDB, mockQR, nil, mockKafka, logger.NewLogger())

	expectValidRequestLookups(mockDB)
	mockDB.On("CreateRegistration", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockQR.On("Generate", mock.Anything, "user1", "event1").Return("qrcode-test.png", nil)
	mockDB.On("UpdateQRCode", mock.Anything, mock.Anything, "qrcode-test.png").Return(nil)
	mockKafka.On("PublishRegistrationCreated", mock.Anything).Return(nil)

	_, err := svc.Create(context.Background(), validRequest(), "requester1")

	assert.NoError(t, err)
	mockKafka.AssertExpectations(t)
}

func TestGetRegistration(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockQR := new(MockQRService)
	svc := newTestService(mockDB, mockQR)

	regID := uuid.New().String()
	stored := &models.Registration{
		RegistrationID: regID,
		EventID:        "event1",
		UserID:         "user1",
		BuyerID:        "buyer1",
		VenueID:        "venue1",
		NoOfTickets:    2,
		TotalCost:      50.0,
		PaymentStatus:  models.PaymentStatusPaid,
	}

	mockDB.On("GetRegistrationByID", mock.Anything, regID).Return(stored, nil)
	mockDB.On("GetEvent", mock.Anything, "event1").Return(&models.Event{ID: "event1", Title: "GopherCon"}, nil)
	mockDB.On("GetVenue", mock.Anything, "venue1").Return(&models.Venue{ID: "venue1", Capacity: 100}, nil)
	mockDB.On("GetUser", mock.Anything, "user1").Return(&models.User{ID: "user1"}, nil)
	mockDB.On("GetUser", mock.Anything, "buyer1").Return(&models.User{ID: "buyer1"}, nil)
	mockDB.On("GetAttendeeIDs", mock.Anything, regID).Return([]string{"user1", "user2"}, nil)
	mockDB.On("GetTicketEntries", mock.Anything, regID).Return([]models.TicketType{
		{ID: "type1", Price: 25.0}, {ID: "type1", Price: 25.0},
	}, nil)

	detail, err := svc.Get(context.Background(), regID)

	assert.NoError(t, err)
	assert.NotNil(t, detail)
	assert.Equal(t, regID, detail.Registration.RegistrationID)
	assert.Equal(t, "GopherCon", detail.Event.Title)
	assert.Equal(t, []string{"user1", "user2"}, detail.BoughtFor)
	assert.Len(t, detail.TicketTypes, 2)

	// Unknown registration surfaces the not-found sentinel.
	mockDB.On("GetRegistrationByID", mock.Anything, "missing").Return(nil, regdb.ErrNotFound)
	detail, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, regdb.ErrNotFound)
	assert.Nil(t, detail)
}

func TestUpdateRegistration(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockQR := new(MockQRService)
	svc := newTestService(mockDB, mockQR)

	regID := uuid.New().String()
	stored := &models.Registration{
		RegistrationID: regID,
		EventID:        "event1",
		PaymentStatus:  models.PaymentStatusPending,
	}
	mockDB.On("GetRegistrationByID", mock.Anything, regID).Return(stored, nil)
	mockDB.On("UpdateRegistration", mock.Anything, mock.Anything).Return(nil)

	paid := models.PaymentStatusPaid
	updated, err := svc.Update(context.Background(), regID, models.RegistrationUpdateRequest{PaymentStatus: &paid})

	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)
	mockDB.AssertExpectations(t)
}

func TestUpdateRegistration_InvalidPaymentStatus(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockQR := new(MockQRService)
	svc := newTestService(mockDB, mockQR)

	regID := uuid.New().String()
	mockDB.On("GetRegistrationByID", mock.Anything, regID).Return(&models.Registration{
		RegistrationID: regID,
	}, nil)

	bogus := "settled"
	updated, err := svc.Update(context.Background(), regID, models.RegistrationUpdateRequest{PaymentStatus: &bogus})

	assert.Error(t, err)
	assert.Nil(t, updated)

	var vErr *registration.ValidationError
	assert.True(t, errors.As(err, &vErr))
	mockDB.AssertNotCalled(t, "UpdateRegistration", mock.Anything, mock.Anything)
}

func TestDeleteRegistration(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockQR := new(MockQRService)
	svc := newTestService(mockDB, mockQR)

	regID := uuid.New().String()
	mockDB.On("GetRegistrationByID", mock.Anything, regID).Return(&models.Registration{
		RegistrationID: regID,
		EventID:        "event1",
	}, nil)
	mockDB.On("DeleteRegistration", mock.Anything, regID).Return(nil)
	mockQR.On("Remove", regID).Return(nil)

	err := svc.Delete(context.Background(), regID)

	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
	mockQR.AssertExpectations(t)
}

func TestGetQRCode(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockQR := new(MockQRService)
	svc := newTestService(mockDB, mockQR)

	regID := uuid.New().String()
	mockDB.On("GetRegistrationByID", mock.Anything, regID).Return(&models.Registration{
		RegistrationID: regID,
		QRCode:         "qrcode-" + regID + ".png",
	}, nil)

	filename, err := svc.GetQRCode(context.Background(), regID)
	assert.NoError(t, err)
	assert.Equal(t, "qrcode-"+regID+".png", filename)

	// A registration whose generation failed has no artifact yet.
	mockDB.On("GetRegistrationByID", mock.Anything, "bare").Return(&models.Registration{
		RegistrationID: "bare",
	}, nil)

	filename, err = svc.GetQRCode(context.Background(), "bare")
	assert.ErrorIs(t, err, registration.ErrNoQRCode)
	assert.Empty(t, filename)
}

func TestLookupByQRPayload(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockQR := new(MockQRService)
	svc := newTestService(mockDB, mockQR)

	regID := uuid.New().String()
	payload, _ := json.Marshal(qr.Payload{
		RegistrationID: regID,
		UserID:         "user1",
		EventID:        "event1",
		Timestamp:      time.Now().Unix(),
		UniqueHash:     "abc123",
	})
	encoded := base64.StdEncoding.EncodeToString(payload)

	stored := &models.Registration{
		RegistrationID: regID,
		EventID:        "event1",
		UserID:         "user1",
		BuyerID:        "user1",
		VenueID:        "venue1",
	}
	mockDB.On("GetRegistrationByID", mock.Anything, regID).Return(stored, nil)
	mockDB.On("GetEvent", mock.Anything, "event1").Return(&models.Event{ID: "event1"}, nil)
	mockDB.On("GetVenue", mock.Anything, "venue1").Return(&models.Venue{ID: "venue1"}, nil)
	mockDB.On("GetUser", mock.Anything, "user1").Return(&models.User{ID: "user1"}, nil)
	mockDB.On("GetAttendeeIDs", mock.Anything, regID).Return([]string{"user1"}, nil)
	mockDB.On("GetTicketEntries", mock.Anything, regID).Return([]models.TicketType{{ID: "type1"}}, nil)

	detail, err := svc.LookupByQRPayload(context.Background(), encoded)
	assert.NoError(t, err)
	assert.Equal(t, regID, detail.Registration.RegistrationID)

	// Malformed payloads all collapse to the same generic error.
	detail, err = svc.LookupByQRPayload(context.Background(), "not-base64!!!")
	assert.ErrorIs(t, err, registration.ErrInvalidQRCode)
	assert.Nil(t, detail)
}

func TestLookupByQRPayload_Mismatch(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockQR := new(MockQRService)
	svc := newTestService(mockDB, mockQR)

	regID := uuid.New().String()
	payload, _ := json.Marshal(qr.Payload{
		RegistrationID: regID,
		UserID:         "user1",
		EventID:        "event1",
	})
	encoded := base64.StdEncoding.EncodeToString(payload)

	// The stored row belongs to a different user than the payload claims.
	mockDB.On("GetRegistrationByID", mock.Anything, regID).Return(&models.Registration{
		RegistrationID: regID,
		EventID:        "event1",
		UserID:         "someone-else",
	}, nil)

	detail, err := svc.LookupByQRPayload(context.Background(), encoded)
	assert.ErrorIs(t, err, registration.ErrInvalidQRCode)
	assert.Nil(t, detail)
}

func TestCheckIn(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockQR := new(MockQRService)
	svc := newTestService(mockDB, mockQR)

	regID := uuid.New().String()
	mockDB.On("GetRegistrationByID", mock.Anything, regID).Return(&models.Registration{
		RegistrationID: regID,
		EventID:        "event1",
	}, nil)
	mockDB.On("UpdateRegistration", mock.Anything, mock.MatchedBy(func(reg models.Registration) bool {
		return reg.Attended && reg.CheckDate != nil
	})).Return(nil)

	reg, err := svc.CheckIn(context.Background(), regID)

	assert.NoError(t, err)
	assert.True(t, reg.Attended)
	assert.NotNil(t, reg.CheckDate)
	mockDB.AssertExpectations(t)
}

func TestRegenerateQRCode(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockQR := new(MockQRService)
	svc := newTestService(mockDB, mockQR)

	regID := uuid.New().String()
	mockDB.On("GetRegistrationByID", mock.Anything, regID).Return(&models.Registration{
		RegistrationID: regID,
		EventID:        "event1",
		UserID:         "user1",
	}, nil)
	mockQR.On("Regenerate", regID, "user1", "event1").Return("qrcode-"+regID+".png", nil)
	mockDB.On("UpdateQRCode", mock.Anything, regID, "qrcode-"+regID+".png").Return(nil)

	filename, err := svc.RegenerateQRCode(context.Background(), regID)

	assert.NoError(t, err)
	assert.Equal(t, "qrcode-"+regID+".png", filename)
	mockDB.AssertExpectations(t)
	mockQR.AssertExpectations(t)
}

func TestTotalCount(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockQR := new(MockQRService)
	svc := newTestService(mockDB, mockQR)

	mockDB.On("TotalRegistrationsCount", mock.Anything).Return(42, nil)

	count, err := svc.TotalCount(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 42, count)
}
