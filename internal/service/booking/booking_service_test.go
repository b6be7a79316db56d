package booking

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/inventory"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Mock структуры

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error) {
	args := m.Called(ctx, pnr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookingRepository) UpdateSeatNumbers(ctx context.Context, id string, seatNumbers []string) (*domain.Booking, error) {
	args := m.Called(ctx, id, seatNumbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdatePassengerIDs(ctx context.Context, id string, passengerIDs []string) (*domain.Booking, error) {
	args := m.Called(ctx, id, passengerIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateTotalAmount(ctx context.Context, id string, amount float64) (*domain.Booking, error) {
	args := m.Called(ctx, id, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockInventory struct {
	mock.Mock
}

func (m *MockInventory) ReserveSeats(ctx context.Context, flightID string, seatNumbers []string) error {
	args := m.Called(ctx, flightID, seatNumbers)
	return args.Error(0)
}

func (m *MockInventory) AdjustInventory(ctx context.Context, flightID string, delta int) (*inventory.FlightSnapshot, error) {
	args := m.Called(ctx, flightID, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.FlightSnapshot), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetBooking(ctx context.Context, pnr string) (*domain.Booking, error) {
	args := m.Called(ctx, pnr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockCache) SetBooking(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockCache) InvalidateBooking(ctx context.Context, pnr string) error {
	args := m.Called(ctx, pnr)
	return args.Error(0)
}

// MockProducer - реализует интерфейс Producer напрямую
type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

var pnrPattern = regexp.MustCompile(`^PNR-[0-9A-F]{6}$`)

func validInput() BookFlightInput {
	return BookFlightInput{
		FlightID:     "FL1",
		SeatCount:    2,
		SeatNumbers:  []string{"1A", "1B"},
		PassengerIDs: []string{"P1", "P2"},
		Email:        "a@b.com",
	}
}

func newTestService(repo *MockBookingRepository, inv *MockInventory, cache *MockCache, producer *MockProducer, breakerCfg config.BreakerConfig) *BookingService {
	return NewBookingService(repo, inv, cache, producer, breakerCfg)
}

// ============================ Тесты для BookingService ============================

func TestBookingService_BookFlight_Success(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockInv := &MockInventory{}
	mockCache := &MockCache{}
	mockProducer := &MockProducer{}

	service := newTestService(mockRepo, mockInv, mockCache, mockProducer, config.BreakerConfig{})

	ctx := context.Background()
	input := validInput()

	// Настройка моков
	mockInv.On("ReserveSeats", ctx, "FL1", []string{"1A", "1B"}).Return(nil).Once()
	mockInv.On("AdjustInventory", ctx, "FL1", -2).Return(&inventory.FlightSnapshot{ID: "FL1", AvailableSeats: 98}, nil).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, kafka.TopicBookingCreated, mock.Anything, mock.Anything).Return(nil).Once()

	result, err := service.BookFlight(ctx, input)
	service.Wait()

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, domain.BookingConfirmed, result.Kind)
	assert.False(t, result.Degraded())
	assert.Regexp(t, pnrPattern, result.Booking.PNR)
	assert.NotEmpty(t, result.Booking.ID)
	assert.Equal(t, input.Email, result.Booking.Email)
	assert.Equal(t, input.SeatNumbers, result.Booking.SeatNumbers)
	assert.False(t, result.Booking.BookingDate.IsZero())

	mockRepo.AssertNumberOfCalls(t, "Create", 1)
	mockInv.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_BookFlight_ValidationErrors(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockInv := &MockInventory{}

	service := newTestService(mockRepo, mockInv, &MockCache{}, &MockProducer{}, config.BreakerConfig{})
	ctx := context.Background()

	testCases := []struct {
		name  string
		input BookFlightInput
	}{
		{
			name: "Missing flight id",
			input: BookFlightInput{
				SeatCount:   1,
				SeatNumbers: []string{"1A"},
				Email:       "a@b.com",
			},
		},
		{
			name: "Seat count zero",
			input: BookFlightInput{
				FlightID:    "FL1",
				SeatCount:   0,
				SeatNumbers: []string{},
				Email:       "a@b.com",
			},
		},
		{
			name: "Seat count negative",
			input: BookFlightInput{
				FlightID:    "FL1",
				SeatCount:   -3,
				SeatNumbers: []string{},
				Email:       "a@b.com",
			},
		},
		{
			name: "Seat numbers mismatch",
			input: BookFlightInput{
				FlightID:    "FL1",
				SeatCount:   2,
				SeatNumbers: []string{"1A"},
				Email:       "a@b.com",
			},
		},
		{
			name: "Empty email",
			input: BookFlightInput{
				FlightID:    "FL1",
				SeatCount:   1,
				SeatNumbers: []string{"1A"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := service.BookFlight(ctx, tc.input)
			assert.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	mockInv.AssertNotCalled(t, "ReserveSeats")
	mockRepo.AssertNotCalled(t, "Create")
}

func TestBookingService_BookFlight_SeatConflict(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockInv := &MockInventory{}
	mockProducer := &MockProducer{}

	// MinRequests 1: если бы конфликт считался отказом, breaker открылся бы сразу
	service := newTestService(mockRepo, mockInv, &MockCache{}, mockProducer, config.BreakerConfig{MinRequests: 1})

	ctx := context.Background()
	input := validInput()

	conflict := fmt.Errorf("%w: seat booking failed: Seat 1A is already booked", domain.ErrClientRequest)
	mockInv.On("ReserveSeats", ctx, "FL1", []string{"1A", "1B"}).Return(conflict).Once()

	result, err := service.BookFlight(ctx, input)

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrClientRequest)
	mockInv.AssertNotCalled(t, "AdjustInventory")
	mockRepo.AssertNotCalled(t, "Create")
	mockProducer.AssertNotCalled(t, "Publish")

	// A business rejection must not trip the breaker: the next valid
	// request still reaches the flight service.
	mockInv.On("ReserveSeats", ctx, "FL1", []string{"1A", "1B"}).Return(nil).Once()
	mockInv.On("AdjustInventory", ctx, "FL1", -2).Return(&inventory.FlightSnapshot{ID: "FL1"}, nil).Once()
	mockRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, kafka.TopicBookingCreated, mock.Anything, mock.Anything).Return(nil).Once()

	result, err = service.BookFlight(ctx, input)
	service.Wait()

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, result.Kind)
	mockInv.AssertExpectations(t)
}

func TestBookingService_BookFlight_DependencyErrorWhileClosed(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockInv := &MockInventory{}
	mockProducer := &MockProducer{}

	service := newTestService(mockRepo, mockInv, &MockCache{}, mockProducer, config.BreakerConfig{})

	ctx := context.Background()
	input := validInput()

	down := fmt.Errorf("%w: seat service error", domain.ErrDependency)
	mockInv.On("ReserveSeats", ctx, "FL1", []string{"1A", "1B"}).Return(down).Once()

	result, err := service.BookFlight(ctx, input)

	// The breaker is still closed, so the failure is reported as a
	// dependency fault instead of being replaced by the fallback.
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrDependency)
	mockInv.AssertNotCalled(t, "AdjustInventory")
	mockRepo.AssertNotCalled(t, "Create")
	mockProducer.AssertNotCalled(t, "Publish")
}

func TestBookingService_BookFlight_BreakerOpenFallback(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockInv := &MockInventory{}
	mockProducer := &MockProducer{}

	service := newTestService(mockRepo, mockInv, &MockCache{}, mockProducer, config.BreakerConfig{MinRequests: 1})

	ctx := context.Background()
	input := validInput()

	down := fmt.Errorf("%w: inventory update request: connection refused", domain.ErrDependency)
	mockInv.On("ReserveSeats", ctx, "FL1", []string{"1A", "1B"}).Return(down).Once()

	_, err := service.BookFlight(ctx, input)
	assert.ErrorIs(t, err, domain.ErrDependency)

	// Второй вызов: breaker открыт, удалённый сервис не трогаем
	result, err := service.BookFlight(ctx, input)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, domain.BookingDegraded, result.Kind)
	assert.True(t, result.Degraded())
	assert.Regexp(t, `^FAILED-`, result.Booking.PNR)
	assert.Equal(t, input.Email, result.Booking.Email)
	assert.Equal(t, input.SeatNumbers, result.Booking.SeatNumbers)
	assert.NotEmpty(t, result.Booking.ID)

	mockInv.AssertNumberOfCalls(t, "ReserveSeats", 1)
	mockRepo.AssertNotCalled(t, "Create")
	mockProducer.AssertNotCalled(t, "Publish")
}

func TestBookingService_BookFlight_PersistenceError(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockInv := &MockInventory{}
	mockProducer := &MockProducer{}

	service := newTestService(mockRepo, mockInv, &MockCache{}, mockProducer, config.BreakerConfig{})

	ctx := context.Background()
	input := validInput()

	mockInv.On("ReserveSeats", ctx, "FL1", []string{"1A", "1B"}).Return(nil).Once()
	mockInv.On("AdjustInventory", ctx, "FL1", -2).Return(&inventory.FlightSnapshot{ID: "FL1"}, nil).Once()
	mockRepo.On("Create", ctx, mock.Anything).Return(errors.New("no row written")).Once()

	result, err := service.BookFlight(ctx, input)

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	mockProducer.AssertNotCalled(t, "Publish")
	mockInv.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestBookingService_CreateBooking_Direct(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockInv := &MockInventory{}
	mockProducer := &MockProducer{}

	service := newTestService(mockRepo, mockInv, &MockCache{}, mockProducer, config.BreakerConfig{})

	ctx := context.Background()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()

	created, err := service.CreateBooking(ctx, validInput())

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Regexp(t, pnrPattern, created.PNR)
	mockInv.AssertNotCalled(t, "ReserveSeats")
	mockInv.AssertNotCalled(t, "AdjustInventory")
	mockProducer.AssertNotCalled(t, "Publish")
	mockRepo.AssertExpectations(t)
}

func TestBookingService_DeleteBooking_WithinWindow(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockCache := &MockCache{}
	mockProducer := &MockProducer{}

	service := newTestService(mockRepo, &MockInventory{}, mockCache, mockProducer, config.BreakerConfig{})

	ctx := context.Background()
	booking := &domain.Booking{
		ID:          "booking-1",
		PNR:         "PNR-ABCDEF",
		Email:       "a@b.com",
		FlightID:    "FL1",
		SeatCount:   2,
		BookingDate: time.Now().Add(-(23*time.Hour + 59*time.Minute)),
	}

	mockRepo.On("GetByID", ctx, "booking-1").Return(booking, nil).Once()
	mockRepo.On("Delete", ctx, "booking-1").Return(nil).Once()
	mockCache.On("InvalidateBooking", ctx, "PNR-ABCDEF").Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, kafka.TopicBookingCancelled, "booking-1", mock.MatchedBy(func(value interface{}) bool {
		event, ok := value.(kafka.BookingCancelledEvent)
		return ok && event.Reason == "Cancelled by user" && event.PNR == "PNR-ABCDEF"
	})).Return(nil).Once()

	err := service.DeleteBooking(ctx, "booking-1")
	service.Wait()

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_DeleteBooking_OutsideWindow(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}

	service := newTestService(mockRepo, &MockInventory{}, &MockCache{}, mockProducer, config.BreakerConfig{})

	ctx := context.Background()
	booking := &domain.Booking{
		ID:          "booking-1",
		PNR:         "PNR-ABCDEF",
		BookingDate: time.Now().Add(-(24*time.Hour + time.Second)),
	}

	mockRepo.On("GetByID", ctx, "booking-1").Return(booking, nil).Once()

	err := service.DeleteBooking(ctx, "booking-1")

	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPolicyViolation)
	mockRepo.AssertNotCalled(t, "Delete")
	mockProducer.AssertNotCalled(t, "Publish")
}

func TestBookingService_DeleteBooking_NotFound(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}

	service := newTestService(mockRepo, &MockInventory{}, &MockCache{}, mockProducer, config.BreakerConfig{})

	ctx := context.Background()
	mockRepo.On("GetByID", ctx, "gone").Return(nil, domain.ErrNotFound).Twice()

	err := service.DeleteBooking(ctx, "gone")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Repeated cancellation of a deleted id keeps failing not-found and
	// never double-emits a cancellation event.
	err = service.DeleteBooking(ctx, "gone")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mockRepo.AssertNotCalled(t, "Delete")
	mockProducer.AssertNotCalled(t, "Publish")
}

func TestBookingService_GetBookingByPNR_CacheMiss(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockCache := &MockCache{}

	service := newTestService(mockRepo, &MockInventory{}, mockCache, &MockProducer{}, config.BreakerConfig{})

	ctx := context.Background()
	booking := &domain.Booking{ID: "booking-1", PNR: "PNR-ABCDEF", Email: "a@b.com"}

	mockCache.On("GetBooking", ctx, "PNR-ABCDEF").Return(nil, nil).Once()
	mockRepo.On("GetByPNR", ctx, "PNR-ABCDEF").Return(booking, nil).Once()
	mockCache.On("SetBooking", ctx, booking).Return(nil).Once()

	found, err := service.GetBookingByPNR(ctx, "PNR-ABCDEF")

	assert.NoError(t, err)
	assert.Equal(t, booking, found)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestBookingService_GetBookingByPNR_CacheHit(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockCache := &MockCache{}

	service := newTestService(mockRepo, &MockInventory{}, mockCache, &MockProducer{}, config.BreakerConfig{})

	ctx := context.Background()
	booking := &domain.Booking{ID: "booking-1", PNR: "PNR-ABCDEF"}

	mockCache.On("GetBooking", ctx, "PNR-ABCDEF").Return(booking, nil).Twice()

	// Повторный запрос по тому же PNR возвращает ту же бронь
	first, err := service.GetBookingByPNR(ctx, "PNR-ABCDEF")
	assert.NoError(t, err)
	second, err := service.GetBookingByPNR(ctx, "PNR-ABCDEF")
	assert.NoError(t, err)

	assert.Equal(t, first, second)
	mockRepo.AssertNotCalled(t, "GetByPNR")
	mockCache.AssertExpectations(t)
}

func TestBookingService_GetBookingByPNR_NotFound(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockCache := &MockCache{}

	service := newTestService(mockRepo, &MockInventory{}, mockCache, &MockProducer{}, config.BreakerConfig{})

	ctx := context.Background()
	mockCache.On("GetBooking", ctx, "PNR-MISSIN").Return(nil, nil).Once()
	mockRepo.On("GetByPNR", ctx, "PNR-MISSIN").Return(nil, domain.ErrNotFound).Once()

	found, err := service.GetBookingByPNR(ctx, "PNR-MISSIN")

	assert.Nil(t, found)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	mockCache.AssertNotCalled(t, "SetBooking")
}

func TestBookingService_UpdateTotalAmount(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockCache := &MockCache{}

	service := newTestService(mockRepo, &MockInventory{}, mockCache, &MockProducer{}, config.BreakerConfig{})

	ctx := context.Background()
	updated := &domain.Booking{ID: "booking-1", PNR: "PNR-ABCDEF", TotalAmount: 199.99}

	mockRepo.On("UpdateTotalAmount", ctx, "booking-1", 199.99).Return(updated, nil).Once()
	mockCache.On("InvalidateBooking", ctx, "PNR-ABCDEF").Return(nil).Once()

	result, err := service.UpdateTotalAmount(ctx, "booking-1", 199.99)

	assert.NoError(t, err)
	assert.Equal(t, 199.99, result.TotalAmount)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestBookingService_UpdateSeatNumbers_NotFound(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockCache := &MockCache{}

	service := newTestService(mockRepo, &MockInventory{}, mockCache, &MockProducer{}, config.BreakerConfig{})

	ctx := context.Background()
	mockRepo.On("UpdateSeatNumbers", ctx, "gone", []string{"2C"}).Return(nil, domain.ErrNotFound).Once()

	result, err := service.UpdateSeatNumbers(ctx, "gone", []string{"2C"})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	mockCache.AssertNotCalled(t, "InvalidateBooking")
}

func TestBookingService_GetAllBookings(t *testing.T) {
	mockRepo := &MockBookingRepository{}

	service := newTestService(mockRepo, &MockInventory{}, &MockCache{}, &MockProducer{}, config.BreakerConfig{})

	ctx := context.Background()
	bookings := []domain.Booking{
		{ID: "booking-1", PNR: "PNR-AAAAAA"},
		{ID: "booking-2", PNR: "PNR-BBBBBB"},
	}
	mockRepo.On("List", ctx).Return(bookings, nil).Once()

	result, err := service.GetAllBookings(ctx)

	assert.NoError(t, err)
	assert.Len(t, result, 2)
	mockRepo.AssertExpectations(t)
}

func TestBookingService_PublishFailureDoesNotFailBooking(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockInv := &MockInventory{}
	mockProducer := &MockProducer{}

	service := newTestService(mockRepo, mockInv, &MockCache{}, mockProducer, config.BreakerConfig{})

	ctx := context.Background()
	input := validInput()

	mockInv.On("ReserveSeats", ctx, "FL1", []string{"1A", "1B"}).Return(nil).Once()
	mockInv.On("AdjustInventory", ctx, "FL1", -2).Return(&inventory.FlightSnapshot{ID: "FL1"}, nil).Once()
	mockRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, kafka.TopicBookingCreated, mock.Anything, mock.Anything).Return(errors.New("kafka down")).Once()

	result, err := service.BookFlight(ctx, input)
	service.Wait()

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, result.Kind)
	mockProducer.AssertExpectations(t)
}
