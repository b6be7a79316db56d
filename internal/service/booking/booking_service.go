package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/inventory"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/metrics"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

type BookingUseCase interface {
	BookFlight(ctx context.Context, input BookFlightInput) (*domain.BookingResult, error)
	CreateBooking(ctx context.Context, input BookFlightInput) (*domain.Booking, error)
	GetBookingByPNR(ctx context.Context, pnr string) (*domain.Booking, error)
	GetAllBookings(ctx context.Context) ([]domain.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	UpdateSeatNumbers(ctx context.Context, id string, seatNumbers []string) (*domain.Booking, error)
	UpdatePassengerIDs(ctx context.Context, id string, passengerIDs []string) (*domain.Booking, error)
	UpdateTotalAmount(ctx context.Context, id string, amount float64) (*domain.Booking, error)
}

// Интерфейсы для тестирования (оставляем в том же пакете)

type Inventory interface {
	ReserveSeats(ctx context.Context, flightID string, seatNumbers []string) error
	AdjustInventory(ctx context.Context, flightID string, delta int) (*inventory.FlightSnapshot, error)
}

type Cache interface {
	GetBooking(ctx context.Context, pnr string) (*domain.Booking, error)
	SetBooking(ctx context.Context, booking *domain.Booking) error
	InvalidateBooking(ctx context.Context, pnr string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings       repository.BookingRepository
	inventory      Inventory
	cache          Cache
	producer       Producer
	breaker        *gobreaker.CircuitBreaker[*domain.Booking]
	cancelWindow   time.Duration
	publishTimeout time.Duration
	log            *logrus.Logger
	publishWG      sync.WaitGroup
}

type BookFlightInput struct {
	FlightID     string   `json:"flightId"`
	SeatCount    int      `json:"seatCount"`
	SeatNumbers  []string `json:"seatNumbers"`
	PassengerIDs []string `json:"passengerIds"`
	Email        string   `json:"email"`
	TotalAmount  float64  `json:"totalAmount"`
}

type BookingServiceOption func(*BookingService)

func WithCancellationWindow(window time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.cancelWindow = window
	}
}

func WithPublishTimeout(timeout time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.publishTimeout = timeout
	}
}

func WithLogger(log *logrus.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	inv Inventory,
	cache Cache,
	producer Producer,
	breakerCfg config.BreakerConfig,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:       bookings,
		inventory:      inv,
		cache:          cache,
		producer:       producer,
		cancelWindow:   24 * time.Hour,
		publishTimeout: 5 * time.Second,
		log:            logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(service)
	}
	service.breaker = newBreaker(breakerCfg, service.log)
	return service
}

// newBreaker builds the circuit breaker guarding the flight service. Only
// dependency failures count toward the trip threshold: a seat conflict is a
// deliberate rejection, not a sign the dependency is down.
func newBreaker(cfg config.BreakerConfig, log *logrus.Logger) *gobreaker.CircuitBreaker[*domain.Booking] {
	return gobreaker.NewCircuitBreaker[*domain.Booking](gobreaker.Settings{
		Name:        "flight-service",
		MaxRequests: cfg.Probes(),
		Interval:    cfg.Interval(),
		Timeout:     cfg.OpenTimeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinVolume() {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.Rate()
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, domain.ErrDependency)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
}

// BookFlight runs the full booking workflow: reserve seats, decrement
// inventory, persist, emit. When the breaker is open the remote steps are
// skipped entirely and the caller gets a degraded placeholder booking.
func (s *BookingService) BookFlight(ctx context.Context, input BookFlightInput) (*domain.BookingResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	booked, err := s.breaker.Execute(func() (*domain.Booking, error) {
		return s.bookFlight(ctx, input)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return s.bookFlightFallback(input), nil
		}
		return nil, err
	}

	return &domain.BookingResult{Booking: booked, Kind: domain.BookingConfirmed}, nil
}

// bookFlight is the guarded path. Step order is strict: inventory is only
// decremented after the seats are reserved, and nothing is persisted until
// both remote steps succeeded. A failed decrement does not release the
// seats reserved in step 1; compensation is a documented extension point.
func (s *BookingService) bookFlight(ctx context.Context, input BookFlightInput) (*domain.Booking, error) {
	if err := s.inventory.ReserveSeats(ctx, input.FlightID, input.SeatNumbers); err != nil {
		return nil, err
	}

	if _, err := s.inventory.AdjustInventory(ctx, input.FlightID, -input.SeatCount); err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:           domain.NewBookingID(),
		Email:        input.Email,
		FlightID:     input.FlightID,
		SeatCount:    input.SeatCount,
		PassengerIDs: input.PassengerIDs,
		SeatNumbers:  input.SeatNumbers,
		TotalAmount:  input.TotalAmount,
		BookingDate:  time.Now(),
	}
	booking.PNR = domain.PNRFromID(booking.ID)

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrPersistence, err)
	}

	metrics.BookingsConfirmed.Inc()
	s.publishAsync(kafka.TopicBookingCreated, booking.ID, kafka.BookingCreatedEvent{
		BookingID: booking.ID,
		Email:     booking.Email,
		PNR:       booking.PNR,
		SeatCount: booking.SeatCount,
	})
	return booking, nil
}

// bookFlightFallback echoes the request back as a degraded booking with a
// FAILED- reference. Nothing is written and no event is emitted: no remote
// state changed, the record is only a client-visible placeholder.
func (s *BookingService) bookFlightFallback(input BookFlightInput) *domain.BookingResult {
	failed := &domain.Booking{
		ID:           domain.NewBookingID(),
		PNR:          domain.FailedPNR(),
		Email:        input.Email,
		FlightID:     input.FlightID,
		SeatCount:    input.SeatCount,
		PassengerIDs: input.PassengerIDs,
		SeatNumbers:  input.SeatNumbers,
		BookingDate:  time.Now(),
	}

	metrics.BookingsDegraded.Inc()
	s.log.WithFields(logrus.Fields{
		"flight_id": input.FlightID,
		"pnr":       failed.PNR,
	}).Warn("flight service unavailable, returning degraded booking")
	return &domain.BookingResult{Booking: failed, Kind: domain.BookingDegraded}
}

// CreateBooking writes a booking directly, bypassing seat reservation and
// inventory. Used for pre-confirmed or administrative bookings.
func (s *BookingService) CreateBooking(ctx context.Context, input BookFlightInput) (*domain.Booking, error) {
	booking := &domain.Booking{
		ID:           domain.NewBookingID(),
		Email:        input.Email,
		FlightID:     input.FlightID,
		SeatCount:    input.SeatCount,
		PassengerIDs: input.PassengerIDs,
		SeatNumbers:  input.SeatNumbers,
		TotalAmount:  input.TotalAmount,
		BookingDate:  time.Now(),
	}
	booking.PNR = domain.PNRFromID(booking.ID)

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrPersistence, err)
	}
	return booking, nil
}

func (s *BookingService) GetBookingByPNR(ctx context.Context, pnr string) (*domain.Booking, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetBooking(ctx, pnr); err == nil && cached != nil {
			return cached, nil
		}
	}

	booking, err := s.bookings.GetByPNR(ctx, pnr)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetBooking(ctx, booking)
	}
	return booking, nil
}

func (s *BookingService) GetAllBookings(ctx context.Context) ([]domain.Booking, error) {
	return s.bookings.List(ctx)
}

// DeleteBooking cancels a booking if it is still inside the cancellation
// window. Seats and inventory are not re-credited on the flight service;
// compensation is a documented extension point.
func (s *BookingService) DeleteBooking(ctx context.Context, id string) error {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if time.Since(booking.BookingDate) > s.cancelWindow {
		return domain.ErrPolicyViolation
	}

	if err := s.bookings.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateBooking(ctx, booking.PNR)
	}

	metrics.BookingsCancelled.Inc()
	s.publishAsync(kafka.TopicBookingCancelled, booking.ID, kafka.BookingCancelledEvent{
		BookingID: booking.ID,
		Email:     booking.Email,
		PNR:       booking.PNR,
		SeatCount: booking.SeatCount,
		Reason:    "Cancelled by user",
	})
	return nil
}

func (s *BookingService) UpdateSeatNumbers(ctx context.Context, id string, seatNumbers []string) (*domain.Booking, error) {
	updated, err := s.bookings.UpdateSeatNumbers(ctx, id, seatNumbers)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, updated.PNR)
	return updated, nil
}

func (s *BookingService) UpdatePassengerIDs(ctx context.Context, id string, passengerIDs []string) (*domain.Booking, error) {
	updated, err := s.bookings.UpdatePassengerIDs(ctx, id, passengerIDs)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, updated.PNR)
	return updated, nil
}

func (s *BookingService) UpdateTotalAmount(ctx context.Context, id string, amount float64) (*domain.Booking, error) {
	updated, err := s.bookings.UpdateTotalAmount(ctx, id, amount)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, updated.PNR)
	return updated, nil
}

// Wait blocks until all in-flight event publishes have finished. Called on
// shutdown so pending events are not dropped with the process.
func (s *BookingService) Wait() {
	s.publishWG.Wait()
}

// publishAsync emits an event without blocking the request path. The
// publish runs on its own bounded context; failure is logged and counted,
// never surfaced to the caller.
func (s *BookingService) publishAsync(topic, key string, event interface{}) {
	if s.producer == nil {
		return
	}

	s.publishWG.Add(1)
	go func() {
		defer s.publishWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.publishTimeout)
		defer cancel()

		if err := s.producer.Publish(ctx, topic, key, event); err != nil {
			metrics.EventPublishFailures.Inc()
			s.log.WithError(err).WithFields(logrus.Fields{"topic": topic, "key": key}).Warn("failed to publish booking event")
			return
		}
		s.log.WithFields(logrus.Fields{"topic": topic, "key": key}).Info("booking event published")
	}()
}

func (s *BookingService) invalidate(ctx context.Context, pnr string) {
	if s.cache != nil {
		_ = s.cache.InvalidateBooking(ctx, pnr)
	}
}

func (in BookFlightInput) validate() error {
	if in.FlightID == "" {
		return fmt.Errorf("%w: flightId is required", domain.ErrValidation)
	}
	if in.SeatCount <= 0 {
		return fmt.Errorf("%w: seatCount must be positive", domain.ErrValidation)
	}
	if len(in.SeatNumbers) != in.SeatCount {
		return fmt.Errorf("%w: seatNumbers must contain exactly seatCount entries", domain.ErrValidation)
	}
	if in.Email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	return nil
}

var _ BookingUseCase = (*BookingService)(nil)
