package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	pnrPrefix    = "PNR-"
	failedPrefix = "FAILED-"
)

// Booking is the durable reservation record. ID and PNR are assigned
// server-side at creation and never change afterwards.
type Booking struct {
	ID           string    `json:"id"`
	PNR          string    `json:"pnr"`
	Email        string    `json:"email"`
	FlightID     string    `json:"flightId"`
	SeatCount    int       `json:"seatCount"`
	PassengerIDs []string  `json:"passengerIds"`
	SeatNumbers  []string  `json:"seatNumbers"`
	TotalAmount  float64   `json:"totalAmount"`
	BookingDate  time.Time `json:"bookingDate"`
}

type BookingKind string

const (
	BookingConfirmed BookingKind = "CONFIRMED"
	BookingDegraded  BookingKind = "DEGRADED"
)

// BookingResult distinguishes a fully booked reservation from a degraded
// placeholder produced while the flight service is unavailable. A degraded
// booking is never persisted and only exists in the response to the caller.
type BookingResult struct {
	Booking *Booking
	Kind    BookingKind
}

func (r *BookingResult) Degraded() bool {
	return r.Kind == BookingDegraded
}

func NewBookingID() string {
	return uuid.NewString()
}

// PNRFromID derives the business reference from a booking id:
// "PNR-" plus the first six hex characters of the id, uppercased.
func PNRFromID(id string) string {
	return pnrPrefix + strings.ToUpper(id[:6])
}

// FailedPNR returns a pseudo-reference for a degraded booking.
func FailedPNR() string {
	return failedPrefix + uuid.NewString()[:6]
}

func (b *Booking) Confirmed() bool {
	return strings.HasPrefix(b.PNR, pnrPrefix)
}
