package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/kafka"
)

// Sender renders booking notifications. Actual SMTP delivery is stubbed
// out; the rendered message is printed instead.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) SendBookingConfirmed(ctx context.Context, event kafka.BookingCreatedEvent) error {
	subject := "Booking Confirmed - " + event.PNR
	message := fmt.Sprintf("Your booking for %d seats is confirmed.\nPNR: %s\n\nWishing you a safe and happy journey!", event.SeatCount, event.PNR)
	return s.send(event.Email, subject, message)
}

func (s *Sender) SendBookingCancelled(ctx context.Context, event kafka.BookingCancelledEvent) error {
	subject := "Booking Cancelled - " + event.PNR
	message := fmt.Sprintf("Your flight %s has been cancelled.\nReason: %s", event.PNR, event.Reason)
	return s.send(event.Email, subject, message)
}

func (s *Sender) send(to, subject, message string) error {
	fmt.Printf("send email to %s\nsubject: %s\n%s\n", to, subject, message)
	return nil
}
