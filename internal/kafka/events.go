package kafka

// Topic per event kind; the message key is the booking id, so events for
// one booking land on the same partition.
const (
	TopicBookingCreated   = "booking-created"
	TopicBookingCancelled = "booking-cancelled"
)

type BookingCreatedEvent struct {
	BookingID string `json:"bookingId"`
	Email     string `json:"email"`
	PNR       string `json:"pnr"`
	SeatCount int    `json:"seatCount"`
}

type BookingCancelledEvent struct {
	BookingID string `json:"bookingId"`
	Email     string `json:"email"`
	PNR       string `json:"pnr"`
	SeatCount int    `json:"seatCount"`
	Reason    string `json:"reason"`
}
