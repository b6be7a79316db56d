package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/sirupsen/logrus"
)

// FlightSnapshot is the flight service's view of a flight after an
// inventory adjustment.
type FlightSnapshot struct {
	ID             string `json:"flightId"`
	FlightNumber   string `json:"flightNumber"`
	AvailableSeats int    `json:"availableSeats"`
}

// Client talks to the remote flight service. It owns failure
// classification: a 4xx from the seat endpoint is a client-request error,
// everything else (5xx, transport errors, timeouts) is a dependency error.
type Client struct {
	baseURL string
	jwt     string
	http    *http.Client
	log     *logrus.Logger
}

func NewClient(baseURL, internalJWT string, timeout time.Duration, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL: baseURL,
		jwt:     internalJWT,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// ReserveSeats marks the given seats of a flight as booked.
func (c *Client) ReserveSeats(ctx context.Context, flightID string, seatNumbers []string) error {
	body, err := json.Marshal(seatNumbers)
	if err != nil {
		return fmt.Errorf("%w: marshal seat numbers: %s", domain.ErrDependency, err)
	}

	url := fmt.Sprintf("%s/api/flight/seats/%s/book", c.baseURL, flightID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %s", domain.ErrDependency, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: seat booking request: %s", domain.ErrDependency, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: seat booking failed: %s", domain.ErrClientRequest, readReason(resp.Body, "Seat booking request invalid"))
	default:
		return fmt.Errorf("%w: seat service error: %s", domain.ErrDependency, readReason(resp.Body, "Seat service error"))
	}
}

// AdjustInventory changes a flight's available-seat counter by delta
// (negative to decrement). Any failure here is a dependency error: by the
// time we call this the seats are already reserved.
func (c *Client) AdjustInventory(ctx context.Context, flightID string, delta int) (*FlightSnapshot, error) {
	url := fmt.Sprintf("%s/api/flight/flights/%s/inventory?add=%d", c.baseURL, flightID, delta)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %s", domain.ErrDependency, err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: inventory update request: %s", domain.ErrDependency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: inventory update failed: %s", domain.ErrDependency, readReason(resp.Body, "Inventory update failed"))
	}

	var snapshot FlightSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("%w: decode flight snapshot: %s", domain.ErrDependency, err)
	}

	c.log.WithFields(logrus.Fields{
		"flight_id":       flightID,
		"delta":           delta,
		"available_seats": snapshot.AvailableSeats,
	}).Debug("flight inventory adjusted")
	return &snapshot, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.jwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.jwt)
	}
}

func readReason(r io.Reader, fallback string) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return fallback
	}
	return string(bytes.TrimSpace(data))
}
