package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	Delete(ctx context.Context, id string) error
	UpdateSeatNumbers(ctx context.Context, id string, seatNumbers []string) (*domain.Booking, error)
	UpdatePassengerIDs(ctx context.Context, id string, passengerIDs []string) (*domain.Booking, error)
	UpdateTotalAmount(ctx context.Context, id string, amount float64) (*domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, pnr, email, flight_id, seat_count, passenger_ids, seat_numbers, total_amount, booking_date`

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	cmd, err := r.db.Exec(ctx, `INSERT INTO bookings (id, pnr, email, flight_id, seat_count, passenger_ids, seat_numbers, total_amount, booking_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		booking.ID, booking.PNR, booking.Email, booking.FlightID, booking.SeatCount,
		booking.PassengerIDs, booking.SeatNumbers, booking.TotalAmount, booking.BookingDate)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errors.New("no row written")
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	return scanBooking(row)
}

// GetByPNR matches on the pnr column. There is no index on pnr; at current
// volumes a scan is fine, revisit if booking counts grow.
func (r *PGBookingRepository) GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE pnr=$1`, pnr)
	return scanBooking(row)
}

func (r *PGBookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY booking_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.PNR, &b.Email, &b.FlightID, &b.SeatCount, &b.PassengerIDs, &b.SeatNumbers, &b.TotalAmount, &b.BookingDate); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("booking %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *PGBookingRepository) UpdateSeatNumbers(ctx context.Context, id string, seatNumbers []string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET seat_numbers=$1 WHERE id=$2 RETURNING `+bookingColumns, seatNumbers, id)
	return scanBooking(row)
}

func (r *PGBookingRepository) UpdatePassengerIDs(ctx context.Context, id string, passengerIDs []string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET passenger_ids=$1 WHERE id=$2 RETURNING `+bookingColumns, passengerIDs, id)
	return scanBooking(row)
}

func (r *PGBookingRepository) UpdateTotalAmount(ctx context.Context, id string, amount float64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET total_amount=$1 WHERE id=$2 RETURNING `+bookingColumns, amount, id)
	return scanBooking(row)
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.PNR, &b.Email, &b.FlightID, &b.SeatCount, &b.PassengerIDs, &b.SeatNumbers, &b.TotalAmount, &b.BookingDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
