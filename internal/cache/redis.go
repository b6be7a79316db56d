package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache keeps booking projections keyed by PNR so repeated lookups
// skip the store. Entries are invalidated on cancel and on updates.
type RedisCache struct {
	client     *redis.Client
	bookingTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, bookingTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		bookingTTL: bookingTTL,
	}
}

func (c *RedisCache) GetBooking(ctx context.Context, pnr string) (*domain.Booking, error) {
	data, err := c.client.Get(ctx, bookingKey(pnr)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var booking domain.Booking
	if err := json.Unmarshal(data, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *RedisCache) SetBooking(ctx context.Context, booking *domain.Booking) error {
	payload, err := json.Marshal(booking)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, bookingKey(booking.PNR), payload, c.bookingTTL).Err()
}

func (c *RedisCache) InvalidateBooking(ctx context.Context, pnr string) error {
	return c.client.Del(ctx, bookingKey(pnr)).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func bookingKey(pnr string) string {
	return "cache:booking:" + pnr
}
