package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	FlightService FlightServiceConfig `yaml:"flight_service"`
	Breaker       BreakerConfig       `yaml:"breaker"`
	Booking       BookingConfig       `yaml:"booking"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

type FlightServiceConfig struct {
	BaseURL               string `yaml:"base_url"`
	InternalJWT           string `yaml:"internal_jwt"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

func (f FlightServiceConfig) RequestTimeout() time.Duration {
	if f.RequestTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(f.RequestTimeoutSeconds) * time.Second
}

// BreakerConfig tunes the circuit breaker around the flight service.
// Zero values fall back to the documented defaults: 50% failure rate over a
// 60s window with at least 5 requests, 30s open, 3 half-open probes.
type BreakerConfig struct {
	FailureRate        float64 `yaml:"failure_rate"`
	MinRequests        uint32  `yaml:"min_requests"`
	IntervalSeconds    int     `yaml:"interval_seconds"`
	OpenTimeoutSeconds int     `yaml:"open_timeout_seconds"`
	HalfOpenRequests   uint32  `yaml:"half_open_requests"`
}

func (b BreakerConfig) Rate() float64 {
	if b.FailureRate <= 0 {
		return 0.5
	}
	return b.FailureRate
}

func (b BreakerConfig) MinVolume() uint32 {
	if b.MinRequests == 0 {
		return 5
	}
	return b.MinRequests
}

func (b BreakerConfig) Interval() time.Duration {
	if b.IntervalSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(b.IntervalSeconds) * time.Second
}

func (b BreakerConfig) OpenTimeout() time.Duration {
	if b.OpenTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(b.OpenTimeoutSeconds) * time.Second
}

func (b BreakerConfig) Probes() uint32 {
	if b.HalfOpenRequests == 0 {
		return 3
	}
	return b.HalfOpenRequests
}

type BookingConfig struct {
	CancellationWindowHours int `yaml:"cancellation_window_hours"`
	PublishTimeoutSeconds   int `yaml:"publish_timeout_seconds"`
	CacheTTLSeconds         int `yaml:"cache_ttl_seconds"`
}

func (b BookingConfig) CancellationWindow() time.Duration {
	if b.CancellationWindowHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(b.CancellationWindowHours) * time.Hour
}

func (b BookingConfig) PublishTimeout() time.Duration {
	if b.PublishTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(b.PublishTimeoutSeconds) * time.Second
}

func (b BookingConfig) CacheTTL() time.Duration {
	if b.CacheTTLSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(b.CacheTTLSeconds) * time.Second
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
