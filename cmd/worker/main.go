package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/email"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	kafkaGo "github.com/segmentio/kafka-go"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	emailSender := email.NewSender()

	createdConsumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, kafka.TopicBookingCreated)
	defer createdConsumer.Close()

	cancelledConsumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, kafka.TopicBookingCancelled)
	defer cancelledConsumer.Close()

	go func() {
		if err := createdConsumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.BookingCreatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("decode booking-created event: %v", err)
				return nil
			}
			return emailSender.SendBookingConfirmed(ctx, event)
		}); err != nil {
			log.Printf("booking-created consumer stopped: %v", err)
		}
	}()

	go func() {
		if err := cancelledConsumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.BookingCancelledEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("decode booking-cancelled event: %v", err)
				return nil
			}
			return emailSender.SendBookingCancelled(ctx, event)
		}); err != nil {
			log.Printf("booking-cancelled consumer stopped: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
}
