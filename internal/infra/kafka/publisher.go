// Package kafka publishes accepted burn events to a Kafka topic for
// downstream consumers (analytics, reconciliation). Publishing is
// best-effort: a delivery failure is logged by the caller, never surfaced
// to the client that reported the burn.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/landgame-labs/burngate/internal/domain"
)

// Publisher writes burn events to a Kafka topic.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// burnEventMessage is the wire format; field names match the persisted layout.
type burnEventMessage struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"walletAddress"`
	Signature     string    `json:"transactionSignature"`
	AmountRaw     int64     `json:"amountBurned"`
	CreditsEarned string    `json:"creditsEarned"`
	RecordedAt    time.Time `json:"timestamp"`
	Verified      bool      `json:"verified"`
}

// PublishBurnEvent writes one event, keyed by wallet so a wallet's events
// stay ordered within a partition.
func (p *Publisher) PublishBurnEvent(ctx context.Context, event domain.BurnEvent) error {
	data, err := json.Marshal(burnEventMessage{
		ID:            event.ID,
		WalletAddress: event.WalletAddress,
		Signature:     event.Signature,
		AmountRaw:     event.AmountRaw,
		CreditsEarned: event.CreditsEarned.String(),
		RecordedAt:    event.RecordedAt.UTC(),
		Verified:      event.Verified,
	})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.WalletAddress),
		Value: data,
	})
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error { return p.writer.Close() }

var _ domain.EventPublisher = (*Publisher)(nil)
