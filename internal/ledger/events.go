package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const EventTypePurchaseCompleted = "PURCHASE_COMPLETED"

type PurchaseCompletedEvent struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	Timestamp    time.Time `json:"timestamp"`
	PurchaseID   string    `json:"purchase_id"`
	UserID       int       `json:"user_id"`
	ProductID    int       `json:"product_id"`
	Price        int64     `json:"price"`
	BalanceAfter int64     `json:"balance_after"`
}

func NewPurchaseCompletedEvent(r Receipt) PurchaseCompletedEvent {
	return PurchaseCompletedEvent{
		EventID:      uuid.NewString(),
		EventType:    EventTypePurchaseCompleted,
		Timestamp:    r.CreatedAt,
		PurchaseID:   r.ID,
		UserID:       r.UserID,
		ProductID:    r.ProductID,
		Price:        r.Price,
		BalanceAfter: r.BalanceAfter,
	}
}

type Publisher interface {
	PublishPurchase(ctx context.Context, r Receipt) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) PublishPurchase(context.Context, Receipt) error { return nil }
func (NopPublisher) Close() error                                 { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher emits one PurchaseCompletedEvent per purchase, keyed by user
// so that a user's purchases stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
	}}
}

func (p *KafkaPublisher) PublishPurchase(ctx context.Context, r Receipt) error {
	value, err := json.Marshal(NewPurchaseCompletedEvent(r))
	if err != nil {
		return fmt.Errorf("marshal purchase event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte("user-" + strconv.Itoa(r.UserID)),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("publish purchase %s: %w", r.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
