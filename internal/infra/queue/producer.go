package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// SyncResultPayload é o evento publicado após cada dia sincronizado.
// O dashboard usa para invalidar o cache do dia.
type SyncResultPayload struct {
	EventID    string    `json:"event_id"`
	Date       string    `json:"date"` // YYYY-MM-DD (dia local)
	SavedCount int       `json:"saved_count"`
	Dropped    int       `json:"dropped"`
	SyncedAt   time.Time `json:"synced_at"`
}

// BackfillPayload pede a re-sincronização de dias históricos.
type BackfillPayload struct {
	EventID string   `json:"event_id"`
	Dates   []string `json:"dates"` // YYYY-MM-DD (dias locais)
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{
		Conn: conn,
		Ch:   ch,
	}
}

func (p *RabbitMQProducer) PublishSyncResult(ctx context.Context, payload SyncResultPayload) error {
	return p.publish(ctx, ResultRoutingKey, payload)
}

func (p *RabbitMQProducer) PublishBackfill(ctx context.Context, payload BackfillPayload) error {
	return p.publish(ctx, BackfillRoutingKey, payload)
}

func (p *RabbitMQProducer) publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("erro ao converter payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		routingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent, // Mensagem salva no disco
		},
	)

	if err != nil {
		return fmt.Errorf("falha ao publicar no RabbitMQ: %w", err)
	}

	return nil
}
