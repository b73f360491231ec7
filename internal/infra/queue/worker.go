package queue

import (
	"context"
	"encoding/json"
	"log"
)

// LeadSyncService é o contrato mínimo que o worker precisa do orquestrador.
// Definido aqui para o pacote de fila não depender do usecase.
type LeadSyncService interface {
	SyncDay(ctx context.Context, localDate string) (int, error)
}

// Worker consome pedidos de backfill e roda o sync dia a dia.
// Como o upsert é idempotente, reprocessar uma mensagem é seguro.
type Worker struct {
	RabbitMQ *RabbitMQ
	Sync     LeadSyncService
}

func NewWorker(rabbitMQ *RabbitMQ, sync LeadSyncService) *Worker {
	return &Worker{
		RabbitMQ: rabbitMQ,
		Sync:     sync,
	}
}

func (w *Worker) Start(queueName string) {
	msgs, err := w.RabbitMQ.Ch.Consume(
		queueName, // fila
		"",        // consumer
		false,     // auto-ack (manual é mais seguro)
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		log.Fatalf("❌ Falha ao registrar consumidor RabbitMQ: %s", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var payload BackfillPayload
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				log.Printf("❌ [BACKFILL] JSON inválido: %s", err)
				// Mensagem podre. Rejeita sem requeue para não travar a fila.
				d.Nack(false, false)
				continue
			}

			log.Printf("📥 [BACKFILL] Pedido %s: %d dia(s)", payload.EventID, len(payload.Dates))

			if err := w.processBackfill(context.Background(), payload); err != nil {
				log.Printf("❌ [BACKFILL] Falha no pedido %s: %s", payload.EventID, err)
				// Vai pra DLQ; o operador decide se reenfileira.
				d.Nack(false, false)
			} else {
				log.Printf("✅ [BACKFILL] Pedido %s concluído", payload.EventID)
				d.Ack(false)
			}
		}
	}()

	log.Printf(" [*] Backfill worker aguardando na fila '%s'", queueName)
	<-forever
}

func (w *Worker) processBackfill(ctx context.Context, payload BackfillPayload) error {
	// A política é a mesma do sync de faixa: um dia ruim não cancela os
	// outros. Só o último erro sobe, para decidir ack/nack.
	var lastErr error
	for _, date := range payload.Dates {
		count, err := w.Sync.SyncDay(ctx, date)
		if err != nil {
			log.Printf("❌ [BACKFILL] Dia %s: %v", date, err)
			lastErr = err
			continue
		}
		log.Printf("⚙️ [BACKFILL] Dia %s: %d lead(s)", date, count)
	}
	return lastErr
}
