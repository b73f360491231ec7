package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "ex.leads"
	DLXName      = "ex.leads.dlx" // Dead Letter Exchange

	// Eventos de sync concluído, consumidos pelo dashboard (invalidação de cache).
	ResultRoutingKey = "k.sync.result"

	// Fila de pedidos de backfill de dias históricos.
	BackfillQueueName  = "q.leads.backfill"
	BackfillDLQName    = "q.leads.backfill.dlq"
	BackfillRoutingKey = "k.backfill"
)

type RabbitMQ struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewRabbitMQ(user, pass, host, port string) (*RabbitMQ, error) {
	dsn := fmt.Sprintf("amqp://%s:%s@%s:%s/", user, pass, host, port)

	conn, err := amqp.Dial(dsn)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar no RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir canal: %w", err)
	}

	if err := setupTopology(ch); err != nil {
		return nil, err
	}

	return &RabbitMQ{Conn: conn, Ch: ch}, nil
}

func setupTopology(ch *amqp.Channel) error {

	err := ch.ExchangeDeclare(DLXName, "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	_, err = ch.QueueDeclare(BackfillDLQName, true, false, false, false, nil)
	if err != nil {
		return err
	}

	err = ch.QueueBind(BackfillDLQName, BackfillRoutingKey, DLXName, false, nil)
	if err != nil {
		return err
	}

	err = ch.ExchangeDeclare(ExchangeName, "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    DLXName, // Nack manda pra DLX
		"x-dead-letter-routing-key": BackfillRoutingKey,
	}

	_, err = ch.QueueDeclare(BackfillQueueName, true, false, false, false, args)
	if err != nil {
		return err
	}

	err = ch.QueueBind(BackfillQueueName, BackfillRoutingKey, ExchangeName, false, nil)
	if err != nil {
		return err
	}

	return nil
}
