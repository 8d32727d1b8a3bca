package kafka

import (
	"context"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/jhoicas/farmapos-api/internal/application/events"
)

var _ events.Publisher = (*Publisher)(nil)

// Publisher publica los eventos del outbox en un tópico Kafka.
// La clave es el ID de la venta, así todos sus eventos caen en la misma partición.
type Publisher struct {
	writer *kafkago.Writer
}

// NewPublisher construye el writer sobre los brokers y tópico indicados.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Publish escribe un mensaje con el tipo de evento en el header event_type.
func (p *Publisher) Publish(ctx context.Context, key, eventType string, payload []byte) error {
	err := p.writer.WriteMessages(ctx, newMessage(key, eventType, payload))
	if err != nil {
		return fmt.Errorf("kafka publish %s: %w", eventType, err)
	}
	return nil
}

// Close vacía los mensajes pendientes y cierra las conexiones.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func newMessage(key, eventType string, payload []byte) kafkago.Message {
	return kafkago.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
}
