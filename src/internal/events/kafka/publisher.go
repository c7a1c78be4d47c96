package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/api-sage/pos-payment-processor/src/internal/events"
	"github.com/segmentio/kafka-go"
)

const transactionCompletedTopic = "transaction_completed"

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    transactionCompletedTopic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Publisher) PublishTransactionCompleted(ctx context.Context, event events.TransactionCompleted) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal transaction completed event: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OperationRef),
		Value: data,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
