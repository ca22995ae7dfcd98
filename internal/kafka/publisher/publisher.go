// Package publisher emits dispatch outcome records to Kafka.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/example/reservation-notifier/internal/models"
)

// SyncProducer is the subset of the Kafka producer used here.
type SyncProducer interface {
	PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error
}

var errProducerNotInitialised = errors.New("kafka publisher: producer not initialised")

// DispatchPublisher writes one JSON record per dispatch, keyed by
// reservation id.
type DispatchPublisher struct {
	producer SyncProducer
	topic    string
	logger   zerolog.Logger
}

// NewDispatchPublisher returns nil when prod is nil or topic is empty.
func NewDispatchPublisher(prod SyncProducer, topic string, logger zerolog.Logger) *DispatchPublisher {
	if prod == nil || topic == "" {
		return nil
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &DispatchPublisher{
		producer: prod,
		topic:    topic,
		logger:   logger.With().Str("component", "dispatch_publisher").Logger(),
	}
}

// Publish serialises record and sends it. The producer call runs on its own
// goroutine so Publish returns as soon as ctx is done, even when the broker
// has not answered yet.
func (p *DispatchPublisher) Publish(ctx context.Context, record models.DispatchRecord) error {
	if p == nil || p.producer == nil {
		return errProducerNotInitialised
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("kafka publisher: %w", err)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("kafka publisher: marshal dispatch record: %w", err)
	}

	headers := map[string][]byte{
		"content-type":    []byte("application/json"),
		"overall-success": []byte(fmt.Sprint(record.OverallSuccess)),
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- p.producer.PublishSync(p.topic, []byte(record.ReservationID), headers, payload)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("kafka publisher: publish dispatch record: %w", ctx.Err())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("kafka publisher: publish dispatch record: %w", err)
		}
	}

	p.logger.Debug().
		Str("topic", p.topic).
		Str("reservation_id", record.ReservationID).
		Msg("dispatch record published")
	return nil
}
