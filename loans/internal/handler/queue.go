package handler

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"

	"github.com/Astemirdum/library-loans/pkg/circuit_breaker"
)

const (
	cbRecordLength     = 10
	cbTimeout          = 10 * time.Second
	cbPercentile       = 0.5
	cbRecoveryRequests = 3
)

// NewEnqueuer publishes JSON messages through producer. A broker that keeps
// failing opens the breaker and later messages fail fast with ErrOpenCB.
func NewEnqueuer(producer sarama.SyncProducer) Enqueuer {
	return &enqueuerImpl{
		producer: producer,
		cb:       circuit_breaker.New(cbRecordLength, cbTimeout, cbPercentile, cbRecoveryRequests),
	}
}

type enqueuerImpl struct {
	producer sarama.SyncProducer
	cb       circuit_breaker.CircuitBreaker
}

func (q *enqueuerImpl) Enqueue(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{Topic: topic, Value: sarama.ByteEncoder(data)}
	return q.cb.Call(func() error {
		_, _, err := q.producer.SendMessage(msg)
		return err
	})
}

// NopEnqueuer drops every message, used when no broker is configured.
type NopEnqueuer struct{}

func (NopEnqueuer) Enqueue(string, any) error { return nil }
