package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-loans/loans/internal/errs"
	"github.com/Astemirdum/library-loans/pkg/kafka"
)

type adjustStock func(ctx context.Context, bookID string, total int) error

const (
	minRetryBackoff = 100 * time.Millisecond
	maxRetryBackoff = 10 * time.Second
)

// Consumer applies book stock edits published by catalog management.
type Consumer struct {
	adjustStockHandler adjustStock
	log                *zap.Logger
	minBackoff         time.Duration
	maxBackoff         time.Duration
}

func NewConsumer(loanSvc LoanService, log *zap.Logger) *Consumer {
	return &Consumer{
		adjustStockHandler: func(ctx context.Context, bookID string, total int) error {
			_, err := loanSvc.AdjustStock(ctx, bookID, total)
			return err
		},
		log:        log.Named("consumer"),
		minBackoff: minRetryBackoff,
		maxBackoff: maxRetryBackoff,
	}
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			if !consumer.handleWithRetry(session.Context(), message.Value) {
				// session is over, the offset stays uncommitted
				return nil
			}
			consumer.log.Debug("message claimed",
				zap.String("value", string(message.Value)),
				zap.Time("timestamp", message.Timestamp),
				zap.String("topic", message.Topic))
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// handleWithRetry repeats handle until it is done with the message or ctx ends.
// A later offset must never be marked ahead of an unapplied one.
func (consumer *Consumer) handleWithRetry(ctx context.Context, value []byte) bool {
	backoff := consumer.minBackoff
	for !consumer.handle(ctx, value) {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > consumer.maxBackoff {
			backoff = consumer.maxBackoff
		}
	}
	return true
}

// handle reports whether the message is done with: applied, or never
// applicable (malformed, unknown book, negative total).
func (consumer *Consumer) handle(ctx context.Context, value []byte) bool {
	var ev kafka.BookStockEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		consumer.log.Error("unmarshal book stock event", zap.Error(err))
		return true
	}
	err := consumer.adjustStockHandler(ctx, ev.BookID, ev.Total)
	switch errs.KindOf(err) {
	case errs.KindUnknown:
		if err != nil {
			consumer.log.Error("adjust stock", zap.String("bookId", ev.BookID), zap.Error(err))
			return false
		}
		return true
	default:
		consumer.log.Warn("book stock event dropped",
			zap.String("bookId", ev.BookID),
			zap.Int("total", ev.Total),
			zap.Error(err))
		return true
	}
}
