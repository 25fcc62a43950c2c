package handler_test

import (
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-loans/loans/internal/handler"
	"github.com/Astemirdum/library-loans/pkg/circuit_breaker"
	"github.com/Astemirdum/library-loans/pkg/kafka"
)

func TestEnqueuer_Enqueue(t *testing.T) {
	t.Parallel()
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	defer func() { require.NoError(t, producer.Close()) }()

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var ev kafka.LoanEvent
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		if ev.LoanID != "l1" || ev.EventType != kafka.LoanApproved {
			return errors.Errorf("unexpected event %+v", ev)
		}
		return nil
	})

	q := handler.NewEnqueuer(producer)
	require.NoError(t, q.Enqueue(kafka.LoanTopic, kafka.LoanEvent{LoanID: "l1", EventType: kafka.LoanApproved}))
}

func TestEnqueuer_OpensOnBrokerFailures(t *testing.T) {
	t.Parallel()
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	defer func() { require.NoError(t, producer.Close()) }()

	errBroker := errors.New("broker down")
	q := handler.NewEnqueuer(producer)
	for i := 0; i < 5; i++ {
		producer.ExpectSendMessageAndFail(errBroker)
		require.ErrorIs(t, q.Enqueue(kafka.LoanTopic, kafka.LoanEvent{LoanID: "l1"}), errBroker)
	}

	// No expectation left: the producer must not be reached.
	require.ErrorIs(t, q.Enqueue(kafka.LoanTopic, kafka.LoanEvent{LoanID: "l1"}), circuit_breaker.ErrOpenCB)
}
