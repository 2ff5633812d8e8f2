package consumers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/doctor-smile-ledger/internal/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockKafkaReader struct {
	mock.Mock
}

func (m *MockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	args := m.Called(ctx)
	return args.Get(0).(kafka.Message), args.Error(1)
}

func (m *MockKafkaReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaReader) Close() error {
	return m.Called().Error(0)
}

func newTestConsumer(reader KafkaReader) *KafkaConsumer {
	return &KafkaConsumer{
		reader:       reader,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		topic:        "ledger_events",
		groupID:      "ledger-relay",
		retryBackoff: time.Millisecond,
	}
}

func TestNewKafkaConsumer(t *testing.T) {
	cfg := &config.KafkaConfig{
		Brokers:       "localhost:9092",
		LedgerTopic:   "ledger_events",
		ConsumerGroup: "ledger-relay",
		MinBytes:      1,
		MaxBytes:      10e6,
		MaxWait:       time.Second,
	}

	consumer := NewKafkaConsumer(slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
	require.NotNil(t, consumer)
	require.NotNil(t, consumer.reader)
	assert.Equal(t, "ledger_events", consumer.topic)
	assert.Equal(t, "ledger-relay", consumer.groupID)
	assert.NoError(t, consumer.Close())
}

func TestKafkaConsumer_Run(t *testing.T) {
	t.Run("commits handled messages and stops on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		reader := new(MockKafkaReader)
		first := kafka.Message{Topic: "ledger_events", Key: []byte("a"), Value: []byte(`{}`), Offset: 1}
		second := kafka.Message{Topic: "ledger_events", Key: []byte("b"), Value: []byte(`{}`), Offset: 2}

		reader.On("FetchMessage", mock.Anything).Return(first, nil).Once()
		reader.On("FetchMessage", mock.Anything).Return(second, nil).Once()
		reader.On("FetchMessage", mock.Anything).Run(func(mock.Arguments) { cancel() }).
			Return(kafka.Message{}, context.Canceled).Once()
		reader.On("CommitMessages", mock.Anything, []kafka.Message{first}).Return(nil).Once()
		reader.On("CommitMessages", mock.Anything, []kafka.Message{second}).Return(nil).Once()

		var keys []string
		err := newTestConsumer(reader).Run(ctx, func(_ context.Context, key, _ []byte) error {
			keys = append(keys, string(key))
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, keys)
		reader.AssertExpectations(t)
	})

	t.Run("failed message is retried before commit", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		reader := new(MockKafkaReader)
		msg := kafka.Message{Key: []byte("a"), Offset: 7}

		reader.On("FetchMessage", mock.Anything).Return(msg, nil).Once()
		reader.On("FetchMessage", mock.Anything).Run(func(mock.Arguments) { cancel() }).
			Return(kafka.Message{}, context.Canceled).Once()
		reader.On("CommitMessages", mock.Anything, []kafka.Message{msg}).Return(nil).Once()

		var calls atomic.Int32
		err := newTestConsumer(reader).Run(ctx, func(context.Context, []byte, []byte) error {
			if calls.Add(1) < 3 {
				return errors.New("mongo unavailable")
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, int32(3), calls.Load())
		reader.AssertExpectations(t)
	})

	t.Run("fetch errors back off and continue", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		reader := new(MockKafkaReader)

		reader.On("FetchMessage", mock.Anything).Return(kafka.Message{}, errors.New("coordinator moved")).Once()
		reader.On("FetchMessage", mock.Anything).Run(func(mock.Arguments) { cancel() }).
			Return(kafka.Message{}, context.Canceled).Once()

		err := newTestConsumer(reader).Run(ctx, func(context.Context, []byte, []byte) error { return nil })

		require.NoError(t, err)
		reader.AssertExpectations(t)
		reader.AssertNotCalled(t, "CommitMessages", mock.Anything, mock.Anything)
	})
}

func TestKafkaConsumer_Close(t *testing.T) {
	consumer := &KafkaConsumer{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	assert.NoError(t, consumer.Close())

	reader := new(MockKafkaReader)
	reader.On("Close").Return(nil).Once()
	assert.NoError(t, newTestConsumer(reader).Close())
	reader.AssertExpectations(t)
}
