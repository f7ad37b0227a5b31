package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestProducerPublishEncodesJSON(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "forecasts")

	err := p.Publish(context.Background(), []byte("GOLD"), map[string]int{"window_days": 60})

	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "GOLD", string(w.msgs[0].Key))
	assert.JSONEq(t, `{"window_days":60}`, string(w.msgs[0].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducerWrapsWriteError(t *testing.T) {
	p := newProducer(&fakeWriter{err: errors.New("leader not available")}, "forecasts")

	err := p.Publish(context.Background(), nil, "raw")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka write forecasts")
}

func TestNewProducerValidation(t *testing.T) {
	_, err := NewProducer(WithTopic("t"))
	assert.EqualError(t, err, "brokers are required")

	_, err = NewProducer(WithBrokers([]string{"localhost:9092"}))
	assert.EqualError(t, err, "topic is required")
}
