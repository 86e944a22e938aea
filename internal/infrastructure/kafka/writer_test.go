package kafka

import (
	"context"
	"encoding/json"
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

func TestNewWriterRequiresBrokersAndTopic(t *testing.T) {
	_, err := NewWriter(nil, "t")
	require.ErrorIs(t, err, ErrDisabled)

	_, err = NewWriter([]string{"localhost:9092"}, "")
	require.Error(t, err)

	w, err := NewWriter([]string{"localhost:9092"}, "order.lifecycle")
	require.NoError(t, err)
	assert.Equal(t, "order.lifecycle", w.Topic())
}

func TestSendKeysAndLabelsTheMessage(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{w: fw, topic: "order.lifecycle"}

	err := w.Send(context.Background(), "order-1", "order.created", map[string]string{"order_id": "order-1"})
	require.NoError(t, err)
	require.Len(t, fw.msgs, 1)

	msg := fw.msgs[0]
	assert.Equal(t, "order-1", string(msg.Key))
	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "order-1", body["order_id"])

	var name string
	for _, h := range msg.Headers {
		if h.Key == HeaderEventName {
			name = string(h.Value)
		}
	}
	assert.Equal(t, "order.created", name)

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestSendWrapsWriteFailure(t *testing.T) {
	boom := errors.New("broker down")
	w := &Writer{w: &fakeWriter{err: boom}, topic: "t"}

	err := w.Send(context.Background(), "k", "order.cancelled", struct{}{})
	require.ErrorIs(t, err, boom)

	err = w.Send(context.Background(), "k", "order.cancelled", make(chan int))
	require.Error(t, err)
}
