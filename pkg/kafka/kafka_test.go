package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

type sliceReader struct {
	msgs      []kafka.Message
	committed []int64
	closed    bool
	cancel    context.CancelFunc
}

func (r *sliceReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *sliceReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *sliceReader) Close() error {
	r.closed = true
	return nil
}

func TestProducerPublish(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, "topic")

	err := p.Publish(context.Background(),
		Event{Key: "a", Value: map[string]string{"type": "all"}},
		Event{Key: "b", Value: 42},
	)
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "a", string(w.msgs[0].Key))
	assert.JSONEq(t, `{"type":"all"}`, string(w.msgs[0].Value))
	assert.Equal(t, "42", string(w.msgs[1].Value))
}

func TestProducerPublishErrors(t *testing.T) {
	p := NewProducerWithWriter(&recordingWriter{err: errors.New("broker gone")}, "topic")
	assert.Error(t, p.Publish(context.Background(), Event{Key: "a", Value: 1}))

	p = NewProducerWithWriter(&recordingWriter{}, "topic")
	assert.Error(t, p.Publish(context.Background(), Event{Key: "a", Value: make(chan int)}))
}

func TestConsumerCommitsOnlyHandledMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &sliceReader{
		msgs: []kafka.Message{
			{Offset: 1, Value: []byte("ok")},
			{Offset: 2, Value: []byte("fail")},
			{Offset: 3, Value: []byte("ok")},
		},
		cancel: cancel,
	}
	var seen []string
	c := NewConsumerWithReader(r, "topic", func(_ context.Context, _ []byte, value []byte) error {
		seen = append(seen, string(value))
		if string(value) == "fail" {
			return errors.New("handler failed")
		}
		return nil
	})

	require.NoError(t, c.Start(ctx))
	assert.Equal(t, []string{"ok", "fail", "ok"}, seen)
	assert.Equal(t, []int64{1, 3}, r.committed)
	assert.True(t, r.closed)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Slug string `json:"slug"`
	}
	got, err := DecodeJSON[payload]([]byte(`{"slug":"hello"}`))
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Slug)

	_, err = DecodeJSON[payload]([]byte("nope"))
	assert.Error(t, err)
}
