package invalidation

import (
	"context"
	"errors"
	"sync"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/metrics"
)

type fakeSettings struct{ invalidated int }

func (f *fakeSettings) Invalidate() { f.invalidated++ }

type fakeArticles struct {
	mu     sync.Mutex
	slugs  []string
	all    int
	failOn string
}

func (f *fakeArticles) Invalidate(_ context.Context, slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if slug == f.failOn {
		return errors.New("redis down")
	}
	f.slugs = append(f.slugs, slug)
	return nil
}

func (f *fakeArticles) InvalidateAll(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.all++
	return nil
}

func TestApply(t *testing.T) {
	s, a := &fakeSettings{}, &fakeArticles{}
	h := NewHandler(s, a, metrics.New(nil))
	ctx := context.Background()

	require.NoError(t, h.Apply(ctx, Event{Type: SettingsUpdated}))
	assert.Equal(t, 1, s.invalidated)
	assert.Empty(t, a.slugs)

	require.NoError(t, h.Apply(ctx, Event{Type: PostUpdated, Lang: "en", Slug: "hello"}))
	require.NoError(t, h.Apply(ctx, Event{Type: PostDeleted, Slug: "bye"}))
	assert.Equal(t, []string{"hello", "bye"}, a.slugs)
	assert.Equal(t, 1, s.invalidated)

	require.NoError(t, h.Apply(ctx, Event{Type: All}))
	assert.Equal(t, 2, s.invalidated)
	assert.Equal(t, 1, a.all)
}

func TestApplyRejectsInvalidEvents(t *testing.T) {
	h := NewHandler(&fakeSettings{}, &fakeArticles{}, metrics.New(nil))
	ctx := context.Background()

	for _, ev := range []Event{
		{Type: "post.moved", Slug: "x"},
		{Type: PostUpdated},
		{Type: PostDeleted, Lang: "fr", Slug: "x"},
	} {
		err := h.Apply(ctx, ev)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "event %+v", ev)
	}
}

func TestApplyWithoutCaches(t *testing.T) {
	h := NewHandler(nil, nil, metrics.New(nil))
	assert.NoError(t, h.Apply(context.Background(), Event{Type: All}))
	assert.NoError(t, h.Apply(context.Background(), Event{Type: PostUpdated, Slug: "x"}))
}

func TestHandleMessage(t *testing.T) {
	s, a := &fakeSettings{}, &fakeArticles{failOn: "broken"}
	h := NewHandler(s, a, metrics.New(nil))
	ctx := context.Background()

	assert.NoError(t, h.HandleMessage(ctx, []byte("k"), []byte("{not json")))
	assert.NoError(t, h.HandleMessage(ctx, []byte("k"), []byte(`{"type":"nope"}`)))
	assert.Zero(t, s.invalidated)

	assert.NoError(t, h.HandleMessage(ctx, []byte("hello"), []byte(`{"type":"post.updated","lang":"tr","slug":"hello"}`)))
	assert.Equal(t, []string{"hello"}, a.slugs)

	assert.Error(t, h.HandleMessage(ctx, []byte("broken"), []byte(`{"type":"post.deleted","slug":"broken"}`)))
}

// pipe hands messages written by a producer to a consumer.
type pipe struct {
	mu        sync.Mutex
	msgs      []kafkago.Message
	committed int
	cancel    context.CancelFunc
}

func (p *pipe) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func (p *pipe) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	p.mu.Lock()
	if len(p.msgs) > 0 {
		msg := p.msgs[0]
		p.msgs = p.msgs[1:]
		p.mu.Unlock()
		return msg, nil
	}
	p.mu.Unlock()
	p.cancel()
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (p *pipe) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.committed += len(msgs)
	return nil
}

func (p *pipe) Close() error { return nil }

func TestPublishThenConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := &pipe{cancel: cancel}

	pub := NewPublisher(kafka.NewProducerWithWriter(p, "content-invalidate"))
	require.NoError(t, pub.Publish(ctx,
		Event{Type: SettingsUpdated},
		Event{Type: PostUpdated, Lang: "de", Slug: "neu"},
	))
	require.Len(t, p.msgs, 2)
	assert.Equal(t, "settings.updated", string(p.msgs[0].Key))
	assert.Equal(t, "neu", string(p.msgs[1].Key))

	s, a := &fakeSettings{}, &fakeArticles{}
	h := NewHandler(s, a, metrics.New(nil))
	consumer := kafka.NewConsumerWithReader(p, "content-invalidate", h.HandleMessage)
	require.NoError(t, consumer.Start(ctx))

	assert.Equal(t, 1, s.invalidated)
	assert.Equal(t, []string{"neu"}, a.slugs)
	assert.Equal(t, 2, p.committed)
}

func TestPublishRejectsInvalidBatch(t *testing.T) {
	p := &pipe{}
	pub := NewPublisher(kafka.NewProducerWithWriter(p, "content-invalidate"))
	err := pub.Publish(context.Background(), Event{Type: All}, Event{Type: PostDeleted})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Empty(t, p.msgs)
}
