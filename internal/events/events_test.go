package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/portfolio/pkg/logging"
)

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, string, string, any) error {
	f.calls++
	return errors.New("broker down")
}
func (f *failingPublisher) Close() error { return nil }

func TestEmit_Recorder(t *testing.T) {
	rec := &Recorder{}
	Emit(context.Background(), rec, logging.Discard(), TopicUsers, "u1", Event{Type: "user_registered", ID: "u1"})

	require.Len(t, rec.Events, 1)
	assert.Equal(t, TopicUsers, rec.Events[0].Topic)
	assert.Equal(t, "u1", rec.Events[0].Key)
	assert.Equal(t, []string{"user_registered"}, rec.Types())

	ev := rec.Events[0].Event.(Event)
	assert.False(t, ev.OccurredAt.IsZero())
}

func TestEmit_SwallowsErrors(t *testing.T) {
	f := &failingPublisher{}
	assert.NotPanics(t, func() {
		Emit(context.Background(), f, logging.Discard(), TopicContent, "k", Event{Type: "post_created"})
		Emit(context.Background(), nil, nil, TopicContent, "k", Event{Type: "post_created"})
	})
	assert.Equal(t, 1, f.calls)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	require.NoError(t, p.Publish(context.Background(), TopicUsers, "k", Event{}))
	require.NoError(t, p.Close())
}
