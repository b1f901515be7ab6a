package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/outofforest/logger"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// fakeStream implements the stream commands used here; any other command panics.
type fakeStream struct {
	redis.Cmdable

	added   []*redis.XAddArgs
	streams []redis.XStream
	readErr error
	acked   []string
}

func (f *fakeStream) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.added = append(f.added, a)
	return redis.NewStringResult("1-0", nil)
}

func (f *fakeStream) XReadGroup(context.Context, *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	return redis.NewXStreamSliceCmdResult(f.streams, f.readErr)
}

func (f *fakeStream) XAck(_ context.Context, _, _ string, ids ...string) *redis.IntCmd {
	f.acked = append(f.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func TestPublish(t *testing.T) {
	stream := &fakeStream{}
	publisher := NewPublisher(stream)

	err := publisher.Publish(context.Background(), AccountEventsStream, AccountDeleted, AccountDeletedEvent{ID: 101})
	require.NoError(t, err)
	require.Len(t, stream.added, 1)
	require.Equal(t, AccountEventsStream, stream.added[0].Stream)

	payload, ok := stream.added[0].Values.(map[string]any)["event"].([]byte)
	require.True(t, ok)

	var event Event
	require.NoError(t, json.Unmarshal(payload, &event))
	require.Equal(t, AccountDeleted, event.Type)
	require.False(t, event.Timestamp.IsZero())
	require.Equal(t, map[string]any{"id": float64(101)}, event.Data)
}

func TestDiscard(t *testing.T) {
	require.NoError(t, Discard{}.Publish(context.Background(), AccountEventsStream, AccountCreated, nil))
}

func message(id, payload string) redis.XMessage {
	return redis.XMessage{ID: id, Values: map[string]any{"event": payload}}
}

func TestReadMessagesAcksHandledEvents(t *testing.T) {
	ctx := logger.WithLogger(t.Context(), logger.New(logger.DefaultConfig))

	stream := &fakeStream{streams: []redis.XStream{{
		Stream: AccountEventsStream,
		Messages: []redis.XMessage{
			message("1-0", `{"type":"account.created","data":{"id":101}}`),
			message("2-0", `not json`),
			message("3-0", `{"type":"account.deleted","data":{"id":101}}`),
			{ID: "4-0", Values: map[string]any{"other": "x"}},
			message("5-0", `{"type":"account.updated","data":{"id":101}}`),
		},
	}}}

	var handled []string
	subscriber := NewSubscriber(stream, SubscriberConfig{
		Group:    "audit",
		Consumer: "audit-1",
		Stream:   AccountEventsStream,
		Handler: func(_ context.Context, event Event) error {
			if event.Type == AccountUpdated {
				return errors.New("handler failed")
			}
			handled = append(handled, event.Type)
			return nil
		},
	})

	require.NoError(t, subscriber.readMessages(ctx))
	require.Equal(t, []string{AccountCreated, AccountDeleted}, handled)
	require.Equal(t, []string{"1-0", "3-0"}, stream.acked, "failed messages stay pending")
}

func TestReadMessagesTimeout(t *testing.T) {
	ctx := logger.WithLogger(t.Context(), logger.New(logger.DefaultConfig))

	subscriber := NewSubscriber(&fakeStream{readErr: redis.Nil}, SubscriberConfig{Stream: AccountEventsStream})
	require.NoError(t, subscriber.readMessages(ctx))

	subscriber = NewSubscriber(&fakeStream{readErr: errors.New("connection refused")}, SubscriberConfig{Stream: AccountEventsStream})
	require.Error(t, subscriber.readMessages(ctx))
}

func TestNewSubscriberDefaults(t *testing.T) {
	subscriber := NewSubscriber(&fakeStream{}, SubscriberConfig{})
	require.Equal(t, int64(10), subscriber.batchSize)
	require.NotZero(t, subscriber.blockDuration)
}
