package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	messages []kafka.Message
	next     int
	commits  []kafka.Message
}

func (f *fakeReader) FetchMessage(context.Context) (kafka.Message, error) {
	if f.next >= len(f.messages) {
		return kafka.Message{}, context.Canceled
	}
	m := f.messages[f.next]
	f.next++
	return m, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.commits = append(f.commits, msgs...)
	return nil
}

func (f *fakeReader) Close() error { return nil }

func msg(offset int64, value string) kafka.Message {
	return kafka.Message{Offset: offset, Value: []byte(value)}
}

func newTestConsumer(reader *fakeReader) *Consumer {
	return &Consumer{reader: reader, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestRunCommitsAfterEverySuccessfulMessage(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{msg(1, "a"), msg(2, "b")}}
	c := newTestConsumer(reader)

	var handled []string
	err := c.Run(context.Background(), func(_ context.Context, _, value []byte) error {
		handled = append(handled, string(value))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, handled)
	require.Len(t, reader.commits, 2)
	assert.Equal(t, int64(1), reader.commits[0].Offset)
	assert.Equal(t, int64(2), reader.commits[1].Offset)
}

// Group commits are cumulative: once a later offset is committed, every
// earlier message counts as consumed. A handler failure must therefore stop
// the loop before any later message can be fetched, let alone committed.
func TestRunStopsOnHandlerErrorWithoutCommitting(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{msg(1, "ok"), msg(2, "boom"), msg(3, "never")}}
	c := newTestConsumer(reader)

	err := c.Run(context.Background(), func(_ context.Context, _, value []byte) error {
		if string(value) == "boom" {
			return errors.New("redis down")
		}
		return nil
	})
	require.ErrorContains(t, err, "redis down")
	require.ErrorContains(t, err, "offset 2")

	// Only the message before the failure is committed; the failed offset
	// stays uncommitted for redelivery and nothing past it was fetched.
	require.Len(t, reader.commits, 1)
	assert.Equal(t, int64(1), reader.commits[0].Offset)
	assert.Equal(t, 2, reader.next)
}

func TestRunAcknowledgesMessagesTheHandlerDrops(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{msg(1, "{garbage"), msg(2, "ok")}}
	c := newTestConsumer(reader)

	// Handlers return nil for messages that can never succeed; the loop must
	// commit them so they are not redelivered.
	err := c.Run(context.Background(), func(context.Context, []byte, []byte) error {
		return nil
	})
	require.NoError(t, err)
	require.Len(t, reader.commits, 2)
}
