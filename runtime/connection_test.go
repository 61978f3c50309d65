package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"market-chat/domain"
	"market-chat/errors"
)

func Test_Connection_PushAndDrain(t *testing.T) {
	req := require.New(t)
	conn := NewConnection("alice", 4, 50*time.Millisecond)

	msg := domain.Message{Seq: 1, Conversation: "conv", Sender: "bob", Body: "hello"}
	req.NoError(conn.Push(context.Background(), msg))

	select {
	case got := <-conn.Outbound():
		req.Equal(msg, got)
	case <-time.After(time.Second):
		t.Fatal("message never reached the outbound channel")
	}
}

func Test_Connection_PushTimesOutWhenBufferFull(t *testing.T) {
	req := require.New(t)

	// Given a connection whose writer never drains
	conn := NewConnection("alice", 1, 20*time.Millisecond)
	req.NoError(conn.Push(context.Background(), domain.Message{Seq: 1}))

	err := conn.Push(context.Background(), domain.Message{Seq: 2})
	req.ErrorIs(err, errors.ErrPushTimeout)
}

func Test_Connection_PushHonorsContext(t *testing.T) {
	req := require.New(t)
	conn := NewConnection("alice", 1, time.Minute)
	req.NoError(conn.Push(context.Background(), domain.Message{Seq: 1}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := conn.Push(ctx, domain.Message{Seq: 2})
	req.ErrorIs(err, context.Canceled)
}

func Test_Connection_CloseIsIdempotent(t *testing.T) {
	req := require.New(t)
	conn := NewConnection("alice", 1, time.Minute)

	conn.Close()
	conn.Close()

	select {
	case <-conn.Done():
	default:
		t.Fatal("done channel not closed")
	}

	err := conn.Push(context.Background(), domain.Message{Seq: 1})
	req.ErrorIs(err, errors.ErrConnectionClosed)
}
