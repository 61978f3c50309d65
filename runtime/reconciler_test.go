package runtime

import (
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"market-chat/domain"
)

func Test_Reconciler_ReplaysMissedMessagesInOrder(t *testing.T) {
	req := require.New(t)
	store := openStore(t)
	registry := NewRegistry()
	dispatcher := NewDispatcher(logs.GetLoggerFromLevel(slog.LevelDebug), store, registry, 16)
	reconciler := NewReconciler(logs.GetLoggerFromLevel(slog.LevelDebug), store)

	conv, err := store.CreateConversation([]domain.UserID{"alice", "bob"}, "")
	req.NoError(err)

	// Given alice sent three messages while bob was offline
	bodies := []string{"one", "two", "three"}
	for _, body := range bodies {
		_, err := dispatcher.Send(context.Background(), domain.SendCommand{
			Conversation: conv.ID, Sender: "alice", Body: body,
		})
		req.NoError(err)
	}

	// When bob reconnects
	conn := newFakeConn("bob")
	req.NoError(reconciler.Replay(context.Background(), conn))

	// Then the gap arrives in order and the statuses move to delivered
	pushed := conn.Pushed()
	req.Len(pushed, len(bodies))
	for i, msg := range pushed {
		req.Equal(int64(i+1), msg.Seq)
		req.Equal(bodies[i], msg.Body)
	}
	for seq := int64(1); seq <= 3; seq++ {
		statuses, err := store.StatusFor(conv.ID, seq)
		req.NoError(err)
		req.Equal(domain.StatusDelivered, statuses["bob"])
	}

	// And a second reconnection replays nothing
	again := newFakeConn("bob")
	req.NoError(reconciler.Replay(context.Background(), again))
	req.Empty(again.Pushed())
}

func Test_Reconciler_SenderNeverReplaysOwnMessages(t *testing.T) {
	req := require.New(t)
	store := openStore(t)
	registry := NewRegistry()
	dispatcher := NewDispatcher(logs.GetLoggerFromLevel(slog.LevelDebug), store, registry, 16)
	reconciler := NewReconciler(logs.GetLoggerFromLevel(slog.LevelDebug), store)

	conv, err := store.CreateConversation([]domain.UserID{"alice", "bob"}, "")
	req.NoError(err)
	_, err = dispatcher.Send(context.Background(), domain.SendCommand{
		Conversation: conv.ID, Sender: "alice", Body: "mine",
	})
	req.NoError(err)

	// When the sender reconnects their own message is already covered
	conn := newFakeConn("alice")
	req.NoError(reconciler.Replay(context.Background(), conn))
	req.Empty(conn.Pushed())
}

func Test_Reconciler_StopsAtFirstFailedPush(t *testing.T) {
	req := require.New(t)
	store := openStore(t)
	registry := NewRegistry()
	dispatcher := NewDispatcher(logs.GetLoggerFromLevel(slog.LevelDebug), store, registry, 16)
	reconciler := NewReconciler(logs.GetLoggerFromLevel(slog.LevelDebug), store)

	conv, err := store.CreateConversation([]domain.UserID{"alice", "bob"}, "")
	req.NoError(err)
	for i := 0; i < 3; i++ {
		_, err := dispatcher.Send(context.Background(), domain.SendCommand{
			Conversation: conv.ID, Sender: "alice", Body: "msg",
		})
		req.NoError(err)
	}

	// Given a connection that rejects every push
	stalled := newFakeConn("bob")
	stalled.failPush = true
	req.NoError(reconciler.Replay(context.Background(), stalled))

	// Then nothing was skipped: the cursor stays where it was
	cursor, err := store.DeliveredCursor(conv.ID, "bob")
	req.NoError(err)
	req.Zero(cursor)

	// And a healthy reconnection still replays the whole gap
	conn := newFakeConn("bob")
	req.NoError(reconciler.Replay(context.Background(), conn))
	req.Len(conn.Pushed(), 3)
}

func Test_Reconciler_ReplayAfterPartialDelivery(t *testing.T) {
	req := require.New(t)
	store := openStore(t)
	reconciler := NewReconciler(logs.GetLoggerFromLevel(slog.LevelDebug), store)

	conv, err := store.CreateConversation([]domain.UserID{"alice", "bob"}, "")
	req.NoError(err)
	for i := 0; i < 3; i++ {
		_, err := store.AppendMessage(conv.ID, "alice", "msg", "")
		req.NoError(err)
	}

	// Given bob already received the first message live
	req.NoError(store.MarkDelivered(conv.ID, 1, "bob"))

	conn := newFakeConn("bob")
	req.NoError(reconciler.Replay(context.Background(), conn))

	// Then only the gap past the cursor is replayed, exactly once
	pushed := conn.Pushed()
	req.Len(pushed, 2)
	req.Equal(int64(2), pushed[0].Seq)
	req.Equal(int64(3), pushed[1].Seq)
}
