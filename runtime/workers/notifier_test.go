package workers

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"market-chat/domain"
	"market-chat/domain/event"
)

// recordingNotifier collects every offline event it is handed.
type recordingNotifier struct {
	mu     sync.Mutex
	events []event.ParticipantOffline
}

func (n *recordingNotifier) Notify(_ context.Context, e event.ParticipantOffline) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return nil
}

func (n *recordingNotifier) Events() []event.ParticipantOffline {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]event.ParticipantOffline(nil), n.events...)
}

func Test_NotifierWorker_ForwardsOfflineEvents(t *testing.T) {
	req := require.New(t)

	events := make(chan event.DomainEvent, 8)
	notifier := &recordingNotifier{}
	worker := NewNotifierWorker(logs.GetLoggerFromLevel(slog.LevelDebug), events, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	// Given an offline event and an unrelated one
	msg := domain.Message{Seq: 7, Conversation: "conv", Sender: "alice", Body: "hello"}
	events <- event.MessageStored{Message: msg}
	events <- event.ParticipantOffline{Message: msg, Participant: "bob"}

	// Then only the offline event reaches the notifier
	req.Eventually(func() bool {
		return len(notifier.Events()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	got := notifier.Events()[0]
	req.Equal(domain.UserID("bob"), got.Participant)
	req.Equal(int64(7), got.Message.Seq)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}
