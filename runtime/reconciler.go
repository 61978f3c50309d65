package runtime

import (
	"context"
	"log/slog"

	"market-chat/contract"
	"market-chat/domain"
)

// Reconciler catches a freshly registered connection up on everything
// it missed. The durable message log is itself the offline queue: for
// each conversation of the user it replays the gap past the delivery
// cursor, so no separate at-risk buffer exists.
type Reconciler struct {
	log   *slog.Logger
	store contract.IConversationStore
}

func NewReconciler(log *slog.Logger, store contract.IConversationStore) *Reconciler {
	return &Reconciler{log: log, store: store}
}

// Replay pushes every missed message, in order, through the new
// connection and records the delivered transition as it goes. Replay of
// one conversation stops at the first failed push so an earlier message
// is never skipped by a later successful one.
func (r *Reconciler) Replay(ctx context.Context, conn contract.Conn) error {
	summaries, err := r.store.ConversationsFor(conn.User())
	if err != nil {
		return err
	}

	for _, summary := range summaries {
		if err := r.replayConversation(ctx, conn, summary.Conversation.ID); err != nil {
			r.log.Warn("replay interrupted",
				"conversation", summary.Conversation.ID,
				"user", conn.User(),
				"connection", conn.ID(),
				"error", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func (r *Reconciler) replayConversation(ctx context.Context, conn contract.Conn, id domain.ConversationID) error {
	cursor, err := r.store.DeliveredCursor(id, conn.User())
	if err != nil {
		return err
	}
	missed, err := r.store.MessagesSince(id, cursor, 0)
	if err != nil {
		return err
	}

	for _, msg := range missed {
		if err := conn.Push(ctx, msg); err != nil {
			return err
		}
		if msg.Sender == conn.User() {
			continue
		}
		if err := r.store.MarkDelivered(id, msg.Seq, conn.User()); err != nil {
			r.log.Error("delivered transition failed during replay",
				"conversation", id,
				"seq", msg.Seq,
				"user", conn.User(),
				"error", err)
		}
	}
	return nil
}
