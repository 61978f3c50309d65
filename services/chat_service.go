//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"log/slog"

	"market-chat/auth"
	"market-chat/contract"
	"market-chat/domain"
	"market-chat/errors"
)

type IChatService interface {
	CreateConversation(participants []domain.UserID, orderRef string) (domain.Conversation, error)
	Send(ctx context.Context, cmd domain.SendCommand) (domain.Message, error)
	History(requester domain.UserID, query domain.HistoryQuery) ([]domain.Message, error)
	Conversations(user domain.UserID) ([]domain.ConversationSummary, error)
	MarkRead(user domain.UserID, id domain.ConversationID, seq int64) error
	Status(requester domain.UserID, id domain.ConversationID, seq int64) (map[domain.UserID]domain.DeliveryStatus, error)
	DeleteMessage(identity auth.Identity, id domain.ConversationID, seq int64) error
	Resolve(identity auth.Identity, id domain.ConversationID) error
	Connect(ctx context.Context, identity auth.Identity, conn contract.Conn) error
	Disconnect(conn contract.Conn)
}

// ChatService is the single entry point for both the REST submission
// path and the live connection path. A message submitted through either
// is indistinguishable once persisted.
type ChatService struct {
	log        *slog.Logger
	store      contract.IConversationStore
	registry   contract.IRegistry
	dispatcher contract.IDispatcher
	reconciler contract.IReconciler
	admission  *auth.Admission
	maxBodyLen int
}

func NewChatService(log *slog.Logger, store contract.IConversationStore,
	registry contract.IRegistry, dispatcher contract.IDispatcher,
	reconciler contract.IReconciler, admission *auth.Admission,
	maxBodyLen int) *ChatService {
	return &ChatService{
		log:        log,
		store:      store,
		registry:   registry,
		dispatcher: dispatcher,
		reconciler: reconciler,
		admission:  admission,
		maxBodyLen: maxBodyLen,
	}
}

func (s *ChatService) CreateConversation(participants []domain.UserID, orderRef string) (domain.Conversation, error) {
	return s.store.CreateConversation(participants, orderRef)
}

// Send checks the payload bounds then hands the command to the
// dispatcher. Participant membership is enforced by the store on
// append, so a rejected sender leaves no partial state.
func (s *ChatService) Send(ctx context.Context, cmd domain.SendCommand) (domain.Message, error) {
	if cmd.Body == "" && cmd.AttachmentRef == "" {
		return domain.Message{}, errors.ErrEmptyBody
	}
	if s.maxBodyLen > 0 && len(cmd.Body) > s.maxBodyLen {
		return domain.Message{}, errors.ErrBodyTooLong
	}
	return s.dispatcher.Send(ctx, cmd)
}

func (s *ChatService) History(requester domain.UserID, query domain.HistoryQuery) ([]domain.Message, error) {
	if err := s.requireParticipant(query.Conversation, requester); err != nil {
		return nil, err
	}
	return s.store.MessagesSince(query.Conversation, query.After, query.Limit)
}

func (s *ChatService) Conversations(user domain.UserID) ([]domain.ConversationSummary, error) {
	return s.store.ConversationsFor(user)
}

// MarkRead records the receiving client's acknowledgment. It is
// idempotent and silently keeps the stronger status.
func (s *ChatService) MarkRead(user domain.UserID, id domain.ConversationID, seq int64) error {
	if err := s.requireParticipant(id, user); err != nil {
		return err
	}
	return s.store.MarkRead(id, seq, user)
}

func (s *ChatService) Status(requester domain.UserID, id domain.ConversationID, seq int64) (map[domain.UserID]domain.DeliveryStatus, error) {
	if err := s.requireParticipant(id, requester); err != nil {
		return nil, err
	}
	return s.store.StatusFor(id, seq)
}

// DeleteMessage flips the soft-delete flag. Only the original sender
// or an admin may delete; the record itself stays in the log.
func (s *ChatService) DeleteMessage(identity auth.Identity, id domain.ConversationID, seq int64) error {
	if err := s.requireParticipant(id, identity.UserID); err != nil {
		return err
	}
	msgs, err := s.store.MessagesSince(id, seq-1, 1)
	if err != nil {
		return err
	}
	if len(msgs) == 0 || msgs[0].Seq != seq {
		return errors.ErrMessageNotFound
	}
	if msgs[0].Sender != identity.UserID && identity.Role != domain.RoleAdmin {
		return errors.ErrForbidden
	}
	return s.store.DeleteMessage(id, seq)
}

// Resolve archives a support conversation. Restricted to roles with
// the resolve capability.
func (s *ChatService) Resolve(identity auth.Identity, id domain.ConversationID) error {
	if !identity.Role.CanResolve() {
		return errors.ErrForbidden
	}
	return s.store.Resolve(id)
}

// Connect admits the identity, registers the connection and replays
// the gap. The connection's writer must already be draining Outbound
// before Connect is called, otherwise a large replay can stall.
func (s *ChatService) Connect(ctx context.Context, identity auth.Identity, conn contract.Conn) error {
	if err := s.admission.Admit(identity); err != nil {
		return err
	}
	s.registry.Register(conn)
	if err := s.reconciler.Replay(ctx, conn); err != nil {
		// The connection stays up: whatever the replay missed is
		// still in the log for the next reconnection.
		s.log.Warn("replay failed on connect",
			"user", conn.User(), "connection", conn.ID(), "error", err)
	}
	return nil
}

// Disconnect is idempotent and must never block or fail an in-flight
// dispatch for other participants.
func (s *ChatService) Disconnect(conn contract.Conn) {
	s.registry.Unregister(conn.User(), conn.ID())
	conn.Close()
}

func (s *ChatService) requireParticipant(id domain.ConversationID, user domain.UserID) error {
	conv, err := s.store.Conversation(id)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(user) {
		return errors.ErrForbidden
	}
	return nil
}
