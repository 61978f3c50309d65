package web

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"market-chat/domain"
)

var validate = validator.New()

type createConversationRequest struct {
	Participants []string `json:"participants" validate:"required,min=2,dive,required"`
	OrderRef     string   `json:"order_ref"`
}

type sendMessageRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	Body           string `json:"body"`
	AttachmentRef  string `json:"attachment_ref" validate:"omitempty,url"`
}

type markReadRequest struct {
	ConversationID string  `json:"conversation_id" validate:"required"`
	MessageIDs     []int64 `json:"message_ids" validate:"required,min=1,dive,gt=0"`
}

type conversationResponse struct {
	ID            string    `json:"id"`
	Participants  []string  `json:"participants"`
	OrderRef      string    `json:"order_ref,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	Resolved      bool      `json:"resolved"`
	LastMessageAt time.Time `json:"last_message_at"`
}

type messageResponse struct {
	ConversationID string    `json:"conversation_id"`
	MessageID      int64     `json:"message_id"`
	SenderID       string    `json:"sender_id"`
	Body           string    `json:"body,omitempty"`
	AttachmentRef  string    `json:"attachment_ref,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	Deleted        bool      `json:"deleted,omitempty"`
}

type summaryResponse struct {
	Conversation conversationResponse `json:"conversation"`
	LastMessage  *messageResponse     `json:"last_message,omitempty"`
	UnreadCount  int                  `json:"unread_count"`
}

func toConversationResponse(c domain.Conversation) conversationResponse {
	return conversationResponse{
		ID: string(c.ID),
		Participants: lo.Map(c.Participants, func(p domain.UserID, _ int) string {
			return string(p)
		}),
		OrderRef:      c.OrderRef,
		CreatedAt:     c.CreatedAt,
		Resolved:      c.Resolved,
		LastMessageAt: c.LastMessageAt,
	}
}

func toMessageResponse(m domain.Message) messageResponse {
	return messageResponse{
		ConversationID: string(m.Conversation),
		MessageID:      m.Seq,
		SenderID:       string(m.Sender),
		Body:           m.Body,
		AttachmentRef:  m.AttachmentRef,
		CreatedAt:      m.CreatedAt,
		Deleted:        m.Deleted,
	}
}

func toSummaryResponse(s domain.ConversationSummary) summaryResponse {
	resp := summaryResponse{
		Conversation: toConversationResponse(s.Conversation),
		UnreadCount:  s.UnreadCount,
	}
	if s.LastMessage != nil {
		last := toMessageResponse(*s.LastMessage)
		resp.LastMessage = &last
	}
	return resp
}
