package domain

type Command interface {
	ConversationID() ConversationID
}

// SendCommand carries a message submission. The REST path and the live
// connection path both build this command, so a message is
// indistinguishable once persisted regardless of how it arrived.
type SendCommand struct {
	Conversation  ConversationID
	Sender        UserID
	Body          string
	AttachmentRef string
}

func (c SendCommand) ConversationID() ConversationID {
	return c.Conversation
}

// HistoryQuery asks for messages of a conversation after a cursor.
// Limit <= 0 means no limit.
type HistoryQuery struct {
	Conversation ConversationID
	After        int64
	Limit        int
}

func (q HistoryQuery) ConversationID() ConversationID {
	return q.Conversation
}
