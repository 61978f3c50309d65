package errors

import "fmt"

var (
	// Admission failures. Fatal to the connection attempt: the
	// connection is refused and never reaches the registry.
	ErrUnauthenticated = fmt.Errorf("no verified identity supplied")
	ErrForbidden       = fmt.Errorf("identity is not allowed to do this")

	// Caller errors, surfaced synchronously to the submitter.
	ErrInvalidParticipants  = fmt.Errorf("a conversation needs at least two distinct participants")
	ErrConversationNotFound = fmt.Errorf("conversation not found")
	ErrSenderNotParticipant = fmt.Errorf("sender is not a participant of the conversation")
	ErrMessageNotFound      = fmt.Errorf("message not found")
	ErrEmptyBody            = fmt.Errorf("message has neither body nor attachment")
	ErrBodyTooLong          = fmt.Errorf("message body exceeds the maximum length")

	// Transport failures. Never surfaced to the sender, they
	// self-heal through replay on reconnection.
	ErrPushTimeout      = fmt.Errorf("push did not complete in time")
	ErrConnectionClosed = fmt.Errorf("connection is closed")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)
