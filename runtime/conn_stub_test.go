package runtime

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"market-chat/domain"
	"market-chat/errors"
)

// fakeConn records every pushed message in memory. It stands in for a
// transport-backed connection in registry, dispatcher and reconciler
// tests.
type fakeConn struct {
	id   string
	user domain.UserID

	mu       sync.Mutex
	pushed   []domain.Message
	failPush bool
	closed   bool
}

func newFakeConn(user domain.UserID) *fakeConn {
	return &fakeConn{id: uuid.NewString(), user: user}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) User() domain.UserID { return c.user }

func (c *fakeConn) Push(_ context.Context, msg domain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.ErrConnectionClosed
	}
	if c.failPush {
		return errors.ErrPushTimeout
	}
	c.pushed = append(c.pushed, msg)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) Pushed() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Message(nil), c.pushed...)
}
