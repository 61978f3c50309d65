package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"market-chat/domain"
	"market-chat/errors"
)

// Connection is the transport-agnostic handle the registry owns for one
// live socket. Push hands a message to the outbound buffer; a single
// writer goroutine on the transport side drains Outbound onto the wire.
// A Push that cannot complete within the configured timeout counts as a
// failed delivery, never as a dispatch failure.
type Connection struct {
	id        string
	user      domain.UserID
	outbound  chan domain.Message
	timeout   time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

func NewConnection(user domain.UserID, bufferSize int, timeout time.Duration) *Connection {
	return &Connection{
		id:       uuid.NewString(),
		user:     user,
		outbound: make(chan domain.Message, bufferSize),
		timeout:  timeout,
		done:     make(chan struct{}),
	}
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) User() domain.UserID { return c.user }

// Outbound is drained by exactly one transport writer goroutine.
func (c *Connection) Outbound() <-chan domain.Message { return c.outbound }

// Done is closed when the connection has been shut down.
func (c *Connection) Done() <-chan struct{} { return c.done }

// Push enqueues a message for the transport writer. It gives the
// buffer a bounded amount of time to drain before reporting a timeout.
func (c *Connection) Push(ctx context.Context, msg domain.Message) error {
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-c.done:
		return errors.ErrConnectionClosed
	default:
	}

	select {
	case c.outbound <- msg:
		return nil
	case <-c.done:
		return errors.ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.ErrPushTimeout
	}
}

// Close is idempotent. The outbound channel itself is never closed so
// a concurrent Push can never panic; pushers observe done instead.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
