package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"market-chat/auth"
	"market-chat/domain"
	"market-chat/runtime"
	"market-chat/services"
)

const (
	writeWait    = 10 * time.Second
	maxFrameSize = 16 * 1024
)

const (
	frameTypeMessage = "message"
	frameTypePing    = "ping"
	frameTypePong    = "pong"
	frameTypeRead    = "read"
)

// pushFrame is what clients receive for every live or replayed message.
type pushFrame struct {
	Type           string    `json:"type"`
	ConversationID string    `json:"conversation_id"`
	MessageID      int64     `json:"message_id"`
	SenderID       string    `json:"sender_id"`
	Body           string    `json:"body,omitempty"`
	AttachmentRef  string    `json:"attachment_ref,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// clientFrame is what clients send: ping keep-alives and read
// acknowledgments carrying the message id.
type clientFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
	MessageID      int64  `json:"message_id,omitempty"`
}

func toPushFrame(m domain.Message) pushFrame {
	return pushFrame{
		Type:           frameTypeMessage,
		ConversationID: string(m.Conversation),
		MessageID:      m.Seq,
		SenderID:       string(m.Sender),
		Body:           m.Body,
		AttachmentRef:  m.AttachmentRef,
		Timestamp:      m.CreatedAt,
	}
}

// WSHandler owns the live connection endpoint: upgrade, admission,
// registration, the read/write pumps and teardown.
type WSHandler struct {
	log          *slog.Logger
	service      services.IChatService
	upgrader     websocket.Upgrader
	bufferSize   int
	pushTimeout  time.Duration
	pingInterval time.Duration
	pongTimeout  time.Duration
}

func NewWSHandler(log *slog.Logger, service services.IChatService,
	bufferSize int, pushTimeout, pingInterval, pongTimeout time.Duration) *WSHandler {
	return &WSHandler{
		log:     log,
		service: service,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		bufferSize:   bufferSize,
		pushTimeout:  pushTimeout,
		pingInterval: pingInterval,
		pongTimeout:  pongTimeout,
	}
}

// Handle upgrades the request and runs the connection until the client
// goes away. The writer pump starts before admission so replayed
// messages have somewhere to drain into.
func (h *WSHandler) Handle(c *gin.Context) {
	identity := identityFrom(c)

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.log.Warn("websocket upgrade failed", "user", identity.UserID, "error", err)
		return
	}

	conn := runtime.NewConnection(identity.UserID, h.bufferSize, h.pushTimeout)
	go h.writePump(ws, conn)

	if err := h.service.Connect(c.Request.Context(), identity, conn); err != nil {
		h.log.Warn("connection refused", "user", identity.UserID, "error", err)
		deadline := time.Now().Add(writeWait)
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()), deadline)
		conn.Close()
		return
	}
	h.log.Info("websocket connected", "user", identity.UserID, "connection", conn.ID())

	defer h.service.Disconnect(conn)
	h.readPump(ws, conn, identity)
	h.log.Info("websocket disconnected", "user", identity.UserID, "connection", conn.ID())
}

// readPump owns all reads on the socket: read acknowledgments, client
// pings and the pong deadline. It returns when the client closes or
// times out.
func (h *WSHandler) readPump(ws *websocket.Conn, conn *runtime.Connection, identity auth.Identity) {
	defer conn.Close()

	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(h.pongTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(h.pongTimeout))
	})

	for {
		var frame clientFrame
		if err := ws.ReadJSON(&frame); err != nil {
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(h.pongTimeout))

		switch frame.Type {
		case frameTypePing:
			// Application-level keep-alive for clients without
			// control-frame access.
		case frameTypeRead:
			err := h.service.MarkRead(identity.UserID,
				domain.ConversationID(frame.ConversationID), frame.MessageID)
			if err != nil {
				h.log.Warn("read acknowledgment rejected",
					"user", identity.UserID,
					"conversation", frame.ConversationID,
					"message", frame.MessageID,
					"error", err)
			}
		default:
			h.log.Debug("unknown client frame", "type", frame.Type, "user", identity.UserID)
		}
	}
}

// writePump is the only goroutine writing on the socket. It drains the
// connection's outbound buffer and keeps the transport alive with
// pings.
func (h *WSHandler) writePump(ws *websocket.Conn, conn *runtime.Connection) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	defer ws.Close()

	for {
		select {
		case msg := <-conn.Outbound():
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(toPushFrame(msg)); err != nil {
				conn.Close()
				return
			}
		case <-conn.Done():
			deadline := time.Now().Add(writeWait)
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				conn.Close()
				return
			}
		}
	}
}
