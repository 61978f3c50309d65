package web

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"market-chat/auth"
	"market-chat/domain"
	"market-chat/repositories"
	"market-chat/runtime"
	"market-chat/services"
)

type liveStack struct {
	server   *httptest.Server
	service  *services.ChatService
	store    *repositories.ConversationRepository
	registry *runtime.Registry
	verifier auth.TokenVerifier
}

func newLiveStack(t *testing.T) liveStack {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store := repositories.NewConversationRepository(db, log)
	registry := runtime.NewRegistry()
	dispatcher := runtime.NewDispatcher(log, store, registry, 16)
	reconciler := runtime.NewReconciler(log, store)
	service := services.NewChatService(log, store, registry, dispatcher, reconciler,
		auth.NewAdmission(), 4000)

	verifier := auth.NewTokenVerifier("test-secret")
	wsHandler := NewWSHandler(log, service, 16, time.Second, 10*time.Second, 30*time.Second)
	router := NewRouter(log, service, wsHandler, Options{Verifier: verifier})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return liveStack{
		server:   server,
		service:  service,
		store:    store,
		registry: registry,
		verifier: verifier,
	}
}

func (s liveStack) dial(t *testing.T, identity auth.Identity) *websocket.Conn {
	t.Helper()
	token, err := s.verifier.Sign(identity, time.Hour)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws?token=" + token
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) pushFrame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame pushFrame
	require.NoError(t, ws.ReadJSON(&frame))
	return frame
}

func Test_WebSocket_LiveDeliveryAndReadAck(t *testing.T) {
	req := require.New(t)
	stack := newLiveStack(t)

	conv, err := stack.service.CreateConversation([]domain.UserID{"alice", "bob"}, "")
	req.NoError(err)

	// Given bob is connected over the socket
	ws := stack.dial(t, auth.Identity{UserID: "bob", Role: domain.RoleCustomer})
	req.Eventually(func() bool {
		return stack.registry.Connected("bob")
	}, 2*time.Second, 10*time.Millisecond)

	// When alice sends a message
	msg, err := stack.service.Send(context.Background(), domain.SendCommand{
		Conversation: conv.ID, Sender: "alice", Body: "hello bob",
	})
	req.NoError(err)

	// Then it arrives as a push frame
	frame := readFrame(t, ws)
	req.Equal(frameTypeMessage, frame.Type)
	req.Equal(string(conv.ID), frame.ConversationID)
	req.Equal(msg.Seq, frame.MessageID)
	req.Equal("hello bob", frame.Body)

	// And a read acknowledgment over the socket moves the status
	req.NoError(ws.WriteJSON(clientFrame{
		Type:           frameTypeRead,
		ConversationID: string(conv.ID),
		MessageID:      msg.Seq,
	}))
	req.Eventually(func() bool {
		statuses, err := stack.store.StatusFor(conv.ID, msg.Seq)
		return err == nil && statuses["bob"] == domain.StatusRead
	}, 2*time.Second, 10*time.Millisecond)
}

func Test_WebSocket_ReplayOnConnect(t *testing.T) {
	req := require.New(t)
	stack := newLiveStack(t)

	conv, err := stack.service.CreateConversation([]domain.UserID{"alice", "bob"}, "")
	req.NoError(err)

	// Given two messages sent while bob was offline
	for _, body := range []string{"first", "second"} {
		_, err := stack.service.Send(context.Background(), domain.SendCommand{
			Conversation: conv.ID, Sender: "alice", Body: body,
		})
		req.NoError(err)
	}

	// When bob connects the gap is replayed in order
	ws := stack.dial(t, auth.Identity{UserID: "bob", Role: domain.RoleCustomer})
	first := readFrame(t, ws)
	second := readFrame(t, ws)
	req.Equal(int64(1), first.MessageID)
	req.Equal("first", first.Body)
	req.Equal(int64(2), second.MessageID)
	req.Equal("second", second.Body)
}

func Test_WebSocket_RejectsMissingToken(t *testing.T) {
	req := require.New(t)
	stack := newLiveStack(t)

	url := "ws" + strings.TrimPrefix(stack.server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	req.Error(err)
	req.NotNil(resp)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func Test_WebSocket_DisabledAccountIsClosed(t *testing.T) {
	req := require.New(t)
	stack := newLiveStack(t)

	// The upgrade succeeds, the admission refusal closes the socket
	ws := stack.dial(t, auth.Identity{UserID: "bob", Role: domain.RoleCustomer, Disabled: true})
	req.NoError(ws.SetReadDeadline(time.Now().Add(2 * time.Second)))
	var frame pushFrame
	err := ws.ReadJSON(&frame)
	req.Error(err)
	req.True(websocket.IsCloseError(err, websocket.ClosePolicyViolation))
	req.False(stack.registry.Connected("bob"))
}
