// Package web exposes the delivery engine over HTTP: a REST surface
// for submission and listings, and the WebSocket endpoint for live
// delivery. Both paths funnel into the same service contract.
package web

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"market-chat/auth"
	"market-chat/services"
)

// Options groups what the router needs beyond its collaborators.
type Options struct {
	Verifier auth.TokenVerifier
}

// NewRouter assembles the full HTTP surface. Every route except the
// health probe runs behind token verification; admission on top of it
// only applies to the live connection endpoint.
func NewRouter(log *slog.Logger, service services.IChatService,
	wsHandler *WSHandler, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := AuthRequired(opts.Verifier)
	handler := NewHandler(log, service)

	api := router.Group("/api/v1", authed)
	{
		api.POST("/conversations", handler.CreateConversation)
		api.GET("/conversations", handler.ListConversations)
		api.GET("/conversations/:id/messages", handler.ConversationMessages)
		api.GET("/conversations/:id/messages/:seq/status", handler.MessageStatus)
		api.DELETE("/conversations/:id/messages/:seq", handler.DeleteMessage)
		api.POST("/conversations/:id/resolve", handler.ResolveConversation)
		api.POST("/messages", handler.SendMessage)
		api.POST("/messages/read", handler.MarkRead)
	}

	router.GET("/ws", authed, wsHandler.Handle)

	return router
}
