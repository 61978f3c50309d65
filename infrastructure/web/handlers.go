package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"market-chat/domain"
	"market-chat/services"
)

const defaultHistoryLimit = 50

// Handler serves the REST surface. It funnels message submission into
// the same Send contract as the live connection path.
type Handler struct {
	log     *slog.Logger
	service services.IChatService
}

func NewHandler(log *slog.Logger, service services.IChatService) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) CreateConversation(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participants := lo.Map(req.Participants, func(p string, _ int) domain.UserID {
		return domain.UserID(p)
	})
	conv, err := h.service.CreateConversation(participants, req.OrderRef)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toConversationResponse(conv))
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity := identityFrom(c)
	msg, err := h.service.Send(c.Request.Context(), domain.SendCommand{
		Conversation:  domain.ConversationID(req.ConversationID),
		Sender:        identity.UserID,
		Body:          req.Body,
		AttachmentRef: req.AttachmentRef,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMessageResponse(msg))
}

func (h *Handler) ListConversations(c *gin.Context) {
	identity := identityFrom(c)
	summaries, err := h.service.Conversations(identity.UserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversations": lo.Map(summaries, func(s domain.ConversationSummary, _ int) summaryResponse {
			return toSummaryResponse(s)
		}),
		"total": len(summaries),
	})
}

func (h *Handler) ConversationMessages(c *gin.Context) {
	identity := identityFrom(c)
	after, err := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil || after < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "after must be a non-negative integer"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	messages, err := h.service.History(identity.UserID, domain.HistoryQuery{
		Conversation: domain.ConversationID(c.Param("id")),
		After:        after,
		Limit:        limit,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"messages": lo.Map(messages, func(m domain.Message, _ int) messageResponse {
			return toMessageResponse(m)
		}),
	})
}

// MarkRead acknowledges a batch of messages for the calling user.
// Transitions are idempotent; acknowledging an already-read message
// changes nothing.
func (h *Handler) MarkRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity := identityFrom(c)
	id := domain.ConversationID(req.ConversationID)
	marked := 0
	for _, seq := range req.MessageIDs {
		if err := h.service.MarkRead(identity.UserID, id, seq); err != nil {
			abortWithError(c, err)
			return
		}
		marked++
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

func (h *Handler) MessageStatus(c *gin.Context) {
	identity := identityFrom(c)
	seq, err := strconv.ParseInt(c.Param("seq"), 10, 64)
	if err != nil || seq < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seq must be a positive integer"})
		return
	}

	statuses, err := h.service.Status(identity.UserID, domain.ConversationID(c.Param("id")), seq)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response := make(map[string]string, len(statuses))
	for participant, status := range statuses {
		response[string(participant)] = string(status)
	}
	c.JSON(http.StatusOK, gin.H{"statuses": response})
}

func (h *Handler) DeleteMessage(c *gin.Context) {
	identity := identityFrom(c)
	seq, err := strconv.ParseInt(c.Param("seq"), 10, 64)
	if err != nil || seq < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seq must be a positive integer"})
		return
	}

	err = h.service.DeleteMessage(identity, domain.ConversationID(c.Param("id")), seq)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) ResolveConversation(c *gin.Context) {
	identity := identityFrom(c)
	err := h.service.Resolve(identity, domain.ConversationID(c.Param("id")))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": true})
}
