package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"messagely/api/middleware"
	"messagely/services"

	"github.com/gin-gonic/gin"
)

// MessageHandlers - обработчики /messages. Пользователь уже проверен EnsureLoggedIn,
// здесь только проверка, что он участник сообщения.
type MessageHandlers struct {
	store    services.MessageStore
	notifier services.Notifier
}

// NewMessageHandlers - notifier может быть nil, тогда события не рассылаются
func NewMessageHandlers(store services.MessageStore, notifier services.Notifier) *MessageHandlers {
	return &MessageHandlers{
		store:    store,
		notifier: notifier,
	}
}

type CreateMessageRequest struct {
	ToUsername string `json:"to_username" binding:"required"`
	Body       string `json:"body" binding:"required"`
}

func parseMessageID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(services.BadRequest("Invalid message id"))
		return 0, false
	}
	return id, true
}

func (h *MessageHandlers) notify(ctx context.Context, event services.MessageEvent) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.Notify(ctx, event); err != nil {
		log.Printf("Failed to notify %s about message %d: %v", event.Recipient, event.MessageID, err)
	}
}

// GetMessageHandler - GET /messages/:id, доступно отправителю или получателю
func (h *MessageHandlers) GetMessageHandler(c *gin.Context) {
	username, _ := middleware.CurrentUser(c)
	id, ok := parseMessageID(c)
	if !ok {
		return
	}

	start := time.Now()
	msg, err := h.store.Get(c.Request.Context(), id)
	middleware.RecordMessageOperation("get", time.Since(start), err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if !msg.IsParty(username) {
		_ = c.Error(services.ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": msg})
}

// CreateMessageHandler - POST /messages, отправитель - текущий пользователь
func (h *MessageHandlers) CreateMessageHandler(c *gin.Context) {
	username, _ := middleware.CurrentUser(c)

	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(services.BadRequest("Invalid request: to_username and body are required"))
		return
	}

	start := time.Now()
	msg, err := h.store.Create(c.Request.Context(), username, req.ToUsername, req.Body)
	middleware.RecordMessageOperation("create", time.Since(start), err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.notify(c.Request.Context(), services.MessageEvent{
		Event:     services.EventMessageSent,
		MessageID: msg.ID,
		From:      msg.FromUsername,
		To:        msg.ToUsername,
		At:        msg.SentAt,
		Recipient: msg.ToUsername,
	})

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// MarkReadHandler - POST /messages/:id/read, только для получателя
func (h *MessageHandlers) MarkReadHandler(c *gin.Context) {
	username, _ := middleware.CurrentUser(c)
	id, ok := parseMessageID(c)
	if !ok {
		return
	}

	start := time.Now()
	msg, err := h.store.Get(c.Request.Context(), id)
	middleware.RecordMessageOperation("get", time.Since(start), err)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if username != msg.ToUser.Username {
		_ = c.Error(services.ErrUnauthorized)
		return
	}

	start = time.Now()
	receipt, err := h.store.MarkRead(c.Request.Context(), id)
	middleware.RecordMessageOperation("mark_read", time.Since(start), err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	readAt := time.Now().UTC()
	if receipt.ReadAt != nil {
		readAt = *receipt.ReadAt
	}
	// отправителю приходит уведомление о прочтении
	h.notify(c.Request.Context(), services.MessageEvent{
		Event:     services.EventMessageRead,
		MessageID: receipt.ID,
		From:      msg.FromUser.Username,
		To:        msg.ToUser.Username,
		At:        readAt,
		Recipient: msg.FromUser.Username,
	})

	c.JSON(http.StatusOK, gin.H{"message": receipt})
}
