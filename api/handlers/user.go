package handlers

import (
	"net/http"

	"messagely/models"
	"messagely/services"

	"github.com/gin-gonic/gin"
)

type UserHandlers struct {
	users    *services.UserService
	messages services.MessageStore
}

func NewUserHandlers(users *services.UserService, messages services.MessageStore) *UserHandlers {
	return &UserHandlers{users: users, messages: messages}
}

// UserList - GET /users
func (h *UserHandlers) UserList(c *gin.Context) {
	users, err := h.users.All(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// UserGet - GET /users/:username
func (h *UserHandlers) UserGet(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Profile()})
}

// MessagesTo - GET /users/:username/to, входящие
func (h *UserHandlers) MessagesTo(c *gin.Context) {
	details, err := h.messages.ListTo(c.Request.Context(), c.Param("username"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	messages := make([]models.InboxMessage, 0, len(details))
	for _, d := range details {
		messages = append(messages, d.Inbox())
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// MessagesFrom - GET /users/:username/from, исходящие
func (h *UserHandlers) MessagesFrom(c *gin.Context) {
	details, err := h.messages.ListFrom(c.Request.Context(), c.Param("username"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	messages := make([]models.OutboxMessage, 0, len(details))
	for _, d := range details {
		messages = append(messages, d.Outbox())
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
