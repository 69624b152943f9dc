package handlers

import (
	"net/http"

	"messagely/services"

	"github.com/gin-gonic/gin"
)

type AuthHandlers struct {
	users  *services.UserService
	tokens *services.TokenIssuer
}

func NewAuthHandlers(users *services.UserService, tokens *services.TokenIssuer) *AuthHandlers {
	return &AuthHandlers{users: users, tokens: tokens}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
}

// Register - POST /auth/register => {token}
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(services.BadRequest("Invalid request: %s", err.Error()))
		return
	}

	user, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	token, err := h.tokens.Issue(user.Username)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

// Login - POST /auth/login => {token}
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(services.BadRequest("Invalid request: username and password are required"))
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	token, err := h.tokens.Issue(user.Username)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
