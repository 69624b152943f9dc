package middleware

import (
	"strings"

	"messagely/services"

	"github.com/gin-gonic/gin"
)

// UsernameKey - ключ gin.Context, под которым лежит username вызывающего
const UsernameKey = "username"

// Authenticate - проверяет JWT из заголовка Authorization: Bearer <token>
// или параметра _token. Невалидный токен не прерывает запрос,
// пользователь просто остается анонимным.
func Authenticate(tokens *services.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		} else {
			token = c.Query("_token")
		}

		if token != "" {
			if claims, err := tokens.Verify(token); err == nil {
				c.Set(UsernameKey, claims.Username)
			}
		}
		c.Next()
	}
}

// CurrentUser возвращает username вызывающего, если он аутентифицирован
func CurrentUser(c *gin.Context) (string, bool) {
	username := c.GetString(UsernameKey)
	return username, username != ""
}

// EnsureLoggedIn - пропускает только аутентифицированных пользователей
func EnsureLoggedIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			_ = c.Error(services.ErrUnauthenticated)
			c.Abort()
			return
		}
		c.Next()
	}
}

// EnsureCorrectUser - пропускает только пользователя, чей username совпадает с параметром пути
func EnsureCorrectUser(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := CurrentUser(c)
		if !ok {
			_ = c.Error(services.ErrUnauthenticated)
			c.Abort()
			return
		}
		if username != c.Param(param) {
			_ = c.Error(services.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}
