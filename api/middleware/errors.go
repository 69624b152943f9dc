package middleware

import (
	"errors"
	"log"
	"net/http"

	"messagely/services"

	"github.com/gin-gonic/gin"
)

// ErrorReporter отдает последнюю ошибку из c.Errors в виде
// {"error": {"status": N, "message": "..."}}. Статус и текст берутся из *services.AppError,
// остальные ошибки превращаются в 500 и пишутся в лог.
func ErrorReporter() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		status := http.StatusInternalServerError
		message := http.StatusText(http.StatusInternalServerError)
		var appErr *services.AppError
		if errors.As(err, &appErr) {
			status = appErr.Status
			message = appErr.Message
		} else {
			log.Printf("[%s] %s %s: %v", c.GetString(RequestIDKey), c.Request.Method, c.Request.URL.Path, err)
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(status, gin.H{"error": gin.H{"status": status, "message": message}})
	}
}

// NotFoundHandler - для router.NoRoute
func NotFoundHandler(c *gin.Context) {
	_ = c.Error(services.NotFound("Not Found"))
}
