package services

import (
	"fmt"
	"net/http"
)

// AppError - ошибка с HTTP-статусом, который отдаст репортер ошибок
type AppError struct {
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

var (
	// ErrUnauthenticated - у запроса нет валидного пользователя
	ErrUnauthenticated = &AppError{Status: http.StatusUnauthorized, Message: "Unauthorized"}
	// ErrUnauthorized - пользователь не имеет доступа к ресурсу
	ErrUnauthorized = &AppError{Status: http.StatusUnauthorized, Message: "Unauthorized"}
)

func NotFound(format string, args ...any) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...any) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}
