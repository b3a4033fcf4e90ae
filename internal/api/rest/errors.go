package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	app "house-inspect/internal/application"
	"house-inspect/internal/domain/entity"
	"house-inspect/internal/infrastructure/securestore"
)

// APIError тело ответа с ошибкой
type APIError struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func NewAPIError(message string, details map[string]interface{}) *APIError {
	return &APIError{
		Error:   message,
		Details: details,
	}
}

// AbortWithBadRequest отвечает 400 и прерывает обработку.
func AbortWithBadRequest(c *gin.Context, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(http.StatusBadRequest, NewAPIError(message, details))
}

// AbortWithNotFound отвечает 404 и прерывает обработку.
func AbortWithNotFound(c *gin.Context, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(http.StatusNotFound, NewAPIError(message, details))
}

// AbortWithError выбирает статус по ошибке сервиса
func AbortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), NewAPIError(err.Error(), nil))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, securestore.ErrStorageFailed):
		return http.StatusServiceUnavailable
	case errors.Is(err, app.ErrReportNotFound), errors.Is(err, entity.ErrProblemNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, app.ErrAnalysisFailed):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
