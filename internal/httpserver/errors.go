package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"localbazaar/internal/domain"
	"localbazaar/internal/logging"
	accountsvc "localbazaar/internal/service/account"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError maps service errors to status codes. Anything unrecognised is
// logged with the request id and reported as an opaque 500.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	status, body := classify(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("request_id", logging.RequestID(c.Request.Context())),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, body)
}

func classify(err error) (int, errorResponse) {
	var de *domain.Error
	if errors.As(err, &de) {
		status := http.StatusBadRequest
		if errors.Is(de.Kind, domain.ErrConflict) {
			status = http.StatusConflict
		}
		return status, errorResponse{Error: de.Code, Message: de.Message}
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "not_found", Message: "resource not found"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "forbidden", Message: "not allowed to access this resource"}
	case errors.Is(err, accountsvc.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid_credentials", Message: "invalid email or password"}
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, accountsvc.ErrInvalidToken):
		return http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: "authentication required"}
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, errorResponse{Error: "already_exists", Message: "resource already exists"}
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: "internal error"}
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid_body", Message: msg})
}
