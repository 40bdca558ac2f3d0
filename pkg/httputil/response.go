package httputil

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/anamnese-api/pkg/errors"
)

// ContextRequestID is the gin context key holding the request id.
const ContextRequestID = "request_id"

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// MessageResponse acknowledges an operation without a resource body
type MessageResponse struct {
	Message string `json:"message"`
}

// RespondWithSuccess sends data as the bare JSON body
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// RespondWithMessage sends {"message": msg}
func RespondWithMessage(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, MessageResponse{Message: msg})
}

// RespondWithAttachment sends data as a downloadable file
func RespondWithAttachment(c *gin.Context, contentType, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, contentType, data)
}

// StatusCode maps an error to its HTTP status
func StatusCode(err error) int {
	appErr, ok := errors.As(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch appErr.Code {
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrBadRequest:
		return http.StatusBadRequest
	case errors.ErrUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrValidation:
		return http.StatusUnprocessableEntity
	case errors.ErrExternalService:
		if appErr.Status >= 400 && appErr.Status <= 599 {
			return appErr.Status
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, err error) {
	statusCode := StatusCode(err)
	body := ErrorResponse{
		Status:    "error",
		Message:   "Internal server error",
		RequestID: c.GetString(ContextRequestID),
	}

	if appErr, ok := errors.As(err); ok && appErr.Code != errors.ErrInternal {
		body.Message = appErr.Message
		body.Field = appErr.Field
		body.Constraint = appErr.Constraint
	}

	if statusCode >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", body.RequestID).
			Str("path", c.FullPath()).
			Msg("request failed")
	}

	c.AbortWithStatusJSON(statusCode, body)
}

// RespondWithStatus aborts with an error body for failures raised outside the
// service layer, such as rate limiting or oversized requests.
func RespondWithStatus(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Status:    "error",
		Message:   message,
		RequestID: c.GetString(ContextRequestID),
	})
}
