package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/doctor-smile-ledger/internal/clinic_api/middleware"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// Response represents a standard API response
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// ErrorInfo represents error information in a response
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondWithData sends a JSON response with data
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, &Response{
		Data:          data,
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondWithError sends a JSON response with an error
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, &Response{
		Error:         &ErrorInfo{Code: code, Message: message},
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

// RespondCreated sends a 201 Created response with data
func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

// RespondBadRequest sends a 400 Bad Request response with an error
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// RespondInternalError sends a 500 Internal Server Error response with an error
func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}

// RespondError maps a service error onto a status code by its class. Client
// errors carry the error text; anything unclassified is logged and hidden
// behind a generic 500.
func RespondError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		RespondWithError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, shared.ErrInsufficientBalance):
		RespondWithError(c, http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", err.Error())
	case errors.Is(err, shared.ErrLimitExceeded):
		RespondWithError(c, http.StatusUnprocessableEntity, "LIMIT_EXCEEDED", err.Error())
	case errors.Is(err, clinic.ErrInvalidAppointmentState{}):
		RespondWithError(c, http.StatusUnprocessableEntity, "INVALID_APPOINTMENT_STATE", err.Error())
	case errors.Is(err, shared.ErrInvalidRequest):
		RespondBadRequest(c, err.Error())
	case errors.Is(err, shared.ErrConflict):
		RespondWithError(c, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, shared.ErrBusy):
		c.Header("Retry-After", "1")
		RespondWithError(c, http.StatusServiceUnavailable, "BUSY", "The ledger is busy, retry shortly")
	default:
		logger.Error("Request failed",
			"path", c.FullPath(),
			"correlation_id", middleware.GetCorrelationID(c),
			"configuration", errors.Is(err, shared.ErrConfiguration),
			"error", err,
		)
		RespondInternalError(c)
	}
	_ = c.Error(err)
}
