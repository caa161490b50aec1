package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/odoyewu/odoyewu/internal/errors"
	"github.com/odoyewu/odoyewu/internal/telemetry"
)

// ErrorResponse is the body written for every failed request
type ErrorResponse struct {
	Error *errors.AppError `json:"error"`
}

// ErrorHandler renders the last error attached with c.Error as an AppError
// JSON body and converts panics into internal errors. Register it before any
// middleware that may fail.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				telemetry.GetContextualLogger(c.Request.Context()).WithFields(map[string]interface{}{
					"operation":   "error_handler_panic",
					"panic_value": fmt.Sprintf("%v", r),
					"stack_trace": string(debug.Stack()),
					"path":        c.Request.URL.Path,
				}).Error("Panic recovered in HTTP handler")

				writeError(c, errors.NewInternalError("An unexpected error occurred", nil))
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		writeError(c, c.Errors.Last().Err)
	}
}

func writeError(c *gin.Context, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.NewInternalError("An unexpected error occurred", err)
	}
	if appErr.CorrelationID == "" {
		appErr = appErr.WithCorrelationID(telemetry.GetCorrelationID(c.Request.Context()))
	}

	logError(c, appErr)

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, ErrorResponse{Error: appErr.Public()})
}

func logError(c *gin.Context, appErr *errors.AppError) {
	logger := telemetry.GetContextualLogger(c.Request.Context()).WithFields(map[string]interface{}{
		"operation":  "error_handler_log",
		"error_type": string(appErr.Type),
		"error_code": appErr.Code,
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
	})
	if userID := GetUserID(c); userID != "" {
		logger = logger.WithField("user_id", userID)
	}
	for k, v := range appErr.Metadata {
		logger = logger.WithField(k, v)
	}
	if appErr.Cause != nil {
		logger = logger.WithField("cause", appErr.Cause.Error())
	}
	if appErr.Details != "" {
		logger = logger.WithField("details", appErr.Details)
	}

	switch appErr.Type {
	case errors.ErrorTypeValidation, errors.ErrorTypeAuthentication, errors.ErrorTypeAuthorization,
		errors.ErrorTypeRateLimit, errors.ErrorTypePrecondition:
		logger.Warn(appErr.Message)
	case errors.ErrorTypeNotFound, errors.ErrorTypeConflict:
		logger.Info(appErr.Message)
	default:
		logger.Error(appErr.Message)
	}
}
