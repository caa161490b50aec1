package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/odoyewu/odoyewu/internal/auth"
	"github.com/odoyewu/odoyewu/internal/errors"
	"github.com/odoyewu/odoyewu/internal/telemetry"
)

// UserIDKey is the gin context key holding the authenticated user id
const UserIDKey = "user_id"

// UserResolver confirms that a token subject names an existing account. A
// NotFound AppError is reported as an authentication failure; any other
// error passes through unchanged.
type UserResolver func(ctx context.Context, userID string) error

// AuthMiddleware requires a valid bearer token and stores its subject under
// UserIDKey. When resolve is set the subject must also be a known user.
// Failures are reported through c.Error for ErrorHandler to render.
func AuthMiddleware(secret []byte, resolve UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := telemetry.GetContextualLogger(c.Request.Context()).WithFields(map[string]interface{}{
			"operation": "authenticate",
			"path":      c.FullPath(),
		})

		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortWithError(c, errors.NewAuthenticationError("Could not validate credentials").
				WithDetails("missing bearer token"))
			return
		}

		userID, err := auth.ParseToken(strings.TrimSpace(token), secret)
		if err != nil {
			logger.WithError(err).Debug("Rejected bearer token")
			abortWithError(c, errors.NewAuthenticationError("Could not validate credentials"))
			return
		}

		if resolve != nil {
			if err := resolve(c.Request.Context(), userID); err != nil {
				if errors.IsErrorType(err, errors.ErrorTypeNotFound) {
					logger.WithField("user_id", userID).Info("Token subject is not a known user")
					err = errors.NewAuthenticationError("Could not validate credentials")
				}
				abortWithError(c, err)
				return
			}
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// GetUserID returns the authenticated user id, or "" outside AuthMiddleware
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
