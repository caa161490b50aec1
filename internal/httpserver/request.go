package httpserver

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/odoyewu/odoyewu/internal/errors"
	"github.com/odoyewu/odoyewu/internal/middleware"
)

// fail hands err to the error handler middleware
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

func currentUser(c *gin.Context) string {
	return middleware.GetUserID(c)
}

// radiusParam reads ?radius=. Absent means 0, which services treat as
// their configured default.
func radiusParam(c *gin.Context) (float64, error) {
	raw := c.Query("radius")
	if raw == "" {
		return 0, nil
	}
	r, err := strconv.ParseFloat(raw, 64)
	if err != nil || r <= 0 || math.IsInf(r, 0) || math.IsNaN(r) {
		return 0, errors.NewValidationError("radius", "radius must be a positive number of miles")
	}
	return r, nil
}

// bind decodes the request into dst and reports decode failures as
// validation errors
func bind(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBind(dst); err != nil {
		return errors.NewValidationError("body", "invalid request body").
			WithDetails(err.Error())
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
