package handler

import (
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/search-facade/internal/apperr"
	"github.com/psds-microservice/search-facade/internal/response"
)

// respond writes payload, or the error envelope when err is set.
func respond(c *gin.Context, payload any, err error) {
	env := response.Normalize(payload, err)
	c.JSON(env.Status, env.Body)
}

// bindJSON decodes the request body into dst. A malformed body is a validation error.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("invalid body: %s", err.Error())
	}
	return nil
}

// bindOptionalJSON is bindJSON for endpoints whose body may be absent. It reports whether
// a body was decoded.
func bindOptionalJSON(c *gin.Context, dst any) (bool, error) {
	if c.Request.ContentLength == 0 {
		return false, nil
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, apperr.Validation("invalid body: %s", err.Error())
	}
	return true, nil
}

// splitFields parses a comma separated field list, dropping blanks.
func splitFields(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
