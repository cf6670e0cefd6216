package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectcrm/internal/apperr"
	"projectcrm/internal/middleware"
)

// tolerant of int / int64 / float64 / string
func getIntFromCtx(c *gin.Context, key string) (int64, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return int64(t), true
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func getUserAndRole(c *gin.Context) (userID int64, roleID int) {
	if id, ok := getIntFromCtx(c, middleware.CtxUserID); ok {
		userID = id
	}
	if id, ok := getIntFromCtx(c, middleware.CtxRoleID); ok {
		roleID = int(id)
	}
	return
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// parseTime accepts RFC3339 or a bare date (YYYY-MM-DD, UTC midnight).
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func parseOptionalTime(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// statusFor maps a domain error to its HTTP status. Rule violations are 422.
func statusFor(err error) int {
	switch apperr.CodeOf(err) {
	case apperr.CodeBusinessRule:
		return http.StatusUnprocessableEntity
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeInvalidInput:
		return http.StatusBadRequest
	case apperr.CodeConflict:
		return http.StatusConflict
	case apperr.CodeForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// respondError logs err under tag and writes the matching JSON error body.
// Internal failures are not echoed to the client.
func respondError(c *gin.Context, log *zap.SugaredLogger, tag string, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		log.Errorw(tag, "err", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	log.Infow(tag+" rejected", "status", status, "err", err)

	body := gin.H{"error": err.Error(), "code": apperr.CodeOf(err)}
	if kind := apperr.KindOf(err); kind != apperr.KindNone {
		body["kind"] = kind
	}
	c.JSON(status, body)
}
