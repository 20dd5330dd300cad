package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"mapportal/internal/microservices/http-api/service"
	"mapportal/internal/storage"

	"github.com/gin-gonic/gin"
)

// errorKinds is checked in order; the first match decides status and kind.
var errorKinds = []struct {
	target error
	status int
	kind   string
}{
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
	{service.ErrConflict, http.StatusConflict, "conflict"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
	{storage.ErrUnsupportedType, http.StatusUnsupportedMediaType, "unsupported_media_type"},
	{storage.ErrTooLarge, http.StatusRequestEntityTooLarge, "payload_too_large"},
}

// respondError writes {"error": kind, "detail": message}. Anything that is
// not a known kind is reported as a storage failure without internals.
func respondError(c *gin.Context, err error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			detail := strings.TrimPrefix(err.Error(), k.target.Error()+": ")
			c.JSON(k.status, gin.H{"error": k.kind, "detail": detail})
			return
		}
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "storage_failure", "detail": "the request could not be completed"})
}

func badRequest(c *gin.Context, detail string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_argument", "detail": detail})
}

// pathID parses a positive int64 path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, name+" must be an integer")
		return 0, false
	}
	return v, true
}
