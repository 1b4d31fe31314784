package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/gradebook-backend/internal/apperror"
	"github.com/stemsi/gradebook-backend/internal/response"
)

// fail writes the error response for err according to its kind.
// Storage and unclassified failures are logged; client errors are not.
func fail(c *gin.Context, err error) {
	log := zerolog.Ctx(c.Request.Context())

	e, ok := apperror.As(err)
	if !ok {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	switch e.Kind {
	case apperror.KindValidation:
		code := response.ErrValidation
		if e.Duplicate {
			code = response.ErrDuplicateRecord
		}
		response.FailWithMessage(c, http.StatusBadRequest, code, e.Message, e.Fields)
	case apperror.KindNotFound:
		response.FailWithMessage(c, http.StatusNotFound, response.ErrNotFound, e.Message, nil)
	case apperror.KindIntegrity:
		response.FailWithMessage(c, http.StatusConflict, response.ErrDependencyExists, e.Message, nil)
	case apperror.KindPersistence:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Storage failure")
		response.Fail(c, http.StatusInternalServerError, response.ErrPersistence)
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// parseID reads a positive integer path parameter. On failure it writes a
// 400 response and returns false.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// optionalID reads a positive integer query parameter. It returns nil when the
// parameter is absent; on a malformed value it writes a 400 response and
// returns false.
func optionalID(c *gin.Context, name string) (*int64, bool) {
	raw, present := c.GetQuery(name)
	if !present || raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidQuery, map[string]string{
			name: name + " must be a positive integer",
		})
		return nil, false
	}
	return &id, true
}

// optionalInt reads an integer query parameter, defaulting to 0 when absent.
func optionalInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidQuery, map[string]string{
			name: name + " must be an integer",
		})
		return 0, false
	}
	return n, true
}
