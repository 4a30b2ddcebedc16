package handler

import (
	"errors"
	"net/http"

	"yayasan/internal/middleware"
	"yayasan/internal/service"
	"yayasan/pkg/response"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// statusFor maps a service error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUnresolvedActor), errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrPrecondition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Str("request_id", requestid.Get(c)).Msg("unhandled error")
		msg = "Internal server error"
	}
	c.JSON(code, response.Error(code, msg).WithRequestID(requestid.Get(c)))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()).WithRequestID(requestid.Get(c)))
}

// actorOrAbort returns the authenticated actor or answers 401.
func actorOrAbort(c *gin.Context) (service.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "authentication required"))
	}
	return actor, ok
}
