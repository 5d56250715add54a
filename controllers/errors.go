package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tastemichigan/api-go/services"
	"github.com/tastemichigan/api-go/types"
)

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrValidation), errors.Is(err, types.ErrInvalidBounds):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrNotConfigured):
		return http.StatusInternalServerError
	case errors.Is(err, types.ErrQueryFailed), errors.Is(err, services.ErrUpstream), errors.Is(err, services.ErrEmptyFeed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError logs server-side failures and writes the error envelope.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	_ = c.Error(err)
	c.JSON(status, StandardResponse{Success: false, Error: publicMessage(status, err)})
}

// publicMessage keeps store internals out of 5xx bodies.
func publicMessage(status int, err error) string {
	switch status {
	case http.StatusBadGateway:
		if errors.Is(err, types.ErrQueryFailed) {
			return "Places store is unavailable"
		}
		return "Upstream content source failed"
	case http.StatusInternalServerError:
		if errors.Is(err, services.ErrNotConfigured) {
			return err.Error()
		}
		return "Internal server error"
	}
	return err.Error()
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, StandardResponse{Success: false, Error: err.Error()})
}
