package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/tastemichigan/api-go/metrics"
	"github.com/tastemichigan/api-go/services"
	"github.com/tastemichigan/api-go/utils"
)

type WebhookController struct {
	Secret     string
	Dispatcher *services.WebhookDispatcher
}

func NewWebhookController(secret string, dispatcher *services.WebhookDispatcher) *WebhookController {
	return &WebhookController{Secret: secret, Dispatcher: dispatcher}
}

// HandleFourthwall verifies the storefront signature and dispatches the event.
// Once the signature checks out the delivery is acknowledged even when the
// handler fails; the storefront retries on non-2xx only.
func (wc *WebhookController) HandleFourthwall(c *gin.Context) {
	logger := log.Ctx(c.Request.Context())

	if wc.Secret == "" {
		logger.Error().Msg("webhook secret is not configured")
		c.JSON(http.StatusInternalServerError, StandardResponse{Success: false, Error: "Webhook secret is not configured"})
		return
	}

	body, err := utils.ReadBody(c.Request)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, utils.ErrBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, StandardResponse{Success: false, Error: err.Error()})
		return
	}

	if !services.VerifySignature(wc.Secret, body, c.GetHeader(services.SignatureHeader)) {
		metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		logger.Warn().Str("client_ip", c.ClientIP()).Msg("webhook signature rejected")
		c.JSON(http.StatusUnauthorized, StandardResponse{Success: false, Error: "Invalid signature"})
		return
	}

	var event services.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil || event.Type == "" {
		metrics.WebhookEvents.WithLabelValues("unknown", "malformed").Inc()
		c.JSON(http.StatusBadRequest, StandardResponse{Success: false, Error: "Malformed webhook payload"})
		return
	}

	handled := wc.Dispatcher.Dispatch(c.Request.Context(), event)

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    gin.H{"received": true, "type": event.Type, "handled": handled},
	})
}
