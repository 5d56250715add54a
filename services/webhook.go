package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/tastemichigan/api-go/metrics"
)

const (
	SignatureHeader = "x-fourthwall-signature"
	signaturePrefix = "sha256="
)

// Storefront event types with registered handlers.
const (
	EventOrderPlaced           = "ORDER_PLACED"
	EventOrderUpdated          = "ORDER_UPDATED"
	EventProductCreated        = "PRODUCT_CREATED"
	EventProductUpdated        = "PRODUCT_UPDATED"
	EventSubscriptionPurchased = "SUBSCRIPTION_PURCHASED"
	EventDonation              = "DONATION"
)

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a "sha256=<hex>" header against body in constant time.
func VerifySignature(secret string, body []byte, header string) bool {
	if secret == "" || !strings.HasPrefix(header, signaturePrefix) {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

type WebhookEvent struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	CreatedAt string          `json:"createdAt"`
	Data      json.RawMessage `json:"data"`
}

type WebhookHandler func(ctx context.Context, event WebhookEvent) error

// WebhookDispatcher routes events by type. Handler failures and panics are
// logged and counted, never returned, so the endpoint always acknowledges.
type WebhookDispatcher struct {
	handlers map[string]WebhookHandler
}

func NewWebhookDispatcher() *WebhookDispatcher {
	d := &WebhookDispatcher{handlers: make(map[string]WebhookHandler)}
	for _, eventType := range []string{
		EventOrderPlaced,
		EventOrderUpdated,
		EventProductCreated,
		EventProductUpdated,
		EventSubscriptionPurchased,
		EventDonation,
	} {
		d.Register(eventType, logEvent)
	}
	return d
}

func (d *WebhookDispatcher) Register(eventType string, h WebhookHandler) {
	d.handlers[eventType] = h
}

// Dispatch runs the handler for the event type and reports whether one existed.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event WebhookEvent) (handled bool) {
	logger := log.Ctx(ctx).With().Str("event_type", event.Type).Str("event_id", event.ID).Logger()

	h, ok := d.handlers[event.Type]
	if !ok {
		metrics.WebhookEvents.WithLabelValues(event.Type, "unhandled").Inc()
		logger.Info().Msg("no handler for webhook event")
		return false
	}

	handled = true
	defer func() {
		if r := recover(); r != nil {
			metrics.WebhookEvents.WithLabelValues(event.Type, "panic").Inc()
			logger.Error().Str("panic", fmt.Sprint(r)).Msg("webhook handler panicked")
		}
	}()

	if err := h(logger.WithContext(ctx), event); err != nil {
		metrics.WebhookEvents.WithLabelValues(event.Type, "failure").Inc()
		logger.Error().Err(err).Msg("webhook handler failed")
		return handled
	}
	metrics.WebhookEvents.WithLabelValues(event.Type, "success").Inc()
	return handled
}

// logEvent records the event without side effects.
func logEvent(ctx context.Context, event WebhookEvent) error {
	var data struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
		}
	}
	log.Ctx(ctx).Info().
		Str("resource_id", data.ID).
		Str("status", data.Status).
		Str("created_at", event.CreatedAt).
		Msg("storefront webhook received")
	return nil
}
