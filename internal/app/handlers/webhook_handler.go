package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"collectionsync/internal/pkg/consts"
	"collectionsync/internal/pkg/log_messages"
	"collectionsync/internal/pkg/logger"
	"collectionsync/internal/pkg/models"
	"collectionsync/internal/service/interfaces"
	"collectionsync/internal/service/webhook"
)

// WebhookHandler receives signed provider deliveries. Business
// rejections (duplicate, stale, orphan, illegal transition) are still
// acknowledged with 200 so the provider stops redelivering; only
// infrastructure failures return 5xx.
type WebhookHandler struct {
	verifier *webhook.Verifier
	engine   interfaces.ReconcilerInterface
}

func NewWebhookHandler(verifier *webhook.Verifier, engine interfaces.ReconcilerInterface) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		engine:   engine,
	}
}

func (h *WebhookHandler) ProviderWebhook(c *gin.Context) {
	var body []byte
	var err error
	if c.Request.Body != nil {
		body, err = io.ReadAll(c.Request.Body)
	}
	if err != nil {
		logger.CtxError(c.Request.Context(), log_messages.ErrorReadingWebhookBody, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": log_messages.ErrorReadingWebhookBody})
		return
	}

	signature := c.GetHeader(consts.SignatureHeader)
	if !h.verifier.Verify(body, signature) {
		logger.CtxWarn(c.Request.Context(), log_messages.ErrorInvalidWebhookSignature)
		c.JSON(http.StatusUnauthorized, gin.H{"error": log_messages.ErrorInvalidWebhookSignature})
		return
	}

	var payload models.ProviderWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		logger.CtxError(c.Request.Context(), log_messages.ErrorMalformedWebhookPayload, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": log_messages.ErrorMalformedWebhookPayload})
		return
	}
	if payload.ExternalID == "" || payload.OccurredAt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": log_messages.ErrorMalformedWebhookPayload})
		return
	}

	event, err := webhook.Normalize(&payload)
	if err != nil {
		logger.CtxError(c.Request.Context(), log_messages.ErrorNormalizingWebhookEvent, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": log_messages.ErrorNormalizingWebhookEvent})
		return
	}

	outcome, err := h.engine.Process(c.Request.Context(), event)
	if err != nil {
		logger.CtxError(c.Request.Context(), log_messages.ErrorReconcilingEvent, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": log_messages.ErrorReconcilingEvent})
		return
	}

	c.JSON(http.StatusOK, outcome)
}
