package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"collectionsync/internal/pkg/consts"
	"collectionsync/internal/pkg/models"
	"collectionsync/internal/service/interfaces"
)

// CollectionsHandler exposes the operator endpoints: debt summary, due
// date extension, settlement discount and the manual sweep trigger.
type CollectionsHandler struct {
	batchService interfaces.BatchServiceInterface
	sweepService interfaces.SweepServiceInterface
}

func NewCollectionsHandler(
	batchService interfaces.BatchServiceInterface,
	sweepService interfaces.SweepServiceInterface,
) *CollectionsHandler {
	return &CollectionsHandler{
		batchService: batchService,
		sweepService: sweepService,
	}
}

func (h *CollectionsHandler) DebtSummary(c *gin.Context) {
	proposalID := c.Param("proposalId")
	if proposalID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proposalId is required"})
		return
	}

	summary, err := h.batchService.GetDebtSummary(c.Request.Context(), proposalID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *CollectionsHandler) ExtendDueDates(c *gin.Context) {
	var body models.ExtendDueDatesRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.batchService.ExtendDueDates(c.Request.Context(), c.GetHeader(consts.ActorHeader), &body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CollectionsHandler) SettlementDiscount(c *gin.Context) {
	var body models.SettlementDiscountRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.batchService.ApplySettlementDiscount(c.Request.Context(), c.GetHeader(consts.ActorHeader), &body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CollectionsHandler) Sync(c *gin.Context) {
	resp, err := h.sweepService.SyncPendingCollections(c.Request.Context(), c.GetHeader(consts.ActorHeader))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrCollectionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
