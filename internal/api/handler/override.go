package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/domain"
)

// OverrideRecorder persists human override decisions.
type OverrideRecorder interface {
	Record(ctx context.Context, rec *domain.OverrideRecord) error
}

type OverrideHandler struct {
	overrides OverrideRecorder
}

func NewOverrideHandler(overrides OverrideRecorder) *OverrideHandler {
	return &OverrideHandler{overrides: overrides}
}

type recordOverrideRequest struct {
	GeneratedItemID string                       `json:"generated_item_id"`
	Scope           *string                      `json:"scope,omitempty"`
	Action          domain.OverrideAction        `json:"override_action"`
	AutomatedStatus domain.AutomatedStatus       `json:"automated_status"`
	CheckScores     map[domain.Check]float64     `json:"per_check_scores,omitempty"`
	ReviewerID      string                       `json:"reviewer_id"`
	Notes           string                       `json:"notes,omitempty"`
}

// POST /api/v1/overrides
func (h *OverrideHandler) Record(c *gin.Context) {
	var req recordOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.GeneratedItemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "generated_item_id is required"})
		return
	}
	if !req.Action.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid override_action"})
		return
	}
	if !req.AutomatedStatus.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid automated_status"})
		return
	}
	for check, score := range req.CheckScores {
		if !check.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown check " + string(check)})
			return
		}
		if score < 0 || score > 10 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "check scores must be in [0, 10]"})
			return
		}
	}

	rec := &domain.OverrideRecord{
		GeneratedItemID: req.GeneratedItemID,
		Scope:           req.Scope,
		Action:          req.Action,
		AutomatedStatus: req.AutomatedStatus,
		CheckScores:     req.CheckScores,
		ReviewerID:      req.ReviewerID,
		Notes:           req.Notes,
	}

	if err := h.overrides.Record(c.Request.Context(), rec); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record override"})
		return
	}

	c.JSON(http.StatusCreated, rec)
}
