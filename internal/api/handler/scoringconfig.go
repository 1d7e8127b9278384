package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/calibration"
	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/domain"
	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/scoring"
)

type ConfigHandler struct {
	svc *calibration.Service
}

func NewConfigHandler(svc *calibration.Service) *ConfigHandler {
	return &ConfigHandler{svc: svc}
}

// GET /api/v1/configs/active
func (h *ConfigHandler) Active(c *gin.Context) {
	cfg, err := h.svc.ActiveConfig(c.Request.Context(), scopeParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load active config"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// GET /api/v1/configs
func (h *ConfigHandler) History(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}

	configs, err := h.svc.ConfigHistory(c.Request.Context(), scopeParam(c), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list configs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"configs": configs, "count": len(configs)})
}

type routeRequest struct {
	OverallScore *float64                 `json:"overall_score,omitempty"`
	CheckScores  map[domain.Check]float64 `json:"check_scores"`
	Scope        *string                  `json:"scope,omitempty"`
}

// POST /api/v1/scoring/route classifies a scored item against the scope's
// active configuration. When no aggregate score is supplied it is derived as
// the weighted mean of the per-check scores.
func (h *ConfigHandler) Route(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.OverallScore == nil && len(req.CheckScores) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "overall_score or check_scores required"})
		return
	}
	for check := range req.CheckScores {
		if !check.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown check " + string(check)})
			return
		}
	}

	cfg, err := h.svc.ActiveConfig(c.Request.Context(), req.Scope)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load active config"})
		return
	}

	router := scoring.NewRouter(cfg)
	overall := 0.0
	if req.OverallScore != nil {
		overall = *req.OverallScore
	} else {
		overall = router.WeightedOverall(req.CheckScores)
	}

	c.JSON(http.StatusOK, router.Route(overall, req.CheckScores))
}
