package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/calibration"
	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/queue"
)

// JobPublisher enqueues calibration jobs for the worker.
type JobPublisher interface {
	Publish(ctx context.Context, job *queue.CalibrationJob) error
}

type CalibrationHandler struct {
	svc  *calibration.Service
	jobs JobPublisher
}

func NewCalibrationHandler(svc *calibration.Service, jobs JobPublisher) *CalibrationHandler {
	return &CalibrationHandler{svc: svc, jobs: jobs}
}

func scopeParam(c *gin.Context) *string {
	if s := c.Query("scope"); s != "" {
		return &s
	}
	return nil
}

func windowParam(c *gin.Context) int {
	if v := c.Query("window_days"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			return days
		}
	}
	return calibration.DefaultWindowDays
}

// GET /api/v1/calibration/analysis
func (h *CalibrationHandler) Analyze(c *gin.Context) {
	result, err := h.svc.AnalyzeOverrides(c.Request.Context(), scopeParam(c), windowParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to analyze overrides"})
		return
	}
	c.JSON(http.StatusOK, result)
}

type proposeRequest struct {
	Scope       *string `json:"scope,omitempty"`
	WindowDays  int     `json:"window_days,omitempty"`
	TriggeredBy *string `json:"triggered_by,omitempty"`
}

// POST /api/v1/calibration/proposals
func (h *CalibrationHandler) Propose(c *gin.Context) {
	var req proposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.WindowDays <= 0 {
		req.WindowDays = calibration.DefaultWindowDays
	}

	p, err := h.svc.ProposeCalibration(c.Request.Context(), req.Scope, req.WindowDays, req.TriggeredBy)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate proposal"})
		return
	}

	c.JSON(http.StatusCreated, p)
}

// GET /api/v1/calibration/proposals/pending
func (h *CalibrationHandler) Pending(c *gin.Context) {
	proposals, err := h.svc.PendingProposals(c.Request.Context(), scopeParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list pending proposals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": proposals, "count": len(proposals)})
}

// GET /api/v1/calibration/proposals/history
func (h *CalibrationHandler) History(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}

	proposals, err := h.svc.ProposalHistory(c.Request.Context(), scopeParam(c), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list proposal history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": proposals, "count": len(proposals)})
}

type activateRequest struct {
	ActivatedBy string `json:"activated_by"`
}

// POST /api/v1/calibration/proposals/:id/activate
func (h *CalibrationHandler) Activate(c *gin.Context) {
	id := c.Param("id")

	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ActivatedBy == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "activated_by is required"})
		return
	}

	cfg, err := h.svc.ActivateProposal(c.Request.Context(), id, req.ActivatedBy)
	if err != nil {
		h.writeActionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"new_config_id": cfg.ID,
		"version":       cfg.Version,
		"status":        "activated",
	})
}

type dismissRequest struct {
	DismissedBy string `json:"dismissed_by"`
	Reason      string `json:"reason"`
}

// POST /api/v1/calibration/proposals/:id/dismiss
func (h *CalibrationHandler) Dismiss(c *gin.Context) {
	id := c.Param("id")

	var req dismissRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DismissedBy == "" || req.Reason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dismissed_by and reason are required"})
		return
	}

	if err := h.svc.DismissProposal(c.Request.Context(), id, req.DismissedBy, req.Reason); err != nil {
		h.writeActionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "dismissed"})
}

func (h *CalibrationHandler) writeActionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, calibration.ErrProposalNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found"})
	case calibration.IsStatusError(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}

type jobRequest struct {
	Scope       *string `json:"scope,omitempty"`
	WindowDays  int     `json:"window_days,omitempty"`
	RequestedBy string  `json:"requested_by,omitempty"`
}

// POST /api/v1/calibration/jobs
func (h *CalibrationHandler) EnqueueJob(c *gin.Context) {
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.WindowDays <= 0 {
		req.WindowDays = calibration.DefaultWindowDays
	}

	job := &queue.CalibrationJob{
		Scope:       req.Scope,
		WindowDays:  req.WindowDays,
		RequestedBy: req.RequestedBy,
	}
	if err := h.jobs.Publish(c.Request.Context(), job); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue calibration job"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": job.JobID})
}
