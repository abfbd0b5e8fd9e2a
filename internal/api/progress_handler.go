package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fittrack/backend/internal/dualstore"
	"fittrack/backend/internal/service"
)

// ProgressHandler serves the measurement-history endpoints.
type ProgressHandler struct {
	progressService service.ProgressService
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(progressService service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

type ProgressRequest struct {
	WeightKG        float64    `json:"weightKg" binding:"omitempty,gt=0"`
	TrainingMinutes int        `json:"trainingMinutes" binding:"omitempty,gte=0"`
	EffectiveDate   *time.Time `json:"effectiveDate,omitempty"`
}

func (r ProgressRequest) toInput() service.ProgressInput {
	in := service.ProgressInput{
		WeightKG:        r.WeightKG,
		TrainingMinutes: r.TrainingMinutes,
	}
	if r.EffectiveDate != nil {
		in.EffectiveDate = *r.EffectiveDate
	}
	return in
}

// Create records a new progress entry in every active store.
func (h *ProgressHandler) Create(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}
	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	entry, outcome, err := h.progressService.Create(c.Request.Context(), p, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": entry, "saved": outcome})
}

// List serves the paginated history from the authoritative store.
func (h *ProgressHandler) List(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}
	var page dualstore.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	entries, info, err := h.progressService.List(c.Request.Context(), p, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "pagination": info})
}

// Get resolves a heterogeneous id to the merged entry.
func (h *ProgressHandler) Get(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}

	entry, err := h.progressService.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Update mutates the entry in every store that holds it.
func (h *ProgressHandler) Update(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}
	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	entry, outcome, err := h.progressService.Update(c.Request.Context(), p, c.Param("id"), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry, "saved": outcome})
}

// Delete removes the entry from every store that holds it, reporting the
// per-store breakdown.
func (h *ProgressHandler) Delete(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}

	outcome, err := h.progressService.Delete(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": outcome})
}
