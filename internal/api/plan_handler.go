package api

import (
	"bytes"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/dualstore"
	"fittrack/backend/internal/service"
	"fittrack/backend/internal/transfer"
)

// PlanHandler serves one plan family; it is mounted once for training plans
// and once for diet plans.
type PlanHandler struct {
	planService service.PlanService
	kind        domain.PlanKind
}

// NewPlanHandler creates a PlanHandler bound to one plan kind.
func NewPlanHandler(planService service.PlanService, kind domain.PlanKind) *PlanHandler {
	return &PlanHandler{planService: planService, kind: kind}
}

type PlanRequest struct {
	Name        string `json:"name" binding:"omitempty,min=1"`
	Description string `json:"description,omitempty"`
	Active      *bool  `json:"active,omitempty"`
}

func (r PlanRequest) toInput() service.PlanInput {
	return service.PlanInput{Name: r.Name, Description: r.Description, Active: r.Active}
}

type DayRequest struct {
	DayOfWeek   string `json:"dayOfWeek" binding:"required"`
	DisplayName string `json:"displayName,omitempty"`
	Order       int    `json:"order" binding:"gte=0"`
}

type ItemRequest struct {
	Order    int                     `json:"order" binding:"gte=0"`
	Exercise *domain.ExerciseDetails `json:"exercise,omitempty"`
	Meal     *domain.MealDetails     `json:"meal,omitempty"`
}

func (h *PlanHandler) Create(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	plan, outcome, err := h.planService.Create(c.Request.Context(), p, h.kind, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": plan, "saved": outcome})
}

func (h *PlanHandler) List(c *gin.Context) {
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

	plans, info, err := h.planService.List(c.Request.Context(), p, h.kind, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans, "pagination": info})
}

func (h *PlanHandler) Get(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}

	plan, err := h.planService.Get(c.Request.Context(), p, h.kind, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *PlanHandler) Update(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	plan, outcome, err := h.planService.Update(c.Request.Context(), p, h.kind, c.Param("id"), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan, "saved": outcome})
}

func (h *PlanHandler) Delete(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}

	outcome, err := h.planService.Delete(c.Request.Context(), p, h.kind, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": outcome})
}

// Exists answers the duplicate-name pre-check used before imports.
func (h *PlanHandler) Exists(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}

	exists, err := h.planService.Exists(c.Request.Context(), p, h.kind, c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

func (h *PlanHandler) AddDay(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}
	var req DayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	day, outcome, err := h.planService.AddDay(c.Request.Context(), p, h.kind, c.Param("id"), domain.Day{
		DayOfWeek:   req.DayOfWeek,
		DisplayName: req.DisplayName,
		Order:       req.Order,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"day": day, "saved": outcome})
}

func (h *PlanHandler) RemoveDay(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}

	outcome, err := h.planService.RemoveDay(c.Request.Context(), p, h.kind, c.Param("id"), c.Param("dayId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": outcome})
}

func (h *PlanHandler) AddItem(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	item, outcome, err := h.planService.AddItem(c.Request.Context(), p, h.kind, c.Param("id"), c.Param("dayId"), domain.Item{
		Order:    req.Order,
		Exercise: req.Exercise,
		Meal:     req.Meal,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item, "saved": outcome})
}

func (h *PlanHandler) RemoveItem(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}

	outcome, err := h.planService.RemoveItem(c.Request.Context(), p, h.kind, c.Param("id"), c.Param("dayId"), c.Param("itemId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": outcome})
}

// Import accepts a multipart archive upload. The upload is spooled to a
// uniquely named temp file that is removed on every exit path.
func (h *PlanHandler) Import(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}

	strategy, err := service.ParseStrategy(c.PostForm("duplicateStrategy"))
	if err != nil {
		respondError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "file upload is required")
		return
	}
	format, err := transfer.FormatFromFilename(fileHeader.Filename)
	if err != nil {
		respondError(c, err)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "could not read upload")
		return
	}
	defer src.Close()

	path, cleanup, err := transfer.SpoolUpload("", src, format)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "could not spool upload")
		return
	}
	defer cleanup()

	spooled, err := os.Open(path)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "could not read spooled upload")
		return
	}
	defer spooled.Close()

	archive, err := transfer.DecodePlan(spooled, format)
	if err != nil {
		respondError(c, err)
		return
	}

	plan, outcome, err := h.planService.Import(c.Request.Context(), p, h.kind, archive, strategy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": plan, "saved": outcome})
}

// Export serializes the plan. With object storage configured the response
// carries a presigned download link; otherwise the archive streams inline.
func (h *PlanHandler) Export(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}

	format, err := transfer.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.planService.Export(c.Request.Context(), p, h.kind, c.Param("id"), format)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.DownloadURL != "" {
		c.JSON(http.StatusOK, gin.H{"downloadUrl": result.DownloadURL, "key": result.ObjectKey})
		return
	}

	var buf bytes.Buffer
	if err := transfer.EncodePlan(&buf, format, result.Archive); err != nil {
		abortWithError(c, http.StatusInternalServerError, "could not serialize plan")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s-plan.%s", h.kind, format.Extension()))
	c.Data(http.StatusOK, result.ContentType, buf.Bytes())
}
