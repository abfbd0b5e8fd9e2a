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

type AnalysisHandler struct {
	analysisService service.AnalysisService
}

func NewAnalysisHandler(analysisService service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

type GenerateAnalysisRequest struct {
	Kind        string `json:"kind" binding:"required"`
	Country     string `json:"country,omitempty"`
	YearFrom    int    `json:"yearFrom,omitempty"`
	YearTo      int    `json:"yearTo,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type AnalysisUpdateRequest struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

func (h *AnalysisHandler) Generate(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}
	var req GenerateAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	analysis, outcome, err := h.analysisService.Generate(c.Request.Context(), p, service.GenerateInput{
		Kind:        domain.AnalysisKind(req.Kind),
		Country:     req.Country,
		YearFrom:    req.YearFrom,
		YearTo:      req.YearTo,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"analysis": analysis, "saved": outcome})
}

func (h *AnalysisHandler) List(c *gin.Context) {
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

	analyses, info, err := h.analysisService.List(c.Request.Context(), p, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": analyses, "pagination": info})
}

func (h *AnalysisHandler) Get(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}

	analysis, err := h.analysisService.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *AnalysisHandler) Update(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}
	var req AnalysisUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	analysis, outcome, err := h.analysisService.Update(c.Request.Context(), p, c.Param("id"), req.Title, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analysis": analysis, "saved": outcome})
}

func (h *AnalysisHandler) Delete(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}

	outcome, err := h.analysisService.Delete(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": outcome})
}

// Import accepts a multipart archive upload. The upload is spooled to a
// uniquely named temp file that is removed on every exit path.
func (h *AnalysisHandler) Import(c *gin.Context) {
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

	archive, err := transfer.DecodeAnalysis(spooled, format)
	if err != nil {
		respondError(c, err)
		return
	}

	analysis, outcome, err := h.analysisService.Import(c.Request.Context(), p, archive, strategy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"analysis": analysis, "saved": outcome})
}

// Export serializes the study. With object storage configured the response
// carries a presigned download link; otherwise the archive streams inline.
func (h *AnalysisHandler) Export(c *gin.Context) {
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

	result, err := h.analysisService.Export(c.Request.Context(), p, c.Param("id"), format)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.DownloadURL != "" {
		c.JSON(http.StatusOK, gin.H{"downloadUrl": result.DownloadURL, "key": result.ObjectKey})
		return
	}

	var buf bytes.Buffer
	if err := transfer.EncodeAnalysis(&buf, format, result.Archive); err != nil {
		abortWithError(c, http.StatusInternalServerError, "could not serialize analysis")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=analysis.%s", format.Extension()))
	c.Data(http.StatusOK, result.ContentType, buf.Bytes())
}
