package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// defaultSearchLimit is used when a search request omits the limit.
const defaultSearchLimit = 10

type searchRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit"`
}

func (h *Handler) search(c *gin.Context) {
	kase, ok := h.caseForRequest(c)
	if !ok {
		return
	}

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultSearchLimit
	}

	results, err := h.rag.Search(c.Request.Context(), kase.ID, req.Query, req.Limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.SearchesTotal.Inc()
	}
	c.JSON(http.StatusOK, results)
}

type generateReportRequest struct {
	Prompt     string     `json:"prompt" binding:"required"`
	TemplateID *uuid.UUID `json:"template_id"`
}

func (h *Handler) generateReport(c *gin.Context) {
	kase, ok := h.caseForRequest(c)
	if !ok {
		return
	}

	var req generateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	report, err := h.rag.Generate(c.Request.Context(), kase.ID, req.Prompt, req.TemplateID)
	if err != nil {
		if h.metrics != nil {
			h.metrics.ReportsTotal.WithLabelValues("failed").Inc()
		}
		h.respondError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ReportsTotal.WithLabelValues("completed").Inc()
	}
	c.JSON(http.StatusCreated, report)
}

func (h *Handler) listReports(c *gin.Context) {
	kase, ok := h.caseForRequest(c)
	if !ok {
		return
	}
	reports, err := h.store.ListReports(c.Request.Context(), kase.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *Handler) getReport(c *gin.Context) {
	kase, ok := h.caseForRequest(c)
	if !ok {
		return
	}
	reportID, ok := pathUUID(c, "report_id")
	if !ok {
		return
	}
	report, err := h.store.GetReport(c.Request.Context(), kase.ID, reportID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type createTemplateRequest struct {
	Name   string         `json:"name" binding:"required"`
	Schema datatypes.JSON `json:"schema"`
}

func (h *Handler) createTemplate(c *gin.Context) {
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	template, err := h.store.CreateTemplate(c.Request.Context(), req.Name, req.Schema)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

func (h *Handler) listTemplates(c *gin.Context) {
	templates, err := h.store.ListTemplates(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}
