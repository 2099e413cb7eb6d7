package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bull/casereport/internal/auth"
)

type createCaseRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) createCase(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	var req createCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	kase, err := h.store.CreateCase(c.Request.Context(), userID, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, kase)
}

func (h *Handler) listCases(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	cases, err := h.store.ListCases(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cases)
}

func (h *Handler) getCase(c *gin.Context) {
	kase, ok := h.caseForRequest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, kase)
}

func (h *Handler) updateCase(c *gin.Context) {
	kase, ok := h.caseForRequest(c)
	if !ok {
		return
	}
	userID, _ := auth.UserIDFromContext(c)

	var req createCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	updated, err := h.store.UpdateCase(c.Request.Context(), kase.ID, userID, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteCase(c *gin.Context) {
	kase, ok := h.caseForRequest(c)
	if !ok {
		return
	}
	userID, _ := auth.UserIDFromContext(c)

	// Collect blob paths before the rows cascade away.
	docs, err := h.store.ListDocuments(c.Request.Context(), kase.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.store.DeleteCase(c.Request.Context(), kase.ID, userID); err != nil {
		h.respondError(c, err)
		return
	}

	for _, doc := range docs {
		if err := h.blobs.Remove(c.Request.Context(), doc.FilePath); err != nil {
			h.logger.Warn("Orphaned blob after case delete",
				"case_id", kase.ID, "path", doc.FilePath, "error", err)
		}
	}
	c.Status(http.StatusNoContent)
}
