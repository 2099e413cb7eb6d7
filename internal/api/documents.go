package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bull/casereport/internal/store"
)

// maxUploadBytes caps a single document upload.
const maxUploadBytes = 32 << 20

// uploadDocument accepts a multipart file, stores the raw bytes, records the
// document in status "uploaded", and hands it to the ingestion workers. The
// response returns before ingestion runs; clients poll the document status.
func (h *Handler) uploadDocument(c *gin.Context) {
	kase, ok := h.caseForRequest(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileHeader.Filename)), ".")
	if fileType != "txt" && fileType != "docx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported file type %q", fileType)})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		h.respondError(c, err)
		return
	}

	objectPath := fmt.Sprintf("%s/%s-%s", kase.ID, uuid.New(), filepath.Base(fileHeader.Filename))
	if err := h.blobs.Upload(c.Request.Context(), objectPath, data, fileHeader.Header.Get("Content-Type")); err != nil {
		h.respondError(c, err)
		return
	}

	doc, err := h.store.CreateDocument(c.Request.Context(), kase.ID, fileHeader.Filename, objectPath, fileType)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.queue.Enqueue(c.Request.Context(), doc.ID); err != nil {
		// The row and blob exist; the client can retry via reprocess.
		h.logger.Error("Enqueue failed after upload", "document_id", doc.ID, "error", err)
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, doc)
}

func (h *Handler) listDocuments(c *gin.Context) {
	kase, ok := h.caseForRequest(c)
	if !ok {
		return
	}
	docs, err := h.store.ListDocuments(c.Request.Context(), kase.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *Handler) getDocument(c *gin.Context) {
	kase, ok := h.caseForRequest(c)
	if !ok {
		return
	}
	docID, ok := pathUUID(c, "document_id")
	if !ok {
		return
	}
	doc, err := h.store.GetCaseDocument(c.Request.Context(), kase.ID, docID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

type updateDocumentRequest struct {
	FileName string `json:"file_name" binding:"required"`
}

// updateDocument renames a document. The underlying blob and its chunks are
// untouched, so no reprocessing is needed.
func (h *Handler) updateDocument(c *gin.Context) {
	kase, ok := h.caseForRequest(c)
	if !ok {
		return
	}
	docID, ok := pathUUID(c, "document_id")
	if !ok {
		return
	}

	var req updateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_name is required"})
		return
	}

	updated, err := h.store.UpdateDocument(c.Request.Context(), kase.ID, docID, req.FileName)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteDocument(c *gin.Context) {
	kase, ok := h.caseForRequest(c)
	if !ok {
		return
	}
	docID, ok := pathUUID(c, "document_id")
	if !ok {
		return
	}

	doc, err := h.store.GetCaseDocument(c.Request.Context(), kase.ID, docID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.DeleteDocument(c.Request.Context(), kase.ID, docID); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.blobs.Remove(c.Request.Context(), doc.FilePath); err != nil {
		h.logger.Warn("Orphaned blob after document delete",
			"document_id", docID, "path", doc.FilePath, "error", err)
	}
	c.Status(http.StatusNoContent)
}

// reprocessDocument re-enqueues a document. Documents currently being
// processed are rejected; completed and failed ones run again, with the new
// chunk set replacing the old.
func (h *Handler) reprocessDocument(c *gin.Context) {
	kase, ok := h.caseForRequest(c)
	if !ok {
		return
	}
	docID, ok := pathUUID(c, "document_id")
	if !ok {
		return
	}

	doc, err := h.store.GetCaseDocument(c.Request.Context(), kase.ID, docID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if doc.ProcessingStatus == store.StatusProcessing {
		c.JSON(http.StatusConflict, gin.H{"error": "document is being processed"})
		return
	}

	if err := h.queue.Enqueue(c.Request.Context(), doc.ID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, doc)
}
