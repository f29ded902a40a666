package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/cuido/cuidosvc/domain"
	"github.com/gin-gonic/gin"
)

// DocumentHandlers serves patient documents.
type DocumentHandlers struct {
	svc   domain.DocumentService
	guard domain.AccessGuard
}

// NewDocumentHandlers creates document handlers
func NewDocumentHandlers(svc domain.DocumentService, guard domain.AccessGuard) *DocumentHandlers {
	return &DocumentHandlers{svc: svc, guard: guard}
}

// Upload stores a multipart "file" for the patient in ?patient_id= (or the
// calling patient). Optional form fields: "type" (defaults to OTHER) and
// "description".
func (h *DocumentHandlers) Upload(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	requested, ok := optionalPatientID(c)
	if !ok {
		return
	}
	if requested == nil {
		if raw := c.PostForm("patient_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patient_id"})
				return
			}
			v := uint(id)
			requested = &v
		}
	}
	patientID, err := h.guard.ResolvePatientID(c.Request.Context(), a, requested)
	if err != nil {
		respondError(c, err)
		return
	}

	docType, err := domain.ParseDocumentType(c.PostForm("type"))
	if err != nil {
		respondError(c, err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer f.Close()

	doc, err := h.svc.Upload(c.Request.Context(), a, &domain.Document{
		PatientID:   patientID,
		Name:        fh.Filename,
		Type:        docType,
		Description: c.PostForm("description"),
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	}, f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, newDocumentView(doc))
}

// List returns a patient's documents, newest first, optionally narrowed by
// ?type= and ?category=.
func (h *DocumentHandlers) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	requested, ok := optionalPatientID(c)
	if !ok {
		return
	}
	patientID, err := h.guard.ResolvePatientID(c.Request.Context(), a, requested)
	if err != nil {
		respondError(c, err)
		return
	}

	var filter domain.DocumentFilter
	if raw := c.Query("type"); raw != "" {
		if filter.Type, err = domain.ParseDocumentType(raw); err != nil {
			respondError(c, err)
			return
		}
	}
	if raw := c.Query("category"); raw != "" {
		if filter.Category, err = domain.ParseFileCategory(raw); err != nil {
			respondError(c, err)
			return
		}
	}

	docs, err := h.svc.List(c.Request.Context(), a, patientID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]documentView, 0, len(docs))
	for i := range docs {
		out = append(out, newDocumentView(&docs[i]))
	}
	respondData(c, http.StatusOK, out)
}

// Download streams a document's contents
func (h *DocumentHandlers) Download(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	doc, body, err := h.svc.Download(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, doc.Size, doc.ContentType, body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", doc.Name),
	})
}

// Delete removes a document
func (h *DocumentHandlers) Delete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), a, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
