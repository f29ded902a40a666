package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/cuido/cuidosvc/domain"
	"github.com/gin-gonic/gin"
)

// RelationshipHandlers serves caregiver invitations and links.
type RelationshipHandlers struct {
	svc domain.RelationshipService
}

// NewRelationshipHandlers creates new relationship handlers
func NewRelationshipHandlers(svc domain.RelationshipService) *RelationshipHandlers {
	return &RelationshipHandlers{svc: svc}
}

// InviteRequest names the caregiver a patient wants to link.
type InviteRequest struct {
	CaregiverEmail string `json:"caregiver_email" binding:"required,email"`
}

// Invite lets the calling patient invite a caregiver by e-mail.
func (h *RelationshipHandlers) Invite(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rel, err := h.svc.Invite(c.Request.Context(), a.ID, req.CaregiverEmail)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, newRelationshipView(rel))
}

// Accept answers an invitation addressed to the calling caregiver.
func (h *RelationshipHandlers) Accept(c *gin.Context) {
	h.answer(c, h.svc.Accept)
}

// Reject declines an invitation addressed to the calling caregiver.
func (h *RelationshipHandlers) Reject(c *gin.Context) {
	h.answer(c, h.svc.Reject)
}

func (h *RelationshipHandlers) answer(c *gin.Context, fn func(context.Context, domain.Actor, uint) (*domain.Relationship, error)) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	rel, err := fn(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newRelationshipView(rel))
}

// Caregivers lists the calling patient's caregivers, optionally by ?state=.
func (h *RelationshipHandlers) Caregivers(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var (
		rels []domain.Relationship
		err  error
	)
	if raw := c.Query("state"); raw != "" {
		state := domain.RelationshipState(strings.ToUpper(raw))
		switch state {
		case domain.RelationshipPending, domain.RelationshipAccepted, domain.RelationshipRejected:
		default:
			respondError(c, domain.NewValidationError("unknown relationship state"))
			return
		}
		rels, err = h.svc.ListByPatientAndState(c.Request.Context(), a.ID, state)
	} else {
		rels, err = h.svc.ListByPatient(c.Request.Context(), a.ID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newRelationshipViews(rels))
}

// CountCaregivers returns how many caregivers accepted the caller's invitations.
func (h *RelationshipHandlers) CountCaregivers(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	n, err := h.svc.CountAccepted(c.Request.Context(), a.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"count": n})
}

// Unlink removes the link between the calling patient and a caregiver.
func (h *RelationshipHandlers) Unlink(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	caregiverID, ok := pathID(c, "caregiverId")
	if !ok {
		return
	}

	if err := h.svc.Unlink(c.Request.Context(), a.ID, caregiverID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Invitations lists invitations still waiting for the calling caregiver.
func (h *RelationshipHandlers) Invitations(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	rels, err := h.svc.PendingInvitations(c.Request.Context(), a.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newRelationshipViews(rels))
}

// Patients lists the patients linked to the calling caregiver.
func (h *RelationshipHandlers) Patients(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	rels, err := h.svc.LinkedPatients(c.Request.Context(), a.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, newRelationshipViews(rels))
}
