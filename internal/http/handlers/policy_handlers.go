package handlers

import (
	"net/http"

	"github.com/cuido/cuidosvc/domain"
	"github.com/gin-gonic/gin"
)

// PolicyHandlers exposes the route policies to administrators.
type PolicyHandlers struct {
	svc domain.PolicyService
}

// NewPolicyHandlers creates policy handlers
func NewPolicyHandlers(svc domain.PolicyService) *PolicyHandlers {
	return &PolicyHandlers{svc: svc}
}

// PolicyRequest grants or revokes a role's access to a route.
type PolicyRequest struct {
	Role     string `json:"role" binding:"required"`
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

func (h *PolicyHandlers) List(c *gin.Context) {
	policies := h.svc.GetPolicies()
	if policies == nil {
		policies = [][]string{}
	}
	respondData(c, http.StatusOK, policies)
}

func (h *PolicyHandlers) Add(c *gin.Context) {
	var r PolicyRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.AddPolicy(r.Role, r.Resource, r.Action); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PolicyHandlers) Remove(c *gin.Context) {
	var r PolicyRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.RemovePolicy(r.Role, r.Resource, r.Action); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
