package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rohan-b84/stackroom/internal/middleware"
	"github.com/rohan-b84/stackroom/internal/models"
	"github.com/rohan-b84/stackroom/internal/repository"
	"go.uber.org/zap"
)

type RecommendationHandler struct {
	repo   repository.RecommendationRepository
	logger *zap.Logger
}

func NewRecommendationHandler(repo repository.RecommendationRepository, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{repo: repo, logger: logger}
}

type createRecommendationRequest struct {
	ApplicationID uuid.UUID `json:"application_id" binding:"required"`
	Type          string    `json:"type" binding:"required"`
	Title         string    `json:"title" binding:"required"`
	Description   string    `json:"description" binding:"required"`
	Priority      string    `json:"priority"`
	ActionLabel   string    `json:"action_label" binding:"required"`
	CurrentCost   *string   `json:"current_cost"`
	PotentialCost *string   `json:"potential_cost"`
	CurrentUsers  *int      `json:"current_users"`
	ActiveUsers   *int      `json:"active_users"`
	ContractValue *string   `json:"contract_value"`
	RenewalDate   *string   `json:"renewal_date"`
}

// Create handles POST /v1/recommendations
func (h *RecommendationHandler) Create(c *gin.Context) {
	var req createRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Priority == "" {
		req.Priority = "medium"
	}

	rec, err := h.repo.Create(c.Request.Context(), &models.Recommendation{
		OrgID:         middleware.GetOrgID(c),
		ApplicationID: req.ApplicationID,
		Type:          req.Type,
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		ActionLabel:   req.ActionLabel,
		CurrentCost:   req.CurrentCost,
		PotentialCost: req.PotentialCost,
		CurrentUsers:  req.CurrentUsers,
		ActiveUsers:   req.ActiveUsers,
		ContractValue: req.ContractValue,
		RenewalDate:   req.RenewalDate,
	})
	if err != nil {
		h.logger.Error("failed to create recommendation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create recommendation"})
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// List handles GET /v1/recommendations — undismissed only.
func (h *RecommendationHandler) List(c *gin.Context) {
	recs, err := h.repo.ListByOrg(c.Request.Context(), middleware.GetOrgID(c))
	if err != nil {
		h.logger.Error("failed to list recommendations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recommendations"})
		return
	}

	c.JSON(http.StatusOK, recs)
}

// GetByID handles GET /v1/recommendations/:id
func (h *RecommendationHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recommendation id"})
		return
	}

	rec, err := h.repo.GetByID(c.Request.Context(), middleware.GetOrgID(c), id)
	if err != nil {
		h.logger.Error("failed to get recommendation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get recommendation"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recommendation not found"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

type patchRecommendationRequest struct {
	Priority  *string `json:"priority"`
	Dismissed *bool   `json:"dismissed"`
}

// Patch handles PATCH /v1/recommendations/:id — in practice the UI only
// flips dismissed (and occasionally priority), so that's all we accept.
func (h *RecommendationHandler) Patch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recommendation id"})
		return
	}

	var req patchRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orgID := middleware.GetOrgID(c)
	rec, err := h.repo.GetByID(c.Request.Context(), orgID, id)
	if err != nil {
		h.logger.Error("failed to get recommendation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update recommendation"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recommendation not found"})
		return
	}

	if req.Priority != nil {
		rec.Priority = *req.Priority
	}
	if req.Dismissed != nil {
		rec.Dismissed = *req.Dismissed
	}

	ok, err := h.repo.Update(c.Request.Context(), rec)
	if err != nil {
		h.logger.Error("failed to update recommendation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update recommendation"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "recommendation not found"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// Delete handles DELETE /v1/recommendations/:id
func (h *RecommendationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recommendation id"})
		return
	}

	ok, err := h.repo.Delete(c.Request.Context(), middleware.GetOrgID(c), id)
	if err != nil {
		h.logger.Error("failed to delete recommendation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete recommendation"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "recommendation not found"})
		return
	}

	c.Status(http.StatusNoContent)
}
