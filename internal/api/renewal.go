package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rohan-b84/stackroom/internal/middleware"
	"github.com/rohan-b84/stackroom/internal/models"
	"github.com/rohan-b84/stackroom/internal/repository"
	"go.uber.org/zap"
)

type RenewalHandler struct {
	repo   repository.RenewalRepository
	logger *zap.Logger
}

func NewRenewalHandler(repo repository.RenewalRepository, logger *zap.Logger) *RenewalHandler {
	return &RenewalHandler{repo: repo, logger: logger}
}

type createRenewalRequest struct {
	ApplicationID uuid.UUID `json:"application_id" binding:"required"`
	RenewalDate   time.Time `json:"renewal_date" binding:"required"`
	AnnualCost    string    `json:"annual_cost" binding:"required"`
	ContractValue *string   `json:"contract_value"`
	AutoRenew     *bool     `json:"auto_renew"`
}

// Create handles POST /v1/renewals
func (h *RenewalHandler) Create(c *gin.Context) {
	var req createRenewalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	autoRenew := true
	if req.AutoRenew != nil {
		autoRenew = *req.AutoRenew
	}

	renewal, err := h.repo.Create(c.Request.Context(), &models.Renewal{
		OrgID:         middleware.GetOrgID(c),
		ApplicationID: req.ApplicationID,
		RenewalDate:   req.RenewalDate,
		AnnualCost:    req.AnnualCost,
		ContractValue: req.ContractValue,
		AutoRenew:     autoRenew,
	})
	if err != nil {
		h.logger.Error("failed to create renewal", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create renewal"})
		return
	}

	c.JSON(http.StatusCreated, renewal)
}

// List handles GET /v1/renewals
func (h *RenewalHandler) List(c *gin.Context) {
	renewals, err := h.repo.ListByOrg(c.Request.Context(), middleware.GetOrgID(c))
	if err != nil {
		h.logger.Error("failed to list renewals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list renewals"})
		return
	}

	c.JSON(http.StatusOK, renewals)
}

// GetByID handles GET /v1/renewals/:id
func (h *RenewalHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid renewal id"})
		return
	}

	renewal, err := h.repo.GetByID(c.Request.Context(), middleware.GetOrgID(c), id)
	if err != nil {
		h.logger.Error("failed to get renewal", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get renewal"})
		return
	}
	if renewal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "renewal not found"})
		return
	}

	c.JSON(http.StatusOK, renewal)
}

// ListByApplication handles GET /v1/renewals/application/:applicationId
func (h *RenewalHandler) ListByApplication(c *gin.Context) {
	applicationID, err := uuid.Parse(c.Param("applicationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	renewals, err := h.repo.ListByApplication(c.Request.Context(), middleware.GetOrgID(c), applicationID)
	if err != nil {
		h.logger.Error("failed to list renewals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list renewals"})
		return
	}

	c.JSON(http.StatusOK, renewals)
}

type patchRenewalRequest struct {
	RenewalDate   *time.Time `json:"renewal_date"`
	AnnualCost    *string    `json:"annual_cost"`
	ContractValue *string    `json:"contract_value"`
	AutoRenew     *bool      `json:"auto_renew"`
	Notified      *bool      `json:"notified"`
}

// Patch handles PATCH /v1/renewals/:id
func (h *RenewalHandler) Patch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid renewal id"})
		return
	}

	var req patchRenewalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orgID := middleware.GetOrgID(c)
	renewal, err := h.repo.GetByID(c.Request.Context(), orgID, id)
	if err != nil {
		h.logger.Error("failed to get renewal", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update renewal"})
		return
	}
	if renewal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "renewal not found"})
		return
	}

	if req.RenewalDate != nil {
		renewal.RenewalDate = *req.RenewalDate
	}
	if req.AnnualCost != nil {
		renewal.AnnualCost = *req.AnnualCost
	}
	if req.ContractValue != nil {
		renewal.ContractValue = req.ContractValue
	}
	if req.AutoRenew != nil {
		renewal.AutoRenew = *req.AutoRenew
	}
	if req.Notified != nil {
		renewal.Notified = *req.Notified
	}

	ok, err := h.repo.Update(c.Request.Context(), renewal)
	if err != nil {
		h.logger.Error("failed to update renewal", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update renewal"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "renewal not found"})
		return
	}

	c.JSON(http.StatusOK, renewal)
}

// Delete handles DELETE /v1/renewals/:id
func (h *RenewalHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid renewal id"})
		return
	}

	ok, err := h.repo.Delete(c.Request.Context(), middleware.GetOrgID(c), id)
	if err != nil {
		h.logger.Error("failed to delete renewal", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete renewal"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "renewal not found"})
		return
	}

	c.Status(http.StatusNoContent)
}
