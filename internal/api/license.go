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

type LicenseHandler struct {
	repo   repository.LicenseRepository
	logger *zap.Logger
}

func NewLicenseHandler(repo repository.LicenseRepository, logger *zap.Logger) *LicenseHandler {
	return &LicenseHandler{repo: repo, logger: logger}
}

type createLicenseRequest struct {
	ApplicationID  uuid.UUID `json:"application_id" binding:"required"`
	TotalLicenses  int       `json:"total_licenses" binding:"required"`
	ActiveUsers    int       `json:"active_users"`
	CostPerLicense string    `json:"cost_per_license" binding:"required"`
}

// Create handles POST /v1/licenses
func (h *LicenseHandler) Create(c *gin.Context) {
	var req createLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lic, err := h.repo.Create(c.Request.Context(), &models.License{
		OrgID:          middleware.GetOrgID(c),
		ApplicationID:  req.ApplicationID,
		TotalLicenses:  req.TotalLicenses,
		ActiveUsers:    req.ActiveUsers,
		CostPerLicense: req.CostPerLicense,
	})
	if err != nil {
		h.logger.Error("failed to create license", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create license"})
		return
	}

	c.JSON(http.StatusCreated, lic)
}

// List handles GET /v1/licenses
func (h *LicenseHandler) List(c *gin.Context) {
	licenses, err := h.repo.ListByOrg(c.Request.Context(), middleware.GetOrgID(c))
	if err != nil {
		h.logger.Error("failed to list licenses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list licenses"})
		return
	}

	c.JSON(http.StatusOK, licenses)
}

// GetByApplication handles GET /v1/licenses/application/:applicationId
func (h *LicenseHandler) GetByApplication(c *gin.Context) {
	applicationID, err := uuid.Parse(c.Param("applicationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	lic, err := h.repo.GetByApplication(c.Request.Context(), middleware.GetOrgID(c), applicationID)
	if err != nil {
		h.logger.Error("failed to get license", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get license"})
		return
	}
	if lic == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "license not found"})
		return
	}

	c.JSON(http.StatusOK, lic)
}

type patchLicenseRequest struct {
	TotalLicenses  *int    `json:"total_licenses"`
	ActiveUsers    *int    `json:"active_users"`
	CostPerLicense *string `json:"cost_per_license"`
}

// Patch handles PATCH /v1/licenses/:id
func (h *LicenseHandler) Patch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid license id"})
		return
	}

	var req patchLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orgID := middleware.GetOrgID(c)
	lic, err := h.repo.GetByID(c.Request.Context(), orgID, id)
	if err != nil {
		h.logger.Error("failed to get license", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update license"})
		return
	}
	if lic == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "license not found"})
		return
	}

	if req.TotalLicenses != nil {
		lic.TotalLicenses = *req.TotalLicenses
	}
	if req.ActiveUsers != nil {
		lic.ActiveUsers = *req.ActiveUsers
	}
	if req.CostPerLicense != nil {
		lic.CostPerLicense = *req.CostPerLicense
	}

	ok, err := h.repo.Update(c.Request.Context(), lic)
	if err != nil {
		h.logger.Error("failed to update license", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update license"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "license not found"})
		return
	}

	c.JSON(http.StatusOK, lic)
}

// Delete handles DELETE /v1/licenses/:id
func (h *LicenseHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid license id"})
		return
	}

	ok, err := h.repo.Delete(c.Request.Context(), middleware.GetOrgID(c), id)
	if err != nil {
		h.logger.Error("failed to delete license", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete license"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "license not found"})
		return
	}

	c.Status(http.StatusNoContent)
}
