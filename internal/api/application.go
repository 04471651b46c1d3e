package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rohan-b84/stackroom/internal/chat"
	"github.com/rohan-b84/stackroom/internal/middleware"
	"github.com/rohan-b84/stackroom/internal/models"
	"github.com/rohan-b84/stackroom/internal/repository"
	"go.uber.org/zap"
)

// ApplicationHandler manages the org's tracked SaaS products. It holds the
// chat service as well: adding an application opens its team discussion
// thread, with the application id as the routing key.
type ApplicationHandler struct {
	repo    repository.ApplicationRepository
	chatSvc *chat.Service
	logger  *zap.Logger
}

func NewApplicationHandler(repo repository.ApplicationRepository, chatSvc *chat.Service, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{repo: repo, chatSvc: chatSvc, logger: logger}
}

type createApplicationRequest struct {
	Name        string  `json:"name" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	Vendor      *string `json:"vendor"`
	Status      string  `json:"status"`
	MonthlyCost string  `json:"monthly_cost" binding:"required"`
	Description *string `json:"description"`
	LogoURL     *string `json:"logo_url"`
}

// Create handles POST /v1/applications
func (h *ApplicationHandler) Create(c *gin.Context) {
	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status == "" {
		req.Status = models.AppApproved
	}

	orgID := middleware.GetOrgID(c)
	app, err := h.repo.Create(c.Request.Context(), &models.Application{
		ID:          uuid.New(),
		OrgID:       orgID,
		Name:        req.Name,
		Category:    req.Category,
		Vendor:      req.Vendor,
		Status:      req.Status,
		MonthlyCost: req.MonthlyCost,
		Description: req.Description,
		LogoURL:     req.LogoURL,
	})
	if err != nil {
		h.logger.Error("failed to create application", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create application"})
		return
	}

	// Open the integration's team thread. A failure here doesn't undo
	// the application; the thread gets created lazily on the next
	// explicit conversation create for this routing key.
	if _, err := h.chatSvc.EnsureInternalConversation(c.Request.Context(), orgID, app.ID.String(), app.Name); err != nil {
		h.logger.Warn("failed to open team thread for application",
			zap.String("application_id", app.ID.String()),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusCreated, app)
}

// List handles GET /v1/applications
func (h *ApplicationHandler) List(c *gin.Context) {
	apps, err := h.repo.ListByOrg(c.Request.Context(), middleware.GetOrgID(c))
	if err != nil {
		h.logger.Error("failed to list applications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list applications"})
		return
	}

	c.JSON(http.StatusOK, apps)
}

// GetByID handles GET /v1/applications/:id
func (h *ApplicationHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	app, err := h.repo.GetByID(c.Request.Context(), middleware.GetOrgID(c), id)
	if err != nil {
		h.logger.Error("failed to get application", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get application"})
		return
	}
	if app == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "application not found"})
		return
	}

	c.JSON(http.StatusOK, app)
}

type patchApplicationRequest struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Vendor      *string `json:"vendor"`
	Status      *string `json:"status"`
	MonthlyCost *string `json:"monthly_cost"`
	Description *string `json:"description"`
	LogoURL     *string `json:"logo_url"`
}

// Patch handles PATCH /v1/applications/:id — read-merge-write: absent
// fields keep their current values.
func (h *ApplicationHandler) Patch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	var req patchApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orgID := middleware.GetOrgID(c)
	app, err := h.repo.GetByID(c.Request.Context(), orgID, id)
	if err != nil {
		h.logger.Error("failed to get application", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update application"})
		return
	}
	if app == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "application not found"})
		return
	}

	if req.Name != nil {
		app.Name = *req.Name
	}
	if req.Category != nil {
		app.Category = *req.Category
	}
	if req.Vendor != nil {
		app.Vendor = req.Vendor
	}
	if req.Status != nil {
		app.Status = *req.Status
	}
	if req.MonthlyCost != nil {
		app.MonthlyCost = *req.MonthlyCost
	}
	if req.Description != nil {
		app.Description = req.Description
	}
	if req.LogoURL != nil {
		app.LogoURL = req.LogoURL
	}

	ok, err := h.repo.Update(c.Request.Context(), app)
	if err != nil {
		h.logger.Error("failed to update application", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update application"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "application not found"})
		return
	}

	c.JSON(http.StatusOK, app)
}

// Delete handles DELETE /v1/applications/:id
func (h *ApplicationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	ok, err := h.repo.Delete(c.Request.Context(), middleware.GetOrgID(c), id)
	if err != nil {
		h.logger.Error("failed to delete application", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete application"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "application not found"})
		return
	}

	c.Status(http.StatusNoContent)
}
