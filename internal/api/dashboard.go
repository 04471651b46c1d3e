package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rohan-b84/stackroom/internal/middleware"
	"github.com/rohan-b84/stackroom/internal/models"
	"github.com/rohan-b84/stackroom/internal/repository"
	"go.uber.org/zap"
)

const statsCacheTTL = 30 * time.Second

// DashboardHandler serves the aggregate stats panel. The numbers change
// slowly relative to how often the dashboard polls, so results sit in
// Redis for a short TTL; with no Redis client it just computes every time.
type DashboardHandler struct {
	stats    repository.StatsRepository
	spending repository.SpendingRepository
	rdb      *redis.Client
	logger   *zap.Logger
}

func NewDashboardHandler(stats repository.StatsRepository, spending repository.SpendingRepository, rdb *redis.Client, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{stats: stats, spending: spending, rdb: rdb, logger: logger}
}

// Stats handles GET /v1/dashboard/stats
func (h *DashboardHandler) Stats(c *gin.Context) {
	orgID := middleware.GetOrgID(c)
	cacheKey := "stackroom:stats:" + orgID.String()

	if h.rdb != nil {
		if cached, err := h.rdb.Get(c.Request.Context(), cacheKey).Bytes(); err == nil {
			var stats models.DashboardStats
			if err := json.Unmarshal(cached, &stats); err == nil {
				c.JSON(http.StatusOK, stats)
				return
			}
		}
	}

	stats, err := h.stats.DashboardStats(c.Request.Context(), orgID)
	if err != nil {
		h.logger.Error("failed to compute dashboard stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch dashboard stats"})
		return
	}

	if h.rdb != nil {
		if payload, err := json.Marshal(stats); err == nil {
			// A failed cache write only costs the next caller a query.
			if err := h.rdb.Set(c.Request.Context(), cacheKey, payload, statsCacheTTL).Err(); err != nil {
				h.logger.Debug("stats cache write failed", zap.Error(err))
			}
		}
	}

	c.JSON(http.StatusOK, stats)
}

// SpendingHistory handles GET /v1/spending-history
func (h *DashboardHandler) SpendingHistory(c *gin.Context) {
	entries, err := h.spending.ListByOrg(c.Request.Context(), middleware.GetOrgID(c))
	if err != nil {
		h.logger.Error("failed to list spending history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch spending history"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

type createSpendingRequest struct {
	Month      string `json:"month" binding:"required"`
	Year       int    `json:"year" binding:"required"`
	TotalSpend string `json:"total_spend" binding:"required"`
}

// CreateSpendingEntry handles POST /v1/spending-history
func (h *DashboardHandler) CreateSpendingEntry(c *gin.Context) {
	var req createSpendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.spending.Create(c.Request.Context(), &models.SpendingEntry{
		OrgID:      middleware.GetOrgID(c),
		Month:      req.Month,
		Year:       req.Year,
		TotalSpend: req.TotalSpend,
	})
	if err != nil {
		h.logger.Error("failed to create spending entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create spending entry"})
		return
	}

	c.JSON(http.StatusCreated, entry)
}
