package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Trust-Mwendabai/CDIMS/internal/auth"
	"github.com/Trust-Mwendabai/CDIMS/internal/service"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the role-gated dashboard data.
type DashboardHandler struct {
	stats *service.StatsService
}

// NewDashboardHandler returns a new DashboardHandler.
func NewDashboardHandler(stats *service.StatsService) *DashboardHandler {
	return &DashboardHandler{stats: stats}
}

// Summary godoc
// @Summary      Dashboard summary
// @Description  Station and climate aggregates feeding the dashboard charts.
// @Tags         dashboard
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  domain.DashboardSummary
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.stats.Summary(c.Request.Context())
	if err != nil {
		slog.Error("dashboard summary", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Admin godoc
// @Summary      Admin panel data
// @Description  Placeholder payload behind the admin role gate.
// @Tags         dashboard
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /dashboard/admin [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	sess, _ := auth.SessionFromContext(c)
	c.JSON(http.StatusOK, gin.H{
		"message":  "admin tools are not built yet",
		"username": sess.Username,
	})
}
