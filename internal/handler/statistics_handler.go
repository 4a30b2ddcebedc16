package handler

import (
	"net/http"

	"yayasan/internal/middleware"
	"yayasan/internal/service"
	"yayasan/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	auth              *middleware.Auth
}

func NewStatisticsHandler(statisticsService service.StatisticsService, auth *middleware.Auth) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService, auth: auth}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	statsGroup := router.Group("/api/statistics")
	statsGroup.Use(h.auth.Authenticate())
	{
		statsGroup.GET("", h.auth.RequirePermission(service.PermSubmissionsRead), h.GetStatistics)
	}
}

// @Summary      Get budget statistics
// @Description  Submission counts and sums per status, unrealized approvals and top budget lines within a date range
// @Tags         statistics
// @Produce      json
// @Param        cabang     query string false "Branch"
// @Param        start_date query string false "Start date (YYYY-MM-DD), default first day of this month"
// @Param        end_date   query string false "End date (YYYY-MM-DD), default today"
// @Success      200 {object} response.Response{data=model.BudgetStatistics}
// @Failure      400 {object} response.Response "Invalid date format"
// @Failure      401 {object} response.Response "Unauthorized"
// @Security     BearerAuth
// @Router       /api/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	stats, err := h.statisticsService.GetStatistics(c.Request.Context(), actor, service.StatisticsQuery{
		Cabang:    c.Query("cabang"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
