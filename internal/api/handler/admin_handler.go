package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/rewarddesk/coupon-service/internal/core/ports"
)

// AdminHandler handles HTTP requests for the reporting endpoints.
type AdminHandler struct {
	service ports.AdminService
}

func NewAdminHandler(service ports.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

type activityResponse struct {
	Records []ports.ActivityItem `json:"records"`
}

// Stats handles GET /v1/admin/stats.
//
// @Summary      Aggregate usage statistics
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.StatsResult
// @Failure      403  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /v1/admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.service.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Activity handles GET /v1/admin/activity.
//
// @Summary      Recent claim activity, most recent first
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum records to return (1-500, default 50)"
// @Success      200    {object}  activityResponse
// @Failure      400    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Failure      503    {object}  map[string]string
// @Router       /v1/admin/activity [get]
func (h *AdminHandler) Activity(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	records, err := h.service.RecentActivity(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, activityResponse{Records: records})
}
