package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/conghuan0502/planzaa-api/internal/service"
	"github.com/conghuan0502/planzaa-api/pkg/response"
)

// WeatherHandler serves venue forecasts for events.
type WeatherHandler struct {
	service *service.WeatherService
}

// NewWeatherHandler creates a new handler.
func NewWeatherHandler(svc *service.WeatherService) *WeatherHandler {
	return &WeatherHandler{service: svc}
}

// ForEvent godoc
// @Summary Event weather
// @Description Forecast at the event's venue for its start day
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/weather [get]
func (h *WeatherHandler) ForEvent(c *gin.Context) {
	forecast, err := h.service.ForecastForEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, forecast, nil)
}
