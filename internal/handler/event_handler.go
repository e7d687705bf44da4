package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/conghuan0502/planzaa-api/internal/dto"
	"github.com/conghuan0502/planzaa-api/internal/models"
	"github.com/conghuan0502/planzaa-api/internal/service"
	appErrors "github.com/conghuan0502/planzaa-api/pkg/errors"
	"github.com/conghuan0502/planzaa-api/pkg/export"
	"github.com/conghuan0502/planzaa-api/pkg/response"
)

// EventHandler wires HTTP endpoints to the event service.
type EventHandler struct {
	service *service.EventService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
}

// NewEventHandler creates a new handler.
func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{
		service: svc,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
	}
}

// Create godoc
// @Summary Create event
// @Description Create an active event owned by the caller
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}

	event, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, event)
}

// Get godoc
// @Summary Get event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// List godoc
// @Summary List events
// @Tags Events
// @Produce json
// @Param status query string false "Filter by status"
// @Param from query string false "Start of range (RFC3339)"
// @Param to query string false "End of range (RFC3339)"
// @Param search query string false "Title search"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	filter, err := parseEventFilter(c)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid filter"))
		return
	}

	events, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Update godoc
// @Summary Update event
// @Description Partially update an event; creator only
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body dto.UpdateEventRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [patch]
func (h *EventHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}

	event, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Cancel godoc
// @Summary Cancel event
// @Description Cancel an event; no further reminders are sent for it
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [delete]
func (h *EventHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Cancel(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Join godoc
// @Summary Join event
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body dto.JoinEventRequest false "RSVP answer"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events/{id}/join [post]
func (h *EventHandler) Join(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.JoinEventRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}

	if err := h.service.Join(c.Request.Context(), c.Param("id"), claims.UserID, req.RSVPStatus); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Leave godoc
// @Summary Leave event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/join [delete]
func (h *EventHandler) Leave(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Leave(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportRoster godoc
// @Summary Export participant roster
// @Description Download the participant list as CSV or PDF
// @Tags Events
// @Produce octet-stream
// @Param id path string true "Event ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/roster/export [get]
func (h *EventHandler) ExportRoster(c *gin.Context) {
	event, roster, err := h.service.Roster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	dataset := rosterDataset(roster)
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		payload, err := h.csv.Render(dataset)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
			return
		}
		filename := fmt.Sprintf("roster-%s.csv", event.ID)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.pdf.Render(dataset, fmt.Sprintf("Roster - %s", event.Title))
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf"))
			return
		}
		filename := fmt.Sprintf("roster-%s.pdf", event.ID)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

func rosterDataset(roster []models.Participant) export.Dataset {
	dataset := export.Dataset{Headers: []string{"Name", "RSVP", "Joined"}}
	for _, p := range roster {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Name":   p.FullName,
			"RSVP":   string(p.RSVPStatus),
			"Joined": p.JoinedAt.Format("2006-01-02 15:04"),
		})
	}
	return dataset
}

func parseEventFilter(c *gin.Context) (models.EventFilter, error) {
	filter := models.EventFilter{Search: c.Query("search")}

	if raw := c.Query("status"); raw != "" {
		status := models.EventStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid from: %w", err)
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid to: %w", err)
		}
		filter.To = &to
	}
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid page: %w", err)
		}
		filter.Page = page
	}
	if raw := c.Query("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid page_size: %w", err)
		}
		filter.PageSize = size
	}
	return filter, nil
}
