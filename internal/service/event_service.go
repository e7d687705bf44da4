package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/conghuan0502/planzaa-api/internal/dto"
	"github.com/conghuan0502/planzaa-api/internal/models"
	"github.com/conghuan0502/planzaa-api/internal/repository"
	appErrors "github.com/conghuan0502/planzaa-api/pkg/errors"
)

type eventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	Update(ctx context.Context, id string, params repository.UpdateEventParams) error
	SetStatus(ctx context.Context, id string, status models.EventStatus) error
	AddParticipant(ctx context.Context, eventID, userID string, rsvp models.RSVPStatus) error
	RemoveParticipant(ctx context.Context, eventID, userID string) error
	ListParticipants(ctx context.Context, eventID string) ([]models.Participant, error)
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// eventCachePattern matches every cached GET response under the events
// surface, including weather lookups keyed by event.
const eventCachePattern = "httpcache:*events*"

// EventService implements event CRUD and participation.
type EventService struct {
	repo      eventStore
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs the event service.
func NewEventService(repo eventStore, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EventService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Create validates the payload and persists a new active event. The start
// instant is assembled from the date plus the same-day local time string.
func (s *EventService) Create(ctx context.Context, req dto.CreateEventRequest, creatorID string) (*dto.EventResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}

	startAt, err := parseStartAt(req.Date, req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event date or time")
	}

	event := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		Venue:       req.Venue,
		StartAt:     startAt,
		Status:      models.EventStatusActive,
		CreatedBy:   creatorID,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}

	s.invalidateCache(ctx)
	resp := eventResponse(event, 0)
	return &resp, nil
}

// Get returns one event with its participant count.
func (s *EventService) Get(ctx context.Context, id string) (*dto.EventResponse, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	resp := eventResponse(event, len(event.Participants))
	return &resp, nil
}

// List returns events matching the filter.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]dto.EventResponse, *models.Pagination, error) {
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}

	responses := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, eventResponse(&events[i], len(events[i].Participants)))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return responses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Update applies partial changes; only the creator may modify an event.
func (s *EventService) Update(ctx context.Context, id string, req dto.UpdateEventRequest, actorID string) (*dto.EventResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if event.CreatedBy != actorID {
		return nil, appErrors.ErrForbidden
	}
	if event.Status == models.EventStatusCancelled {
		return nil, appErrors.ErrEventCancelled
	}

	params := repository.UpdateEventParams{
		Title:       req.Title,
		Description: req.Description,
		Venue:       req.Venue,
	}
	if req.Date != nil || req.StartTime != nil {
		date := event.StartAt.Format("2006-01-02")
		clock := event.StartAt.Format("15:04")
		if req.Date != nil {
			date = *req.Date
		}
		if req.StartTime != nil {
			clock = *req.StartTime
		}
		startAt, err := parseStartAt(date, clock)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event date or time")
		}
		params.StartAt = &startAt
	}

	if err := s.repo.Update(ctx, id, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}

	s.invalidateCache(ctx)
	return s.Get(ctx, id)
}

// Cancel transitions the event to CANCELLED, which excludes it from every
// future reminder sweep.
func (s *EventService) Cancel(ctx context.Context, id, actorID string) error {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if event.CreatedBy != actorID {
		return appErrors.ErrForbidden
	}

	if err := s.repo.SetStatus(ctx, id, models.EventStatusCancelled); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel event")
	}
	s.invalidateCache(ctx)
	return nil
}

// Join adds the caller as a participant.
func (s *EventService) Join(ctx context.Context, eventID, userID string, rsvp models.RSVPStatus) error {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if event.Status != models.EventStatusActive {
		return appErrors.ErrEventCancelled
	}
	for _, p := range event.Participants {
		if p.UserID == userID {
			return appErrors.ErrAlreadyJoined
		}
	}
	if rsvp == "" {
		rsvp = models.RSVPGoing
	}
	if err := s.repo.AddParticipant(ctx, eventID, userID, rsvp); err != nil {
		if errors.Is(err, repository.ErrDuplicateParticipant) {
			return appErrors.ErrAlreadyJoined
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to join event")
	}
	s.invalidateCache(ctx)
	return nil
}

// Leave removes the caller from the participant list.
func (s *EventService) Leave(ctx context.Context, eventID, userID string) error {
	if err := s.repo.RemoveParticipant(ctx, eventID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to leave event")
	}
	s.invalidateCache(ctx)
	return nil
}

// Roster returns the participant list for export.
func (s *EventService) Roster(ctx context.Context, eventID string) (*models.Event, []models.Participant, error) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrNotFound
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, event.Participants, nil
}

func (s *EventService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, eventCachePattern); err != nil {
		s.logger.Sugar().Warnw("failed to invalidate event cache", "error", err)
	}
}

// parseStartAt combines a calendar date with a same-day local time-of-day
// string into the event's start instant.
func parseStartAt(date, clock string) (time.Time, error) {
	startAt, err := time.ParseInLocation("2006-01-02 15:04", fmt.Sprintf("%s %s", date, clock), time.Local)
	if err != nil {
		return time.Time{}, err
	}
	return startAt, nil
}

func eventResponse(event *models.Event, participantCount int) dto.EventResponse {
	return dto.EventResponse{
		ID:               event.ID,
		Title:            event.Title,
		Description:      event.Description,
		Venue:            event.Venue,
		StartAt:          event.StartAt,
		Status:           event.Status,
		CreatedBy:        event.CreatedBy,
		ParticipantCount: participantCount,
		CreatedAt:        event.CreatedAt,
		UpdatedAt:        event.UpdatedAt,
	}
}
