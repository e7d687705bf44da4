package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conghuan0502/planzaa-api/internal/dto"
	"github.com/conghuan0502/planzaa-api/internal/models"
	"github.com/conghuan0502/planzaa-api/internal/repository"
	appErrors "github.com/conghuan0502/planzaa-api/pkg/errors"
)

type stubEventRepo struct {
	events map[string]*models.Event

	createErr error
	updateErr error

	added   []models.Participant
	removed []string
}

func newStubEventRepo() *stubEventRepo {
	return &stubEventRepo{events: make(map[string]*models.Event)}
}

func (r *stubEventRepo) Create(_ context.Context, event *models.Event) error {
	if r.createErr != nil {
		return r.createErr
	}
	event.ID = "ev-1"
	r.events[event.ID] = event
	return nil
}

func (r *stubEventRepo) GetByID(_ context.Context, id string) (*models.Event, error) {
	ev, ok := r.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *ev
	return &copied, nil
}

func (r *stubEventRepo) List(_ context.Context, _ models.EventFilter) ([]models.Event, int, error) {
	out := make([]models.Event, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, *ev)
	}
	return out, len(out), nil
}

func (r *stubEventRepo) Update(_ context.Context, id string, params repository.UpdateEventParams) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	ev, ok := r.events[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Title != nil {
		ev.Title = *params.Title
	}
	if params.Description != nil {
		ev.Description = *params.Description
	}
	if params.Venue != nil {
		ev.Venue = *params.Venue
	}
	if params.StartAt != nil {
		ev.StartAt = *params.StartAt
	}
	return nil
}

func (r *stubEventRepo) SetStatus(_ context.Context, id string, status models.EventStatus) error {
	ev, ok := r.events[id]
	if !ok {
		return sql.ErrNoRows
	}
	ev.Status = status
	return nil
}

func (r *stubEventRepo) AddParticipant(_ context.Context, eventID, userID string, rsvp models.RSVPStatus) error {
	ev, ok := r.events[eventID]
	if !ok {
		return sql.ErrNoRows
	}
	p := models.Participant{EventID: eventID, UserID: userID, RSVPStatus: rsvp}
	ev.Participants = append(ev.Participants, p)
	r.added = append(r.added, p)
	return nil
}

func (r *stubEventRepo) RemoveParticipant(_ context.Context, eventID, userID string) error {
	ev, ok := r.events[eventID]
	if !ok {
		return sql.ErrNoRows
	}
	for i, p := range ev.Participants {
		if p.UserID == userID {
			ev.Participants = append(ev.Participants[:i], ev.Participants[i+1:]...)
			r.removed = append(r.removed, userID)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *stubEventRepo) ListParticipants(_ context.Context, eventID string) ([]models.Participant, error) {
	ev, ok := r.events[eventID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return ev.Participants, nil
}

type stubCacheInvalidator struct {
	patterns []string
	err      error
}

func (c *stubCacheInvalidator) DeleteByPattern(_ context.Context, pattern string) error {
	c.patterns = append(c.patterns, pattern)
	return c.err
}

func TestCreateEventAssemblesStartInstant(t *testing.T) {
	repo := newStubEventRepo()
	cache := &stubCacheInvalidator{}
	svc := NewEventService(repo, cache, nil, nil)

	resp, err := svc.Create(context.Background(), dto.CreateEventRequest{
		Title:     "Team offsite",
		Venue:     "Da Nang",
		Date:      "2026-10-15",
		StartTime: "18:30",
	}, "user-1")
	require.NoError(t, err)

	want := time.Date(2026, 10, 15, 18, 30, 0, 0, time.Local)
	assert.True(t, resp.StartAt.Equal(want), "got %s", resp.StartAt)
	assert.Equal(t, models.EventStatusActive, resp.Status)
	assert.Equal(t, "user-1", resp.CreatedBy)
	assert.Equal(t, []string{eventCachePattern}, cache.patterns)
}

func TestCreateEventRejectsBadPayload(t *testing.T) {
	svc := NewEventService(newStubEventRepo(), nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateEventRequest{
		Title:     "",
		Date:      "2026-10-15",
		StartTime: "18:30",
	}, "user-1")
	assert.Error(t, err)

	_, err = svc.Create(context.Background(), dto.CreateEventRequest{
		Title:     "Bad time",
		Date:      "2026-10-15",
		StartTime: "25:99",
	}, "user-1")
	assert.Error(t, err)
}

func TestUpdateEventCreatorOnly(t *testing.T) {
	repo := newStubEventRepo()
	repo.events["ev-1"] = &models.Event{
		ID:        "ev-1",
		Title:     "Old title",
		StartAt:   time.Date(2026, 10, 15, 18, 30, 0, 0, time.Local),
		Status:    models.EventStatusActive,
		CreatedBy: "user-1",
	}
	svc := NewEventService(repo, &stubCacheInvalidator{}, nil, nil)

	title := "New title"
	_, err := svc.Update(context.Background(), "ev-1", dto.UpdateEventRequest{Title: &title}, "intruder")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	resp, err := svc.Update(context.Background(), "ev-1", dto.UpdateEventRequest{Title: &title}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "New title", resp.Title)
}

func TestUpdateEventRecombinesDateAndTime(t *testing.T) {
	repo := newStubEventRepo()
	repo.events["ev-1"] = &models.Event{
		ID:        "ev-1",
		Title:     "Dinner",
		StartAt:   time.Date(2026, 10, 15, 18, 30, 0, 0, time.Local),
		Status:    models.EventStatusActive,
		CreatedBy: "user-1",
	}
	svc := NewEventService(repo, &stubCacheInvalidator{}, nil, nil)

	// Only the clock moves; the date carries over from the stored instant.
	startTime := "20:00"
	resp, err := svc.Update(context.Background(), "ev-1", dto.UpdateEventRequest{StartTime: &startTime}, "user-1")
	require.NoError(t, err)

	want := time.Date(2026, 10, 15, 20, 0, 0, 0, time.Local)
	assert.True(t, resp.StartAt.Equal(want), "got %s", resp.StartAt)
}

func TestUpdateCancelledEventRejected(t *testing.T) {
	repo := newStubEventRepo()
	repo.events["ev-1"] = &models.Event{
		ID:        "ev-1",
		Status:    models.EventStatusCancelled,
		CreatedBy: "user-1",
	}
	svc := NewEventService(repo, nil, nil, nil)

	title := "New title"
	_, err := svc.Update(context.Background(), "ev-1", dto.UpdateEventRequest{Title: &title}, "user-1")
	assert.ErrorIs(t, err, appErrors.ErrEventCancelled)
}

func TestCancelEventSetsStatusAndInvalidatesCache(t *testing.T) {
	repo := newStubEventRepo()
	repo.events["ev-1"] = &models.Event{ID: "ev-1", Status: models.EventStatusActive, CreatedBy: "user-1"}
	cache := &stubCacheInvalidator{}
	svc := NewEventService(repo, cache, nil, nil)

	require.NoError(t, svc.Cancel(context.Background(), "ev-1", "user-1"))
	assert.Equal(t, models.EventStatusCancelled, repo.events["ev-1"].Status)
	assert.NotEmpty(t, cache.patterns)

	assert.ErrorIs(t, svc.Cancel(context.Background(), "missing", "user-1"), appErrors.ErrNotFound)
	assert.ErrorIs(t, svc.Cancel(context.Background(), "ev-1", "intruder"), appErrors.ErrForbidden)
}

func TestJoinEvent(t *testing.T) {
	repo := newStubEventRepo()
	repo.events["ev-1"] = &models.Event{ID: "ev-1", Status: models.EventStatusActive, CreatedBy: "user-1"}
	svc := NewEventService(repo, nil, nil, nil)

	require.NoError(t, svc.Join(context.Background(), "ev-1", "user-2", ""))
	require.Len(t, repo.added, 1)
	assert.Equal(t, models.RSVPGoing, repo.added[0].RSVPStatus, "missing RSVP defaults to GOING")

	assert.ErrorIs(t, svc.Join(context.Background(), "ev-1", "user-2", models.RSVPMaybe), appErrors.ErrAlreadyJoined)
}

func TestJoinCancelledEventRejected(t *testing.T) {
	repo := newStubEventRepo()
	repo.events["ev-1"] = &models.Event{ID: "ev-1", Status: models.EventStatusCancelled}
	svc := NewEventService(repo, nil, nil, nil)

	assert.ErrorIs(t, svc.Join(context.Background(), "ev-1", "user-2", models.RSVPGoing), appErrors.ErrEventCancelled)
}

func TestLeaveEvent(t *testing.T) {
	repo := newStubEventRepo()
	repo.events["ev-1"] = &models.Event{
		ID:           "ev-1",
		Status:       models.EventStatusActive,
		Participants: []models.Participant{{EventID: "ev-1", UserID: "user-2"}},
	}
	svc := NewEventService(repo, nil, nil, nil)

	require.NoError(t, svc.Leave(context.Background(), "ev-1", "user-2"))
	assert.Equal(t, []string{"user-2"}, repo.removed)

	assert.ErrorIs(t, svc.Leave(context.Background(), "ev-1", "user-2"), appErrors.ErrNotFound)
}

func TestRosterReturnsParticipants(t *testing.T) {
	repo := newStubEventRepo()
	repo.events["ev-1"] = &models.Event{
		ID:    "ev-1",
		Title: "Dinner",
		Participants: []models.Participant{
			{EventID: "ev-1", UserID: "user-2", FullName: "Bao"},
			{EventID: "ev-1", UserID: "user-3", FullName: "Chi"},
		},
	}
	svc := NewEventService(repo, nil, nil, nil)

	event, roster, err := svc.Roster(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "Dinner", event.Title)
	assert.Len(t, roster, 2)
}

func TestCacheInvalidationFailureIsNonFatal(t *testing.T) {
	repo := newStubEventRepo()
	cache := &stubCacheInvalidator{err: assert.AnError}
	svc := NewEventService(repo, cache, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateEventRequest{
		Title:     "Still created",
		Date:      "2026-10-15",
		StartTime: "18:30",
	}, "user-1")
	assert.NoError(t, err)
}
