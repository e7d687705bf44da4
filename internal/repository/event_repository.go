package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/conghuan0502/planzaa-api/internal/models"
)

const eventColumns = `id, title, description, venue, start_at, status, created_by, reminder_24h_sent, reminder_2h_sent, reminder_30m_sent, created_at, updated_at`

const participantColumns = `ep.event_id, ep.user_id, u.full_name, ep.rsvp_status, ep.joined_at, u.push_token, u.reminders_enabled, u.push_enabled`

// reminderFlagColumns maps each threshold onto its sent-flag column. Kept
// here so column names never leave the repository.
var reminderFlagColumns = map[models.ReminderThreshold]string{
	models.Threshold24Hour:   "reminder_24h_sent",
	models.Threshold2Hour:    "reminder_2h_sent",
	models.Threshold30Minute: "reminder_30m_sent",
}

// EventRepository persists events and their participant lists.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event with all reminder flags false.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	const query = `INSERT INTO events (id, title, description, venue, start_at, status, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(ctx, query,
		event.ID, event.Title, event.Description, event.Venue, event.StartAt, event.Status, event.CreatedBy, event.CreatedAt, event.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// GetByID fetches an event and its participant list.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1 LIMIT 1`, eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get event by id: %w", err)
	}
	participants, err := r.ListParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	event.Participants = participants
	return &event, nil
}

// List returns events matching the filter with a total count.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	base := "FROM events"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.From != nil {
		where = append(where, fmt.Sprintf("start_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		where = append(where, fmt.Sprintf("start_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(venue) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY start_at ASC LIMIT %d OFFSET %d`, eventColumns, base, whereClause, size, offset)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// UpdateEventParams lists the mutable event fields.
type UpdateEventParams struct {
	Title       *string
	Description *string
	Venue       *string
	StartAt     *time.Time
}

// Update applies partial changes to an event's display fields and timing.
func (r *EventRepository) Update(ctx context.Context, id string, params UpdateEventParams) error {
	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}
	if params.Title != nil {
		add("title", *params.Title)
	}
	if params.Description != nil {
		add("description", *params.Description)
	}
	if params.Venue != nil {
		add("venue", *params.Venue)
	}
	if params.StartAt != nil {
		add("start_at", *params.StartAt)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())
	args = append(args, id)

	query := fmt.Sprintf("UPDATE events SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetStatus transitions the event lifecycle state.
func (r *EventRepository) SetStatus(ctx context.Context, id string, status models.EventStatus) error {
	const query = `UPDATE events SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set event status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ErrDuplicateParticipant reports a join attempt by an existing participant.
var ErrDuplicateParticipant = errors.New("participant already joined")

// AddParticipant joins a user to an event.
func (r *EventRepository) AddParticipant(ctx context.Context, eventID, userID string, rsvp models.RSVPStatus) error {
	const query = `INSERT INTO event_participants (event_id, user_id, rsvp_status, joined_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, eventID, userID, rsvp, time.Now().UTC()); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateParticipant
		}
		return fmt.Errorf("add participant: %w", err)
	}
	return nil
}

// RemoveParticipant removes a user from an event.
func (r *EventRepository) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	const query = `DELETE FROM event_participants WHERE event_id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, eventID, userID)
	if err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListParticipants returns an event's participants with the user's push
// token and notification preferences resolved.
func (r *EventRepository) ListParticipants(ctx context.Context, eventID string) ([]models.Participant, error) {
	query := fmt.Sprintf(`SELECT %s FROM event_participants ep JOIN users u ON u.id = ep.user_id WHERE ep.event_id = $1 ORDER BY ep.joined_at ASC`, participantColumns)
	var participants []models.Participant
	if err := r.db.SelectContext(ctx, &participants, query, eventID); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return participants, nil
}

// FindReminderCandidates returns active events whose start falls inside
// [from, to) and whose flag for the threshold is still false, with
// participants resolved. The flag predicate at the query layer is the first
// idempotence guard; TrySetReminderFlag is the second.
func (r *EventRepository) FindReminderCandidates(ctx context.Context, threshold models.ReminderThreshold, from, to time.Time) ([]models.Event, error) {
	flagColumn, ok := reminderFlagColumns[threshold]
	if !ok {
		return nil, fmt.Errorf("unknown reminder threshold %q", threshold)
	}

	query := fmt.Sprintf(`SELECT %s FROM events WHERE status = $1 AND start_at >= $2 AND start_at < $3 AND %s = FALSE ORDER BY start_at ASC`, eventColumns, flagColumn)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, models.EventStatusActive, from, to); err != nil {
		return nil, fmt.Errorf("find reminder candidates: %w", err)
	}
	if len(events) == 0 {
		return events, nil
	}

	ids := make([]string, len(events))
	byID := make(map[string]int, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
		byID[ev.ID] = i
	}

	participantQuery := fmt.Sprintf(`SELECT %s FROM event_participants ep JOIN users u ON u.id = ep.user_id WHERE ep.event_id = ANY($1) ORDER BY ep.joined_at ASC`, participantColumns)
	var participants []models.Participant
	if err := r.db.SelectContext(ctx, &participants, participantQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("load candidate participants: %w", err)
	}
	for _, p := range participants {
		if i, ok := byID[p.EventID]; ok {
			events[i].Participants = append(events[i].Participants, p)
		}
	}
	return events, nil
}

// TrySetReminderFlag flips the event's flag for the threshold from false to
// true. Returns true iff this call performed the flip; a concurrent sweep or
// a second scheduler instance that lost the race observes false. The
// compare-and-set lives in the database so the guard holds across processes.
func (r *EventRepository) TrySetReminderFlag(ctx context.Context, eventID string, threshold models.ReminderThreshold) (bool, error) {
	flagColumn, ok := reminderFlagColumns[threshold]
	if !ok {
		return false, fmt.Errorf("unknown reminder threshold %q", threshold)
	}

	query := fmt.Sprintf(`UPDATE events SET %s = TRUE, updated_at = $2 WHERE id = $1 AND %s = FALSE`, flagColumn, flagColumn)
	result, err := r.db.ExecContext(ctx, query, eventID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("set reminder flag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set reminder flag result: %w", err)
	}
	return affected == 1, nil
}
