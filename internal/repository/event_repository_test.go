package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conghuan0502/planzaa-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func eventRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "venue", "start_at", "status", "created_by",
		"reminder_24h_sent", "reminder_2h_sent", "reminder_30m_sent", "created_at", "updated_at",
	}).AddRow("ev-1", "Launch party", "", "Rooftop", now.Add(24*time.Hour), string(models.EventStatusActive), "u-1",
		false, false, false, now, now)
}

func TestFindReminderCandidatesFiltersByWindowAndFlag(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now().UTC()
	from := now.Add(24 * time.Hour)
	to := from.Add(time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta("AND start_at >= $2 AND start_at < $3 AND reminder_24h_sent = FALSE")).
		WithArgs(string(models.EventStatusActive), from, to).
		WillReturnRows(eventRows(now))

	participantRows := sqlmock.NewRows([]string{
		"event_id", "user_id", "full_name", "rsvp_status", "joined_at", "push_token", "reminders_enabled", "push_enabled",
	}).AddRow("ev-1", "u-2", "Ada", string(models.RSVPGoing), now, "ExponentPushToken[abc]", true, true)
	mock.ExpectQuery("FROM event_participants ep JOIN users u").WillReturnRows(participantRows)

	events, err := repo.FindReminderCandidates(context.Background(), models.Threshold24Hour, from, to)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Len(t, events[0].Participants, 1)
	assert.Equal(t, "u-2", events[0].Participants[0].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindReminderCandidatesUnknownThreshold(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	_, err := repo.FindReminderCandidates(context.Background(), models.ReminderThreshold("12h"), time.Now(), time.Now())
	require.Error(t, err)
}

func TestTrySetReminderFlagWinsRace(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET reminder_2h_sent = TRUE, updated_at = $2 WHERE id = $1 AND reminder_2h_sent = FALSE")).
		WithArgs("ev-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	flipped, err := repo.TrySetReminderFlag(context.Background(), "ev-1", models.Threshold2Hour)
	require.NoError(t, err)
	assert.True(t, flipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrySetReminderFlagAlreadySet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec("UPDATE events SET reminder_30m_sent = TRUE").
		WithArgs("ev-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	flipped, err := repo.TrySetReminderFlag(context.Background(), "ev-1", models.Threshold30Minute)
	require.NoError(t, err)
	assert.False(t, flipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusMissingEvent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec("UPDATE events SET status").
		WithArgs("missing", string(models.EventStatusCancelled), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetStatus(context.Background(), "missing", models.EventStatusCancelled)
	require.Error(t, err)
}
