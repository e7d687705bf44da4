package service

import (
	"fmt"
	"time"

	"github.com/conghuan0502/planzaa-api/internal/models"
	"github.com/conghuan0502/planzaa-api/pkg/push"
)

// ComposeReminder maps (event, threshold) onto the notification payload.
// Deterministic for a fixed event and sentAt.
func ComposeReminder(ev models.Event, threshold models.ReminderThreshold, sentAt time.Time) push.Message {
	var phrase string
	switch threshold {
	case models.Threshold24Hour:
		phrase = "in 24 hours"
	case models.Threshold2Hour:
		phrase = "in 2 hours"
	case models.Threshold30Minute:
		phrase = "in 30 minutes"
	default:
		phrase = "soon"
	}

	return push.Message{
		Title: fmt.Sprintf("Reminder: %s", ev.Title),
		Body:  fmt.Sprintf("%s starts %s, on %s.", ev.Title, phrase, ev.StartAt.Local().Format("Mon Jan 2 at 15:04")),
		Data: map[string]string{
			"event_id":    ev.ID,
			"event_title": ev.Title,
			"threshold":   string(threshold),
			"start_at":    ev.StartAt.UTC().Format(time.RFC3339),
			"sent_at":     sentAt.UTC().Format(time.RFC3339),
		},
	}
}
