package dto

import (
	"time"

	"github.com/conghuan0502/planzaa-api/internal/models"
)

// CreateEventRequest is the payload for creating an event. The start instant
// is assembled from a calendar date plus a same-day local time-of-day string.
type CreateEventRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Venue       string `json:"venue" validate:"max=300"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"start_time" validate:"required,datetime=15:04"`
}

// UpdateEventRequest mutates event display fields and timing.
type UpdateEventRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Venue       *string `json:"venue" validate:"omitempty,max=300"`
	Date        *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime   *string `json:"start_time" validate:"omitempty,datetime=15:04"`
}

// JoinEventRequest carries the RSVP answer when joining.
type JoinEventRequest struct {
	RSVPStatus models.RSVPStatus `json:"rsvp_status" validate:"omitempty,oneof=GOING MAYBE DECLINED"`
}

// EventResponse is the public shape of an event.
type EventResponse struct {
	ID               string             `json:"id"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	Venue            string             `json:"venue"`
	StartAt          time.Time          `json:"start_at"`
	Status           models.EventStatus `json:"status"`
	CreatedBy        string             `json:"created_by"`
	ParticipantCount int                `json:"participant_count"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}
