package models

import "time"

// EventStatus enumerates the lifecycle states of an event.
type EventStatus string

const (
	EventStatusActive    EventStatus = "ACTIVE"
	EventStatusCancelled EventStatus = "CANCELLED"
	EventStatusCompleted EventStatus = "COMPLETED"
)

// Event represents an event stored in the events table. The three reminder
// flags record that the corresponding lead-time reminder has been dispatched;
// each is set true at most once and never reset by the scheduler.
type Event struct {
	ID          string      `db:"id" json:"id"`
	Title       string      `db:"title" json:"title"`
	Description string      `db:"description" json:"description"`
	Venue       string      `db:"venue" json:"venue"`
	StartAt     time.Time   `db:"start_at" json:"start_at"`
	Status      EventStatus `db:"status" json:"status"`
	CreatedBy   string      `db:"created_by" json:"created_by"`

	Reminder24hSent bool `db:"reminder_24h_sent" json:"reminder_24h_sent"`
	Reminder2hSent  bool `db:"reminder_2h_sent" json:"reminder_2h_sent"`
	Reminder30mSent bool `db:"reminder_30m_sent" json:"reminder_30m_sent"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Participants []Participant `db:"-" json:"participants,omitempty"`
}

// RSVPStatus enumerates join-time RSVP answers.
type RSVPStatus string

const (
	RSVPGoing    RSVPStatus = "GOING"
	RSVPMaybe    RSVPStatus = "MAYBE"
	RSVPDeclined RSVPStatus = "DECLINED"
)

// Participant joins a user to an event, carrying the notification fields
// resolved from the user profile.
type Participant struct {
	EventID    string     `db:"event_id" json:"event_id"`
	UserID     string     `db:"user_id" json:"user_id"`
	FullName   string     `db:"full_name" json:"full_name"`
	RSVPStatus RSVPStatus `db:"rsvp_status" json:"rsvp_status"`
	JoinedAt   time.Time  `db:"joined_at" json:"joined_at"`

	PushToken        *string `db:"push_token" json:"-"`
	RemindersEnabled bool    `db:"reminders_enabled" json:"-"`
	PushEnabled      bool    `db:"push_enabled" json:"-"`
}

// EventFilter narrows down event listings.
type EventFilter struct {
	Status   *EventStatus
	From     *time.Time
	To       *time.Time
	Search   string
	Page     int
	PageSize int
}
