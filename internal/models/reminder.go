package models

import "time"

// ReminderThreshold is one of the fixed lead times before an event's start
// at which a reminder fires.
type ReminderThreshold string

const (
	Threshold24Hour   ReminderThreshold = "24h"
	Threshold2Hour    ReminderThreshold = "2h"
	Threshold30Minute ReminderThreshold = "30m"
)

// AllThresholds lists every threshold in lead-time order.
var AllThresholds = []ReminderThreshold{Threshold24Hour, Threshold2Hour, Threshold30Minute}

// Lead returns the lead-time duration for the threshold.
func (t ReminderThreshold) Lead() time.Duration {
	switch t {
	case Threshold24Hour:
		return 24 * time.Hour
	case Threshold2Hour:
		return 2 * time.Hour
	case Threshold30Minute:
		return 30 * time.Minute
	}
	return 0
}

// Sent reports whether the event's flag for this threshold is already set.
func (t ReminderThreshold) Sent(ev *Event) bool {
	switch t {
	case Threshold24Hour:
		return ev.Reminder24hSent
	case Threshold2Hour:
		return ev.Reminder2hSent
	case Threshold30Minute:
		return ev.Reminder30mSent
	}
	return false
}

// CadenceName returns the cadence identifier used by the scheduler runner
// and exposed on the status endpoint.
func (t ReminderThreshold) CadenceName() string {
	return "reminder-check-" + string(t)
}
