package service

import "github.com/conghuan0502/planzaa-api/internal/models"

// EligibleRecipients returns the push tokens of participants who should
// receive a reminder: a registered device token, reminders not disabled, and
// the push master switch on. Pure; never mutates its input. An empty result
// is a normal outcome, not an error.
func EligibleRecipients(participants []models.Participant) []string {
	var tokens []string
	for _, p := range participants {
		if p.PushToken == nil || *p.PushToken == "" {
			continue
		}
		if !p.RemindersEnabled || !p.PushEnabled {
			continue
		}
		tokens = append(tokens, *p.PushToken)
	}
	return tokens
}
