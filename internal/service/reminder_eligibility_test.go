package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/conghuan0502/planzaa-api/internal/models"
)

func TestEligibleRecipients(t *testing.T) {
	token := "ExponentPushToken[ok]"
	empty := ""

	participants := []models.Participant{
		{UserID: "ok", PushToken: &token, RemindersEnabled: true, PushEnabled: true},
		{UserID: "no-token", PushToken: nil, RemindersEnabled: true, PushEnabled: true},
		{UserID: "empty-token", PushToken: &empty, RemindersEnabled: true, PushEnabled: true},
		{UserID: "reminders-off", PushToken: &token, RemindersEnabled: false, PushEnabled: true},
		{UserID: "push-off", PushToken: &token, RemindersEnabled: true, PushEnabled: false},
	}

	got := EligibleRecipients(participants)
	assert.Equal(t, []string{token}, got)
}

func TestEligibleRecipientsEmptyInput(t *testing.T) {
	assert.Empty(t, EligibleRecipients(nil))
	assert.Empty(t, EligibleRecipients([]models.Participant{}))
}

func TestEligibleRecipientsDoesNotMutate(t *testing.T) {
	token := "tok"
	participants := []models.Participant{
		{UserID: "a", PushToken: &token, RemindersEnabled: true, PushEnabled: true},
	}
	_ = EligibleRecipients(participants)
	assert.Equal(t, "tok", *participants[0].PushToken)
	assert.True(t, participants[0].RemindersEnabled)
}
