package models

import "time"

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	PushToken    *string   `db:"push_token" json:"-"`
	// RemindersEnabled opts the user out of reminder pushes only.
	RemindersEnabled bool `db:"reminders_enabled" json:"reminders_enabled"`
	// PushEnabled is the master switch for all push notifications.
	PushEnabled bool      `db:"push_enabled" json:"push_enabled"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// UserInfo describes a user in API responses.
type UserInfo struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	FullName         string `json:"full_name"`
	RemindersEnabled bool   `json:"reminders_enabled"`
	PushEnabled      bool   `json:"push_enabled"`
	HasPushToken     bool   `json:"has_push_token"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
