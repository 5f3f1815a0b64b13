package model

import "time"

// Notification is an in-app message for a user.
type Notification struct {
	CreatedAt time.Time
	ID        string
	UserID    string
	Title     string
	Message   string
	Type      string
	IsRead    bool
}
