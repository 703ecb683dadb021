package domain

import "time"

// Task is the record the create_task action handler writes.
type Task struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	DueDate     *time.Time
	Completed   bool
	CreatedAt   time.Time
}

// Notification is the record the send_notification action handler writes.
type Notification struct {
	ID        string
	OwnerID   string
	Title     string
	Body      string
	Channel   string
	CreatedAt time.Time
}
