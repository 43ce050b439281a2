package models

import (
	"encoding/json"
	"time"
)

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	DisplayName    string    `json:"display_name"`
	EmailConfirmed bool      `json:"email_confirmed"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Area is a top-level user-defined grouping ("Work", "Health").
type Area struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Category is a sub-grouping under one area, the direct tag on an event.
type Category struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	AreaID    string    `json:"area_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Event is a single timestamped diary entry. CategoryID is nil for events
// whose category was deleted after the fact.
type Event struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	CategoryID      *string         `json:"category_id"`
	OccurredAt      time.Time       `json:"occurred_at"`
	Comment         *string         `json:"comment"`
	DurationMinutes *int            `json:"duration_minutes"`
	Data            json.RawMessage `json:"data,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// LabeledEvent carries an event together with the resolved display names of
// its category and area. The names are nil when the taxonomy row is gone.
type LabeledEvent struct {
	Event
	CategoryName *string `json:"category_name"`
	AreaName     *string `json:"area_name"`
}

// EventDraft is a proposed event before it is stamped with an owner and
// creation time: the shape shared by single create, update, the JSON bulk
// endpoint and the CSV import.
type EventDraft struct {
	CategoryID      string          `json:"category_id"`
	OccurredAt      time.Time       `json:"occurred_at"`
	Comment         *string         `json:"comment"`
	DurationMinutes *int            `json:"duration_minutes"`
	Data            json.RawMessage `json:"data,omitempty"`
}

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
