package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is one mounted clock UI: it owns a stopwatch and a timer for as
// long as it lives.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewSession(id string, userID string) *Session {
	if id == "" {
		id = uuid.New().String()
	}

	return &Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
}
