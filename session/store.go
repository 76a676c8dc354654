// Package session keeps per-browser state on the server side. The browser only
// holds a signed token naming its session.
package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

type Data struct {
	UserID    uint      `json:"user_id,omitempty"`
	Flashes   []string  `json:"flashes,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (d Data) expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && !now.Before(d.ExpiresAt)
}

func (d Data) empty() bool {
	return d.UserID == 0 && len(d.Flashes) == 0
}

// Store persists session data by id. Load returns ErrNotFound for missing or
// expired sessions.
type Store interface {
	Load(ctx context.Context, id string) (Data, error)
	Save(ctx context.Context, id string, data Data) error
	Delete(ctx context.Context, id string) error
}
