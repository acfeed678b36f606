// Package session persists the operator's authenticated session.
package session

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aura-events/dashboard/internal/models"
)

// ErrEmptyToken is returned by Save when the session carries no token.
var ErrEmptyToken = errors.New("session: empty token")

// Session is the authenticated identity plus its bearer token.
type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Store is the single source of truth for who is logged in.
// Token and user record are written, read and cleared as a pair.
type Store interface {
	// Load returns the persisted session or nil. It never fails: missing,
	// partial or malformed data reads as no session.
	Load(ctx context.Context) *Session
	// Save persists both entries, replacing any previous session.
	Save(ctx context.Context, s Session) error
	// Clear removes both entries. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// decode rebuilds a session from its two persisted entries.
func decode(token string, user []byte) *Session {
	if token == "" || len(user) == 0 {
		return nil
	}
	var u models.User
	if err := json.Unmarshal(user, &u); err != nil {
		return nil
	}
	return &Session{Token: token, User: u}
}

func encode(s Session) ([]byte, error) {
	if s.Token == "" {
		return nil, ErrEmptyToken
	}
	return json.Marshal(s.User)
}
