package models

import "time"

// RefreshToken is a server-stored token that can be traded once for a new
// token pair.
type RefreshToken struct {
	ID        string
	UserID    int64
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is no longer usable at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.Expires)
}
