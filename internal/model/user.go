package model

import "time"

// User mirrors the `users` table.  PasswordHash is a bcrypt digest; the
// plaintext never leaves the auth handler.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
