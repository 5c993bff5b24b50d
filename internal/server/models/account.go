// Package models defines server-side data models persisted in the database
// or derived from session tokens.
package models

import "time"

// Account is a registered identity. ID is zero until the account is stored.
// Password always holds an encoded argon2id hash, never plaintext.
type Account struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// Session is the identity recovered from a validated token. It is never
// persisted.
type Session struct {
	AccountID int64
	IssuedAt  time.Time
	NotBefore time.Time
	Expiry    time.Time
}
