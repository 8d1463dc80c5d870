// Package models defines the persistent entities of the bot backend.
package models

import "time"

// UserAccount is one row per chat identity (id is the stringified
// Telegram user id). It is created lazily on the first link attempt and
// mutated only by the authorization service and the admin unban path.
type UserAccount struct {
	ID             string
	Attempts       int
	IsBanned       bool
	LinkedSecretID string
	RegisteredAt   time.Time
}
