// Package models defines the server-side row types shared by repositories
// and services.
package models

import "time"

// User is a registered identity. PasswordHash is a bcrypt hash with the
// salt embedded; it never leaves the server.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
