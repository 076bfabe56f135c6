// Package common defines shared constants and sentinel errors used across
// blabber components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Registration conflicts. The distinction matters: the caller is told
	// which field collided.
	ErrUsernameTaken = errors.New("username is already taken")
	ErrEmailTaken    = errors.New("email address is already taken")

	// Login / credential errors.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Auth errors (invalid, malformed or forged token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")
)
