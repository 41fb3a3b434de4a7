package domain

import "errors"

var (
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrNotFound       = errors.New("not found")
	ErrNoRowsAffected = errors.New("no rows affected")

	// ErrHandleTaken is returned when a handle is already bound to a
	// different, verified community user.
	ErrHandleTaken = errors.New("handle already linked to another user")

	// ErrVerificationInFlight is returned when a user starts a second
	// verification while one is still pending.
	ErrVerificationInFlight = errors.New("verification already in progress")

	ErrRoleNotFound     = errors.New("role not found in guild")
	ErrMemberNotFound   = errors.New("member not found in guild")
	ErrGuildUnavailable = errors.New("guild unavailable")
)
