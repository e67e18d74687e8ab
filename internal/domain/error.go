package domain

import "errors"

var (
	// ErrSessionNotFound covers both a session that never existed and one
	// that expired; callers treat the two identically.
	ErrSessionNotFound = errors.New("session not found")

	ErrRoleNotFound         = errors.New("role not found")
	ErrRoleAlreadyExists    = errors.New("role already exists")
	ErrDefaultRoleProtected = errors.New("default role cannot be deleted")
	ErrInvalidArgument      = errors.New("invalid argument")
)
