package service

import "errors"

// Sentinel errors surfaced to the query layer. Constraint-violation
// races (first insert of a daily/milestone/badge row) are absorbed
// inside the repositories and never reach these.
var (
	ErrInvalidBook      = errors.New("invalid book reference")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionClosed    = errors.New("session closed")
	ErrInvalidDimension = errors.New("invalid stats dimension")
	ErrInvalidTimezone  = errors.New("invalid timezone")
	ErrAlreadyLiked     = errors.New("already liked")
	ErrSelfLike         = errors.New("cannot like yourself")
	ErrNotFound         = errors.New("not found")
)
