package session

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrAlreadyClosed   = errors.New("session already closed")
)
