package models

import "errors"

// Custom errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoTrades     = errors.New("no trades found")
	ErrInvalidID    = errors.New("invalid ID format")
	ErrDuplicateKey = errors.New("duplicate key violation")
)
