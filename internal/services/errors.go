package services

import "errors"

// Service errors
var (
	// Catalog errors
	ErrEmptyCatalog = errors.New("catalog has no scannable items")

	// Stats errors
	ErrNoStats      = errors.New("no stats available")
	ErrItemNotFound = errors.New("item not found")

	// Scan errors
	ErrScanRunning = errors.New("scan already running")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
)
