package model

import "github.com/google/uuid"

// NewScanID returns a fresh identifier for one scan run.
func NewScanID() string {
	return uuid.NewString()
}
