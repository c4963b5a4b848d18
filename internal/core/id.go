package core

import "github.com/google/uuid"

// NewID returns a random UUIDv4 string for a new record.
func NewID() string {
	return uuid.NewString()
}
