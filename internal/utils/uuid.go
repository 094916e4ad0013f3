// Package utils holds small helpers shared across the engine.
package utils

import (
	"github.com/google/uuid"
)

// GenerateUUID mints a request identifier for the navigation state machine
func GenerateUUID() string {
	return uuid.New().String()
}
