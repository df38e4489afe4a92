package utils

import (
	"strings"

	"github.com/google/uuid"
)

// ParseOptionalUUID returns nil for an empty string
func ParseOptionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// GenerateProductCode generates a unique product code
func GenerateProductCode() string {
	return "SEED-" + strings.ToUpper(uuid.New().String()[:8])
}
