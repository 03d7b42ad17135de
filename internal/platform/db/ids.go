package db

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/medicarehub/api/internal/platform/apperr"
)

// ParseID parses a UUID row identifier. A malformed id wraps
// apperr.ErrMalformedID.
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", apperr.ErrMalformedID, s)
	}
	return id, nil
}

// OptionalID parses s, mapping "" to nil.
func OptionalID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := ParseID(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// IDOrEmpty is the inverse of OptionalID.
func IDOrEmpty(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
