package db

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/medicarehub/api/internal/platform/apperr"
)

func TestParseID(t *testing.T) {
	want := uuid.New()
	got, err := ParseID(want.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	if _, err := ParseID("not-a-uuid"); !errors.Is(err, apperr.ErrMalformedID) {
		t.Errorf("expected ErrMalformedID, got %v", err)
	}
}

func TestOptionalID(t *testing.T) {
	id, err := OptionalID("")
	if err != nil || id != nil {
		t.Fatalf("expected nil id for empty input, got %v, %v", id, err)
	}

	want := uuid.New()
	id, err = OptionalID(want.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if IDOrEmpty(id) != want.String() {
		t.Errorf("expected %s, got %s", want, IDOrEmpty(id))
	}
	if IDOrEmpty(nil) != "" {
		t.Error("expected empty string for nil id")
	}
}
