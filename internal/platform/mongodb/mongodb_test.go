package mongodb

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medicarehub/api/internal/platform/apperr"
)

func TestObjectID(t *testing.T) {
	want := primitive.NewObjectID()

	got, err := ObjectID(want.Hex())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("expected %s, got %s", want.Hex(), got.Hex())
	}
}

func TestObjectID_Malformed(t *testing.T) {
	for _, in := range []string{"", "abc", "not-an-object-id-at-all!", "65f1c2a9e4b0a1b2c3d4e5fz"} {
		if _, err := ObjectID(in); !errors.Is(err, apperr.ErrMalformedID) {
			t.Errorf("ObjectID(%q): expected ErrMalformedID, got %v", in, err)
		}
	}
}

func TestOptionalObjectID(t *testing.T) {
	oid, err := OptionalObjectID("")
	if err != nil || oid != nil {
		t.Errorf("expected nil, nil for empty input, got %v, %v", oid, err)
	}

	want := primitive.NewObjectID()
	oid, err = OptionalObjectID(want.Hex())
	if err != nil || oid == nil || *oid != want {
		t.Errorf("unexpected result %v, %v", oid, err)
	}
	if HexOrEmpty(oid) != want.Hex() {
		t.Error("HexOrEmpty should round-trip")
	}
	if HexOrEmpty(nil) != "" {
		t.Error("HexOrEmpty(nil) should be empty")
	}

	if _, err := OptionalObjectID("zzz"); !errors.Is(err, apperr.ErrMalformedID) {
		t.Errorf("expected ErrMalformedID, got %v", err)
	}
}
