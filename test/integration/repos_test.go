//go:build integration

package integration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/medicarehub/api/internal/domain/identity"
	"github.com/medicarehub/api/internal/domain/notes"
	"github.com/medicarehub/api/internal/domain/reports"
	"github.com/medicarehub/api/internal/platform/apperr"
)

// backendRepos is one store driver's repositories plus a generator for ids
// that are well formed but unassigned.
type backendRepos struct {
	users     identity.Repository
	reports   reports.Repository
	notes     notes.Repository
	missingID func() string
}

func createUser(t *testing.T, repo identity.Repository, name, email string, role identity.Role) *identity.User {
	t.Helper()
	u := &identity.User{Name: name, Email: email, PasswordHash: "$2a$04$hash", Role: role}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	if u.ID == "" || u.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamps assigned, got %+v", u)
	}
	return u
}

func testUserRepository(t *testing.T, b backendRepos) {
	ctx := context.Background()
	repo := b.users

	alice := createUser(t, repo, "Alice", "alice@example.com", identity.RolePatient)
	time.Sleep(5 * time.Millisecond)
	bob := createUser(t, repo, "Bob", "bob@example.com", identity.RolePatient)
	createUser(t, repo, "Dr. House", "house@example.com", identity.RoleDoctor)

	t.Run("DuplicateEmail", func(t *testing.T) {
		err := repo.Create(ctx, &identity.User{Name: "Other", Email: "alice@example.com", PasswordHash: "x", Role: identity.RolePatient})
		if !errors.Is(err, identity.ErrEmailTaken) {
			t.Errorf("expected ErrEmailTaken, got %v", err)
		}
	})

	t.Run("GetByID", func(t *testing.T) {
		got, err := repo.GetByID(ctx, alice.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Email != alice.Email || got.Role != identity.RolePatient || got.PasswordHash != alice.PasswordHash {
			t.Errorf("unexpected user %+v", got)
		}

		if _, err := repo.GetByID(ctx, identity.UserID(b.missingID())); !errors.Is(err, identity.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
		if _, err := repo.GetByID(ctx, "not-an-id"); !errors.Is(err, apperr.ErrMalformedID) {
			t.Errorf("expected ErrMalformedID, got %v", err)
		}
	})

	t.Run("GetByEmail", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "bob@example.com")
		if err != nil {
			t.Fatalf("GetByEmail: %v", err)
		}
		if got.ID != bob.ID {
			t.Errorf("expected %s, got %s", bob.ID, got.ID)
		}
		if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, identity.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("ListByRole", func(t *testing.T) {
		patients, err := repo.ListByRole(ctx, identity.RolePatient)
		if err != nil {
			t.Fatalf("ListByRole: %v", err)
		}
		if len(patients) != 2 {
			t.Fatalf("expected 2 patients, got %d", len(patients))
		}
		if patients[0].ID != bob.ID {
			t.Error("expected newest patient first")
		}
	})

	t.Run("UpdateProfile", func(t *testing.T) {
		u, _ := repo.GetByID(ctx, alice.ID)
		u.Name, u.Phone = "Alice Smith", "555-0100"
		if err := repo.UpdateProfile(ctx, u); err != nil {
			t.Fatalf("UpdateProfile: %v", err)
		}
		got, _ := repo.GetByID(ctx, alice.ID)
		if got.Name != "Alice Smith" || got.Phone != "555-0100" || got.Email != alice.Email {
			t.Errorf("unexpected user after update %+v", got)
		}

		ghost := &identity.User{ID: identity.UserID(b.missingID()), Name: "x"}
		if err := repo.UpdateProfile(ctx, ghost); !errors.Is(err, identity.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func testReportRepository(t *testing.T, b backendRepos) {
	ctx := context.Background()
	alice := createUser(t, b.users, "Alice", "alice@example.com", identity.RolePatient)
	carol := createUser(t, b.users, "Carol", "carol@example.com", identity.RolePatient)

	newReport := func(patient identity.UserID, name string, at time.Time) *reports.Report {
		r := &reports.Report{
			PatientID:    patient,
			FileName:     "1700000000000-abc-" + name,
			OriginalName: name,
			FilePath:     "reports/" + name,
			FileSize:     2000000,
			FileType:     reports.MIMEPDF,
			Remarks:      "annual",
			UploadedOn:   at,
		}
		if err := b.reports.Create(ctx, r); err != nil {
			t.Fatalf("create report: %v", err)
		}
		return r
	}

	base := time.Now().UTC().Truncate(time.Millisecond)
	older := newReport(alice.ID, "older.pdf", base.Add(-time.Hour))
	newer := newReport(alice.ID, "xray.pdf", base)
	newReport(carol.ID, "carol.pdf", base)

	t.Run("GetByID", func(t *testing.T) {
		got, err := b.reports.GetByID(ctx, newer.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.PatientID != alice.ID || got.FileSize != 2000000 || got.FileType != reports.MIMEPDF {
			t.Errorf("unexpected report %+v", got)
		}
		if got.FilePath != newer.FilePath || got.DoctorID != "" {
			t.Errorf("unexpected path/doctor %q %q", got.FilePath, got.DoctorID)
		}
		if _, err := b.reports.GetByID(ctx, reports.ReportID(b.missingID())); !errors.Is(err, reports.ErrReportNotFound) {
			t.Errorf("expected ErrReportNotFound, got %v", err)
		}
		if _, err := b.reports.GetByID(ctx, "nope"); !errors.Is(err, apperr.ErrMalformedID) {
			t.Errorf("expected ErrMalformedID, got %v", err)
		}
	})

	t.Run("LongOriginalName", func(t *testing.T) {
		long := strings.Repeat("x", 300) + ".pdf"
		r := &reports.Report{
			PatientID:    carol.ID,
			FileName:     "1700000000000-abc-long.pdf",
			OriginalName: long,
			FilePath:     "reports/long.pdf",
			FileSize:     10,
			FileType:     reports.MIMEPDF,
			UploadedOn:   base.Add(-time.Minute),
		}
		if err := b.reports.Create(ctx, r); err != nil {
			t.Fatalf("create report: %v", err)
		}
		got, err := b.reports.GetByID(ctx, r.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.OriginalName != long {
			t.Errorf("original name not preserved, got %d chars", len(got.OriginalName))
		}
	})

	t.Run("ListByPatient", func(t *testing.T) {
		items, err := b.reports.ListByPatient(ctx, alice.ID)
		if err != nil {
			t.Fatalf("ListByPatient: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 reports, got %d", len(items))
		}
		if items[0].ID != newer.ID || items[1].ID != older.ID {
			t.Error("expected most recent upload first")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := b.reports.Delete(ctx, older.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if err := b.reports.Delete(ctx, older.ID); !errors.Is(err, reports.ErrReportNotFound) {
			t.Errorf("expected ErrReportNotFound on second delete, got %v", err)
		}
		items, _ := b.reports.ListByPatient(ctx, alice.ID)
		if len(items) != 1 {
			t.Errorf("expected 1 report left, got %d", len(items))
		}
	})
}

func testNoteRepository(t *testing.T, b backendRepos) {
	ctx := context.Background()
	alice := createUser(t, b.users, "Alice", "alice@example.com", identity.RolePatient)
	house := createUser(t, b.users, "Dr. House", "house@example.com", identity.RoleDoctor)

	for _, text := range []string{"first", "second"} {
		n := &notes.PatientNote{PatientID: alice.ID, DoctorID: house.ID, Note: text}
		if err := b.notes.Create(ctx, n); err != nil {
			t.Fatalf("create note: %v", err)
		}
		if n.ID == "" || n.CreatedAt.IsZero() {
			t.Fatalf("expected id and timestamps assigned, got %+v", n)
		}
		time.Sleep(5 * time.Millisecond)
	}

	items, err := b.notes.ListByPatient(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListByPatient: %v", err)
	}
	if len(items) != 2 || items[0].Note != "second" {
		t.Errorf("expected 2 notes newest first, got %+v", items)
	}
	if items[0].DoctorID != house.ID || items[0].Prescription != "" {
		t.Errorf("unexpected note %+v", items[0])
	}

	if _, err := b.notes.ListByPatient(ctx, "bad"); !errors.Is(err, apperr.ErrMalformedID) {
		t.Errorf("expected ErrMalformedID, got %v", err)
	}
}
