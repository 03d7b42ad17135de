package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/medicarehub/api/internal/domain/identity"
	"github.com/medicarehub/api/internal/platform/apperr"
)

// UserDirectory resolves the patient and doctor a note refers to.
type UserDirectory interface {
	GetPatient(ctx context.Context, id identity.UserID) (*identity.User, error)
	Summarize(ctx context.Context, id identity.UserID) (*identity.Summary, error)
}

type Service struct {
	notes Repository
	users UserDirectory
}

func NewService(notes Repository, users UserDirectory) *Service {
	return &Service{notes: notes, users: users}
}

// Add validates in, checks that patientID is a patient and appends the note
// written by doctorID.
func (s *Service) Add(ctx context.Context, doctorID, patientID identity.UserID, in NewNote) (*View, error) {
	note := strings.TrimSpace(in.Note)
	if note == "" {
		return nil, apperr.Validation("Validation failed",
			apperr.FieldError{Field: "note", Message: "Note is required"})
	}

	patient, err := s.users.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	n := &PatientNote{
		PatientID:    patient.ID,
		DoctorID:     doctorID,
		Note:         note,
		Prescription: strings.TrimSpace(in.Prescription),
	}
	if err := s.notes.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	doctor, err := s.users.Summarize(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return &View{PatientNote: n, Patient: patient.Summary(), Doctor: doctor}, nil
}

// ListByPatient returns patientID's notes with authors populated. The caller
// checks that the patient exists.
func (s *Service) ListByPatient(ctx context.Context, patientID identity.UserID) ([]*View, error) {
	items, err := s.notes.ListByPatient(ctx, patientID)
	if errors.Is(err, apperr.ErrMalformedID) {
		return nil, apperr.Validation("Invalid patient ID")
	}
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	authors := map[identity.UserID]*identity.Summary{}
	out := make([]*View, 0, len(items))
	for _, n := range items {
		doctor, ok := authors[n.DoctorID]
		if !ok {
			doctor, err = s.users.Summarize(ctx, n.DoctorID)
			if err != nil {
				return nil, err
			}
			authors[n.DoctorID] = doctor
		}
		out = append(out, &View{PatientNote: n, Doctor: doctor})
	}
	return out, nil
}
