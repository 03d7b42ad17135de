// Package doctor serves the doctor-facing directory: the patient list,
// patient details, a patient's reports and the patient note log.
package doctor

import (
	"context"

	"github.com/medicarehub/api/internal/domain/identity"
	"github.com/medicarehub/api/internal/domain/notes"
	"github.com/medicarehub/api/internal/domain/reports"
)

type PatientDirectory interface {
	ListPatients(ctx context.Context) ([]*identity.Summary, error)
	GetPatient(ctx context.Context, id identity.UserID) (*identity.User, error)
}

type ReportLister interface {
	ListByPatient(ctx context.Context, patientID identity.UserID) ([]*reports.View, error)
}

type NoteLog interface {
	Add(ctx context.Context, doctorID, patientID identity.UserID, in notes.NewNote) (*notes.View, error)
	ListByPatient(ctx context.Context, patientID identity.UserID) ([]*notes.View, error)
}

type Service struct {
	patients PatientDirectory
	reports  ReportLister
	notes    NoteLog
}

func NewService(patients PatientDirectory, reports ReportLister, notes NoteLog) *Service {
	return &Service{patients: patients, reports: reports, notes: notes}
}

func (s *Service) ListPatients(ctx context.Context) ([]*identity.Summary, error) {
	return s.patients.ListPatients(ctx)
}

// GetPatient answers 404 for a user that exists but is not a patient.
func (s *Service) GetPatient(ctx context.Context, id identity.UserID) (*identity.Summary, error) {
	u, err := s.patients.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Summary(), nil
}

// PatientReports checks that the patient exists before listing.
func (s *Service) PatientReports(ctx context.Context, id identity.UserID) (*identity.Summary, []*reports.View, error) {
	patient, err := s.GetPatient(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.reports.ListByPatient(ctx, patient.ID)
	if err != nil {
		return nil, nil, err
	}
	return patient, items, nil
}

func (s *Service) AddNote(ctx context.Context, doctorID, patientID identity.UserID, in notes.NewNote) (*notes.View, error) {
	return s.notes.Add(ctx, doctorID, patientID, in)
}

// PatientNotes checks that the patient exists before listing.
func (s *Service) PatientNotes(ctx context.Context, id identity.UserID) (*identity.Summary, []*notes.View, error) {
	patient, err := s.GetPatient(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.notes.ListByPatient(ctx, patient.ID)
	if err != nil {
		return nil, nil, err
	}
	return patient, items, nil
}
