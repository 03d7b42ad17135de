package notes

import (
	"time"

	"github.com/medicarehub/api/internal/domain/identity"
)

type NoteID string

// PatientNote is a doctor's entry in a patient's log. Notes are never edited
// or removed once written.
type PatientNote struct {
	ID           NoteID          `json:"id"`
	PatientID    identity.UserID `json:"patientId"`
	DoctorID     identity.UserID `json:"doctorId"`
	Note         string          `json:"note"`
	Prescription string          `json:"prescription"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type View struct {
	*PatientNote
	Patient *identity.Summary `json:"patient,omitempty"`
	Doctor  *identity.Summary `json:"doctor,omitempty"`
}

// NewNote is the body of an add-note request.
type NewNote struct {
	Note         string `json:"note"`
	Prescription string `json:"prescription"`
}
