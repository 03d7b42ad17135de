package notes

import (
	"context"

	"github.com/medicarehub/api/internal/domain/identity"
)

// Repository is append-only: there is no update or delete.
type Repository interface {
	Create(ctx context.Context, n *PatientNote) error
	// ListByPatient returns notes newest first.
	ListByPatient(ctx context.Context, patientID identity.UserID) ([]*PatientNote, error)
}
