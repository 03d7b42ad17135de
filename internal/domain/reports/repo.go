package reports

import (
	"context"
	"errors"

	"github.com/medicarehub/api/internal/domain/identity"
)

var ErrReportNotFound = errors.New("report not found")

type Repository interface {
	// Create assigns ID and timestamps; UploadedOn defaults to now.
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id ReportID) (*Report, error)
	Delete(ctx context.Context, id ReportID) error
	// ListByPatient returns the patient's reports, most recent upload first.
	ListByPatient(ctx context.Context, patientID identity.UserID) ([]*Report, error)
}
