package reports

import (
	"github.com/medicarehub/api/internal/platform/apperr"
	"github.com/medicarehub/api/internal/platform/auth"
)

type Action int

const (
	ActionRead Action = iota
	ActionDownload
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionRead:
		return "read"
	case ActionDownload:
		return "download"
	case ActionDelete:
		return "delete"
	}
	return "unknown"
}

func deniedMessage(a Action) string {
	switch a {
	case ActionDownload:
		return "Not authorized to access this file"
	case ActionDelete:
		return "Not authorized to delete this report"
	}
	return "Not authorized to access this report"
}

// Authorize decides whether p may perform a on r. Patients act only on their
// own reports; doctors may read and download any report but never delete.
func Authorize(p auth.Principal, r *Report, a Action) error {
	switch {
	case p.IsPatient():
		if string(r.PatientID) == p.ID {
			return nil
		}
	case p.IsDoctor():
		if a == ActionRead || a == ActionDownload {
			return nil
		}
	}
	return apperr.Forbidden(deniedMessage(a))
}
