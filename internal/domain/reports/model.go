package reports

import (
	"time"

	"github.com/medicarehub/api/internal/domain/identity"
)

type ReportID string

func (id ReportID) String() string { return string(id) }

// Report is the metadata of one uploaded file. FilePath is the blobstore
// path and stays server-side.
type Report struct {
	ID           ReportID        `json:"id"`
	PatientID    identity.UserID `json:"patientId"`
	DoctorID     identity.UserID `json:"doctorId,omitempty"`
	FileName     string          `json:"fileName"`
	OriginalName string          `json:"originalName"`
	FilePath     string          `json:"-"`
	FileSize     int64           `json:"fileSize"`
	FileType     string          `json:"fileType"`
	Remarks      string          `json:"remarks"`
	UploadedOn   time.Time       `json:"uploadedOn"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// View is a Report with its patient and doctor resolved to summaries.
type View struct {
	*Report
	Patient *identity.Summary `json:"patient,omitempty"`
	Doctor  *identity.Summary `json:"doctor,omitempty"`
}

const (
	MIMEPDF  = "application/pdf"
	MIMEJPEG = "image/jpeg"
	MIMEJPG  = "image/jpg"
	MIMEPNG  = "image/png"
)

var allowedTypes = map[string]bool{
	MIMEPDF:  true,
	MIMEJPEG: true,
	MIMEJPG:  true,
	MIMEPNG:  true,
}

// AllowedType reports whether mime is an accepted upload type.
func AllowedType(mime string) bool {
	return allowedTypes[mime]
}
