package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medicarehub/api/internal/domain/identity"
	"github.com/medicarehub/api/internal/platform/apperr"
	"github.com/medicarehub/api/internal/platform/auth"
	"github.com/medicarehub/api/internal/platform/blobstore"
)

const (
	msgInvalidType  = "Invalid file type. Only PDF, JPEG, JPG, and PNG are allowed."
	msgTooLarge     = "File too large"
	msgUploadFailed = "Server error during upload"
	msgNotFound     = "Report not found"
	msgInvalidID    = "Invalid report ID"
	msgFileNotFound = "File not found on server"
)

// UserDirectory resolves the users a report refers to.
type UserDirectory interface {
	GetPatient(ctx context.Context, id identity.UserID) (*identity.User, error)
	Summarize(ctx context.Context, id identity.UserID) (*identity.Summary, error)
}

type Service struct {
	reports Repository
	users   UserDirectory
	store   blobstore.Store
	maxSize int64
	logger  zerolog.Logger
	now     func() time.Time
}

// NewService wires the report service to the storage location resolved at
// startup. maxSize bounds every upload in bytes.
func NewService(reports Repository, users UserDirectory, store blobstore.Store, maxSize int64, logger zerolog.Logger) *Service {
	return &Service{
		reports: reports,
		users:   users,
		store:   store,
		maxSize: maxSize,
		logger:  logger.With().Str("component", "reports").Logger(),
		now:     time.Now,
	}
}

// MaxSize is the upload limit in bytes.
func (s *Service) MaxSize() int64 { return s.maxSize }

// Upload describes one incoming file. Size is the size declared by the
// client; the stored byte count is checked again while streaming.
type Upload struct {
	OriginalName string
	ContentType  string
	Size         int64
	Remarks      string
	Body         io.Reader
}

// Upload stores the file for patient p and records its metadata. Nothing is
// written when the type or declared size is rejected, and a stored file is
// removed again if the metadata write fails.
func (s *Service) Upload(ctx context.Context, p auth.Principal, in Upload) (*View, error) {
	if !AllowedType(in.ContentType) {
		return nil, apperr.Validation(msgInvalidType)
	}
	if in.Size > s.maxSize {
		return nil, apperr.Validation(msgTooLarge)
	}

	patient, err := s.users.GetPatient(ctx, identity.UserID(p.ID))
	if err != nil {
		return nil, err
	}

	obj, err := s.store.Put(ctx, blobstore.StoredName(s.now(), in.OriginalName), in.ContentType, in.Body, s.maxSize)
	if err != nil {
		if errors.Is(err, blobstore.ErrCleanup) {
			s.logger.Error().Err(err).Str("location", s.store.Location()).Msg("failed to remove orphaned upload")
		}
		if errors.Is(err, blobstore.ErrTooLarge) {
			return nil, apperr.Validation(msgTooLarge)
		}
		return nil, apperr.Internal(msgUploadFailed, fmt.Errorf("store file: %w", err))
	}

	rep := &Report{
		PatientID:    patient.ID,
		FileName:     obj.Name,
		OriginalName: in.OriginalName,
		FilePath:     obj.Path,
		FileSize:     obj.Size,
		FileType:     in.ContentType,
		Remarks:      strings.TrimSpace(in.Remarks),
		UploadedOn:   s.now().UTC(),
	}
	if err := s.reports.Create(ctx, rep); err != nil {
		if rmErr := s.store.Remove(context.WithoutCancel(ctx), obj.Path); rmErr != nil {
			s.logger.Error().Err(rmErr).Str("path", obj.Path).Msg("failed to remove orphaned upload")
		}
		return nil, apperr.Internal(msgUploadFailed, fmt.Errorf("create report: %w", err))
	}

	s.logger.Info().
		Str("report_id", rep.ID.String()).
		Str("patient_id", string(rep.PatientID)).
		Int64("size", rep.FileSize).
		Str("type", rep.FileType).
		Msg("report uploaded")

	return &View{Report: rep, Patient: patient.Summary()}, nil
}

func (s *Service) load(ctx context.Context, id ReportID) (*Report, error) {
	rep, err := s.reports.GetByID(ctx, id)
	switch {
	case errors.Is(err, apperr.ErrMalformedID):
		return nil, apperr.Validation(msgInvalidID)
	case errors.Is(err, ErrReportNotFound):
		return nil, apperr.NotFound(msgNotFound)
	case err != nil:
		return nil, fmt.Errorf("get report: %w", err)
	}
	return rep, nil
}

// Get returns a single report with patient and doctor populated. The record
// is looked up before ownership is checked.
func (s *Service) Get(ctx context.Context, p auth.Principal, id ReportID) (*View, error) {
	rep, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(p, rep, ActionRead); err != nil {
		return nil, err
	}
	return s.view(ctx, rep, true, true)
}

// OpenFile returns the report and a reader over its stored bytes. The caller
// closes the reader.
func (s *Service) OpenFile(ctx context.Context, p auth.Principal, id ReportID) (*Report, io.ReadCloser, error) {
	rep, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := Authorize(p, rep, ActionDownload); err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Open(ctx, rep.FilePath)
	if errors.Is(err, blobstore.ErrNotFound) || errors.Is(err, blobstore.ErrInvalidPath) {
		return nil, nil, apperr.NotFound(msgFileNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open report file: %w", err)
	}
	return rep, rc, nil
}

// Delete removes the stored file and then the record. A file that is gone, or
// that lives outside the current storage location, is skipped.
func (s *Service) Delete(ctx context.Context, p auth.Principal, id ReportID) error {
	rep, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := Authorize(p, rep, ActionDelete); err != nil {
		return err
	}

	err = s.store.Remove(ctx, rep.FilePath)
	switch {
	case errors.Is(err, blobstore.ErrNotFound), errors.Is(err, blobstore.ErrInvalidPath):
		s.logger.Warn().Err(err).Str("report_id", rep.ID.String()).Str("location", s.store.Location()).
			Msg("report file not in store, deleting record only")
	case err != nil:
		return fmt.Errorf("remove report file: %w", err)
	}
	if err := s.reports.Delete(ctx, rep.ID); err != nil && !errors.Is(err, ErrReportNotFound) {
		return fmt.Errorf("delete report: %w", err)
	}

	s.logger.Info().Str("report_id", rep.ID.String()).Str("patient_id", string(rep.PatientID)).Msg("report deleted")
	return nil
}

// ListForPatient returns the caller's own reports with doctors populated.
func (s *Service) ListForPatient(ctx context.Context, p auth.Principal) ([]*View, error) {
	reps, err := s.reports.ListByPatient(ctx, identity.UserID(p.ID))
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return s.views(ctx, reps, false, true)
}

// ListByPatient returns patientID's reports with the patient populated. The
// caller checks that the patient exists.
func (s *Service) ListByPatient(ctx context.Context, patientID identity.UserID) ([]*View, error) {
	reps, err := s.reports.ListByPatient(ctx, patientID)
	if errors.Is(err, apperr.ErrMalformedID) {
		return nil, apperr.Validation("Invalid patient ID")
	}
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return s.views(ctx, reps, true, false)
}

func (s *Service) views(ctx context.Context, reps []*Report, withPatient, withDoctor bool) ([]*View, error) {
	out := make([]*View, 0, len(reps))
	cache := map[identity.UserID]*identity.Summary{}
	for _, rep := range reps {
		v := &View{Report: rep}
		if withPatient {
			sum, err := s.summary(ctx, cache, rep.PatientID)
			if err != nil {
				return nil, err
			}
			v.Patient = sum
		}
		if withDoctor {
			sum, err := s.summary(ctx, cache, rep.DoctorID)
			if err != nil {
				return nil, err
			}
			v.Doctor = sum
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) view(ctx context.Context, rep *Report, withPatient, withDoctor bool) (*View, error) {
	vs, err := s.views(ctx, []*Report{rep}, withPatient, withDoctor)
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

// summary memoises lookups within one response.
func (s *Service) summary(ctx context.Context, cache map[identity.UserID]*identity.Summary, id identity.UserID) (*identity.Summary, error) {
	if id == "" {
		return nil, nil
	}
	if sum, ok := cache[id]; ok {
		return sum, nil
	}
	sum, err := s.users.Summarize(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = sum
	return sum, nil
}
