package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medicarehub/api/internal/domain/identity"
	"github.com/medicarehub/api/internal/platform/db"
)

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewReportRepoPG(pool *pgxpool.Pool) Repository { return &reportRepoPG{pool: pool} }

const reportCols = `id, patient_id, doctor_id, file_name, original_name, file_path,
	file_size, file_type, remarks, uploaded_on, created_at, updated_at`

func (r *reportRepoPG) scanReport(row pgx.Row) (*Report, error) {
	var (
		rep       Report
		id        uuid.UUID
		patientID uuid.UUID
		doctorID  *uuid.UUID
	)
	err := row.Scan(&id, &patientID, &doctorID, &rep.FileName, &rep.OriginalName, &rep.FilePath,
		&rep.FileSize, &rep.FileType, &rep.Remarks, &rep.UploadedOn, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	rep.ID = ReportID(id.String())
	rep.PatientID = identity.UserID(patientID.String())
	rep.DoctorID = identity.UserID(db.IDOrEmpty(doctorID))
	return &rep, nil
}

func (r *reportRepoPG) Create(ctx context.Context, rep *Report) error {
	patientID, err := db.ParseID(string(rep.PatientID))
	if err != nil {
		return err
	}
	doctorID, err := db.OptionalID(string(rep.DoctorID))
	if err != nil {
		return err
	}

	if rep.UploadedOn.IsZero() {
		rep.UploadedOn = time.Now().UTC()
	}

	id := uuid.New()
	err = r.pool.QueryRow(ctx, `
		INSERT INTO reports (id, patient_id, doctor_id, file_name, original_name, file_path,
			file_size, file_type, remarks, uploaded_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		id, patientID, doctorID, rep.FileName, rep.OriginalName, rep.FilePath,
		rep.FileSize, rep.FileType, rep.Remarks, rep.UploadedOn,
	).Scan(&rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return err
	}
	rep.ID = ReportID(id.String())
	return nil
}

func (r *reportRepoPG) GetByID(ctx context.Context, id ReportID) (*Report, error) {
	rid, err := db.ParseID(string(id))
	if err != nil {
		return nil, err
	}
	return r.scanReport(r.pool.QueryRow(ctx, `SELECT `+reportCols+` FROM reports WHERE id = $1`, rid))
}

func (r *reportRepoPG) Delete(ctx context.Context, id ReportID) error {
	rid, err := db.ParseID(string(id))
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, rid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (r *reportRepoPG) ListByPatient(ctx context.Context, patientID identity.UserID) ([]*Report, error) {
	pid, err := db.ParseID(string(patientID))
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+reportCols+` FROM reports WHERE patient_id = $1 ORDER BY uploaded_on DESC`, pid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Report{}
	for rows.Next() {
		rep, err := r.scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}
