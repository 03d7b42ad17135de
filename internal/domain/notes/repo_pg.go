package notes

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medicarehub/api/internal/domain/identity"
	"github.com/medicarehub/api/internal/platform/db"
)

type noteRepoPG struct{ pool *pgxpool.Pool }

func NewNoteRepoPG(pool *pgxpool.Pool) Repository { return &noteRepoPG{pool: pool} }

func (r *noteRepoPG) Create(ctx context.Context, n *PatientNote) error {
	patientID, err := db.ParseID(string(n.PatientID))
	if err != nil {
		return err
	}
	doctorID, err := db.ParseID(string(n.DoctorID))
	if err != nil {
		return err
	}

	id := uuid.New()
	err = r.pool.QueryRow(ctx, `
		INSERT INTO patient_notes (id, patient_id, doctor_id, note, prescription)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		id, patientID, doctorID, n.Note, n.Prescription,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return err
	}
	n.ID = NoteID(id.String())
	return nil
}

func (r *noteRepoPG) ListByPatient(ctx context.Context, patientID identity.UserID) ([]*PatientNote, error) {
	pid, err := db.ParseID(string(patientID))
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, doctor_id, note, prescription, created_at, updated_at
		FROM patient_notes WHERE patient_id = $1 ORDER BY created_at DESC`, pid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*PatientNote{}
	for rows.Next() {
		var (
			n                 PatientNote
			id, pat, doctorID uuid.UUID
		)
		if err := rows.Scan(&id, &pat, &doctorID, &n.Note, &n.Prescription, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		n.ID = NoteID(id.String())
		n.PatientID = identity.UserID(pat.String())
		n.DoctorID = identity.UserID(doctorID.String())
		out = append(out, &n)
	}
	return out, rows.Err()
}
