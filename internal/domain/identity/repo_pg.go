package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medicarehub/api/internal/platform/db"
)

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) Repository { return &userRepoPG{pool: pool} }

const userCols = `id, name, email, password_hash, role, phone, specialization, created_at, updated_at`

func (r *userRepoPG) scanUser(row pgx.Row) (*User, error) {
	var (
		u    User
		id   uuid.UUID
		role string
	)
	err := row.Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Phone, &u.Specialization,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.ID = UserID(id.String())
	u.Role = Role(role)
	return &u, nil
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	id := uuid.New()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, phone, specialization)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		id, u.Name, u.Email, u.PasswordHash, string(u.Role), u.Phone, u.Specialization,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}
	u.ID = UserID(id.String())
	return nil
}

func (r *userRepoPG) GetByID(ctx context.Context, id UserID) (*User, error) {
	uid, err := db.ParseID(string(id))
	if err != nil {
		return nil, err
	}
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, uid))
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email))
}

func (r *userRepoPG) ListByRole(ctx context.Context, role Role) ([]*User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userCols+` FROM users WHERE role = $1 ORDER BY created_at DESC`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepoPG) UpdateProfile(ctx context.Context, u *User) error {
	uid, err := db.ParseID(string(u.ID))
	if err != nil {
		return err
	}
	err = r.pool.QueryRow(ctx, `
		UPDATE users SET name = $2, phone = $3, specialization = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		uid, u.Name, u.Phone, u.Specialization,
	).Scan(&u.UpdatedAt)
	if db.IsNoRows(err) {
		return ErrUserNotFound
	}
	return err
}
