package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/medicarehub/api/internal/platform/apperr"
	"github.com/medicarehub/api/internal/platform/auth"
)

const minPasswordLength = 6

type Service struct {
	users  Repository
	hasher *auth.PasswordHasher
	tokens *auth.TokenIssuer
}

func NewService(users Repository, hasher *auth.PasswordHasher, tokens *auth.TokenIssuer) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// Session is returned by Register and Login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (in *RegisterInput) validate() []apperr.FieldError {
	var fields []apperr.FieldError
	if in.Name == "" {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "Name is required"})
	}
	if !validEmail(in.Email) {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "Please provide a valid email"})
	}
	if len(in.Password) < minPasswordLength {
		fields = append(fields, apperr.FieldError{Field: "password", Message: "Password must be at least 6 characters"})
	}
	if !in.Role.Valid() {
		fields = append(fields, apperr.FieldError{Field: "role", Message: "Role must be patient or doctor"})
	}
	return fields
}

// CreateUser validates in and stores a new account. Role defaults to
// patient.
func (s *Service) CreateUser(ctx context.Context, in RegisterInput) (*User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normaliseEmail(in.Email)
	if in.Role == "" {
		in.Role = RolePatient
	}
	if fields := in.validate(); len(fields) > 0 {
		return nil, apperr.Validation("Validation failed", fields...)
	}

	_, err := s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, apperr.Validation("User already exists")
	case !errors.Is(err, ErrUserNotFound):
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{Name: in.Name, Email: in.Email, PasswordHash: hash, Role: in.Role}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, apperr.Validation("User already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	u, err := s.CreateUser(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.session(u)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normaliseEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Please provide email and password")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperr.Unauthenticated("Invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	if err := s.hasher.Check(u.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperr.Unauthenticated("Invalid credentials")
		}
		return nil, err
	}
	return s.session(u)
}

func (s *Service) session(u *User) (*Session, error) {
	token, exp, err := s.tokens.Issue(u.Principal())
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: u}, nil
}

func (s *Service) GetUser(ctx context.Context, id UserID) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	switch {
	case errors.Is(err, apperr.ErrMalformedID):
		return nil, apperr.Validation("Invalid user ID")
	case errors.Is(err, ErrUserNotFound):
		return nil, apperr.NotFound("User not found")
	case err != nil:
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// LookupPrincipal implements auth.PrincipalLookup.
func (s *Service) LookupPrincipal(ctx context.Context, id string) (*auth.Principal, error) {
	u, err := s.users.GetByID(ctx, UserID(id))
	if errors.Is(err, ErrUserNotFound) || errors.Is(err, apperr.ErrMalformedID) {
		return nil, auth.ErrUnknownPrincipal
	}
	if err != nil {
		return nil, fmt.Errorf("lookup principal: %w", err)
	}
	p := u.Principal()
	return &p, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id UserID, upd ProfileUpdate) (*User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperr.Validation("Validation failed",
				apperr.FieldError{Field: "name", Message: "Name cannot be empty"})
		}
		u.Name = name
	}
	if upd.Phone != nil {
		u.Phone = strings.TrimSpace(*upd.Phone)
	}
	if upd.Specialization != nil {
		u.Specialization = strings.TrimSpace(*upd.Specialization)
	}

	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

// GetPatient returns the user with id if it is a patient. Any other user is
// reported as not found.
func (s *Service) GetPatient(ctx context.Context, id UserID) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	switch {
	case errors.Is(err, apperr.ErrMalformedID):
		return nil, apperr.Validation("Invalid patient ID")
	case errors.Is(err, ErrUserNotFound):
		return nil, apperr.NotFound("Patient not found")
	case err != nil:
		return nil, fmt.Errorf("get patient: %w", err)
	}
	if u.Role != RolePatient {
		return nil, apperr.NotFound("Patient not found")
	}
	return u, nil
}

func (s *Service) ListPatients(ctx context.Context) ([]*Summary, error) {
	users, err := s.users.ListByRole(ctx, RolePatient)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	out := make([]*Summary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out, nil
}

// Summarize resolves id to a summary, or nil when the user no longer exists.
func (s *Service) Summarize(ctx context.Context, id UserID) (*Summary, error) {
	if id == "" {
		return nil, nil
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) || errors.Is(err, apperr.ErrMalformedID) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("summarize user: %w", err)
	}
	return u.Summary(), nil
}
