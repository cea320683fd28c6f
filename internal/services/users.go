package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"radiohits-backend-go/internal/models"
)

const (
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"

	UserStatusActive   = "ACTIVE"
	UserStatusDisabled = "DISABLED"
)

// UserStore reads and writes staff accounts.
type UserStore struct {
	DB *sqlx.DB
}

func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func (s UserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.DB.GetContext(ctx, &user, `
SELECT id, email, display_name, password_hash, status, created_at, updated_at, last_login_at
FROM users
WHERE lower(email) = $1
`, NormalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound("Usuario no encontrado.")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

func (s UserStore) GetByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := s.DB.GetContext(ctx, &user, `
SELECT id, email, display_name, password_hash, status, created_at, updated_at, last_login_at
FROM users
WHERE id = $1
`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound("Usuario no encontrado.")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s UserStore) Roles(ctx context.Context, userID string) ([]string, error) {
	roles := []string{}
	err := s.DB.SelectContext(ctx, &roles, `
SELECT r.code
FROM roles r
JOIN user_roles ur ON ur.role_id = r.id
WHERE ur.user_id = $1
ORDER BY r.code
`, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch roles: %w", err)
	}
	return roles, nil
}

func (s UserStore) SetLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, time.Now().UTC(), userID)
	return WrapError(err, "set last login")
}

// NewUser is the input for Create.
type NewUser struct {
	Email        string
	DisplayName  string
	PasswordHash string
	Roles        []string
}

// Create inserts a user and grants the listed roles in one transaction.
func (s UserStore) Create(ctx context.Context, in NewUser) (models.User, error) {
	email := NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return models.User{}, ErrBadRequest("Email inválido.")
	}
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return models.User{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = $1)`, email); err != nil {
		return models.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return models.User{}, ErrConflict("Ya existe un usuario con ese email.")
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: in.PasswordHash,
		Status:       UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if name := strings.TrimSpace(in.DisplayName); name != "" {
		user.DisplayName = &name
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO users (id, email, display_name, password_hash, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$6)
`, user.ID, user.Email, user.DisplayName, user.PasswordHash, user.Status, now)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	for _, role := range in.Roles {
		code := strings.ToUpper(strings.TrimSpace(role))
		res, err := tx.ExecContext(ctx, `
INSERT INTO user_roles (user_id, role_id)
SELECT $1, id FROM roles WHERE code = $2
ON CONFLICT DO NOTHING
`, user.ID, code)
		if err != nil {
			return models.User{}, fmt.Errorf("grant role %s: %w", code, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return models.User{}, ErrBadRequest("Rol desconocido: " + code)
		}
	}
	if err := tx.Commit(); err != nil {
		return models.User{}, fmt.Errorf("commit: %w", err)
	}
	return user, nil
}

func (s UserStore) SetPassword(ctx context.Context, email, hash string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE users SET password_hash = $1, updated_at = $2 WHERE lower(email) = $3`,
		hash, time.Now().UTC(), NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound("Usuario no encontrado.")
	}
	return nil
}

// UserRepository is the subset of UserStore the auth flow needs.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	Roles(ctx context.Context, userID string) ([]string, error)
	SetLastLogin(ctx context.Context, userID string) error
}

// Session is the result of a successful login or refresh.
type Session struct {
	Tokens TokenPair
	User   models.User
	Roles  []string
}

// Authenticator turns credentials and refresh tokens into sessions.
type Authenticator struct {
	Users  UserRepository
	Tokens TokenService
}

const authFailed = "Credenciales inválidas."

func (a Authenticator) Login(ctx context.Context, email, password string) (Session, error) {
	if NormalizeEmail(email) == "" || strings.TrimSpace(password) == "" {
		return Session{}, ErrBadRequest("Email y contraseña son obligatorios.")
	}
	user, err := a.Users.FindByEmail(ctx, email)
	if err != nil {
		if _, ok := StatusOf(err); ok {
			return Session{}, ErrUnauthorized(authFailed)
		}
		return Session{}, err
	}
	if !a.Tokens.VerifyPassword(password, user.PasswordHash) {
		return Session{}, ErrUnauthorized(authFailed)
	}
	if user.Status != UserStatusActive {
		return Session{}, ErrForbidden("La cuenta está deshabilitada.")
	}
	session, err := a.session(ctx, user)
	if err != nil {
		return Session{}, err
	}
	if err := a.Users.SetLastLogin(ctx, user.ID); err != nil {
		return Session{}, err
	}
	return session, nil
}

func (a Authenticator) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	claims, err := a.Tokens.ParseRefreshToken(strings.TrimSpace(refreshToken))
	if err != nil {
		return Session{}, err
	}
	user, err := a.Users.GetByID(ctx, claims.Subject)
	if err != nil {
		if _, ok := StatusOf(err); ok {
			return Session{}, ErrUnauthorized(authFailed)
		}
		return Session{}, err
	}
	if user.Status != UserStatusActive {
		return Session{}, ErrForbidden("La cuenta está deshabilitada.")
	}
	return a.session(ctx, user)
}

func (a Authenticator) session(ctx context.Context, user models.User) (Session, error) {
	roles, err := a.Users.Roles(ctx, user.ID)
	if err != nil {
		return Session{}, err
	}
	pair, err := a.Tokens.IssuePair(user.ID, user.Email, roles)
	if err != nil {
		return Session{}, err
	}
	return Session{Tokens: pair, User: user, Roles: roles}, nil
}
