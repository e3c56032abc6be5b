package auth

import (
	"context"

	"github.com/tchernob/congesflow/internal/platform/querier"
)

type AuthUser struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash string
	RoleName     string
	IsActive     bool
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var u AuthUser
	if err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.company_id, u.email, u.password_hash, r.name, u.is_active
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE lower(u.email) = lower($1)
  `, email).Scan(&u.ID, &u.CompanyID, &u.Email, &u.PasswordHash, &u.RoleName, &u.IsActive); err != nil {
		return AuthUser{}, err
	}
	return u, nil
}

func (s *Store) FindUserByID(ctx context.Context, userID string) (AuthUser, error) {
	var u AuthUser
	if err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.company_id, u.email, u.password_hash, r.name, u.is_active
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE u.id = $1
  `, userID).Scan(&u.ID, &u.CompanyID, &u.Email, &u.PasswordHash, &u.RoleName, &u.IsActive); err != nil {
		return AuthUser{}, err
	}
	return u, nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login_at = now() WHERE id = $1", userID)
	return err
}

func (s *Store) UpdateUserPassword(ctx context.Context, userID, hash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET password_hash = $2 WHERE id = $1", userID, hash)
	return err
}
