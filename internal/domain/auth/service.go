package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	Store     *Store
	JWTSecret []byte
	TokenTTL  time.Duration
}

func NewService(store *Store, secret []byte, ttl time.Duration) *Service {
	return &Service{Store: store, JWTSecret: secret, TokenTTL: ttl}
}

type LoginResult struct {
	Token     string `json:"token"`
	UserID    string `json:"userId"`
	CompanyID string `json:"companyId"`
	Role      string `json:"role"`
}

// Login checks the password and issues an access token. Lookup and
// compare failures collapse into one error so the response never leaks
// which part failed.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.Store.FindUserByEmail(ctx, email)
	if err != nil || !user.IsActive {
		return LoginResult{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := IssueToken(s.JWTSecret, user.ID, user.CompanyID, user.RoleName, s.TokenTTL, time.Now().UTC())
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.Store.UpdateLastLogin(ctx, user.ID); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, UserID: user.ID, CompanyID: user.CompanyID, Role: user.RoleName}, nil
}

// HashPassword wraps bcrypt with the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func (s *Service) ParseToken(raw string) (Claims, error) {
	return ParseToken(s.JWTSecret, raw)
}
