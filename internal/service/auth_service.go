package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/gradebook-backend/internal/apperror"
	"github.com/stemsi/gradebook-backend/internal/config"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
)

// Claims extends JWT standard claims with the operator's identity.
type Claims struct {
	jwt.RegisteredClaims
	OperatorID int64  `json:"operator_id"`
	Email      string `json:"email"`
}

// AuthService handles operator accounts, passwords, and JWTs.
type AuthService struct {
	cfg   *config.Config
	store repository.Store
	log   zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, store repository.Store, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:   cfg,
		store: store,
		log:   log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// CreateOperator stores a new operator account with a hashed password.
func (s *AuthService) CreateOperator(ctx context.Context, email, name, password string) (*model.Operator, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return nil, apperror.Validation("email and name are required")
	}
	if len(password) < 6 {
		return nil, apperror.ValidationField("password", "password must be at least 6 characters")
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	op := &model.Operator{Email: email, Name: name, PasswordHash: hash}
	err = s.store.WithTx(ctx, func(r *repository.Repository) error {
		return writeErr(r.Operators.Create(ctx, op), "operator")
	})
	if err != nil {
		return nil, finish(err)
	}
	return op, nil
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var op *model.Operator
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		var err error
		op, err = r.Operators.GetByEmail(ctx, email)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, finish(err)
	}

	if err := s.CheckPassword(op.PasswordHash, req.Password); err != nil {
		s.log.Info().Str("email", email).Msg("Rejected login")
		return nil, err
	}

	token, expiresAt, err := s.GenerateToken(op)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, ExpiresAt: expiresAt, Operator: *op}, nil
}

// GenerateToken creates a signed JWT for an operator.
func (s *AuthService) GenerateToken(op *model.Operator) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.JWTExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.FormatInt(op.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		OperatorID: op.ID,
		Email:      op.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// Me returns the operator identified by id.
func (s *AuthService) Me(ctx context.Context, id int64) (*model.Operator, error) {
	var op *model.Operator
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		var err error
		op, err = r.Operators.GetByID(ctx, id)
		return lookupErr(err, "operator", id)
	})
	if err != nil {
		return nil, finish(err)
	}
	return op, nil
}
