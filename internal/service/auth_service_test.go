package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/gradebook-backend/internal/apperror"
	"github.com/stemsi/gradebook-backend/internal/config"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/repository/memstore"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(expiry time.Duration) *AuthService {
	cfg := &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  expiry,
		BcryptCost: bcrypt.MinCost,
	}
	return NewAuthService(cfg, memstore.New(), zerolog.Nop())
}

func TestAuthService_LoginRoundTrip(t *testing.T) {
	svc := newAuthService(time.Hour)
	ctx := context.Background()

	op, err := svc.CreateOperator(ctx, " Registrar@Example.com ", "Registrar", "secret123")
	if err != nil {
		t.Fatalf("CreateOperator: %v", err)
	}
	if op.Email != "registrar@example.com" {
		t.Errorf("email not normalized: %q", op.Email)
	}

	resp, err := svc.Login(ctx, model.LoginRequest{Email: "REGISTRAR@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Operator.ID != op.ID || !resp.ExpiresAt.After(time.Now()) {
		t.Errorf("unexpected login response %+v", resp)
	}

	claims, err := svc.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.OperatorID != op.ID || claims.Email != op.Email {
		t.Errorf("unexpected claims %+v", claims)
	}

	me, err := svc.Me(ctx, claims.OperatorID)
	if err != nil || me.Email != op.Email {
		t.Errorf("Me = %+v, %v", me, err)
	}
}

func TestAuthService_LoginRejections(t *testing.T) {
	svc := newAuthService(time.Hour)
	ctx := context.Background()
	if _, err := svc.CreateOperator(ctx, "registrar@example.com", "Registrar", "secret123"); err != nil {
		t.Fatalf("CreateOperator: %v", err)
	}

	cases := []struct {
		name string
		req  model.LoginRequest
	}{
		{"wrong password", model.LoginRequest{Email: "registrar@example.com", Password: "wrong-password"}},
		{"unknown email", model.LoginRequest{Email: "nobody@example.com", Password: "secret123"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tc.req)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestAuthService_CreateOperator_Duplicate(t *testing.T) {
	svc := newAuthService(time.Hour)
	ctx := context.Background()

	if _, err := svc.CreateOperator(ctx, "registrar@example.com", "Registrar", "secret123"); err != nil {
		t.Fatalf("CreateOperator: %v", err)
	}
	_, err := svc.CreateOperator(ctx, "registrar@example.com", "Other", "secret456")
	assertKind(t, err, apperror.KindValidation)

	_, err = svc.CreateOperator(ctx, "short@example.com", "Short", "abc")
	assertKind(t, err, apperror.KindValidation)
}

func TestAuthService_ValidateToken(t *testing.T) {
	expired := newAuthService(-time.Minute)
	op := &model.Operator{ID: 7, Email: "registrar@example.com"}

	token, _, err := expired.GenerateToken(op)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := expired.ValidateToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}

	signer := newAuthService(time.Hour)
	token, _, err = signer.GenerateToken(op)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	other := NewAuthService(&config.Config{JWTSecret: "another-secret", JWTExpiry: time.Hour}, memstore.New(), zerolog.Nop())
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("token signed with a different secret should be rejected")
	}
}
