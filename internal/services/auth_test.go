package services

import (
	"context"
	"errors"
	"testing"

	"github.com/studyflow/backend/internal/repos"
	"github.com/studyflow/backend/internal/requestdata"
	"github.com/studyflow/backend/internal/types"
)

func newAuthServiceForTest(t *testing.T) (AuthService, *testFixture) {
	t.Helper()
	fx := newFixture(t)
	svc := NewAuthService(fx.db, fx.log,
		repos.NewUserRepo(fx.db, fx.log),
		repos.NewUserTokenRepo(fx.db, fx.log),
	)
	return svc, fx
}

func TestRegisterAndLogin(t *testing.T) {
	svc, fx := newAuthServiceForTest(t)
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, "Ada", "Ada@Example.com", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("email should be normalized, got %q", user.Email)
	}
	if user.Password == "secret123" {
		t.Fatalf("password must be stored hashed")
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("token pair must be issued on registration")
	}

	var tokenCount int64
	fx.db.Model(&types.UserToken{}).Where("user_id = ?", user.ID).Count(&tokenCount)
	if tokenCount != 1 {
		t.Fatalf("token rows: want=1 got=%d", tokenCount)
	}

	logged, loginPair, err := svc.Login(ctx, "ada@example.com", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != user.ID {
		t.Fatalf("login returned a different user")
	}
	if loginPair.AccessToken == pair.AccessToken {
		t.Fatalf("login should issue a fresh token")
	}

	if _, _, err := svc.Login(ctx, "ada@example.com", "wrong-pass"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("wrong password: expected ErrUnauthorized, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "secret123"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unknown email: expected ErrUnauthorized, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{name: "missing name", userName: "", email: "a@example.com", password: "secret123"},
		{name: "missing email", userName: "Ada", email: "", password: "secret123"},
		{name: "short password", userName: "Ada", email: "a@example.com", password: "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := svc.Register(ctx, tt.userName, tt.email, tt.password); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	if _, _, err := svc.Register(ctx, "Ada", "dup@example.com", "secret123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := svc.Register(ctx, "Ada Again", "DUP@example.com", "secret123"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("duplicate email: expected ErrInvalidInput, got %v", err)
	}
}

func TestSetContextFromTokenAndRevocation(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, "Ada", "ada@example.com", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	authed, err := svc.SetContextFromToken(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("set context: %v", err)
	}
	rd := requestdata.GetRequestData(authed)
	if rd == nil || rd.UserID != user.ID {
		t.Fatalf("request data not attached")
	}
	if rd.RefreshToken != pair.RefreshToken {
		t.Fatalf("refresh token should ride along")
	}

	me, err := svc.Me(authed)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.ID != user.ID {
		t.Fatalf("me returned a different user")
	}

	if err := svc.Logout(authed); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.SetContextFromToken(ctx, pair.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("revoked token: expected ErrUnauthorized, got %v", err)
	}

	if _, err := svc.SetContextFromToken(ctx, "not-a-jwt"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("garbage token: expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.SetContextFromToken(ctx, ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("empty token: expected ErrUnauthorized, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, "Ada", "ada@example.com", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	authed, err := svc.SetContextFromToken(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("set context: %v", err)
	}

	if err := svc.ChangePassword(authed, "wrong", "newsecret"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("wrong current password: expected ErrUnauthorized, got %v", err)
	}
	if err := svc.ChangePassword(authed, "secret123", "abc"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("short new password: expected ErrInvalidInput, got %v", err)
	}
	if err := svc.ChangePassword(authed, "secret123", "newsecret"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, _, err := svc.Login(ctx, "ada@example.com", "newsecret"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, _, err := svc.Login(ctx, "ada@example.com", "secret123"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("old password should stop working, got %v", err)
	}
}

func TestEmailVerificationFlow(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, "Ada", "ada@example.com", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	authed, err := svc.SetContextFromToken(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("set context: %v", err)
	}

	token, err := svc.SendEmailVerification(authed)
	if err != nil {
		t.Fatalf("send verification: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("token should be 32 random bytes hex encoded, got len=%d", len(token))
	}

	if err := svc.VerifyEmail(ctx, "bogus"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bogus token: expected ErrInvalidInput, got %v", err)
	}
	if err := svc.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("verify: %v", err)
	}

	status, err := svc.VerificationStatus(authed)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.EmailVerified {
		t.Fatalf("email should be verified")
	}

	if _, err := svc.SendEmailVerification(authed); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("already verified: expected ErrInvalidInput, got %v", err)
	}
}

func TestPhoneVerificationFlow(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, "Ada", "ada@example.com", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	authed, err := svc.SetContextFromToken(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("set context: %v", err)
	}

	if _, err := svc.SendPhoneVerification(authed); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("no phone yet: expected ErrInvalidInput, got %v", err)
	}
	if err := svc.UpdatePhone(authed, "08123456789"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("local format: expected ErrInvalidInput, got %v", err)
	}
	if err := svc.UpdatePhone(authed, "+628123456789"); err != nil {
		t.Fatalf("update phone: %v", err)
	}

	code, err := svc.SendPhoneVerification(authed)
	if err != nil {
		t.Fatalf("send code: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("code should be 6 digits, got %q", code)
	}

	if err := svc.VerifyPhone(authed, "000000"); err == nil {
		t.Fatalf("wrong code should fail")
	}
	if err := svc.VerifyPhone(authed, code); err != nil {
		t.Fatalf("verify: %v", err)
	}

	status, err := svc.VerificationStatus(authed)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.PhoneVerified || status.Phone == nil || *status.Phone != "+628123456789" {
		t.Fatalf("status: %+v", status)
	}
}
