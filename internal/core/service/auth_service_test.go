package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
	"github.com/sirpyerre/discussion-api/internal/infrastructure/security"
)

func TestAuthService_Register_Success(t *testing.T) {
	h := newHarness(t)

	payload, err := h.ops.Register.Handle(context.Background(), h.anonymous(), ports.RegisterInput{
		Email:    "  Alice@Example.COM ",
		Password: "pass123",
		Username: " alice ",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if payload.Token == "" {
		t.Fatalf("expected token, got empty")
	}

	user := payload.User
	if user.Email != "alice@example.com" || user.Username != "alice" {
		t.Fatalf("expected normalized email and username, got %q %q", user.Email, user.Username)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("unexpected role: %s", user.Role)
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
}

func TestAuthService_Register_ThenMe(t *testing.T) {
	h := newHarness(t)
	token := h.register(t, "alice@example.com", "alice")

	me, err := h.ops.Me.Handle(context.Background(), h.as(token), ports.NoArgs{})
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me == nil || me.Username != "alice" {
		t.Fatalf("unexpected me: %+v", me)
	}

	anon, err := h.ops.Me.Handle(context.Background(), h.anonymous(), ports.NoArgs{})
	if err != nil || anon != nil {
		t.Fatalf("expected nil me for anonymous caller, got %+v %v", anon, err)
	}
}

func TestAuthService_Register_DoesNotLogInTheRequest(t *testing.T) {
	h := newHarness(t)
	req := h.anonymous()

	if _, err := h.ops.Register.Handle(context.Background(), req, ports.RegisterInput{Email: "a@x.com", Password: "pw1234", Username: "a"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if req.Caller != nil {
		t.Fatalf("registering must not set the caller")
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	h := newHarness(t)
	h.register(t, "bob@example.com", "bob")

	tests := []struct {
		name     string
		email    string
		username string
		field    string
	}{
		{"same email", "BOB@example.com", "robert", "email"},
		{"same username", "other@example.com", "bob", "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.ops.Register.Handle(context.Background(), h.anonymous(), ports.RegisterInput{
				Email: tt.email, Password: "pass", Username: tt.username,
			})
			var conflict *domain.ConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("expected ConflictError, got %v", err)
			}
			if conflict.Field != tt.field {
				t.Fatalf("expected conflict on %s, got %s", tt.field, conflict.Field)
			}
			if !errors.Is(err, domain.ErrConflict) {
				t.Fatalf("expected ErrConflict to match")
			}
		})
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	h := newHarness(t)

	_, err := h.ops.Register.Handle(context.Background(), h.anonymous(), ports.RegisterInput{Email: " ", Password: "pass", Username: "x"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	h := newHarness(t)
	h.register(t, "carol@example.com", "carol")

	payload, err := h.ops.Login.Handle(context.Background(), h.anonymous(), ports.LoginInput{Email: "Carol@Example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if payload.User == nil || payload.User.Username != "carol" {
		t.Fatalf("unexpected user: %+v", payload.User)
	}

	req := h.as(payload.Token)
	if req.Caller == nil || req.Caller.ID != payload.User.ID {
		t.Fatalf("token does not resolve to the logged in user")
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	h := newHarness(t)
	h.register(t, "dave@example.com", "dave")

	_, wrongPassword := h.ops.Login.Handle(context.Background(), h.anonymous(), ports.LoginInput{Email: "dave@example.com", Password: "badpass"})
	_, unknownEmail := h.ops.Login.Handle(context.Background(), h.anonymous(), ports.LoginInput{Email: "ghost@example.com", Password: "password1"})

	if wrongPassword != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", wrongPassword)
	}
	if unknownEmail != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", unknownEmail)
	}
}

// countingHasher records every digest Verify is asked to compare against.
type countingHasher struct {
	ports.PasswordHasher
	verified []string
}

func (c *countingHasher) Verify(secret, digest string) bool {
	c.verified = append(c.verified, digest)
	return c.PasswordHasher.Verify(secret, digest)
}

func TestAuthService_Login_UnknownEmailStillComparesDigest(t *testing.T) {
	h := newHarness(t)
	h.register(t, "erin@example.com", "erin")

	hasher := &countingHasher{PasswordHasher: security.NewBcryptHasher(bcrypt.MinCost)}
	svc := NewAuthService(h.users, hasher, security.NewJWTManager("test-secret", time.Hour), zerolog.Nop())

	_, err := svc.Login(context.Background(), h.anonymous(), ports.LoginInput{Email: "ghost@example.com", Password: "password1"})
	if err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(hasher.verified) != 1 {
		t.Fatalf("expected one digest comparison for an unknown email, got %d", len(hasher.verified))
	}
	if _, err := bcrypt.Cost([]byte(hasher.verified[0])); err != nil {
		t.Fatalf("placeholder is not a bcrypt digest: %v", err)
	}

	_, err = svc.Login(context.Background(), h.anonymous(), ports.LoginInput{Email: "erin@example.com", Password: "wrong"})
	if err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(hasher.verified) != 2 || hasher.verified[1] == hasher.verified[0] {
		t.Fatalf("known email should be compared against its own digest: %v", hasher.verified)
	}
}

func TestNewRequest_InvalidTokenIsAnonymous(t *testing.T) {
	h := newHarness(t)

	req := h.as("not-a-token")
	if req.Caller != nil {
		t.Fatalf("expected anonymous caller")
	}

	_, err := h.ops.CreatePost.Handle(context.Background(), req, ports.CreatePostInput{Title: "t", Content: "c"})
	if !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}
}
