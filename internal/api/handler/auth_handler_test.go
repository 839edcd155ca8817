package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/sirpyerre/discussion-api/internal/api/middleware"
	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
	"github.com/sirpyerre/discussion-api/internal/core/service"
)

func TestAuthHandler_Register_Success(t *testing.T) {
	ops := &service.Operations{
		Register: fn(func(in ports.RegisterInput) (*ports.AuthPayload, error) {
			if in.Email != "alice@example.com" || in.Username != "alice" || in.Password != "secret1" {
				t.Fatalf("unexpected args: %+v", in)
			}
			return &ports.AuthPayload{
				Token: "token123",
				User:  &domain.User{ID: "u1", Email: in.Email, Username: in.Username, Role: domain.RoleUser},
			}, nil
		}),
	}
	handler := NewAuthHandler(ops)

	c, rec := newContext(http.MethodPost, "/v1/auth/register",
		`{"email":"alice@example.com","password":"secret1","username":"alice"}`, nil)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" {
		t.Fatalf("unexpected token: %v", resp["token"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["username"] != "alice" || user["role"] != "USER" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Fatalf("password digest must not be serialized")
	}
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	ops := &service.Operations{
		Register: fn(func(ports.RegisterInput) (*ports.AuthPayload, error) {
			return nil, domain.Conflict("email")
		}),
	}
	handler := NewAuthHandler(ops)

	c, _ := newContext(http.MethodPost, "/v1/auth/register",
		`{"email":"bob@example.com","password":"secret1","username":"bob"}`, nil)

	err := handler.Register(c)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	ops := &service.Operations{
		Register: fn(func(ports.RegisterInput) (*ports.AuthPayload, error) {
			t.Fatalf("should not be called")
			return nil, nil
		}),
	}
	handler := NewAuthHandler(ops)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", "not-json", http.StatusBadRequest},
		{"missing username", `{"email":"a@example.com","password":"secret1"}`, http.StatusUnprocessableEntity},
		{"bad email", `{"email":"nope","password":"secret1","username":"a"}`, http.StatusUnprocessableEntity},
		{"short password", `{"email":"a@example.com","password":"123","username":"a"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(http.MethodPost, "/v1/auth/register", tt.body, nil)
			if got := httpStatus(handler.Register(c)); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	ops := &service.Operations{
		Login: fn(func(in ports.LoginInput) (*ports.AuthPayload, error) {
			if in.Email != "alice@example.com" || in.Password != "secret1" {
				t.Fatalf("unexpected args: %+v", in)
			}
			return &ports.AuthPayload{Token: "token123", User: &domain.User{ID: "u1", Username: "alice"}}, nil
		}),
	}
	handler := NewAuthHandler(ops)

	c, rec := newContext(http.MethodPost, "/v1/auth/login", `{"email":"alice@example.com","password":"secret1"}`, nil)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "token123" || resp.User == nil || resp.User.ID != "u1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	ops := &service.Operations{
		Login: fn(func(ports.LoginInput) (*ports.AuthPayload, error) {
			return nil, domain.ErrInvalidCredentials
		}),
	}
	handler := NewAuthHandler(ops)

	c, _ := newContext(http.MethodPost, "/v1/auth/login", `{"email":"alice@example.com","password":"wrong"}`, nil)
	if err := handler.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestInvoke_MissingRequestContext(t *testing.T) {
	ops := &service.Operations{
		Login: fn(func(ports.LoginInput) (*ports.AuthPayload, error) {
			t.Fatalf("should not be called")
			return nil, nil
		}),
	}
	handler := NewAuthHandler(ops)

	c, _ := newContext(http.MethodPost, "/v1/auth/login", `{"email":"a@example.com","password":"x"}`, nil)
	c.Set(middleware.RequestContextKey, nil)

	if got := httpStatus(handler.Login(c)); got != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", got)
	}
}
