package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/execution"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
)

// AuthService implements registration and login.
type AuthService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenManager
	log    zerolog.Logger

	// absent is verified against when the email is unknown so that login
	// costs one hash comparison either way.
	absent string
}

func NewAuthService(users ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenManager, log zerolog.Logger) *AuthService {
	absent, err := hasher.Hash("no account has this password")
	if err != nil {
		log.Warn().Err(err).Msg("could not prepare placeholder digest")
	}
	return &AuthService{users: users, hasher: hasher, tokens: tokens, log: log, absent: absent}
}

// Register creates a USER account and returns a token bound to it. The new
// account does not become the caller of the current request.
func (s *AuthService) Register(ctx context.Context, req *execution.Request, in ports.RegisterInput) (*ports.AuthPayload, error) {
	email := domain.NormalizeEmail(in.Email)
	username := domain.NormalizeUsername(in.Username)
	if email == "" || username == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	existing, err := s.users.FindByEmailOrUsername(ctx, email, username)
	switch {
	case err == nil && existing != nil:
		if existing.Email == email {
			return nil, domain.Conflict("email")
		}
		return nil, domain.Conflict("username")
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("register: lookup: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash: %w", err)
	}

	created, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(created.ID)
	if err != nil {
		return nil, fmt.Errorf("register: issue token: %w", err)
	}

	req.Users.Prime(created.ID, created)
	s.log.Info().Str("user_id", created.ID).Msg("user registered")
	return &ports.AuthPayload{Token: token, User: created}, nil
}

// Login exchanges credentials for a token. An unknown email and a wrong
// password both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req *execution.Request, in ports.LoginInput) (*ports.AuthPayload, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.hasher.Verify(in.Password, s.absent)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: lookup: %w", err)
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	req.Users.Prime(user.ID, user)
	return &ports.AuthPayload{Token: token, User: user}, nil
}
