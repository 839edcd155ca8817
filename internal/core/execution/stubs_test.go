package execution

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
)

type stubCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
	delErr  error
	sets    int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string][]byte)}
}

func (c *stubCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *stubCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.sets++
	return nil
}

func (c *stubCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.delErr != nil {
		return c.delErr
	}
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *stubCache) Ping(context.Context) error { return nil }

func (c *stubCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

type stubUsers struct {
	ports.UserRepository

	mu    sync.Mutex
	users map[string]*domain.User
	calls [][]string
	err   error
}

func newStubUsers(users ...*domain.User) *stubUsers {
	s := &stubUsers{users: make(map[string]*domain.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *stubUsers) FindByIDs(_ context.Context, ids []string) (map[string]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, append([]string(nil), ids...))
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (s *stubUsers) batches() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.calls...)
}

type stubTokens struct {
	claims map[string]string
}

func (t stubTokens) Issue(userID string) (string, error) { return "tok-" + userID, nil }

func (t stubTokens) Verify(token string) (*ports.TokenClaims, error) {
	id, ok := t.claims[token]
	if !ok {
		return nil, errors.New("token is malformed")
	}
	return &ports.TokenClaims{UserID: id}, nil
}
