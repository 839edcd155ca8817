package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/execution"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
	"github.com/sirpyerre/discussion-api/internal/infrastructure/memory"
	"github.com/sirpyerre/discussion-api/internal/infrastructure/security"
)

func paginate[T any](items []T, p ports.Page) []T {
	p = p.Normalize()
	if p.Skip >= len(items) {
		return []T{}
	}
	end := p.Skip + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return append([]T(nil), items[p.Skip:end]...)
}

func newestFirst[T any](items []T) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[len(items)-1-i] = it
	}
	return out
}

type stubUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	order   []string
	batches [][]string
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == user.Email {
			return nil, domain.Conflict("email")
		}
		if u.Username == user.Username {
			return nil, domain.Conflict("username")
		}
	}
	created := cloneUser(user)
	created.ID = fmt.Sprintf("u%d", len(r.order)+1)
	r.byID[created.ID] = created
	r.order = append(r.order, created.ID)
	return cloneUser(created), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.NotFound(domain.KindUser)
}

func (r *stubUserRepo) FindByIDs(_ context.Context, ids []string) (map[string]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, append([]string(nil), ids...))
	out := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := r.byID[id]; ok {
			out[id] = cloneUser(u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.NotFound(domain.KindUser)
}

func (r *stubUserRepo) FindByEmailOrUsername(_ context.Context, email, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		u := r.byID[id]
		if u.Email == email || u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.NotFound(domain.KindUser)
}

func (r *stubUserRepo) List(_ context.Context, page ports.Page) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*domain.User, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, cloneUser(r.byID[id]))
	}
	return paginate(all, page), nil
}

func (r *stubUserRepo) setRole(id string, role domain.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id].Role = role
}

func (r *stubUserRepo) batchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

type stubPostRepo struct {
	mu    sync.Mutex
	seq   int
	posts []*domain.Post
	reads int
}

func clonePost(p *domain.Post) *domain.Post {
	clone := *p
	return &clone
}

func (r *stubPostRepo) indexLocked(id string) int {
	for i, p := range r.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *stubPostRepo) Create(_ context.Context, post *domain.Post) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	created := clonePost(post)
	created.ID = fmt.Sprintf("p%d", r.seq)
	r.posts = append(r.posts, created)
	return clonePost(created), nil
}

func (r *stubPostRepo) FindByID(_ context.Context, id string) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if i := r.indexLocked(id); i >= 0 {
		return clonePost(r.posts[i]), nil
	}
	return nil, domain.NotFound(domain.KindPost)
}

func (r *stubPostRepo) List(_ context.Context, page ports.Page) ([]*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return paginate(newestFirst(r.posts), page), nil
}

func (r *stubPostRepo) ListByAuthor(_ context.Context, authorID string, page ports.Page) ([]*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Post
	for _, p := range newestFirst(r.posts) {
		if p.AuthorID == authorID {
			out = append(out, clonePost(p))
		}
	}
	return paginate(out, page), nil
}

func (r *stubPostRepo) Update(_ context.Context, id string, update ports.PostUpdate) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(id)
	if i < 0 {
		return nil, domain.NotFound(domain.KindPost)
	}
	if update.Title != nil {
		r.posts[i].Title = *update.Title
	}
	if update.Content != nil {
		r.posts[i].Content = *update.Content
	}
	r.posts[i].UpdatedAt = time.Now().UTC()
	return clonePost(r.posts[i]), nil
}

func (r *stubPostRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(id)
	if i < 0 {
		return domain.NotFound(domain.KindPost)
	}
	r.posts = append(r.posts[:i], r.posts[i+1:]...)
	return nil
}

type stubCommentRepo struct {
	mu       sync.Mutex
	seq      int
	comments []*domain.Comment
}

func cloneComment(c *domain.Comment) *domain.Comment {
	clone := *c
	return &clone
}

func (r *stubCommentRepo) indexLocked(id string) int {
	for i, c := range r.comments {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (r *stubCommentRepo) Create(_ context.Context, comment *domain.Comment) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	created := cloneComment(comment)
	created.ID = fmt.Sprintf("c%d", r.seq)
	r.comments = append(r.comments, created)
	return cloneComment(created), nil
}

func (r *stubCommentRepo) FindByID(_ context.Context, id string) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexLocked(id); i >= 0 {
		return cloneComment(r.comments[i]), nil
	}
	return nil, domain.NotFound(domain.KindComment)
}

func (r *stubCommentRepo) filter(keep func(*domain.Comment) bool, page ports.Page) []*domain.Comment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Comment
	for _, c := range newestFirst(r.comments) {
		if keep(c) {
			out = append(out, cloneComment(c))
		}
	}
	return paginate(out, page)
}

func (r *stubCommentRepo) ListByPost(_ context.Context, postID string, page ports.Page) ([]*domain.Comment, error) {
	return r.filter(func(c *domain.Comment) bool { return c.PostID == postID }, page), nil
}

func (r *stubCommentRepo) ListByAuthor(_ context.Context, authorID string, page ports.Page) ([]*domain.Comment, error) {
	return r.filter(func(c *domain.Comment) bool { return c.AuthorID == authorID }, page), nil
}

func (r *stubCommentRepo) Update(_ context.Context, id, content string) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(id)
	if i < 0 {
		return nil, domain.NotFound(domain.KindComment)
	}
	r.comments[i].Content = content
	r.comments[i].UpdatedAt = time.Now().UTC()
	return cloneComment(r.comments[i]), nil
}

func (r *stubCommentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(id)
	if i < 0 {
		return domain.NotFound(domain.KindComment)
	}
	r.comments = append(r.comments[:i], r.comments[i+1:]...)
	return nil
}

func (r *stubCommentRepo) DeleteByPost(_ context.Context, postID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.comments[:0]
	var removed int64
	for _, c := range r.comments {
		if c.PostID == postID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	r.comments = kept
	return removed, nil
}

type stubCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func (c *stubCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *stubCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *stubCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
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

type harness struct {
	users    *stubUserRepo
	posts    *stubPostRepo
	comments *stubCommentRepo
	cache    *stubCache
	bus      *memory.Bus
	runtime  *execution.Runtime
	ops      *Operations
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		users:    newStubUserRepo(),
		posts:    &stubPostRepo{},
		comments: &stubCommentRepo{},
		cache:    &stubCache{entries: make(map[string][]byte)},
		bus:      memory.NewBus(16, zerolog.Nop()),
	}
	t.Cleanup(h.bus.Close)

	log := zerolog.Nop()
	tokens := security.NewJWTManager("test-secret", time.Hour)

	h.runtime = execution.NewRuntime(execution.RuntimeConfig{
		Users:  h.users,
		Tokens: tokens,
		Cache:  h.cache,
		Bus:    h.bus,
		Logger: log,
	})
	h.ops = NewOperations(Services{
		Auth:          NewAuthService(h.users, security.NewBcryptHasher(bcrypt.MinCost), tokens, log),
		Users:         NewUserService(h.users, h.posts, h.comments),
		Posts:         NewPostService(h.posts, h.comments, log),
		Comments:      NewCommentService(h.posts, h.comments, log),
		Subscriptions: NewSubscriptionService(),
	})
	return h
}

func (h *harness) anonymous() *execution.Request {
	return h.runtime.NewRequest(context.Background(), "")
}

func (h *harness) as(token string) *execution.Request {
	return h.runtime.NewRequest(context.Background(), "Bearer "+token)
}

// register creates an account and returns its token.
func (h *harness) register(t *testing.T, email, username string) string {
	t.Helper()
	payload, err := h.ops.Register.Handle(context.Background(), h.anonymous(), ports.RegisterInput{
		Email:    email,
		Password: "password1",
		Username: username,
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return payload.Token
}

func (h *harness) createPost(t *testing.T, token, title string) *domain.Post {
	t.Helper()
	post, err := h.ops.CreatePost.Handle(context.Background(), h.as(token), ports.CreatePostInput{Title: title, Content: "body"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}
