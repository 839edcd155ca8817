package service

import (
	"context"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/execution"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
)

// UserService answers user queries and the User field resolvers.
type UserService struct {
	users    ports.UserRepository
	posts    ports.PostRepository
	comments ports.CommentRepository
}

func NewUserService(users ports.UserRepository, posts ports.PostRepository, comments ports.CommentRepository) *UserService {
	return &UserService{users: users, posts: posts, comments: comments}
}

// Me returns the caller, or nil for anonymous requests.
func (s *UserService) Me(_ context.Context, req *execution.Request, _ ports.NoArgs) (*domain.User, error) {
	return req.Caller, nil
}

// User returns the user with the given id, or nil if there is none.
func (s *UserService) User(ctx context.Context, req *execution.Request, in ports.IDInput) (*domain.User, error) {
	return req.Users.Load(ctx, in.ID)
}

func (s *UserService) Users(ctx context.Context, _ *execution.Request, page ports.Page) ([]*domain.User, error) {
	return s.users.List(ctx, page.Normalize())
}

// Posts resolves User.posts.
func (s *UserService) Posts(ctx context.Context, _ *execution.Request, in ports.AuthorInput) ([]*domain.Post, error) {
	return s.posts.ListByAuthor(ctx, in.AuthorID, in.Page.Normalize())
}

// Comments resolves User.comments.
func (s *UserService) Comments(ctx context.Context, _ *execution.Request, in ports.AuthorInput) ([]*domain.Comment, error) {
	return s.comments.ListByAuthor(ctx, in.AuthorID, in.Page.Normalize())
}
