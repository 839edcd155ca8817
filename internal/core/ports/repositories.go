package ports

import (
	"context"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
)

// UserRepository is the durable store for users. Email and username are
// unique; Create returns a domain.ConflictError when either collides.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByID returns domain.ErrNotFound (as *domain.NotFoundError) when absent.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByIDs returns the users that exist, keyed by id. Missing ids are
	// simply absent from the map.
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByEmailOrUsername returns the first user matching either field.
	FindByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error)
	List(ctx context.Context, page Page) ([]*domain.User, error)
}

// PostRepository is the durable store for posts.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) (*domain.Post, error)
	FindByID(ctx context.Context, id string) (*domain.Post, error)
	// List returns posts newest first.
	List(ctx context.Context, page Page) ([]*domain.Post, error)
	ListByAuthor(ctx context.Context, authorID string, page Page) ([]*domain.Post, error)
	// Update sets only the non-nil fields plus updated_at and returns the
	// post as stored after the update.
	Update(ctx context.Context, id string, update PostUpdate) (*domain.Post, error)
	Delete(ctx context.Context, id string) error
}

// CommentRepository is the durable store for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	FindByID(ctx context.Context, id string) (*domain.Comment, error)
	// ListByPost returns the comments of a post newest first.
	ListByPost(ctx context.Context, postID string, page Page) ([]*domain.Comment, error)
	ListByAuthor(ctx context.Context, authorID string, page Page) ([]*domain.Comment, error)
	Update(ctx context.Context, id, content string) (*domain.Comment, error)
	Delete(ctx context.Context, id string) error
	// DeleteByPost removes every comment of a post and reports how many went.
	DeleteByPost(ctx context.Context, postID string) (int64, error)
}

// PostUpdate carries the optional fields of a post update. Nil means unchanged.
type PostUpdate struct {
	Title   *string
	Content *string
}
