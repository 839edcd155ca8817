package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/execution"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
)

// PostService implements the post queries, mutations and Post field resolvers.
type PostService struct {
	posts    ports.PostRepository
	comments ports.CommentRepository
	log      zerolog.Logger
}

func NewPostService(posts ports.PostRepository, comments ports.CommentRepository, log zerolog.Logger) *PostService {
	return &PostService{posts: posts, comments: comments, log: log}
}

// Post reads through the post:{id} cache entry.
func (s *PostService) Post(ctx context.Context, req *execution.Request, in ports.IDInput) (*domain.Post, error) {
	post, err := execution.ReadThrough(ctx, req.Cache(), PostKey(in.ID), func(ctx context.Context) (*domain.Post, error) {
		return s.posts.FindByID(ctx, in.ID)
	})
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, domain.NotFound(domain.KindPost)
	}
	return post, nil
}

// Posts lists posts newest first, straight from the store.
func (s *PostService) Posts(ctx context.Context, _ *execution.Request, page ports.Page) ([]*domain.Post, error) {
	return s.posts.List(ctx, page.Normalize())
}

func (s *PostService) CreatePost(ctx context.Context, req *execution.Request, in ports.CreatePostInput) (*domain.Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || in.Content == "" {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	post, err := s.posts.Create(ctx, &domain.Post{
		Title:     title,
		Content:   in.Content,
		AuthorID:  req.Caller.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	if err := req.Cache().Invalidate(ctx, LatestPostsKey); err != nil {
		return nil, err
	}
	if err := req.Bus().Publish(ctx, domain.PostCreated(post)); err != nil {
		s.log.Error().Err(err).Str("post_id", post.ID).Msg("publish POST_CREATED failed")
		return nil, fmt.Errorf("create post: publish: %w", err)
	}

	s.log.Info().Str("post_id", post.ID).Str("user_id", req.Caller.ID).Msg("post created")
	return post, nil
}

// UpdatePost applies the non-empty fields of in. The target is read from the
// store, never the cache, before ownership is checked.
func (s *PostService) UpdatePost(ctx context.Context, req *execution.Request, in ports.UpdatePostInput) (*domain.Post, error) {
	post, err := s.posts.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if !req.Caller.CanModify(post.AuthorID) {
		return nil, domain.ErrAuthorizationDenied
	}

	var update ports.PostUpdate
	if in.Title != nil {
		if title := strings.TrimSpace(*in.Title); title != "" {
			update.Title = &title
		}
	}
	if in.Content != nil && *in.Content != "" {
		update.Content = in.Content
	}

	updated, err := s.posts.Update(ctx, in.ID, update)
	if err != nil {
		return nil, err
	}

	if err := req.Cache().Invalidate(ctx, PostKey(in.ID), LatestPostsKey); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePost removes the comments of the post first, then the post, so an
// interrupted cascade never leaves orphaned comments behind.
func (s *PostService) DeletePost(ctx context.Context, req *execution.Request, in ports.IDInput) (bool, error) {
	post, err := s.posts.FindByID(ctx, in.ID)
	if err != nil {
		return false, err
	}
	if !req.Caller.CanModify(post.AuthorID) {
		return false, domain.ErrAuthorizationDenied
	}

	removed, err := s.comments.DeleteByPost(ctx, in.ID)
	if err != nil {
		return false, fmt.Errorf("delete post: comments: %w", err)
	}
	if err := s.posts.Delete(ctx, in.ID); err != nil {
		return false, err
	}

	if err := req.Cache().Invalidate(ctx, PostKey(in.ID), LatestPostsKey); err != nil {
		return false, err
	}

	s.log.Info().Str("post_id", in.ID).Int64("comments_removed", removed).Msg("post deleted")
	return true, nil
}

// Authors resolves Post.author for every post in one loader batch.
func (s *PostService) Authors(ctx context.Context, req *execution.Request, posts []*domain.Post) ([]*domain.User, error) {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.AuthorID
	}
	return loadAuthors(ctx, req, ids)
}

// Comments resolves Post.comments with a direct store query, newest first.
// Without an explicit limit it returns up to MaxLimit comments.
func (s *PostService) Comments(ctx context.Context, _ *execution.Request, in ports.PostCommentsInput) ([]*domain.Comment, error) {
	page := in.Page
	if page.Limit <= 0 {
		page.Limit = ports.MaxLimit
	}
	return s.comments.ListByPost(ctx, in.Post.ID, page.Normalize())
}
