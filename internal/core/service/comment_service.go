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

// CommentService implements the comment queries, mutations and Comment field resolvers.
type CommentService struct {
	posts    ports.PostRepository
	comments ports.CommentRepository
	log      zerolog.Logger
}

func NewCommentService(posts ports.PostRepository, comments ports.CommentRepository, log zerolog.Logger) *CommentService {
	return &CommentService{posts: posts, comments: comments, log: log}
}

// Comments lists the comments of a post newest first.
func (s *CommentService) Comments(ctx context.Context, _ *execution.Request, in ports.CommentsInput) ([]*domain.Comment, error) {
	return s.comments.ListByPost(ctx, in.PostID, in.Page.Normalize())
}

// CreateComment checks the post against the store rather than the cache, so
// a stale cached post cannot be commented on after it was deleted.
func (s *CommentService) CreateComment(ctx context.Context, req *execution.Request, in ports.CreateCommentInput) (*domain.Comment, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, domain.ErrInvalidInput
	}

	if _, err := s.posts.FindByID(ctx, in.PostID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	comment, err := s.comments.Create(ctx, &domain.Comment{
		Content:   in.Content,
		AuthorID:  req.Caller.ID,
		PostID:    in.PostID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	if err := req.Bus().Publish(ctx, domain.CommentAdded(comment)); err != nil {
		s.log.Error().Err(err).Str("comment_id", comment.ID).Msg("publish COMMENT_ADDED failed")
		return nil, fmt.Errorf("create comment: publish: %w", err)
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, req *execution.Request, in ports.UpdateCommentInput) (*domain.Comment, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, domain.ErrInvalidInput
	}

	comment, err := s.comments.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if !req.Caller.CanModify(comment.AuthorID) {
		return nil, domain.ErrAuthorizationDenied
	}

	return s.comments.Update(ctx, in.ID, in.Content)
}

func (s *CommentService) DeleteComment(ctx context.Context, req *execution.Request, in ports.IDInput) (bool, error) {
	comment, err := s.comments.FindByID(ctx, in.ID)
	if err != nil {
		return false, err
	}
	if !req.Caller.CanModify(comment.AuthorID) {
		return false, domain.ErrAuthorizationDenied
	}

	if err := s.comments.Delete(ctx, in.ID); err != nil {
		return false, err
	}
	return true, nil
}

// Authors resolves Comment.author for every comment in one loader batch.
func (s *CommentService) Authors(ctx context.Context, req *execution.Request, comments []*domain.Comment) ([]*domain.User, error) {
	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.AuthorID
	}
	return loadAuthors(ctx, req, ids)
}

// Post resolves Comment.post with a direct store query.
func (s *CommentService) Post(ctx context.Context, _ *execution.Request, comment *domain.Comment) (*domain.Post, error) {
	return s.posts.FindByID(ctx, comment.PostID)
}
