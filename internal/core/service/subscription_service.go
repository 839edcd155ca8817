package service

import (
	"context"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/execution"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
)

// SubscriptionService opens live event streams. Subscriptions end with ctx.
type SubscriptionService struct{}

func NewSubscriptionService() *SubscriptionService { return &SubscriptionService{} }

func (s *SubscriptionService) PostCreated(ctx context.Context, req *execution.Request, _ ports.NoArgs) (ports.Subscription, error) {
	return req.Bus().Subscribe(ctx, domain.TopicPostCreated)
}

// CommentAdded streams every new comment. The post id is accepted but not
// used to filter; clients filter on Event.PostID themselves.
func (s *SubscriptionService) CommentAdded(ctx context.Context, req *execution.Request, _ ports.CommentAddedInput) (ports.Subscription, error) {
	return req.Bus().Subscribe(ctx, domain.TopicCommentAdded)
}
