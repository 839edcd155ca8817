package service

import (
	"context"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/execution"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
)

type operationFunc[A, R any] func(ctx context.Context, req *execution.Request, args A) (R, error)

// open exposes f to every caller, anonymous included.
func open[A, R any](f operationFunc[A, R]) execution.Handler[A, R] {
	return execution.HandlerFunc[A, R](f)
}

// authenticated exposes f to authenticated callers only.
func authenticated[A, R any](f operationFunc[A, R]) execution.Handler[A, R] {
	return execution.WithAuthentication(open(f))
}

// Operations binds every public operation to its gated handler. Transports
// invoke these and nothing else.
type Operations struct {
	Me    execution.Handler[ports.NoArgs, *domain.User]
	User  execution.Handler[ports.IDInput, *domain.User]
	Users execution.Handler[ports.Page, []*domain.User]

	Post     execution.Handler[ports.IDInput, *domain.Post]
	Posts    execution.Handler[ports.Page, []*domain.Post]
	Comments execution.Handler[ports.CommentsInput, []*domain.Comment]

	Register execution.Handler[ports.RegisterInput, *ports.AuthPayload]
	Login    execution.Handler[ports.LoginInput, *ports.AuthPayload]

	CreatePost    execution.Handler[ports.CreatePostInput, *domain.Post]
	UpdatePost    execution.Handler[ports.UpdatePostInput, *domain.Post]
	DeletePost    execution.Handler[ports.IDInput, bool]
	CreateComment execution.Handler[ports.CreateCommentInput, *domain.Comment]
	UpdateComment execution.Handler[ports.UpdateCommentInput, *domain.Comment]
	DeleteComment execution.Handler[ports.IDInput, bool]

	PostCreated  execution.Handler[ports.NoArgs, ports.Subscription]
	CommentAdded execution.Handler[ports.CommentAddedInput, ports.Subscription]

	// Field resolvers.
	PostAuthors    execution.Handler[[]*domain.Post, []*domain.User]
	PostComments   execution.Handler[ports.PostCommentsInput, []*domain.Comment]
	CommentAuthors execution.Handler[[]*domain.Comment, []*domain.User]
	CommentPost    execution.Handler[*domain.Comment, *domain.Post]
	UserPosts      execution.Handler[ports.AuthorInput, []*domain.Post]
	UserComments   execution.Handler[ports.AuthorInput, []*domain.Comment]
}

// Services groups the service instances Operations is built from.
type Services struct {
	Auth          *AuthService
	Users         *UserService
	Posts         *PostService
	Comments      *CommentService
	Subscriptions *SubscriptionService
}

func NewOperations(s Services) *Operations {
	return &Operations{
		Me:    open(s.Users.Me),
		User:  open(s.Users.User),
		Users: open(s.Users.Users),

		Post:     open(s.Posts.Post),
		Posts:    open(s.Posts.Posts),
		Comments: open(s.Comments.Comments),

		Register: open(s.Auth.Register),
		Login:    open(s.Auth.Login),

		CreatePost:    authenticated(s.Posts.CreatePost),
		UpdatePost:    authenticated(s.Posts.UpdatePost),
		DeletePost:    authenticated(s.Posts.DeletePost),
		CreateComment: authenticated(s.Comments.CreateComment),
		UpdateComment: authenticated(s.Comments.UpdateComment),
		DeleteComment: authenticated(s.Comments.DeleteComment),

		PostCreated:  open(s.Subscriptions.PostCreated),
		CommentAdded: open(s.Subscriptions.CommentAdded),

		PostAuthors:    open(s.Posts.Authors),
		PostComments:   open(s.Posts.Comments),
		CommentAuthors: open(s.Comments.Authors),
		CommentPost:    open(s.Comments.Post),
		UserPosts:      open(s.Users.Posts),
		UserComments:   open(s.Users.Comments),
	}
}

// AdminOnly restricts h to ADMIN callers.
func AdminOnly[A, R any](h execution.Handler[A, R]) execution.Handler[A, R] {
	return execution.WithRole(h, domain.RoleAdmin)
}

// ModeratorOnly restricts h to MODERATOR and ADMIN callers.
func ModeratorOnly[A, R any](h execution.Handler[A, R]) execution.Handler[A, R] {
	return execution.WithRole(h, domain.RoleModerator, domain.RoleAdmin)
}
