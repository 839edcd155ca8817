package ports

import "github.com/sirpyerre/discussion-api/internal/core/domain"

// RegisterInput carries the register mutation arguments.
type RegisterInput struct {
	Email    string
	Password string
	Username string
}

// LoginInput carries the login mutation arguments.
type LoginInput struct {
	Email    string
	Password string
}

// AuthPayload is returned by register and login.
type AuthPayload struct {
	Token string
	User  *domain.User
}

// IDInput is the argument of every single-entity operation.
type IDInput struct {
	ID string
}

// CommentsInput carries the comments query arguments.
type CommentsInput struct {
	PostID string
	Page   Page
}

// PostCommentsInput pages the Post.comments field. A zero Limit means MaxLimit.
type PostCommentsInput struct {
	Post *domain.Post
	Page Page
}

// AuthorInput selects the posts or comments written by one user.
type AuthorInput struct {
	AuthorID string
	Page     Page
}

// CreatePostInput carries the createPost mutation arguments.
type CreatePostInput struct {
	Title   string
	Content string
}

// UpdatePostInput carries the updatePost mutation arguments; nil fields are left unchanged.
type UpdatePostInput struct {
	ID      string
	Title   *string
	Content *string
}

// CreateCommentInput carries the createComment mutation arguments.
type CreateCommentInput struct {
	PostID  string
	Content string
}

// UpdateCommentInput carries the updateComment mutation arguments.
type UpdateCommentInput struct {
	ID      string
	Content string
}

// CommentAddedInput carries the commentAdded subscription arguments.
type CommentAddedInput struct {
	PostID string
}

// NoArgs is the argument type of operations that take none.
type NoArgs struct{}
