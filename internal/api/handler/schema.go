package handler

import (
	"time"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
)

// --- Requests ---

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Username string `json:"username" validate:"required,max=64"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type createPostRequest struct {
	Title   string `json:"title"   validate:"required,max=300"`
	Content string `json:"content" validate:"required"`
}

type updatePostRequest struct {
	Title   *string `json:"title"   validate:"omitnil,min=1,max=300"`
	Content *string `json:"content" validate:"omitnil,min=1"`
}

type commentRequest struct {
	Content string `json:"content" validate:"required"`
}

// --- Responses ---

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type authResponse struct {
	Token string        `json:"token"`
	User  *userResponse `json:"user"`
}

type postResponse struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	AuthorID  string            `json:"authorId"`
	Author    *userResponse     `json:"author"`
	Comments  []commentResponse `json:"comments,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type commentResponse struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	AuthorID  string        `json:"authorId"`
	Author    *userResponse `json:"author,omitempty"`
	PostID    string        `json:"postId"`
	Post      *postResponse `json:"post,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

type deletedResponse struct {
	Deleted bool `json:"deleted"`
}

// --- Mappers ---

func toUserResponse(u *domain.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toUserResponses(users []*domain.User) []*userResponse {
	out := make([]*userResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return out
}

func toAuthResponse(p *ports.AuthPayload) authResponse {
	return authResponse{Token: p.Token, User: toUserResponse(p.User)}
}

func toPostResponse(p *domain.Post, author *domain.User) postResponse {
	return postResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		AuthorID:  p.AuthorID,
		Author:    toUserResponse(author),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// toPostResponses zips posts with their resolved authors; authors may be nil.
func toPostResponses(posts []*domain.Post, authors []*domain.User) []postResponse {
	out := make([]postResponse, len(posts))
	for i, p := range posts {
		var author *domain.User
		if i < len(authors) {
			author = authors[i]
		}
		out[i] = toPostResponse(p, author)
	}
	return out
}

func toCommentResponse(c *domain.Comment, author *domain.User) commentResponse {
	return commentResponse{
		ID:        c.ID,
		Content:   c.Content,
		AuthorID:  c.AuthorID,
		Author:    toUserResponse(author),
		PostID:    c.PostID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toCommentResponses(comments []*domain.Comment, authors []*domain.User) []commentResponse {
	out := make([]commentResponse, len(comments))
	for i, c := range comments {
		var author *domain.User
		if i < len(authors) {
			author = authors[i]
		}
		out[i] = toCommentResponse(c, author)
	}
	return out
}

// errorBody documents the shape written by the central error handler.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
