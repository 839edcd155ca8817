package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
	"github.com/sirpyerre/discussion-api/internal/core/service"
)

type UserHandler struct {
	ops *service.Operations
}

func NewUserHandler(ops *service.Operations) *UserHandler {
	return &UserHandler{ops: ops}
}

// Me returns the authenticated caller, or null for anonymous requests.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Router       /v1/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, err := invoke(c, "me", h.ops.Me, ports.NoArgs{})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// List returns a page of users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        skip   query     int  false  "Items to skip"
// @Param        limit  query     int  false  "Page size (max 100)"
// @Success      200    {array}   userResponse
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	page, err := bindPage(c)
	if err != nil {
		return err
	}
	users, err := invoke(c, "users", h.ops.Users, page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponses(users))
}

// Get returns one user by id.
//
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  userResponse
// @Failure      404  {object}  errorBody
// @Router       /v1/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := invoke(c, "user", h.ops.User, ports.IDInput{ID: c.Param("id")})
	if err != nil {
		return err
	}
	if user == nil {
		return domain.NotFound("user")
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Posts returns the posts written by a user, newest first.
//
// @Summary      Posts by user
// @Tags         users
// @Produce      json
// @Param        id     path      string  true   "User ID"
// @Param        skip   query     int     false  "Items to skip"
// @Param        limit  query     int     false  "Page size (max 100)"
// @Success      200    {array}   postResponse
// @Router       /v1/users/{id}/posts [get]
func (h *UserHandler) Posts(c echo.Context) error {
	page, err := bindPage(c)
	if err != nil {
		return err
	}
	posts, err := invoke(c, "user.posts", h.ops.UserPosts, ports.AuthorInput{AuthorID: c.Param("id"), Page: page})
	if err != nil {
		return err
	}
	authors, err := invoke(c, "post.author", h.ops.PostAuthors, posts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponses(posts, authors))
}

// Comments returns the comments written by a user, each with its post.
//
// @Summary      Comments by user
// @Tags         users
// @Produce      json
// @Param        id     path      string  true   "User ID"
// @Param        skip   query     int     false  "Items to skip"
// @Param        limit  query     int     false  "Page size (max 100)"
// @Success      200    {array}   commentResponse
// @Router       /v1/users/{id}/comments [get]
func (h *UserHandler) Comments(c echo.Context) error {
	page, err := bindPage(c)
	if err != nil {
		return err
	}
	comments, err := invoke(c, "user.comments", h.ops.UserComments, ports.AuthorInput{AuthorID: c.Param("id"), Page: page})
	if err != nil {
		return err
	}

	out := toCommentResponses(comments, nil)
	for i, cm := range comments {
		post, err := invoke(c, "comment.post", h.ops.CommentPost, cm)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if post != nil {
			p := toPostResponse(post, nil)
			out[i].Post = &p
		}
	}
	return c.JSON(http.StatusOK, out)
}
