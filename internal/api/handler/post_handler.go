package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
	"github.com/sirpyerre/discussion-api/internal/core/service"
)

type PostHandler struct {
	ops *service.Operations
}

func NewPostHandler(ops *service.Operations) *PostHandler {
	return &PostHandler{ops: ops}
}

// List returns a page of posts, newest first, each with its author.
//
// @Summary      List posts
// @Tags         posts
// @Produce      json
// @Param        skip   query     int  false  "Items to skip"
// @Param        limit  query     int  false  "Page size (max 100)"
// @Success      200    {array}   postResponse
// @Router       /v1/posts [get]
func (h *PostHandler) List(c echo.Context) error {
	page, err := bindPage(c)
	if err != nil {
		return err
	}
	posts, err := invoke(c, "posts", h.ops.Posts, page)
	if err != nil {
		return err
	}
	authors, err := invoke(c, "post.author", h.ops.PostAuthors, posts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponses(posts, authors))
}

// Get returns one post with its author and a page of its comments, newest
// first. skip and limit page the comments; limit defaults to 100 and is capped
// there.
//
// @Summary      Get post
// @Tags         posts
// @Produce      json
// @Param        id     path      string  true   "Post ID"
// @Param        skip   query     int     false  "Comments to skip"
// @Param        limit  query     int     false  "Comments to return (default and max 100)"
// @Success      200    {object}  postResponse
// @Failure      404    {object}  errorBody
// @Router       /v1/posts/{id} [get]
func (h *PostHandler) Get(c echo.Context) error {
	page, err := bindRawPage(c)
	if err != nil {
		return err
	}
	post, err := invoke(c, "post", h.ops.Post, ports.IDInput{ID: c.Param("id")})
	if err != nil {
		return err
	}

	authors, err := invoke(c, "post.author", h.ops.PostAuthors, []*domain.Post{post})
	if err != nil {
		return err
	}
	comments, err := invoke(c, "post.comments", h.ops.PostComments, ports.PostCommentsInput{Post: post, Page: page})
	if err != nil {
		return err
	}
	commentAuthors, err := invoke(c, "comment.author", h.ops.CommentAuthors, comments)
	if err != nil {
		return err
	}

	resp := toPostResponse(post, authors[0])
	resp.Comments = toCommentResponses(comments, commentAuthors)
	return c.JSON(http.StatusOK, resp)
}

// Create publishes a new post authored by the caller.
//
// @Summary      Create post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createPostRequest  true  "Post"
// @Success      201   {object}  postResponse
// @Failure      401   {object}  errorBody
// @Failure      422   {object}  errorBody
// @Router       /v1/posts [post]
func (h *PostHandler) Create(c echo.Context) error {
	var body createPostRequest
	if err := bindAndValidate(c, &body); err != nil {
		return err
	}
	post, err := invoke(c, "createPost", h.ops.CreatePost, ports.CreatePostInput{
		Title:   body.Title,
		Content: body.Content,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPostResponse(post, caller(c)))
}

// Update changes the title and/or content of a post. Author or ADMIN only.
//
// @Summary      Update post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Post ID"
// @Param        body  body      updatePostRequest  true  "Fields to change"
// @Success      200   {object}  postResponse
// @Failure      401   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Failure      404   {object}  errorBody
// @Router       /v1/posts/{id} [patch]
func (h *PostHandler) Update(c echo.Context) error {
	var body updatePostRequest
	if err := bindAndValidate(c, &body); err != nil {
		return err
	}
	post, err := invoke(c, "updatePost", h.ops.UpdatePost, ports.UpdatePostInput{
		ID:      c.Param("id"),
		Title:   body.Title,
		Content: body.Content,
	})
	if err != nil {
		return err
	}
	authors, err := invoke(c, "post.author", h.ops.PostAuthors, []*domain.Post{post})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponse(post, authors[0]))
}

// Delete removes a post and all of its comments. Author or ADMIN only.
//
// @Summary      Delete post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  deletedResponse
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Failure      404  {object}  errorBody
// @Router       /v1/posts/{id} [delete]
func (h *PostHandler) Delete(c echo.Context) error {
	ok, err := invoke(c, "deletePost", h.ops.DeletePost, ports.IDInput{ID: c.Param("id")})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deletedResponse{Deleted: ok})
}
