package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
	"github.com/sirpyerre/discussion-api/internal/core/service"
)

type CommentHandler struct {
	ops *service.Operations
}

func NewCommentHandler(ops *service.Operations) *CommentHandler {
	return &CommentHandler{ops: ops}
}

// List returns a page of a post's comments, newest first.
//
// @Summary      List comments of a post
// @Tags         comments
// @Produce      json
// @Param        id     path      string  true   "Post ID"
// @Param        skip   query     int     false  "Items to skip"
// @Param        limit  query     int     false  "Page size (max 100)"
// @Success      200    {array}   commentResponse
// @Router       /v1/posts/{id}/comments [get]
func (h *CommentHandler) List(c echo.Context) error {
	page, err := bindPage(c)
	if err != nil {
		return err
	}
	comments, err := invoke(c, "comments", h.ops.Comments, ports.CommentsInput{PostID: c.Param("id"), Page: page})
	if err != nil {
		return err
	}
	authors, err := invoke(c, "comment.author", h.ops.CommentAuthors, comments)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCommentResponses(comments, authors))
}

// Create adds a comment to a post.
//
// @Summary      Comment on a post
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Post ID"
// @Param        body  body      commentRequest  true  "Comment"
// @Success      201   {object}  commentResponse
// @Failure      401   {object}  errorBody
// @Failure      404   {object}  errorBody
// @Router       /v1/posts/{id}/comments [post]
func (h *CommentHandler) Create(c echo.Context) error {
	var body commentRequest
	if err := bindAndValidate(c, &body); err != nil {
		return err
	}
	comment, err := invoke(c, "createComment", h.ops.CreateComment, ports.CreateCommentInput{
		PostID:  c.Param("id"),
		Content: body.Content,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toCommentResponse(comment, caller(c)))
}

// Update changes the content of a comment. Author or ADMIN only.
//
// @Summary      Update comment
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Comment ID"
// @Param        body  body      commentRequest  true  "New content"
// @Success      200   {object}  commentResponse
// @Failure      401   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Failure      404   {object}  errorBody
// @Router       /v1/comments/{id} [patch]
func (h *CommentHandler) Update(c echo.Context) error {
	var body commentRequest
	if err := bindAndValidate(c, &body); err != nil {
		return err
	}
	comment, err := invoke(c, "updateComment", h.ops.UpdateComment, ports.UpdateCommentInput{
		ID:      c.Param("id"),
		Content: body.Content,
	})
	if err != nil {
		return err
	}
	authors, err := invoke(c, "comment.author", h.ops.CommentAuthors, []*domain.Comment{comment})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCommentResponse(comment, authors[0]))
}

// Delete removes a comment. Author or ADMIN only.
//
// @Summary      Delete comment
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Comment ID"
// @Success      200  {object}  deletedResponse
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Failure      404  {object}  errorBody
// @Router       /v1/comments/{id} [delete]
func (h *CommentHandler) Delete(c echo.Context) error {
	ok, err := invoke(c, "deleteComment", h.ops.DeleteComment, ports.IDInput{ID: c.Param("id")})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deletedResponse{Deleted: ok})
}
