package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/discussion-api/internal/api/metrics"
	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
	"github.com/sirpyerre/discussion-api/internal/core/service"
)

const DefaultKeepAlive = 15 * time.Second

// SubscriptionHandler streams bus events to clients as server-sent events.
type SubscriptionHandler struct {
	ops       *service.Operations
	keepAlive time.Duration
}

func NewSubscriptionHandler(ops *service.Operations, keepAlive time.Duration) *SubscriptionHandler {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &SubscriptionHandler{ops: ops, keepAlive: keepAlive}
}

// PostCreated streams every post created after the connection opens.
//
// @Summary      Stream new posts
// @Tags         subscriptions
// @Produce      text/event-stream
// @Success      200  {object}  postResponse  "event: postCreated"
// @Router       /v1/subscriptions/posts [get]
func (h *SubscriptionHandler) PostCreated(c echo.Context) error {
	sub, err := invoke(c, "postCreated", h.ops.PostCreated, ports.NoArgs{})
	if err != nil {
		return err
	}
	return h.stream(c, sub)
}

// CommentAdded streams every comment created after the connection opens.
// Each event carries postId; clients filter on it.
//
// @Summary      Stream new comments
// @Tags         subscriptions
// @Produce      text/event-stream
// @Param        postId  query     string  true  "Post ID"
// @Success      200     {object}  commentResponse  "event: commentAdded"
// @Failure      400     {object}  errorBody
// @Router       /v1/subscriptions/comments [get]
func (h *SubscriptionHandler) CommentAdded(c echo.Context) error {
	postID := c.QueryParam("postId")
	if postID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "postId is required")
	}
	sub, err := invoke(c, "commentAdded", h.ops.CommentAdded, ports.CommentAddedInput{PostID: postID})
	if err != nil {
		return err
	}
	return h.stream(c, sub)
}

func (h *SubscriptionHandler) stream(c echo.Context, sub ports.Subscription) error {
	defer sub.Close()

	metrics.ActiveSubscriptions.Inc()
	defer metrics.ActiveSubscriptions.Dec()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	done := c.Request().Context().Done()
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				if err := sub.Err(); err != nil {
					return writeEvent(w, "error", errorBody{Error: err.Error(), Code: "UNAVAILABLE"})
				}
				return nil
			}
			if err := writeEvent(w, eventName(ev.Topic), eventPayload(ev)); err != nil {
				return nil
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case <-done:
			return nil
		}
	}
}

func writeEvent(w *echo.Response, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	w.Flush()
	return nil
}

func eventName(topic domain.Topic) string {
	switch topic {
	case domain.TopicPostCreated:
		return "postCreated"
	case domain.TopicCommentAdded:
		return "commentAdded"
	default:
		return string(topic)
	}
}

func eventPayload(ev domain.Event) any {
	switch {
	case ev.Post != nil:
		return toPostResponse(ev.Post, nil)
	case ev.Comment != nil:
		return toCommentResponse(ev.Comment, nil)
	default:
		return ev
	}
}
