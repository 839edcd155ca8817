package domain

// Topic names a channel on the event bus.
type Topic string

const (
	TopicPostCreated  Topic = "POST_CREATED"
	TopicCommentAdded Topic = "COMMENT_ADDED"
)

// Event is a change notification delivered to live subscribers. Which of the
// optional fields is set depends on Topic.
type Event struct {
	Topic   Topic    `json:"topic"`
	Post    *Post    `json:"post,omitempty"`
	Comment *Comment `json:"comment,omitempty"`
	PostID  string   `json:"postId,omitempty"`
}

// PostCreated builds the POST_CREATED event for p.
func PostCreated(p *Post) Event {
	return Event{Topic: TopicPostCreated, Post: p}
}

// CommentAdded builds the COMMENT_ADDED event for c.
func CommentAdded(c *Comment) Event {
	return Event{Topic: TopicCommentAdded, Comment: c, PostID: c.PostID}
}
