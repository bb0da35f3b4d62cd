// Package realtime pushes best-effort comment events to connected clients.
package realtime

import (
	"context"

	"github.com/emilythestrangee/comment-system/backend/internal/models"
)

const (
	EventCommentCreated  = "comment:created"
	EventCommentUpdated  = "comment:updated"
	EventCommentDeleted  = "comment:deleted"
	EventCommentLiked    = "comment:liked"
	EventCommentDisliked = "comment:disliked"
)

// Event is one push frame. Data must be JSON-encodable.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Notifier delivers events without any delivery or ordering guarantee.
type Notifier interface {
	Broadcast(ctx context.Context, ev Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Broadcast(context.Context, Event) error { return nil }

type CommentPayload struct {
	Comment       models.CommentView `json:"comment"`
	ParentComment *string            `json:"parentComment"`
}

type DeletedPayload struct {
	CommentID     string  `json:"commentId"`
	ParentComment *string `json:"parentComment"`
}

type VotePayload struct {
	CommentID     string            `json:"commentId"`
	LikesCount    int               `json:"likesCount"`
	DislikesCount int               `json:"dislikesCount"`
	Action        models.VoteAction `json:"action"`
}

func CommentCreated(c *models.Comment) Event {
	return Event{Name: EventCommentCreated, Data: CommentPayload{Comment: c.View(), ParentComment: c.ParentCommentID}}
}

func CommentUpdated(c *models.Comment) Event {
	return Event{Name: EventCommentUpdated, Data: CommentPayload{Comment: c.View()}}
}

func CommentDeleted(id string, parent *string) Event {
	return Event{Name: EventCommentDeleted, Data: DeletedPayload{CommentID: id, ParentComment: parent}}
}

func CommentVoted(c *models.Comment, action models.VoteAction) Event {
	name := EventCommentLiked
	if action == models.ActionDislike || action == models.ActionUndislike {
		name = EventCommentDisliked
	}
	return Event{Name: name, Data: VotePayload{
		CommentID:     c.ID,
		LikesCount:    c.Likes.Len(),
		DislikesCount: c.Dislikes.Len(),
		Action:        action,
	}}
}
