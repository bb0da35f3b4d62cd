// Package storage defines the persistence contracts for users and comments.
package storage

import (
	"context"
	"errors"

	"github.com/emilythestrangee/comment-system/backend/internal/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

type UserStore interface {
	// CreateUser returns ErrDuplicateEmail when the email is taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	// GetComment loads a comment with its author projection.
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	// ListComments returns one page of comments and the size of the filtered set.
	ListComments(ctx context.Context, q ListQuery) ([]*models.Comment, int64, error)
	UpdateContent(ctx context.Context, id, content string) error
	// UpdateVotes replaces both vote sets of a comment in a single write.
	UpdateVotes(ctx context.Context, id string, likes, dislikes models.VoteSet) error
	// DeleteWithReplies removes the comment and its direct replies and
	// reports how many rows went away.
	DeleteWithReplies(ctx context.Context, id string) (int64, error)
}

// Store is what the services need from a backend.
type Store interface {
	UserStore
	CommentStore
}

type ParentMode int

const (
	// AnyParent applies no nesting filter.
	AnyParent ParentMode = iota
	TopLevel
	ChildOf
)

type ParentFilter struct {
	Mode     ParentMode
	ParentID string
}

type ListQuery struct {
	Parent ParentFilter
	Sort   SortStrategy
	Offset int
	Limit  int
}
