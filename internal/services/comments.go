package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/emilythestrangee/comment-system/backend/internal/apperror"
	"github.com/emilythestrangee/comment-system/backend/internal/models"
	"github.com/emilythestrangee/comment-system/backend/internal/realtime"
	"github.com/emilythestrangee/comment-system/backend/internal/storage"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type CommentService struct {
	store    storage.CommentStore
	notifier realtime.Notifier
	log      *slog.Logger
}

// NewCommentService wires the store and notifier. A nil notifier drops events.
func NewCommentService(store storage.CommentStore, notifier realtime.Notifier, lg *slog.Logger) *CommentService {
	if notifier == nil {
		notifier = realtime.Nop{}
	}
	return &CommentService{store: store, notifier: notifier, log: lg}
}

// ListParams is a validated listing request.
type ListParams struct {
	Page   int
	Limit  int
	Sort   storage.SortStrategy
	Parent storage.ParentFilter
}

// ParseListParams validates raw query values. Empty page, limit and sort take
// their defaults; parent is only applied when hasParent is set, "null"
// selecting top-level comments.
func ParseListParams(page, limit, sort, parent string, hasParent bool) (ListParams, error) {
	p := ListParams{Page: DefaultPage, Limit: DefaultLimit}

	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			return ListParams{}, apperror.Validation("Page must be a positive integer")
		}
		p.Page = n
	}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > MaxLimit {
			return ListParams{}, apperror.Validation("Limit must be between 1 and 100")
		}
		p.Limit = n
	}

	strategy, err := storage.StrategyFor(storage.SortKey(sort))
	if err != nil {
		return ListParams{}, apperror.Validation("Sort must be one of: newest, oldest, mostLiked, mostDisliked")
	}
	p.Sort = strategy

	if hasParent {
		switch {
		case parent == "null":
			p.Parent = storage.ParentFilter{Mode: storage.TopLevel}
		case validID(parent):
			p.Parent = storage.ParentFilter{Mode: storage.ChildOf, ParentID: parent}
		default:
			return ListParams{}, apperror.Validation("Invalid parent comment ID")
		}
	}
	return p, nil
}

type Pagination struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalComments int64 `json:"totalComments"`
	HasNextPage   bool  `json:"hasNextPage"`
	HasPrevPage   bool  `json:"hasPrevPage"`
}

func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return Pagination{
		CurrentPage:   page,
		TotalPages:    totalPages,
		TotalComments: total,
		HasNextPage:   page < totalPages,
		HasPrevPage:   page > 1,
	}
}

type CommentPage struct {
	Comments   []models.CommentView `json:"comments"`
	Pagination Pagination           `json:"pagination"`
}

func (s *CommentService) GetComments(ctx context.Context, p ListParams) (*CommentPage, error) {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		p.Limit = DefaultLimit
	}

	comments, total, err := s.store.ListComments(ctx, storage.ListQuery{
		Parent: p.Parent,
		Sort:   p.Sort,
		Offset: pageOffset(p.Page, p.Limit),
		Limit:  p.Limit,
	})
	if err != nil {
		return nil, apperror.Internal("Failed to fetch comments", err)
	}

	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, c.View())
	}
	return &CommentPage{Comments: views, Pagination: NewPagination(p.Page, p.Limit, total)}, nil
}

// pageOffset saturates instead of overflowing for very large pages.
func pageOffset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

// GetReplies lists the direct replies of a comment, newest first.
func (s *CommentService) GetReplies(ctx context.Context, id string, page, limit int) (*CommentPage, error) {
	if !validID(id) {
		return nil, apperror.Validation("Invalid comment ID")
	}
	return s.GetComments(ctx, ListParams{
		Page:   page,
		Limit:  limit,
		Sort:   storage.TimestampSort{},
		Parent: storage.ParentFilter{Mode: storage.ChildOf, ParentID: id},
	})
}

func (s *CommentService) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	if !validID(id) {
		return nil, apperror.Validation("Invalid comment ID")
	}
	return s.load(ctx, id, "Comment not found")
}

func (s *CommentService) CreateComment(ctx context.Context, authorID string, req models.CreateCommentRequest) (*models.Comment, error) {
	content, err := normalizeContent(req.Content)
	if err != nil {
		return nil, err
	}

	var parentID *string
	if req.ParentComment != nil {
		id := strings.TrimSpace(*req.ParentComment)
		if !validID(id) {
			return nil, apperror.Validation("Invalid parent comment ID")
		}
		if _, err := s.load(ctx, id, "Parent comment not found"); err != nil {
			return nil, err
		}
		parentID = &id
	}

	comment := &models.Comment{
		Content:         content,
		AuthorID:        authorID,
		Likes:           models.NewVoteSet(),
		Dislikes:        models.NewVoteSet(),
		ParentCommentID: parentID,
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, apperror.Internal("Failed to create comment", err)
	}

	created, err := s.load(ctx, comment.ID, "Comment not found")
	if err != nil {
		return nil, err
	}
	s.emit(ctx, realtime.CommentCreated(created))
	return created, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, id, userID string, req models.UpdateCommentRequest) (*models.Comment, error) {
	if !validID(id) {
		return nil, apperror.Validation("Invalid comment ID")
	}
	content, err := normalizeContent(req.Content)
	if err != nil {
		return nil, err
	}

	comment, err := s.load(ctx, id, "Comment not found")
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != userID {
		return nil, apperror.Forbidden("You can only edit your own comments")
	}

	if err := s.store.UpdateContent(ctx, id, content); err != nil {
		return nil, s.storeError(err, "Comment not found", "Failed to update comment")
	}

	updated, err := s.load(ctx, id, "Comment not found")
	if err != nil {
		return nil, err
	}
	s.emit(ctx, realtime.CommentUpdated(updated))
	return updated, nil
}

// DeleteComment removes the comment and its direct replies. Replies of
// replies are left in place.
func (s *CommentService) DeleteComment(ctx context.Context, id, userID string) error {
	if !validID(id) {
		return apperror.Validation("Invalid comment ID")
	}
	comment, err := s.load(ctx, id, "Comment not found")
	if err != nil {
		return err
	}
	if comment.AuthorID != userID {
		return apperror.Forbidden("You can only delete your own comments")
	}

	deleted, err := s.store.DeleteWithReplies(ctx, id)
	if err != nil {
		return apperror.Internal("Failed to delete comment", err)
	}
	s.log.Info("comment deleted", "comment_id", id, "rows", deleted)

	s.emit(ctx, realtime.CommentDeleted(id, comment.ParentCommentID))
	return nil
}

func (s *CommentService) Like(ctx context.Context, id, userID string) (*models.Comment, error) {
	return s.vote(ctx, id, userID, models.VoteLike)
}

func (s *CommentService) Dislike(ctx context.Context, id, userID string) (*models.Comment, error) {
	return s.vote(ctx, id, userID, models.VoteDislike)
}

func (s *CommentService) vote(ctx context.Context, id, userID string, kind models.VoteKind) (*models.Comment, error) {
	if !validID(id) {
		return nil, apperror.Validation("Invalid comment ID")
	}
	comment, err := s.load(ctx, id, "Comment not found")
	if err != nil {
		return nil, err
	}

	result := models.ToggleVote(comment.Likes, comment.Dislikes, userID, kind)
	if err := s.store.UpdateVotes(ctx, id, result.Likes, result.Dislikes); err != nil {
		return nil, s.storeError(err, "Comment not found", "Failed to update votes")
	}

	voted, err := s.load(ctx, id, "Comment not found")
	if err != nil {
		return nil, err
	}
	s.emit(ctx, realtime.CommentVoted(voted, result.Action))
	return voted, nil
}

func (s *CommentService) load(ctx context.Context, id, notFound string) (*models.Comment, error) {
	comment, err := s.store.GetComment(ctx, id)
	if err != nil {
		return nil, s.storeError(err, notFound, "Failed to fetch comment")
	}
	return comment, nil
}

func (s *CommentService) storeError(err error, notFound, internal string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperror.NotFound(notFound)
	}
	return apperror.Internal(internal, err)
}

// emit never fails the request; real-time delivery is best effort.
func (s *CommentService) emit(ctx context.Context, ev realtime.Event) {
	if err := s.notifier.Broadcast(ctx, ev); err != nil {
		s.log.Warn("broadcast failed", "event", ev.Name, "error", err)
	}
}

func normalizeContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(content)
	if n == 0 {
		return "", apperror.Validation("Comment content is required")
	}
	if n > models.MaxCommentLength {
		return "", apperror.Validation("Comment must be between 1 and 2000 characters")
	}
	return content, nil
}

// validID accepts only the canonical hyphenated form.
func validID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
