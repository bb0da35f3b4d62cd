// Package inmemory is a process-local Store used for development and tests.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emilythestrangee/comment-system/backend/internal/models"
	"github.com/emilythestrangee/comment-system/backend/internal/storage"
)

type Store struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	byEmail  map[string]string
	comments map[string]*models.Comment
	now      func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return NewWithClock(func() time.Time { return time.Now().UTC() })
}

// NewWithClock lets tests control createdAt/updatedAt.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		users:    make(map[string]*models.User),
		byEmail:  make(map[string]string),
		comments: make(map[string]*models.Comment),
		now:      now,
	}
}

// === Users ===

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[user.Email]; taken {
		return storage.ErrDuplicateEmail
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now

	stored := *user
	s.users[user.ID] = &stored
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *user
	return &out, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *s.users[id]
	return &out, nil
}

// === Comments ===

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	now := s.now()
	comment.CreatedAt, comment.UpdatedAt = now, now

	stored := *comment
	stored.Author = nil
	if stored.ParentCommentID != nil {
		parent := *stored.ParentCommentID
		stored.ParentCommentID = &parent
	}
	s.comments[comment.ID] = &stored
	return nil
}

func (s *Store) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s.withAuthor(comment), nil
}

func (s *Store) ListComments(ctx context.Context, q storage.ListQuery) ([]*models.Comment, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Comment, 0, len(s.comments))
	for _, c := range s.comments {
		if matchesParent(c, q.Parent) {
			matched = append(matched, c)
		}
	}

	strategy := q.Sort
	if strategy == nil {
		strategy = storage.TimestampSort{}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return strategy.Less(matched[i], matched[j])
	})

	total := int64(len(matched))
	start := max(q.Offset, 0)
	if start >= len(matched) {
		return []*models.Comment{}, total, nil
	}
	end := len(matched)
	if q.Limit > 0 && q.Limit < end-start {
		end = start + q.Limit
	}

	page := make([]*models.Comment, 0, end-start)
	for _, c := range matched[start:end] {
		page = append(page, s.withAuthor(c))
	}
	return page, total, nil
}

func (s *Store) UpdateContent(ctx context.Context, id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[id]
	if !ok {
		return storage.ErrNotFound
	}
	comment.Content = content
	comment.UpdatedAt = s.now()
	return nil
}

func (s *Store) UpdateVotes(ctx context.Context, id string, likes, dislikes models.VoteSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[id]
	if !ok {
		return storage.ErrNotFound
	}
	comment.Likes = likes
	comment.Dislikes = dislikes
	comment.UpdatedAt = s.now()
	return nil
}

func (s *Store) DeleteWithReplies(ctx context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for cid, c := range s.comments {
		if cid == id || (c.ParentCommentID != nil && *c.ParentCommentID == id) {
			delete(s.comments, cid)
			deleted++
		}
	}
	return deleted, nil
}

func matchesParent(c *models.Comment, f storage.ParentFilter) bool {
	switch f.Mode {
	case storage.TopLevel:
		return c.ParentCommentID == nil
	case storage.ChildOf:
		return c.ParentCommentID != nil && *c.ParentCommentID == f.ParentID
	}
	return true
}

// withAuthor returns a copy of c with the author projection attached.
// Callers hold s.mu.
func (s *Store) withAuthor(c *models.Comment) *models.Comment {
	out := *c
	if out.ParentCommentID != nil {
		parent := *out.ParentCommentID
		out.ParentCommentID = &parent
	}
	if user, ok := s.users[c.AuthorID]; ok {
		out.Author = user.AsAuthor()
	} else {
		out.Author = &models.Author{ID: c.AuthorID}
	}
	return &out
}
