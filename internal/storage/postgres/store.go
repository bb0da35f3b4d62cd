// Package postgres implements the storage contracts on GORM and PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/comment-system/backend/internal/models"
	"github.com/emilythestrangee/comment-system/backend/internal/storage"
)

type Store struct {
	db *gorm.DB
}

var _ storage.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func selectAuthor(tx *gorm.DB) *gorm.DB {
	return tx.Select("id", "name", "email")
}

// === Users ===

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err, "get user")
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, "get user by email")
	}
	return &user, nil
}

// === Comments ===

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (s *Store) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).
		Preload("Author", selectAuthor).
		Where("id = ?", id).
		First(&comment).Error
	if err != nil {
		return nil, notFound(err, "get comment")
	}
	return &comment, nil
}

func (s *Store) ListComments(ctx context.Context, q storage.ListQuery) ([]*models.Comment, int64, error) {
	filtered := func() *gorm.DB {
		tx := s.db.WithContext(ctx).Model(&models.Comment{})
		switch q.Parent.Mode {
		case storage.TopLevel:
			tx = tx.Where("parent_comment_id IS NULL")
		case storage.ChildOf:
			tx = tx.Where("parent_comment_id = ?", q.Parent.ParentID)
		}
		return tx
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	strategy := q.Sort
	if strategy == nil {
		strategy = storage.TimestampSort{}
	}

	comments := make([]*models.Comment, 0, q.Limit)
	tx := strategy.Apply(filtered()).Preload("Author", selectAuthor).Offset(q.Offset)
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if err := tx.Find(&comments).Error; err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	return comments, total, nil
}

func (s *Store) UpdateContent(ctx context.Context, id, content string) error {
	res := s.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ?", id).
		Update("content", content)
	if res.Error != nil {
		return fmt.Errorf("update comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateVotes(ctx context.Context, id string, likes, dislikes models.VoteSet) error {
	res := s.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ?", id).
		Updates(map[string]any{"likes": likes, "dislikes": dislikes})
	if res.Error != nil {
		return fmt.Errorf("update votes: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteWithReplies(ctx context.Context, id string) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? OR parent_comment_id = ?", id, id).
		Delete(&models.Comment{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete comment: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func notFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
