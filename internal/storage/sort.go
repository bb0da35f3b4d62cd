package storage

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/emilythestrangee/comment-system/backend/internal/models"
)

type SortKey string

const (
	SortNewest       SortKey = "newest"
	SortOldest       SortKey = "oldest"
	SortMostLiked    SortKey = "mostLiked"
	SortMostDisliked SortKey = "mostDisliked"
)

// SortStrategy orders comments. Every implementation exposes the same order
// twice: as SQL for the gorm store and as a comparator for the in-memory
// store. Ties always fall through to id so paging is deterministic.
type SortStrategy interface {
	Key() SortKey
	Apply(tx *gorm.DB) *gorm.DB
	Less(a, b *models.Comment) bool
}

// TimestampSort orders by creation time.
type TimestampSort struct {
	Ascending bool
}

func (s TimestampSort) Key() SortKey {
	if s.Ascending {
		return SortOldest
	}
	return SortNewest
}

func (s TimestampSort) Apply(tx *gorm.DB) *gorm.DB {
	dir := "DESC"
	if s.Ascending {
		dir = "ASC"
	}
	return tx.Order("created_at " + dir).Order("id " + dir)
}

func (s TimestampSort) Less(a, b *models.Comment) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		if s.Ascending {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	}
	if s.Ascending {
		return a.ID < b.ID
	}
	return a.ID > b.ID
}

type VoteField string

const (
	FieldLikes    VoteField = "likes"
	FieldDislikes VoteField = "dislikes"
)

// CardinalitySort orders by the size of a vote set, largest first, then
// newest first. The size is computed at query time.
type CardinalitySort struct {
	Field VoteField
}

func (s CardinalitySort) Key() SortKey {
	if s.Field == FieldDislikes {
		return SortMostDisliked
	}
	return SortMostLiked
}

func (s CardinalitySort) Apply(tx *gorm.DB) *gorm.DB {
	return tx.
		Order(fmt.Sprintf("cardinality(%s) DESC", s.column())).
		Order("created_at DESC").
		Order("id DESC")
}

func (s CardinalitySort) Less(a, b *models.Comment) bool {
	ca, cb := s.count(a), s.count(b)
	if ca != cb {
		return ca > cb
	}
	return TimestampSort{}.Less(a, b)
}

func (s CardinalitySort) column() string {
	if s.Field == FieldDislikes {
		return "dislikes"
	}
	return "likes"
}

func (s CardinalitySort) count(c *models.Comment) int {
	if s.Field == FieldDislikes {
		return c.Dislikes.Len()
	}
	return c.Likes.Len()
}

// StrategyFor maps a sort key to its strategy. The empty key means newest.
func StrategyFor(key SortKey) (SortStrategy, error) {
	switch SortKey(strings.TrimSpace(string(key))) {
	case "", SortNewest:
		return TimestampSort{}, nil
	case SortOldest:
		return TimestampSort{Ascending: true}, nil
	case SortMostLiked:
		return CardinalitySort{Field: FieldLikes}, nil
	case SortMostDisliked:
		return CardinalitySort{Field: FieldDislikes}, nil
	}
	return nil, fmt.Errorf("unknown sort %q", key)
}
