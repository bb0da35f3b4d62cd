package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MaxCommentLength = 2000

type Comment struct {
	ID              string    `gorm:"type:uuid;primaryKey" json:"id"`
	Content         string    `gorm:"type:varchar(2000);not null" json:"content"`
	AuthorID        string    `gorm:"type:uuid;not null;index" json:"-"`
	Author          *Author   `gorm:"foreignKey:AuthorID" json:"author"`
	Likes           VoteSet   `gorm:"type:text[];not null;default:'{}'" json:"likes"`
	Dislikes        VoteSet   `gorm:"type:text[];not null;default:'{}'" json:"dislikes"`
	ParentCommentID *string   `gorm:"type:uuid;index" json:"parentComment"`
	CreatedAt       time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (c *Comment) LikesCount() int {
	return c.Likes.Len()
}

func (c *Comment) DislikesCount() int {
	return c.Dislikes.Len()
}

// CommentView is the wire shape of a comment, with derived vote counts.
type CommentView struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	Author        *Author   `json:"author"`
	Likes         VoteSet   `json:"likes"`
	Dislikes      VoteSet   `json:"dislikes"`
	LikesCount    int       `json:"likesCount"`
	DislikesCount int       `json:"dislikesCount"`
	ParentComment *string   `json:"parentComment"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (c *Comment) View() CommentView {
	author := c.Author
	if author == nil {
		author = &Author{ID: c.AuthorID}
	}
	return CommentView{
		ID:            c.ID,
		Content:       c.Content,
		Author:        author,
		Likes:         c.Likes,
		Dislikes:      c.Dislikes,
		LikesCount:    c.Likes.Len(),
		DislikesCount: c.Dislikes.Len(),
		ParentComment: c.ParentCommentID,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

type CreateCommentRequest struct {
	Content       string  `json:"content" binding:"required"`
	ParentComment *string `json:"parentComment"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}
