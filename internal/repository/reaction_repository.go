package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/social-feed/internal/apperr"
	"github.com/d60-Lab/social-feed/internal/model"
)

type ReactionRepository interface {
	// Create 同一 (author, post, kind) 已存在时返回 Conflict，不做合并
	Create(ctx context.Context, r *model.Reaction) error
	// Delete 不存在时返回 NotFound
	Delete(ctx context.Context, authorID model.AccountID, postID model.PostID, kind model.ReactionKind) error
	ListByAuthor(ctx context.Context, authorID model.AccountID, kind model.ReactionKind) ([]*model.Reaction, error)
}

type reactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) ReactionRepository { return &reactionRepository{db: db} }

func (r *reactionRepository) Create(ctx context.Context, reaction *model.Reaction) error {
	if reaction.ID == "" {
		reaction.ID = model.NewReactionID()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&model.Reaction{}).
			Where("author_id = ? AND post_id = ? AND kind = ?", reaction.AuthorID, reaction.PostID, reaction.Kind).
			Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return apperr.Conflict("reaction already exists")
		}
		// 并发下由唯一索引兜底
		return translate(tx.Create(reaction).Error, "reaction")
	})
}

func (r *reactionRepository) Delete(ctx context.Context, authorID model.AccountID, postID model.PostID, kind model.ReactionKind) error {
	res := r.db.WithContext(ctx).
		Where("author_id = ? AND post_id = ? AND kind = ?", authorID, postID, kind).
		Delete(&model.Reaction{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("reaction")
	}
	return nil
}

func (r *reactionRepository) ListByAuthor(ctx context.Context, authorID model.AccountID, kind model.ReactionKind) ([]*model.Reaction, error) {
	var res []*model.Reaction
	q := r.db.WithContext(ctx).Where("author_id = ?", authorID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	err := q.Order("created_at DESC").Order("id ASC").Find(&res).Error
	return res, err
}
