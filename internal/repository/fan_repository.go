package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/social-feed/internal/model"
)

// FanRepository 粉丝冗余表，由 FanReplicator 异步维护
type FanRepository interface {
	Create(ctx context.Context, userID, fanID model.AccountID) error
	Delete(ctx context.Context, userID, fanID model.AccountID) error
	ListFans(ctx context.Context, userID model.AccountID, offset, limit int) ([]*model.Fan, error)
	DeleteUser(ctx context.Context, userID model.AccountID) error
}

type fanRepository struct{ db *gorm.DB }

func NewFanRepository(db *gorm.DB) FanRepository { return &fanRepository{db: db} }

func (r *fanRepository) Create(ctx context.Context, userID, fanID model.AccountID) error {
	f := &model.Fan{ID: uuid.New().String(), UserID: userID, FanID: fanID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(f).Error
}

func (r *fanRepository) Delete(ctx context.Context, userID, fanID model.AccountID) error {
	return r.db.WithContext(ctx).Where("user_id = ? AND fan_id = ?", userID, fanID).Delete(&model.Fan{}).Error
}

func (r *fanRepository) ListFans(ctx context.Context, userID model.AccountID, offset, limit int) ([]*model.Fan, error) {
	var res []*model.Fan
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

// DeleteUser 清理某账号作为被关注者或粉丝的全部冗余行
func (r *fanRepository) DeleteUser(ctx context.Context, userID model.AccountID) error {
	return r.db.WithContext(ctx).Where("user_id = ? OR fan_id = ?", userID, userID).Delete(&model.Fan{}).Error
}
