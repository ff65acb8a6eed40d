package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/social-feed/internal/apperr"
	"github.com/d60-Lab/social-feed/internal/model"
)

type FollowRepository interface {
	Create(ctx context.Context, followerID, followeeID model.AccountID) error
	Delete(ctx context.Context, followerID, followeeID model.AccountID) error
	Exists(ctx context.Context, followerID, followeeID model.AccountID) (bool, error)
	ListFollowings(ctx context.Context, followerID model.AccountID, offset, limit int) ([]*model.Follow, error)
	// FollowedIDs 返回 follower 关注的全部账号
	FollowedIDs(ctx context.Context, followerID model.AccountID) ([]model.AccountID, error)
	// FollowerIDs 返回关注 followee 的全部账号（直接读 follows，无复制延迟）
	FollowerIDs(ctx context.Context, followeeID model.AccountID) ([]model.AccountID, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository { return &followRepository{db: db} }

func (r *followRepository) Create(ctx context.Context, followerID, followeeID model.AccountID) error {
	f := &model.Follow{ID: uuid.New().String(), FollowerID: followerID, FolloweeID: followeeID}
	// 幂等：重复关注不报错
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(f).Error
}

// Delete 关注边不存在时返回 NotFound
func (r *followRepository) Delete(ctx context.Context, followerID, followeeID model.AccountID) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&model.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("follow")
	}
	return nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID model.AccountID) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *followRepository) ListFollowings(ctx context.Context, followerID model.AccountID, offset, limit int) ([]*model.Follow, error) {
	var res []*model.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ?", followerID).
		Order("created_at DESC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *followRepository) FollowedIDs(ctx context.Context, followerID model.AccountID) ([]model.AccountID, error) {
	var ids []model.AccountID
	err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id = ?", followerID).
		Pluck("followee_id", &ids).Error
	return ids, err
}

func (r *followRepository) FollowerIDs(ctx context.Context, followeeID model.AccountID) ([]model.AccountID, error) {
	var ids []model.AccountID
	err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("followee_id = ?", followeeID).
		Pluck("follower_id", &ids).Error
	return ids, err
}
