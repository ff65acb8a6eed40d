package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/social-feed/internal/cache"
	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/internal/repository"
	"github.com/d60-Lab/social-feed/pkg/logger"
)

type UserService interface {
	// GetUser 以 viewer 视角返回用户资料，不存在时返回 NotFound
	GetUser(ctx context.Context, viewer, id model.AccountID) (*model.Profile, error)
	Me(ctx context.Context, viewer model.AccountID) (*model.FullProfile, error)
	SetPrivacy(ctx context.Context, userID model.AccountID, private bool) error
	Delete(ctx context.Context, userID model.AccountID) error
	Recommendations(ctx context.Context, viewer model.AccountID, offset, limit int) ([]model.UserView, error)
	SearchByUsername(ctx context.Context, query string, offset, limit int) ([]model.UserView, error)
}

type userService struct {
	db         *gorm.DB
	authors    *cache.AuthorCache
	replicator *FanReplicator
	maxLimit   int
}

func NewUserService(db *gorm.DB, authors *cache.AuthorCache, replicator *FanReplicator, maxLimit int) UserService {
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &userService{db: db, authors: authors, replicator: replicator, maxLimit: maxLimit}
}

func (s *userService) clamp(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > s.maxLimit {
		limit = s.maxLimit
	}
	return offset, limit
}

func views(users []*model.User) []model.UserView {
	out := make([]model.UserView, len(users))
	for i, u := range users {
		out[i] = u.View()
	}
	return out
}

func (s *userService) GetUser(ctx context.Context, viewer, id model.AccountID) (*model.Profile, error) {
	u, err := repository.NewUserRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	follows := repository.NewFollowRepository(s.db)
	following, err := follows.Exists(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	followsYou, err := follows.Exists(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	return &model.Profile{UserView: u.View(), Following: following, FollowsYou: followsYou}, nil
}

func (s *userService) Me(ctx context.Context, viewer model.AccountID) (*model.FullProfile, error) {
	users := repository.NewUserRepository(s.db)
	u, err := users.GetByID(ctx, viewer)
	if err != nil {
		return nil, err
	}
	follows := repository.NewFollowRepository(s.db)
	followingIDs, err := follows.FollowedIDs(ctx, viewer)
	if err != nil {
		return nil, err
	}
	followerIDs, err := follows.FollowerIDs(ctx, viewer)
	if err != nil {
		return nil, err
	}
	following, err := users.GetByIDs(ctx, followingIDs)
	if err != nil {
		return nil, err
	}
	followers, err := users.GetByIDs(ctx, followerIDs)
	if err != nil {
		return nil, err
	}
	return &model.FullProfile{UserView: u.View(), Following: views(following), Followers: views(followers)}, nil
}

func (s *userService) SetPrivacy(ctx context.Context, userID model.AccountID, private bool) error {
	if err := repository.NewUserRepository(s.db).SetPrivacy(ctx, userID, private); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *userService) Delete(ctx context.Context, userID model.AccountID) error {
	if err := repository.NewUserRepository(s.db).Delete(ctx, userID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	if s.replicator != nil {
		s.replicator.EnqueuePurge(userID)
	}
	return nil
}

func (s *userService) invalidate(ctx context.Context, userID model.AccountID) {
	if s.authors == nil {
		return
	}
	if err := s.authors.Invalidate(ctx, userID); err != nil {
		logger.Warn("invalidate author cache failed", zap.String("user", userID.String()), zap.Error(err))
	}
}

func (s *userService) Recommendations(ctx context.Context, viewer model.AccountID, offset, limit int) ([]model.UserView, error) {
	offset, limit = s.clamp(offset, limit)
	users, err := repository.NewUserRepository(s.db).List(ctx, viewer, offset, limit)
	if err != nil {
		return nil, err
	}
	return views(users), nil
}

func (s *userService) SearchByUsername(ctx context.Context, query string, offset, limit int) ([]model.UserView, error) {
	offset, limit = s.clamp(offset, limit)
	users, err := repository.NewUserRepository(s.db).SearchByUsername(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	return views(users), nil
}
