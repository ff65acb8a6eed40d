package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/internal/repository"
	"github.com/d60-Lab/social-feed/internal/visibility"
)

type ReactionService interface {
	// React 帖子不可见返回 NotFound，同类反应重复返回 Conflict
	React(ctx context.Context, authorID model.AccountID, postID model.PostID, kind model.ReactionKind) (*model.ReactionView, error)
	// Unreact 删除一条反应，不存在时返回 NotFound
	Unreact(ctx context.Context, authorID model.AccountID, postID model.PostID, kind model.ReactionKind) error
	// ListByAuthor 作者对 viewer 不可见时返回空列表；kind 为空表示全部类型
	ListByAuthor(ctx context.Context, viewer, authorID model.AccountID, kind model.ReactionKind) ([]model.ReactionView, error)
}

type reactionService struct {
	db *gorm.DB
}

func NewReactionService(db *gorm.DB) ReactionService { return &reactionService{db: db} }

func (s *reactionService) React(ctx context.Context, authorID model.AccountID, postID model.PostID, kind model.ReactionKind) (*model.ReactionView, error) {
	r := &model.Reaction{ID: model.NewReactionID(), AuthorID: authorID, PostID: postID, Kind: kind}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repository.NewPostRepository(tx).GetVisible(ctx, authorID, postID); err != nil {
			return err
		}
		return repository.NewReactionRepository(tx).Create(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	v := r.View()
	return &v, nil
}

func (s *reactionService) Unreact(ctx context.Context, authorID model.AccountID, postID model.PostID, kind model.ReactionKind) error {
	return repository.NewReactionRepository(s.db).Delete(ctx, authorID, postID, kind)
}

func (s *reactionService) ListByAuthor(ctx context.Context, viewer, authorID model.AccountID, kind model.ReactionKind) ([]model.ReactionView, error) {
	out := []model.ReactionView{}
	checker := visibility.NewChecker(repository.NewUserRepository(s.db), repository.NewFollowRepository(s.db))
	ok, err := checker.Visible(ctx, viewer, authorID)
	if err != nil || !ok {
		return out, err
	}
	rows, err := repository.NewReactionRepository(s.db).ListByAuthor(ctx, authorID, kind)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out = append(out, r.View())
	}
	return out, nil
}
