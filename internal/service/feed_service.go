package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/social-feed/internal/apperr"
	"github.com/d60-Lab/social-feed/internal/cache"
	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/internal/pagination"
	"github.com/d60-Lab/social-feed/internal/repository"
	"github.com/d60-Lab/social-feed/internal/visibility"
	"github.com/d60-Lab/social-feed/pkg/database"
	"github.com/d60-Lab/social-feed/pkg/metrics"
)

// FeedScope 信息流范围
type FeedScope int

const (
	// ScopeLatest 全站最新
	ScopeLatest FeedScope = iota
	// ScopeAuthor 指定作者
	ScopeAuthor
	// ScopeReplies 指定帖子的评论
	ScopeReplies
)

func (s FeedScope) String() string {
	switch s {
	case ScopeAuthor:
		return "author"
	case ScopeReplies:
		return "replies"
	}
	return "latest"
}

// FeedOptions 信息流查询参数。
// OnlyComments 仅对 ScopeAuthor 生效，与顶层帖子模式互斥。
type FeedOptions struct {
	Scope           FeedScope
	AuthorID        model.AccountID
	ParentID        model.PostID
	IncludeComments bool
	OnlyComments    bool
	Page            pagination.Request
}

type FeedService interface {
	// Feed 列表接口：作者或父帖不存在 / 不可见时返回空页
	Feed(ctx context.Context, viewer model.AccountID, opts FeedOptions) ([]model.EnrichedPost, error)
	// GetPost 帖子不存在或不可见时返回 NotFound
	GetPost(ctx context.Context, viewer model.AccountID, id model.PostID) (*model.EnrichedPost, error)
	// DeletePost 仅作者可删除；级联删除评论子树
	DeletePost(ctx context.Context, userID model.AccountID, id model.PostID) error
}

type feedService struct {
	db      *gorm.DB
	authors *cache.AuthorCache
	policy  pagination.Policy
}

func NewFeedService(db *gorm.DB, authors *cache.AuthorCache, policy pagination.Policy) FeedService {
	return &feedService{db: db, authors: authors, policy: policy}
}

// snapshot 一次读取在同一快照内完成，计数与可见性相互一致
func (s *feedService) snapshot(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn, database.SnapshotTxOptions(s.db))
}

func (s *feedService) Feed(ctx context.Context, viewer model.AccountID, opts FeedOptions) ([]model.EnrichedPost, error) {
	if err := opts.Page.Validate(); err != nil {
		return nil, err
	}
	q := repository.PostQuery{
		Viewer: viewer,
		Page:   opts.Page,
		Limit:  s.policy.Limit(opts.Page),
	}
	if opts.IncludeComments {
		q.Comments = repository.CommentsInclude
	}

	out := []model.EnrichedPost{}
	err := s.snapshot(ctx, func(tx *gorm.DB) error {
		posts := repository.NewPostRepository(tx)
		switch opts.Scope {
		case ScopeAuthor:
			checker := visibility.NewChecker(repository.NewUserRepository(tx), repository.NewFollowRepository(tx))
			ok, err := checker.Visible(ctx, viewer, opts.AuthorID)
			if err != nil || !ok {
				return err
			}
			q.AuthorID = opts.AuthorID
			if opts.OnlyComments {
				q.Comments = repository.CommentsOnly
			}
		case ScopeReplies:
			if _, err := posts.GetVisible(ctx, viewer, opts.ParentID); err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					return nil
				}
				return err
			}
			q.ParentID = opts.ParentID
			q.Comments = repository.CommentsOnly
		}

		page, err := posts.Page(ctx, q)
		if err != nil {
			return err
		}
		out, err = s.enrich(ctx, tx, page)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.FeedPages.WithLabelValues(opts.Scope.String()).Inc()
	metrics.FeedPageItems.Observe(float64(len(out)))
	return out, nil
}

func (s *feedService) GetPost(ctx context.Context, viewer model.AccountID, id model.PostID) (*model.EnrichedPost, error) {
	var out *model.EnrichedPost
	err := s.snapshot(ctx, func(tx *gorm.DB) error {
		p, err := repository.NewPostRepository(tx).GetVisible(ctx, viewer, id)
		if err != nil {
			return err
		}
		enriched, err := s.enrich(ctx, tx, []model.Post{*p})
		if err != nil {
			return err
		}
		out = &enriched[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *feedService) DeletePost(ctx context.Context, userID model.AccountID, id model.PostID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		posts := repository.NewPostRepository(tx)
		p, err := posts.GetVisible(ctx, userID, id)
		if err != nil {
			return err
		}
		if p.AuthorID != userID {
			return apperr.Unauthorized("only the author can delete a post")
		}
		return posts.DeleteTree(ctx, id)
	})
}

// enrich 附加作者与实时计数；posts 已按规范顺序排列
func (s *feedService) enrich(ctx context.Context, tx *gorm.DB, posts []model.Post) ([]model.EnrichedPost, error) {
	out := make([]model.EnrichedPost, len(posts))
	if len(posts) == 0 {
		return out, nil
	}
	ids := make([]model.PostID, len(posts))
	authorIDs := make([]model.AccountID, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		authorIDs[i] = posts[i].AuthorID
	}

	stats, err := repository.NewPostRepository(tx).Stats(ctx, ids)
	if err != nil {
		return nil, err
	}
	authors, err := s.authors.Users(ctx, repository.NewUserRepository(tx), authorIDs)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		out[i] = model.EnrichedPost{
			PostView:  posts[i].View(),
			Author:    authors[posts[i].AuthorID],
			PostStats: stats[posts[i].ID],
		}
	}
	return out, nil
}
