package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/internal/pagination"
	"github.com/d60-Lab/social-feed/internal/visibility"
)

// CommentMode 控制结果中是否包含评论
type CommentMode int

const (
	// CommentsExclude 只返回顶层帖子
	CommentsExclude CommentMode = iota
	// CommentsInclude 顶层帖子与评论都返回
	CommentsInclude
	// CommentsOnly 只返回评论
	CommentsOnly
)

// PostQuery 帖子列表查询条件；Viewer 决定可见性
type PostQuery struct {
	Viewer   model.AccountID
	AuthorID model.AccountID
	ParentID model.PostID
	Comments CommentMode
	Page     pagination.Request
	Limit    int
}

type PostRepository interface {
	Create(ctx context.Context, p *model.Post) error
	GetByID(ctx context.Context, id model.PostID) (*model.Post, error)
	// GetVisible 帖子不存在或对 viewer 不可见时都返回 NotFound
	GetVisible(ctx context.Context, viewer model.AccountID, id model.PostID) (*model.Post, error)
	// Page 返回可见帖子的一页，按 (created_at DESC, id ASC) 排序
	Page(ctx context.Context, q PostQuery) ([]model.Post, error)
	// Stats 实时统计评论数、点赞数、转发数
	Stats(ctx context.Context, ids []model.PostID) (map[model.PostID]model.PostStats, error)
	// DeleteTree 硬删除帖子、其全部评论（递归）以及相关反应
	DeleteTree(ctx context.Context, id model.PostID) error
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	if p.ID == "" {
		p.ID = model.NewPostID()
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *postRepository) GetByID(ctx context.Context, id model.PostID) (*model.Post, error) {
	var p model.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err, "post")
	}
	return &p, nil
}

func (r *postRepository) GetVisible(ctx context.Context, viewer model.AccountID, id model.PostID) (*model.Post, error) {
	var p model.Post
	err := r.visible(ctx, viewer).
		Where("posts.id = ?", id).
		Take(&p).Error
	if err != nil {
		return nil, translate(err, "post")
	}
	return &p, nil
}

func (r *postRepository) Page(ctx context.Context, q PostQuery) ([]model.Post, error) {
	base := func() *gorm.DB {
		db := r.visible(ctx, q.Viewer)
		if q.AuthorID != "" {
			db = db.Where("posts.author_id = ?", q.AuthorID)
		}
		if q.ParentID != "" {
			db = db.Where("posts.parent_id = ?", q.ParentID)
		}
		switch q.Comments {
		case CommentsExclude:
			db = db.Where("posts.parent_id IS NULL")
		case CommentsOnly:
			db = db.Where("posts.parent_id IS NOT NULL")
		}
		return db
	}
	return pagination.Query[model.Post](base, "posts", q.Page, q.Limit)
}

// visible 关联作者表并按可见性过滤
func (r *postRepository) visible(ctx context.Context, viewer model.AccountID) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Post{}).
		Joins("JOIN users author ON author.id = posts.author_id").
		Scopes(visibility.Scope(viewer, "author"))
}

type countRow struct {
	PostID model.PostID
	Kind   model.ReactionKind
	N      int64
}

func (r *postRepository) Stats(ctx context.Context, ids []model.PostID) (map[model.PostID]model.PostStats, error) {
	out := make(map[model.PostID]model.PostStats, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var comments []countRow
	if err := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Select("parent_id AS post_id, COUNT(*) AS n").
		Where("parent_id IN ?", ids).
		Group("parent_id").
		Scan(&comments).Error; err != nil {
		return nil, err
	}
	for _, c := range comments {
		s := out[c.PostID]
		s.Comments = c.N
		out[c.PostID] = s
	}

	var reactions []countRow
	if err := r.db.WithContext(ctx).
		Model(&model.Reaction{}).
		Select("post_id, kind, COUNT(*) AS n").
		Where("post_id IN ?", ids).
		Group("post_id, kind").
		Scan(&reactions).Error; err != nil {
		return nil, err
	}
	for _, c := range reactions {
		s := out[c.PostID]
		switch c.Kind {
		case model.ReactionLike:
			s.Likes = c.N
		case model.ReactionRetweet:
			s.Retweets = c.N
		}
		out[c.PostID] = s
	}
	return out, nil
}

func (r *postRepository) DeleteTree(ctx context.Context, id model.PostID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&model.Post{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt == 0 {
			return translate(gorm.ErrRecordNotFound, "post")
		}
		return deletePostTree(tx, id)
	})
}

// deletePostTree 逐层收集评论 ID 后批量删除
func deletePostTree(tx *gorm.DB, root model.PostID) error {
	ids := []model.PostID{root}
	frontier := []model.PostID{root}
	for len(frontier) > 0 {
		var children []model.PostID
		if err := tx.Model(&model.Post{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
			return err
		}
		ids = append(ids, children...)
		frontier = children
	}
	if err := tx.Where("post_id IN ?", ids).Delete(&model.Reaction{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ids).Delete(&model.Post{}).Error
}
