// Package visibility 决定查看者能否看到某个账号发布的内容。
//
// 三种可见情形：
//   - Self：查看者即作者
//   - Public：作者为公开账号
//   - FollowedPrivate：作者为私密账号且查看者关注了作者
package visibility

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/social-feed/internal/apperr"
	"github.com/d60-Lab/social-feed/internal/model"
)

// Owner 内容所有者的隐私信息
type Owner struct {
	ID        model.AccountID
	IsPrivate bool
}

// CanView 纯函数版本；follows 表示是否存在 viewer -> owner 的关注边
func CanView(viewer model.AccountID, owner Owner, follows bool) bool {
	if owner.ID == viewer {
		return true
	}
	if !owner.IsPrivate {
		return true
	}
	return follows
}

// Case 以 SQL 表达的一种可见情形
type Case func(viewer model.AccountID, authorTable string) clause.Expression

func Self(viewer model.AccountID, authorTable string) clause.Expression {
	return clause.Expr{SQL: authorTable + ".id = ?", Vars: []interface{}{viewer}}
}

func Public(_ model.AccountID, authorTable string) clause.Expression {
	return clause.Expr{SQL: authorTable + ".is_private = ?", Vars: []interface{}{false}}
}

func FollowedPrivate(viewer model.AccountID, authorTable string) clause.Expression {
	return clause.Expr{
		SQL:  authorTable + ".is_private = ? AND EXISTS (SELECT 1 FROM follows vf WHERE vf.follower_id = ? AND vf.followee_id = " + authorTable + ".id)",
		Vars: []interface{}{true, viewer},
	}
}

// Cases 全部可见情形，按 OR 组合
var Cases = []Case{Self, Public, FollowedPrivate}

// Scope 返回 gorm scope：过滤出 viewer 可见的行。
// authorTable 为已 JOIN 的作者表别名（需包含 id、is_private 列）。
func Scope(viewer model.AccountID, authorTable string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		exprs := make([]clause.Expression, len(Cases))
		for i, c := range Cases {
			exprs[i] = c(viewer, authorTable)
		}
		return db.Where(clause.Or(exprs...))
	}
}

// AccountLookup 按 ID 读取账号
type AccountLookup interface {
	GetByID(ctx context.Context, id model.AccountID) (*model.User, error)
}

// FollowLookup 查询关注边
type FollowLookup interface {
	Exists(ctx context.Context, followerID, followeeID model.AccountID) (bool, error)
}

// Checker 基于关系存储实时判断可见性；不做任何缓存，关注状态在翻页之间可能变化。
type Checker struct {
	accounts AccountLookup
	follows  FollowLookup
}

func NewChecker(accounts AccountLookup, follows FollowLookup) *Checker {
	return &Checker{accounts: accounts, follows: follows}
}

// CanView 账号不存在时返回 apperr.ErrNotFound
func (c *Checker) CanView(ctx context.Context, viewer, owner model.AccountID) (bool, error) {
	if viewer == owner {
		return true, nil
	}
	u, err := c.accounts.GetByID(ctx, owner)
	if err != nil {
		return false, err
	}
	if !u.IsPrivate {
		return true, nil
	}
	follows, err := c.follows.Exists(ctx, viewer, owner)
	if err != nil {
		return false, err
	}
	return CanView(viewer, Owner{ID: u.ID, IsPrivate: u.IsPrivate}, follows), nil
}

// Visible 与 CanView 相同，但账号不存在时返回 false 而不是错误（列表场景降级为空）
func (c *Checker) Visible(ctx context.Context, viewer, owner model.AccountID) (bool, error) {
	ok, err := c.CanView(ctx, viewer, owner)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	return ok, err
}
