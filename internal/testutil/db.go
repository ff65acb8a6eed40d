// Package testutil 提供测试用的内存数据库与数据构造函数。
package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/pkg/database"
)

// NewDB 打开独立的内存 sqlite 并迁移全部表。
// 只允许一个连接：:memory: 每个连接都是独立的数据库。
func NewDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig(gormlogger.Silent))
	if err != nil {
		tb.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	tb.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Base 测试数据的基准时间
var Base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// At 返回 Base 之后 sec 秒
func At(sec int) time.Time { return Base.Add(time.Duration(sec) * time.Second) }

// CreateUser 创建用户，id 同时作为用户名
func CreateUser(tb testing.TB, db *gorm.DB, id string, private bool) *model.User {
	tb.Helper()
	u := &model.User{
		ID:        model.AccountID(id),
		Username:  id,
		Email:     fmt.Sprintf("%s@example.com", id),
		Password:  "p",
		IsPrivate: private,
	}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("create user %s: %v", id, err)
	}
	return u
}

// CreateFollow 建立 follower -> followee
func CreateFollow(tb testing.TB, db *gorm.DB, follower, followee string) {
	tb.Helper()
	f := &model.Follow{
		ID:         fmt.Sprintf("%s->%s", follower, followee),
		FollowerID: model.AccountID(follower),
		FolloweeID: model.AccountID(followee),
	}
	if err := db.Create(f).Error; err != nil {
		tb.Fatalf("create follow: %v", err)
	}
}

// CreatePost 在指定时间创建帖子；parent 为空字符串表示顶层帖子
func CreatePost(tb testing.TB, db *gorm.DB, id, author string, at time.Time, parent string) *model.Post {
	tb.Helper()
	p := &model.Post{
		ID:        model.PostID(id),
		AuthorID:  model.AccountID(author),
		Content:   "content of " + id,
		CreatedAt: at,
	}
	if parent != "" {
		pid := model.PostID(parent)
		p.ParentID = &pid
	}
	if err := db.Create(p).Error; err != nil {
		tb.Fatalf("create post %s: %v", id, err)
	}
	return p
}

// CreateReaction 直接写入一条反应
func CreateReaction(tb testing.TB, db *gorm.DB, author, post string, kind model.ReactionKind) {
	tb.Helper()
	r := &model.Reaction{
		ID:       model.NewReactionID(),
		AuthorID: model.AccountID(author),
		PostID:   model.PostID(post),
		Kind:     kind,
	}
	if err := db.Create(r).Error; err != nil {
		tb.Fatalf("create reaction: %v", err)
	}
}
