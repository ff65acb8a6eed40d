package model

import "time"

// UserView 用户基础展示信息
type UserView struct {
	ID             AccountID `json:"id"`
	Name           string    `json:"name,omitempty"`
	Username       string    `json:"username"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	IsPrivate      bool      `json:"isPrivate"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Profile 以查看者视角展示的用户
type Profile struct {
	UserView
	Following  bool `json:"following"`
	FollowsYou bool `json:"followsYou"`
}

// FullProfile 当前用户及其关注 / 粉丝列表
type FullProfile struct {
	UserView
	Following []UserView `json:"following"`
	Followers []UserView `json:"followers"`
}

// PostView 帖子基础信息
type PostView struct {
	ID        PostID    `json:"id"`
	AuthorID  AccountID `json:"authorId"`
	Content   string    `json:"content"`
	ParentID  *PostID   `json:"parentId"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostStats 查询时实时统计，不落库
type PostStats struct {
	Comments int64 `json:"qtyComments"`
	Likes    int64 `json:"qtyLikes"`
	Retweets int64 `json:"qtyRetweets"`
}

// EnrichedPost = 帖子 + 作者 + 统计（组合而非继承）
type EnrichedPost struct {
	PostView
	Author UserView `json:"author"`
	PostStats
}

func (p EnrichedPost) CursorID() string      { return string(p.ID) }
func (p EnrichedPost) CursorTime() time.Time { return p.CreatedAt }

type ReactionView struct {
	ID        ReactionID   `json:"id"`
	AuthorID  AccountID    `json:"authorId"`
	PostID    PostID       `json:"postId"`
	Kind      ReactionKind `json:"reactionType"`
	CreatedAt time.Time    `json:"createdAt"`
}

type ConversationView struct {
	ID        ConversationID `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	Members   []AccountID    `json:"members"`
}

func (c ConversationView) CursorID() string      { return string(c.ID) }
func (c ConversationView) CursorTime() time.Time { return c.CreatedAt }

type MessageView struct {
	ID             MessageID      `json:"id"`
	AuthorID       AccountID      `json:"author"`
	ConversationID ConversationID `json:"conversation"`
	Content        string         `json:"content"`
	CreatedAt      time.Time      `json:"createdAt"`
}
