package model

import (
	"fmt"
	"time"
)

type ReactionKind string

const (
	ReactionLike    ReactionKind = "Like"
	ReactionRetweet ReactionKind = "Retweet"
)

// ParseReactionKind 接受 Like / Retweet（大小写敏感，与存储值一致）
func ParseReactionKind(s string) (ReactionKind, error) {
	switch k := ReactionKind(s); k {
	case ReactionLike, ReactionRetweet:
		return k, nil
	}
	return "", fmt.Errorf("unknown reaction type %q", s)
}

// Reaction 点赞 / 转发；同一 (author, post, kind) 至多一条
type Reaction struct {
	ID        ReactionID   `gorm:"primaryKey;type:varchar(36)"`
	AuthorID  AccountID    `gorm:"type:varchar(36);not null;uniqueIndex:ux_reaction_author_post_kind;index:idx_reaction_author"`
	PostID    PostID       `gorm:"type:varchar(36);not null;uniqueIndex:ux_reaction_author_post_kind;index:idx_reaction_post"`
	Kind      ReactionKind `gorm:"type:varchar(16);not null;uniqueIndex:ux_reaction_author_post_kind"`
	CreatedAt time.Time
}

func (Reaction) TableName() string { return "reactions" }

func (r *Reaction) View() ReactionView {
	return ReactionView{ID: r.ID, AuthorID: r.AuthorID, PostID: r.PostID, Kind: r.Kind, CreatedAt: r.CreatedAt}
}
