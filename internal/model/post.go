package model

import "time"

const MaxPostLength = 240

// Post 帖子；ParentID 非空时为评论
type Post struct {
	ID        PostID    `gorm:"primaryKey;type:varchar(36)"`
	AuthorID  AccountID `gorm:"type:varchar(36);index:idx_post_author;not null"`
	Content   string    `gorm:"type:varchar(240);not null"`
	ParentID  *PostID   `gorm:"type:varchar(36);index:idx_post_parent"`
	CreatedAt time.Time `gorm:"index:idx_post_created"`
}

func (Post) TableName() string { return "posts" }

func (p *Post) IsComment() bool { return p.ParentID != nil }

func (p *Post) CursorID() string      { return string(p.ID) }
func (p *Post) CursorTime() time.Time { return p.CreatedAt }

func (p *Post) View() PostView {
	return PostView{ID: p.ID, AuthorID: p.AuthorID, Content: p.Content, ParentID: p.ParentID, CreatedAt: p.CreatedAt}
}
