package model

import "time"

// Conversation 私信会话
type Conversation struct {
	ID        ConversationID `gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time      `gorm:"index"`
}

func (Conversation) TableName() string { return "conversations" }

// ConversationMember 会话成员，(conversation_id, user_id) 为联合主键
type ConversationMember struct {
	ConversationID ConversationID `gorm:"primaryKey;type:varchar(36)"`
	UserID         AccountID      `gorm:"primaryKey;type:varchar(36);index:idx_member_user"`
	CreatedAt      time.Time
}

func (ConversationMember) TableName() string { return "conversation_members" }

// Message 会话消息；作者在写入时必须是成员
type Message struct {
	ID             MessageID      `gorm:"primaryKey;type:varchar(36)"`
	AuthorID       AccountID      `gorm:"type:varchar(36);not null"`
	ConversationID ConversationID `gorm:"type:varchar(36);not null;index:idx_message_conversation"`
	Content        string         `gorm:"type:text;not null"`
	CreatedAt      time.Time      `gorm:"index:idx_message_conversation"`
}

func (Message) TableName() string { return "messages" }

func (m *Message) CursorID() string      { return string(m.ID) }
func (m *Message) CursorTime() time.Time { return m.CreatedAt }

func (m *Message) View() MessageView {
	return MessageView{ID: m.ID, AuthorID: m.AuthorID, ConversationID: m.ConversationID, Content: m.Content, CreatedAt: m.CreatedAt}
}
