package model

import "github.com/google/uuid"

// 各实体使用独立的 ID 类型，避免跨实体混用
type (
	AccountID      string
	PostID         string
	ReactionID     string
	ConversationID string
	MessageID      string
)

func NewAccountID() AccountID           { return AccountID(uuid.New().String()) }
func NewPostID() PostID                 { return PostID(uuid.New().String()) }
func NewReactionID() ReactionID         { return ReactionID(uuid.New().String()) }
func NewConversationID() ConversationID { return ConversationID(uuid.New().String()) }
func NewMessageID() MessageID           { return MessageID(uuid.New().String()) }

func (id AccountID) String() string      { return string(id) }
func (id PostID) String() string         { return string(id) }
func (id ConversationID) String() string { return string(id) }
func (id MessageID) String() string      { return string(id) }
