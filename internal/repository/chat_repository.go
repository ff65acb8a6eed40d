package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/internal/pagination"
)

type ChatRepository interface {
	// CreateConversation 写入会话及成员；members 需已去重
	CreateConversation(ctx context.Context, members []model.AccountID) (*model.ConversationView, error)
	// MemberIDs 会话不存在时返回 NotFound
	MemberIDs(ctx context.Context, id model.ConversationID) ([]model.AccountID, error)
	ListForUser(ctx context.Context, userID model.AccountID) ([]model.ConversationView, error)
	ConversationIDs(ctx context.Context, userID model.AccountID) ([]model.ConversationID, error)
	CreateMessage(ctx context.Context, m *model.Message) error
	PageMessages(ctx context.Context, id model.ConversationID, page pagination.Request, limit int) ([]model.Message, error)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository { return &chatRepository{db: db} }

func (r *chatRepository) CreateConversation(ctx context.Context, members []model.AccountID) (*model.ConversationView, error) {
	conv := &model.Conversation{ID: model.NewConversationID()}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		rows := make([]model.ConversationMember, len(members))
		for i, m := range members {
			rows[i] = model.ConversationMember{ConversationID: conv.ID, UserID: m}
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return &model.ConversationView{ID: conv.ID, CreatedAt: conv.CreatedAt, Members: members}, nil
}

func (r *chatRepository) MemberIDs(ctx context.Context, id model.ConversationID) ([]model.AccountID, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&model.Conversation{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
		return nil, err
	}
	if cnt == 0 {
		return nil, translate(gorm.ErrRecordNotFound, "conversation")
	}
	var ids []model.AccountID
	err := r.db.WithContext(ctx).
		Model(&model.ConversationMember{}).
		Where("conversation_id = ?", id).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

type memberRow struct {
	ConversationID model.ConversationID
	CreatedAt      time.Time
	UserID         model.AccountID
}

func (r *chatRepository) ListForUser(ctx context.Context, userID model.AccountID) ([]model.ConversationView, error) {
	var rows []memberRow
	err := r.db.WithContext(ctx).
		Table("conversation_members cm").
		Select("c.id AS conversation_id, c.created_at, cm.user_id").
		Joins("JOIN conversations c ON c.id = cm.conversation_id").
		Where("cm.conversation_id IN (?)",
			r.db.Model(&model.ConversationMember{}).Select("conversation_id").Where("user_id = ?", userID)).
		Order("cm.user_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[model.ConversationID]*model.ConversationView)
	order := make([]model.ConversationID, 0)
	for _, row := range rows {
		v, ok := byID[row.ConversationID]
		if !ok {
			v = &model.ConversationView{ID: row.ConversationID, CreatedAt: row.CreatedAt}
			byID[row.ConversationID] = v
			order = append(order, row.ConversationID)
		}
		v.Members = append(v.Members, row.UserID)
	}
	out := make([]model.ConversationView, len(order))
	for i, id := range order {
		out[i] = *byID[id]
	}
	return out, nil
}

func (r *chatRepository) ConversationIDs(ctx context.Context, userID model.AccountID) ([]model.ConversationID, error) {
	var ids []model.ConversationID
	err := r.db.WithContext(ctx).
		Model(&model.ConversationMember{}).
		Where("user_id = ?", userID).
		Pluck("conversation_id", &ids).Error
	return ids, err
}

func (r *chatRepository) CreateMessage(ctx context.Context, m *model.Message) error {
	if m.ID == "" {
		m.ID = model.NewMessageID()
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *chatRepository) PageMessages(ctx context.Context, id model.ConversationID, page pagination.Request, limit int) ([]model.Message, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&model.Message{}).Where("messages.conversation_id = ?", id)
	}
	return pagination.Query[model.Message](base, "messages", page, limit)
}
