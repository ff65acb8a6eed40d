package service

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/d60-Lab/social-feed/internal/apperr"
	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/internal/pagination"
	"github.com/d60-Lab/social-feed/internal/repository"
	"github.com/d60-Lab/social-feed/pkg/database"
	"github.com/d60-Lab/social-feed/pkg/metrics"
)

// 推送给在线成员的事件名
const (
	EventConversationCreated = "conversationCreated"
	EventReceiveMessage      = "receiveMessage"
)

// Broadcaster 实时投递通道（websocket hub 实现）
type Broadcaster interface {
	Deliver(to []model.AccountID, event string, payload any)
}

type ChatService interface {
	CreateConversation(ctx context.Context, initiatorID model.AccountID, memberIDs []model.AccountID) (*model.ConversationView, error)
	SendMessage(ctx context.Context, userID model.AccountID, conversationID model.ConversationID, content string) (*model.MessageView, error)
	ListConversations(ctx context.Context, userID model.AccountID, page pagination.Request) ([]model.ConversationView, error)
	// ListMessages 仅成员可读，非成员返回 Unauthorized
	ListMessages(ctx context.Context, userID model.AccountID, conversationID model.ConversationID, page pagination.Request) ([]model.MessageView, error)
}

type chatService struct {
	db          *gorm.DB
	broadcaster Broadcaster
	policy      pagination.Policy
}

func NewChatService(db *gorm.DB, broadcaster Broadcaster, policy pagination.Policy) ChatService {
	return &chatService{db: db, broadcaster: broadcaster, policy: policy}
}

func (s *chatService) authorizer(tx *gorm.DB) *ConversationAuthorizer {
	return NewConversationAuthorizer(repository.NewFollowRepository(tx), repository.NewChatRepository(tx))
}

func (s *chatService) deliver(to []model.AccountID, event string, payload any) {
	if s.broadcaster != nil {
		s.broadcaster.Deliver(to, event, payload)
	}
}

// memberSet memberIDs ∪ {initiator}，去重并排序
func memberSet(initiatorID model.AccountID, memberIDs []model.AccountID) []model.AccountID {
	seen := map[model.AccountID]struct{}{initiatorID: {}}
	out := []model.AccountID{initiatorID}
	for _, id := range memberIDs {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *chatService) CreateConversation(ctx context.Context, initiatorID model.AccountID, memberIDs []model.AccountID) (*model.ConversationView, error) {
	members := memberSet(initiatorID, memberIDs)
	if len(members) < 2 {
		return nil, apperr.BadRequest("a conversation needs at least two members")
	}

	var conv *model.ConversationView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.authorizer(tx).CanCreateConversation(ctx, initiatorID, members)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Unauthorized("initiator must follow every member")
		}
		conv, err = repository.NewChatRepository(tx).CreateConversation(ctx, members)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.deliver(conv.Members, EventConversationCreated, conv)
	return conv, nil
}

func (s *chatService) SendMessage(ctx context.Context, userID model.AccountID, conversationID model.ConversationID, content string) (*model.MessageView, error) {
	if content == "" {
		return nil, apperr.BadRequest("message must not be empty")
	}
	var (
		msg     *model.Message
		members []model.AccountID
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.authorizer(tx).CanPostToConversation(ctx, userID, conversationID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Unauthorized("sender must be a member following every other member")
		}
		chats := repository.NewChatRepository(tx)
		msg = &model.Message{AuthorID: userID, ConversationID: conversationID, Content: content}
		if err := chats.CreateMessage(ctx, msg); err != nil {
			return err
		}
		members, err = chats.MemberIDs(ctx, conversationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.MessagesSent.Inc()
	v := msg.View()
	s.deliver(members, EventReceiveMessage, v)
	return &v, nil
}

func (s *chatService) ListConversations(ctx context.Context, userID model.AccountID, page pagination.Request) ([]model.ConversationView, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	convs, err := repository.NewChatRepository(s.db).ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return pagination.Paginate(convs, page, s.policy)
}

func (s *chatService) ListMessages(ctx context.Context, userID model.AccountID, conversationID model.ConversationID, page pagination.Request) ([]model.MessageView, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	out := []model.MessageView{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chats := repository.NewChatRepository(tx)
		members, err := chats.MemberIDs(ctx, conversationID)
		if err != nil {
			return err
		}
		isMember := false
		for _, m := range members {
			if m == userID {
				isMember = true
				break
			}
		}
		if !isMember {
			return apperr.Unauthorized("not a conversation member")
		}
		msgs, err := chats.PageMessages(ctx, conversationID, page, s.policy.Limit(page))
		if err != nil {
			return err
		}
		for i := range msgs {
			out = append(out, msgs[i].View())
		}
		return nil
	}, database.SnapshotTxOptions(s.db))
	if err != nil {
		return nil, err
	}
	return out, nil
}
