package service

import (
	"context"

	"github.com/d60-Lab/social-feed/internal/model"
)

// FollowedIDsLookup 读取某账号的全部出边
type FollowedIDsLookup interface {
	FollowedIDs(ctx context.Context, followerID model.AccountID) ([]model.AccountID, error)
}

// MemberLookup 读取会话成员；会话不存在时返回 NotFound
type MemberLookup interface {
	MemberIDs(ctx context.Context, id model.ConversationID) ([]model.AccountID, error)
}

// ConversationAuthorizer 会话准入规则：
// 创建时发起者必须关注所有成员（单向即可）；
// 发送时发送者必须是成员，且关注会话内其他所有成员（每次发送都重新判断）。
// 两个判断都只读。
type ConversationAuthorizer struct {
	follows FollowedIDsLookup
	members MemberLookup
}

func NewConversationAuthorizer(follows FollowedIDsLookup, members MemberLookup) *ConversationAuthorizer {
	return &ConversationAuthorizer{follows: follows, members: members}
}

func (a *ConversationAuthorizer) followsAll(ctx context.Context, userID model.AccountID, others []model.AccountID) (bool, error) {
	followed, err := a.follows.FollowedIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	set := make(map[model.AccountID]struct{}, len(followed))
	for _, id := range followed {
		set[id] = struct{}{}
	}
	for _, id := range others {
		if id == userID {
			continue
		}
		if _, ok := set[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// CanCreateConversation initiator 出现在 memberIDs 中时忽略自身
func (a *ConversationAuthorizer) CanCreateConversation(ctx context.Context, initiatorID model.AccountID, memberIDs []model.AccountID) (bool, error) {
	return a.followsAll(ctx, initiatorID, memberIDs)
}

// CanPostToConversation 会话不存在时返回 NotFound
func (a *ConversationAuthorizer) CanPostToConversation(ctx context.Context, userID model.AccountID, conversationID model.ConversationID) (bool, error) {
	members, err := a.members.MemberIDs(ctx, conversationID)
	if err != nil {
		return false, err
	}
	isMember := false
	for _, m := range members {
		if m == userID {
			isMember = true
			break
		}
	}
	if !isMember {
		return false, nil
	}
	return a.followsAll(ctx, userID, members)
}
