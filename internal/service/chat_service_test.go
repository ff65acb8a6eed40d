package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/social-feed/internal/apperr"
	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/internal/pagination"
	"github.com/d60-Lab/social-feed/internal/repository"
	"github.com/d60-Lab/social-feed/internal/testutil"
)

type delivery struct {
	to    []model.AccountID
	event string
}

type recordingBroadcaster struct {
	mu  sync.Mutex
	got []delivery
}

func (b *recordingBroadcaster) Deliver(to []model.AccountID, event string, _ any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.got = append(b.got, delivery{to: to, event: event})
}

func TestConversationAuthorizer(t *testing.T) {
	db := testutil.NewDB(t)
	for _, id := range []string{"A", "B", "C"} {
		testutil.CreateUser(t, db, id, false)
	}
	testutil.CreateFollow(t, db, "A", "B")
	testutil.CreateFollow(t, db, "A", "C")
	authz := NewConversationAuthorizer(repository.NewFollowRepository(db), repository.NewChatRepository(db))
	ctx := context.Background()

	ok, err := authz.CanCreateConversation(ctx, "A", []model.AccountID{"B", "C"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = authz.CanCreateConversation(ctx, "A", []model.AccountID{"A", "B"})
	require.NoError(t, err)
	assert.True(t, ok, "initiator listed as member is ignored")

	ok, err = authz.CanCreateConversation(ctx, "B", []model.AccountID{"A"})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repository.NewFollowRepository(db).Delete(ctx, "A", "C"))
	ok, err = authz.CanCreateConversation(ctx, "A", []model.AccountID{"B", "C"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = authz.CanPostToConversation(ctx, "A", "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestChatAsymmetricCreateSymmetricSend(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "A", false)
	testutil.CreateUser(t, db, "B", false)
	testutil.CreateUser(t, db, "X", false)
	testutil.CreateFollow(t, db, "A", "B")
	b := &recordingBroadcaster{}
	chat := NewChatService(db, b, pagination.DefaultPolicy)
	ctx := context.Background()

	conv, err := chat.CreateConversation(ctx, "A", []model.AccountID{"B", "B", "A"})
	require.NoError(t, err)
	assert.Equal(t, []model.AccountID{"A", "B"}, conv.Members)

	authz := NewConversationAuthorizer(repository.NewFollowRepository(db), repository.NewChatRepository(db))
	ok, err := authz.CanPostToConversation(ctx, "B", conv.ID)
	require.NoError(t, err)
	assert.False(t, ok, "member who does not follow back cannot send")

	_, err = chat.SendMessage(ctx, "B", conv.ID, "hi")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	msg, err := chat.SendMessage(ctx, "A", conv.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, msg.ConversationID)

	// 非成员
	testutil.CreateFollow(t, db, "X", "A")
	testutil.CreateFollow(t, db, "X", "B")
	_, err = chat.SendMessage(ctx, "X", conv.ID, "let me in")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	testutil.CreateFollow(t, db, "B", "A")
	_, err = chat.SendMessage(ctx, "B", conv.ID, "hi back")
	require.NoError(t, err)

	_, err = chat.SendMessage(ctx, "A", "missing", "x")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.Len(t, b.got, 3)
	assert.Equal(t, EventConversationCreated, b.got[0].event)
	assert.Equal(t, EventReceiveMessage, b.got[1].event)
	assert.Equal(t, []model.AccountID{"A", "B"}, b.got[1].to)
}

func TestChatCreateRejects(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "A", false)
	testutil.CreateUser(t, db, "B", false)
	chat := NewChatService(db, nil, pagination.DefaultPolicy)
	ctx := context.Background()

	_, err := chat.CreateConversation(ctx, "A", []model.AccountID{"A"})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = chat.CreateConversation(ctx, "A", []model.AccountID{"B"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	var n int64
	require.NoError(t, db.Model(&model.Conversation{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestChatListing(t *testing.T) {
	db := testutil.NewDB(t)
	for _, id := range []string{"A", "B", "C"} {
		testutil.CreateUser(t, db, id, false)
	}
	testutil.CreateFollow(t, db, "A", "B")
	testutil.CreateFollow(t, db, "A", "C")
	chat := NewChatService(db, nil, pagination.DefaultPolicy)
	ctx := context.Background()

	c1, err := chat.CreateConversation(ctx, "A", []model.AccountID{"B"})
	require.NoError(t, err)
	c2, err := chat.CreateConversation(ctx, "A", []model.AccountID{"C"})
	require.NoError(t, err)

	convs, err := chat.ListConversations(ctx, "A", pagination.Request{})
	require.NoError(t, err)
	require.Len(t, convs, 2)
	first, second := convs[0], convs[1]
	assert.True(t, pagination.Less(first, second))

	rest, err := chat.ListConversations(ctx, "A", pagination.Request{After: string(first.ID)})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, second.ID, rest[0].ID)

	convs, err = chat.ListConversations(ctx, "B", pagination.Request{})
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, c1.ID, convs[0].ID)

	for _, m := range []string{"one", "two", "three"} {
		_, err := chat.SendMessage(ctx, "A", c2.ID, m)
		require.NoError(t, err)
	}
	msgs, err := chat.ListMessages(ctx, "C", c2.ID, pagination.Request{Limit: 2})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	older, err := chat.ListMessages(ctx, "C", c2.ID, pagination.Request{After: string(msgs[1].ID)})
	require.NoError(t, err)
	assert.Len(t, older, 1)

	_, err = chat.ListMessages(ctx, "B", c2.ID, pagination.Request{})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = chat.ListMessages(ctx, "A", "missing", pagination.Request{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = chat.ListConversations(ctx, "A", pagination.Request{Limit: -1})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}
