package visibility

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/social-feed/internal/apperr"
	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/internal/testutil"
)

func TestCanView(t *testing.T) {
	tests := []struct {
		name    string
		viewer  model.AccountID
		owner   Owner
		follows bool
		want    bool
	}{
		{name: "self private", viewer: "a", owner: Owner{ID: "a", IsPrivate: true}, want: true},
		{name: "public stranger", viewer: "v", owner: Owner{ID: "o"}, want: true},
		{name: "public follower", viewer: "v", owner: Owner{ID: "o"}, follows: true, want: true},
		{name: "private stranger", viewer: "v", owner: Owner{ID: "o", IsPrivate: true}, want: false},
		{name: "private follower", viewer: "v", owner: Owner{ID: "o", IsPrivate: true}, follows: true, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanView(tt.viewer, tt.owner, tt.follows))
		})
	}
}

func TestScopeFiltersAuthors(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "viewer", true)
	testutil.CreateUser(t, db, "public", false)
	testutil.CreateUser(t, db, "followed", true)
	testutil.CreateUser(t, db, "hidden", true)
	testutil.CreateUser(t, db, "fan", false)
	testutil.CreateFollow(t, db, "viewer", "followed")
	// 反向关注不产生可见性
	testutil.CreateFollow(t, db, "hidden", "viewer")
	// 其他人的关注不影响 viewer
	testutil.CreateFollow(t, db, "fan", "hidden")

	var got []string
	err := db.Model(&model.User{}).
		Scopes(Scope("viewer", "users")).
		Order("users.id ASC").
		Pluck("users.id", &got).Error
	require.NoError(t, err)
	assert.Equal(t, []string{"fan", "followed", "public", "viewer"}, got)
}

type fakeAccounts map[model.AccountID]*model.User

func (f fakeAccounts) GetByID(_ context.Context, id model.AccountID) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("user")
}

type fakeFollows map[[2]model.AccountID]bool

func (f fakeFollows) Exists(_ context.Context, follower, followee model.AccountID) (bool, error) {
	return f[[2]model.AccountID{follower, followee}], nil
}

func TestChecker(t *testing.T) {
	accounts := fakeAccounts{
		"pub":  {ID: "pub"},
		"priv": {ID: "priv", IsPrivate: true},
	}
	follows := fakeFollows{{"fan", "priv"}: true}
	c := NewChecker(accounts, follows)
	ctx := context.Background()

	ok, err := c.CanView(ctx, "anyone", "pub")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.CanView(ctx, "anyone", "priv")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.CanView(ctx, "fan", "priv")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.CanView(ctx, "priv", "priv")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = c.CanView(ctx, "fan", "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	ok, err = c.Visible(ctx, "fan", "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}
