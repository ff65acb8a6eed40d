package pagination

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/internal/testutil"
)

func TestQueryMatchesPaginate(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", false)
	var mem []*model.Post
	for i := 0; i < 12; i++ {
		// 每两条共享时间戳
		p := testutil.CreatePost(t, db, fmt.Sprintf("post-%02d", (i*5)%12), "u1", testutil.At(i/2), "")
		mem = append(mem, p)
	}
	testutil.CreatePost(t, db, "comment", "u1", testutil.At(100), "post-00")

	base := func() *gorm.DB { return db.Model(&model.Post{}).Where("posts.parent_id IS NULL") }
	policy := Policy{Max: 100}

	reqs := []Request{
		{},
		{Limit: 4},
		{Limit: 4, After: "post-05"},
		{Limit: 3, Before: "post-01"},
		{Limit: 50, Before: "post-07"},
		{Limit: 2, After: "comment"},
		{Limit: 2, Before: "missing"},
	}
	for _, req := range reqs {
		t.Run(fmt.Sprintf("%+v", req), func(t *testing.T) {
			want, err := Paginate(mem, req, policy)
			require.NoError(t, err)

			got, err := Query[model.Post](base, "posts", req, policy.Limit(req))
			require.NoError(t, err)

			wantIDs := make([]string, len(want))
			for i, p := range want {
				wantIDs[i] = string(p.ID)
			}
			gotIDs := make([]string, len(got))
			for i, p := range got {
				gotIDs[i] = string(p.ID)
			}
			assert.Equal(t, wantIDs, gotIDs)
		})
	}
}
