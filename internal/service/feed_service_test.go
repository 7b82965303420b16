package service

import (
	"testing"

	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/model"
	"github.com/nsxzhou1114/gram-api/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedContainsOwnAndFollowedItems(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)
	bob := env.createUser(t, "bob", false)
	carol := env.createUser(t, "carol", false)
	own := env.post(t, alice, "own", nil, nil)
	followed := env.post(t, bob, "followed", nil, nil)
	env.post(t, carol, "stranger", nil, nil)
	env.follow(t, alice, bob)

	feed, err := env.feed.Feed(env.ctx, alice, firstPage())
	require.NoError(t, err)
	assert.Equal(t, []uint{followed.ID, own.ID}, itemIDs(feed.List))
	assert.Equal(t, int64(2), feed.Total)
	assert.Equal(t, "bob", feed.List[0].Owner.Username)
}

func TestAvailableAndExplore(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)
	bob := env.createUser(t, "bob", true)
	carol := env.createUser(t, "carol", true)
	dave := env.createUser(t, "dave", false)
	own := env.post(t, alice, "", nil, nil)
	followedPrivate := env.post(t, bob, "", nil, nil)
	env.post(t, carol, "", nil, nil)
	public := env.post(t, dave, "", nil, nil)
	env.follow(t, alice, bob)

	available, err := env.feed.Available(env.ctx, alice, firstPage())
	require.NoError(t, err)
	assert.Equal(t, []uint{public.ID, followedPrivate.ID, own.ID}, itemIDs(available.List))

	explore, err := env.feed.Explore(env.ctx, alice, firstPage())
	require.NoError(t, err)
	assert.Equal(t, []uint{public.ID, followedPrivate.ID}, itemIDs(explore.List))
}

func TestTrendingOrdersByLikes(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)
	bob := env.createUser(t, "bob", false)
	carol := env.createUser(t, "carol", false)
	hidden := env.createUser(t, "hidden", true)
	old := env.post(t, alice, "old", nil, nil)
	popular := env.post(t, alice, "popular", nil, nil)
	newest := env.post(t, alice, "newest", nil, nil)
	secret := env.post(t, hidden, "secret", nil, nil)

	for _, uid := range []uint{bob, carol} {
		_, err := env.interactions.ToggleItemLike(env.ctx, uid, popular.ID)
		require.NoError(t, err)
	}
	_, err := env.interactions.ToggleItemLike(env.ctx, bob, old.ID)
	require.NoError(t, err)
	require.NoError(t, env.db.Create(&model.ItemLike{UserID: bob, ItemID: secret.ID}).Error)
	require.NoError(t, env.db.Create(&model.ItemLike{UserID: carol, ItemID: secret.ID}).Error)
	require.NoError(t, env.db.Create(&model.ItemLike{UserID: alice, ItemID: secret.ID}).Error)

	trending, err := env.feed.Trending(env.ctx, carol, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{popular.ID, old.ID, newest.ID}, itemIDs(trending))
	assert.Equal(t, int64(2), trending[0].LikesCount)

	limited, err := env.feed.Trending(env.ctx, carol, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{popular.ID}, itemIDs(limited))
}

func TestHashtagItems(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)
	bob := env.createUser(t, "bob", true)
	tagged := env.post(t, alice, "", []string{"sunset"}, nil)
	env.post(t, alice, "", []string{"sea"}, nil)
	env.post(t, bob, "", []string{"sunset"}, nil)

	var hashtag model.Hashtag
	require.NoError(t, env.db.Where("slug = ?", "sunset").First(&hashtag).Error)

	items, err := env.feed.HashtagItems(env.ctx, alice, hashtag.ID, firstPage())
	require.NoError(t, err)
	assert.Equal(t, []uint{tagged.ID}, itemIDs(items.List))
	require.Len(t, items.List[0].Hashtags, 1)
	assert.Equal(t, "sunset", items.List[0].Hashtags[0].Name)

	_, err = env.feed.HashtagItems(env.ctx, alice, 999, firstPage())
	assert.True(t, apperr.IsType(err, apperr.TypeNotFound))
}

func TestSuggestedProfiles(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)
	bob := env.createUser(t, "bob", false)
	carol := env.createUser(t, "carol", false)
	dave := env.createUser(t, "dave", false)
	erin := env.createUser(t, "erin", true)
	frank := env.createUser(t, "frank", true)
	env.createUser(t, "grace", false)

	// alice关注bob，bob关注carol和erin，dave关注alice
	env.follow(t, alice, bob)
	env.follow(t, bob, carol)
	env.follow(t, bob, erin)
	env.follow(t, bob, alice)
	env.follow(t, dave, alice)
	// 待处理请求：erin在候选中被移除，frank不在候选中被加入
	_, err := env.follows.Toggle(env.ctx, alice, erin)
	require.NoError(t, err)
	_, err = env.follows.Toggle(env.ctx, alice, frank)
	require.NoError(t, err)

	suggested, err := env.feed.SuggestedProfiles(env.ctx, alice, 0)
	require.NoError(t, err)
	ids := make([]uint, 0, len(suggested))
	for _, u := range suggested {
		ids = append(ids, u.ID)
	}
	assert.ElementsMatch(t, []uint{carol, dave, frank}, ids)

	limited, err := env.feed.SuggestedProfiles(env.ctx, alice, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSuggestedProfilesEmpty(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)

	suggested, err := env.feed.SuggestedProfiles(env.ctx, alice, 0)
	require.NoError(t, err)
	assert.Equal(t, []dto.UserBrief{}, suggested)
}
