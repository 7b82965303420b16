package service

import (
	"testing"

	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/model"
	"github.com/nsxzhou1114/gram-api/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleItemLikeIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)
	bob := env.createUser(t, "bob", false)
	item := env.post(t, alice, "", nil, nil)

	for i := 0; i < 3; i++ {
		resp, err := env.interactions.ToggleItemLike(env.ctx, bob, item.ID)
		require.NoError(t, err)
		assert.Equal(t, dto.ToggleStateLiked, resp.State)
		assert.Equal(t, int64(1), resp.Count)
		assert.Len(t, env.activeNotifications(t, model.NotificationLike, alice), 1)

		resp, err = env.interactions.ToggleItemLike(env.ctx, bob, item.ID)
		require.NoError(t, err)
		assert.Equal(t, dto.ToggleStateUnliked, resp.State)
		assert.Zero(t, resp.Count)
		assert.Empty(t, env.activeNotifications(t, model.NotificationLike, alice))
	}

	var total int64
	require.NoError(t, env.db.Model(&model.Notification{}).Count(&total).Error)
	assert.Equal(t, int64(1), total)
}

func TestLikeOwnItemHasNoNotification(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)
	item := env.post(t, alice, "", nil, nil)

	resp, err := env.interactions.ToggleItemLike(env.ctx, alice, item.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.ToggleStateLiked, resp.State)

	var total int64
	require.NoError(t, env.db.Model(&model.Notification{}).Count(&total).Error)
	assert.Zero(t, total)
}

func TestToggleFavourite(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)
	bob := env.createUser(t, "bob", false)
	item := env.post(t, alice, "", nil, nil)

	resp, err := env.interactions.ToggleFavourite(env.ctx, bob, item.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.ToggleStateFavourited, resp.State)
	assert.Equal(t, int64(1), resp.Count)

	users, err := env.interactions.ItemFavourites(env.ctx, alice, item.ID, firstPage())
	require.NoError(t, err)
	require.Len(t, users.List, 1)
	assert.Equal(t, bob, users.List[0].ID)

	resp, err = env.interactions.ToggleFavourite(env.ctx, bob, item.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.ToggleStateUnfavourited, resp.State)

	var total int64
	require.NoError(t, env.db.Model(&model.Notification{}).Count(&total).Error)
	assert.Zero(t, total)
}

func TestToggleCommentLike(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)
	bob := env.createUser(t, "bob", false)
	item := env.post(t, alice, "", nil, nil)
	comment, err := env.comments.Create(env.ctx, bob, item.ID, &dto.CommentCreateRequest{Content: "hi"})
	require.NoError(t, err)

	resp, err := env.interactions.ToggleCommentLike(env.ctx, alice, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.ToggleStateLiked, resp.State)

	list := env.activeNotifications(t, model.NotificationCommentLike, bob)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].ItemID)
	require.NotNil(t, list[0].CommentID)
	assert.Equal(t, item.ID, *list[0].ItemID)
	assert.Equal(t, comment.ID, *list[0].CommentID)

	likers, err := env.interactions.CommentLikes(env.ctx, bob, comment.ID, firstPage())
	require.NoError(t, err)
	require.Len(t, likers.List, 1)
	assert.Equal(t, alice, likers.List[0].ID)

	got, err := env.comments.Get(env.ctx, alice, comment.ID)
	require.NoError(t, err)
	assert.True(t, got.IsLiked)
	assert.Equal(t, int64(1), got.LikesCount)

	_, err = env.interactions.ToggleCommentLike(env.ctx, alice, comment.ID)
	require.NoError(t, err)
	assert.Empty(t, env.activeNotifications(t, model.NotificationCommentLike, bob))
}

func TestLikePrivateItemRequiresFollow(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", true)
	bob := env.createUser(t, "bob", false)
	item := env.post(t, alice, "", nil, nil)

	_, err := env.interactions.ToggleItemLike(env.ctx, bob, item.ID)
	assert.True(t, apperr.IsType(err, apperr.TypePermissionDenied))

	_, err = env.interactions.ToggleItemLike(env.ctx, bob, 999)
	assert.True(t, apperr.IsType(err, apperr.TypeNotFound))

	env.follow(t, bob, alice)
	resp, err := env.interactions.ToggleItemLike(env.ctx, bob, item.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.ToggleStateLiked, resp.State)

	likers, err := env.interactions.ItemLikes(env.ctx, alice, item.ID, firstPage())
	require.NoError(t, err)
	assert.Equal(t, int64(1), likers.Total)
}
