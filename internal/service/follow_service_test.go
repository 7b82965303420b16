package service

import (
	"testing"

	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/model"
	"github.com/nsxzhou1114/gram-api/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleFollowPublicAccount(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)
	bob := env.createUser(t, "bob", false)

	resp, err := env.follows.Toggle(env.ctx, bob, alice)
	require.NoError(t, err)
	assert.Equal(t, dto.FollowStateFollowed, resp.State)
	following, err := isFollowing(env.db, bob, alice)
	require.NoError(t, err)
	assert.True(t, following)
	assert.Len(t, env.activeNotifications(t, model.NotificationFollow, alice), 1)

	resp, err = env.follows.Toggle(env.ctx, bob, alice)
	require.NoError(t, err)
	assert.Equal(t, dto.FollowStateUnfollowed, resp.State)
	following, err = isFollowing(env.db, bob, alice)
	require.NoError(t, err)
	assert.False(t, following)
	assert.Empty(t, env.activeNotifications(t, model.NotificationFollow, alice))

	// 再次关注复用同一条通知
	_, err = env.follows.Toggle(env.ctx, bob, alice)
	require.NoError(t, err)
	var total int64
	require.NoError(t, env.db.Model(&model.Notification{}).Count(&total).Error)
	assert.Equal(t, int64(1), total)
}

func TestToggleFollowSelf(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)

	resp, err := env.follows.Toggle(env.ctx, alice, alice)
	require.NoError(t, err)
	assert.Equal(t, dto.FollowStateSelf, resp.State)

	var edges int64
	require.NoError(t, env.db.Model(&model.UserFollow{}).Count(&edges).Error)
	assert.Zero(t, edges)
}

func TestToggleFollowMissingTarget(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)

	_, err := env.follows.Toggle(env.ctx, alice, 999)
	assert.True(t, apperr.IsType(err, apperr.TypeNotFound))
}

func TestPrivateAccountRequestAndAccept(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", true)
	bob := env.createUser(t, "bob", false)
	item := env.post(t, alice, "private", nil, nil)

	resp, err := env.follows.Toggle(env.ctx, bob, alice)
	require.NoError(t, err)
	assert.Equal(t, dto.FollowStateRequested, resp.State)

	following, err := isFollowing(env.db, bob, alice)
	require.NoError(t, err)
	assert.False(t, following)

	var request model.FollowRequest
	require.NoError(t, env.db.Where("sender_id = ? AND receiver_id = ?", bob, alice).First(&request).Error)
	assert.Equal(t, model.FollowRequestSent, request.Status)
	requests := env.activeNotifications(t, model.NotificationFollowRequest, alice)
	require.Len(t, requests, 1)
	assert.Equal(t, model.FollowRequestSent, requests[0].Status)

	feed, err := env.feed.Feed(env.ctx, bob, firstPage())
	require.NoError(t, err)
	assert.Empty(t, feed.List)

	// 重复请求只返回提示
	resp, err = env.follows.Toggle(env.ctx, bob, alice)
	require.NoError(t, err)
	assert.Equal(t, dto.FollowStateAlreadyRequested, resp.State)
	var count int64
	require.NoError(t, env.db.Model(&model.FollowRequest{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	pending, err := env.follows.Requests(env.ctx, alice, firstPage())
	require.NoError(t, err)
	require.Len(t, pending.List, 1)
	assert.Equal(t, "bob", pending.List[0].Sender.Username)

	require.NoError(t, env.follows.Accept(env.ctx, alice, request.ID))

	following, err = isFollowing(env.db, bob, alice)
	require.NoError(t, err)
	assert.True(t, following)
	assert.Empty(t, env.activeNotifications(t, model.NotificationFollowRequest, alice))
	assert.Len(t, env.activeNotifications(t, model.NotificationFollow, alice), 1)

	var resolved model.Notification
	require.NoError(t, env.db.Where("notification_type = ?", model.NotificationFollowRequest).First(&resolved).Error)
	assert.Equal(t, model.FollowRequestAccepted, resolved.Status)

	feed, err = env.feed.Feed(env.ctx, bob, firstPage())
	require.NoError(t, err)
	assert.Equal(t, []uint{item.ID}, itemIDs(feed.List))

	// 已处理的请求不能再次处理
	err = env.follows.Accept(env.ctx, alice, request.ID)
	assert.True(t, apperr.IsType(err, apperr.TypeNotFound))
}

func TestDeclineFollowRequest(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", true)
	bob := env.createUser(t, "bob", false)

	_, err := env.follows.Toggle(env.ctx, bob, alice)
	require.NoError(t, err)
	var request model.FollowRequest
	require.NoError(t, env.db.First(&request).Error)

	// 只有接收者可以处理
	err = env.follows.Decline(env.ctx, bob, request.ID)
	assert.True(t, apperr.IsType(err, apperr.TypeNotFound))

	require.NoError(t, env.follows.Decline(env.ctx, alice, request.ID))
	following, err := isFollowing(env.db, bob, alice)
	require.NoError(t, err)
	assert.False(t, following)

	var n model.Notification
	require.NoError(t, env.db.Where("notification_type = ?", model.NotificationFollowRequest).First(&n).Error)
	assert.Equal(t, model.FollowRequestDeclined, n.Status)
	assert.False(t, n.IsActive)

	// 拒绝后可以再次发送请求
	resp, err := env.follows.Toggle(env.ctx, bob, alice)
	require.NoError(t, err)
	assert.Equal(t, dto.FollowStateRequested, resp.State)
}

func TestFollowersAndFollowing(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)
	bob := env.createUser(t, "bob", false)
	carol := env.createUser(t, "carol", false)
	env.follow(t, bob, alice)
	env.follow(t, carol, alice)
	env.follow(t, alice, alice)
	env.follow(t, alice, carol)

	followers, err := env.follows.Followers(env.ctx, 0, alice, firstPage())
	require.NoError(t, err)
	assert.Equal(t, int64(2), followers.Total)
	assert.Equal(t, "bob", followers.List[0].Username)
	assert.Equal(t, "carol", followers.List[1].Username)

	following, err := env.follows.Following(env.ctx, 0, alice, firstPage())
	require.NoError(t, err)
	require.Len(t, following.List, 1)
	assert.Equal(t, carol, following.List[0].ID)
}

func TestFollowersOfPrivateAccount(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", true)
	bob := env.createUser(t, "bob", false)
	carol := env.createUser(t, "carol", false)
	env.follow(t, bob, alice)

	_, err := env.follows.Followers(env.ctx, carol, alice, firstPage())
	assert.True(t, apperr.IsType(err, apperr.TypePermissionDenied))

	list, err := env.follows.Followers(env.ctx, bob, alice, firstPage())
	require.NoError(t, err)
	assert.Len(t, list.List, 1)
}
