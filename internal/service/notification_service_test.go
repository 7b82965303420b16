package service

import (
	"testing"

	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/messaging"
	"github.com/nsxzhou1114/gram-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivateReusesRowForSameKey(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)
	bob := env.createUser(t, "bob", false)
	key := notificationKey{SenderID: bob, ReceiverID: alice, ItemID: uintPtr(7), Type: model.NotificationLike}

	first, err := env.notifications.activate(env.db, key, "")
	require.NoError(t, err)
	require.NoError(t, env.notifications.deactivate(env.db, key))
	second, err := env.notifications.activate(env.db, key, "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.IsActive)

	var total int64
	require.NoError(t, env.db.Model(&model.Notification{}).Count(&total).Error)
	assert.Equal(t, int64(1), total)
}

func TestActivateSkipsSelf(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)

	n, err := env.notifications.activate(env.db, notificationKey{SenderID: alice, ReceiverID: alice, Type: model.NotificationFollow}, "")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestKeyDistinguishesItemAndComment(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)
	bob := env.createUser(t, "bob", false)

	_, err := env.notifications.activate(env.db, notificationKey{SenderID: bob, ReceiverID: alice, ItemID: uintPtr(1), Type: model.NotificationLike}, "")
	require.NoError(t, err)
	_, err = env.notifications.activate(env.db, notificationKey{SenderID: bob, ReceiverID: alice, ItemID: uintPtr(2), Type: model.NotificationLike}, "")
	require.NoError(t, err)

	assert.Len(t, env.activeNotifications(t, model.NotificationLike, alice), 2)
}

func TestFollowRequestReactivationResetsStatus(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", true)
	bob := env.createUser(t, "bob", false)
	key := notificationKey{SenderID: bob, ReceiverID: alice, Type: model.NotificationFollowRequest}

	_, err := env.notifications.activate(env.db, key, "")
	require.NoError(t, err)
	require.NoError(t, env.notifications.resolveFollowRequest(env.db, bob, alice, model.FollowRequestDeclined))

	var declined model.Notification
	require.NoError(t, env.db.First(&declined).Error)
	assert.Equal(t, model.FollowRequestDeclined, declined.Status)
	assert.False(t, declined.IsActive)

	n, err := env.notifications.activate(env.db, key, "")
	require.NoError(t, err)
	assert.Equal(t, declined.ID, n.ID)
	assert.Equal(t, model.FollowRequestSent, n.Status)
}

func TestListMarksSeenAfterFetch(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)
	bob := env.createUser(t, "bob", false)
	carol := env.createUser(t, "carol", false)
	item := env.post(t, alice, "sunset", nil, nil)

	_, err := env.interactions.ToggleItemLike(env.ctx, bob, item.ID)
	require.NoError(t, err)
	_, err = env.follows.Toggle(env.ctx, carol, alice)
	require.NoError(t, err)

	unread, err := env.notifications.UnreadCount(env.ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	page, err := env.notifications.List(env.ctx, alice, firstPage())
	require.NoError(t, err)
	require.Len(t, page.List, 2)
	assert.Equal(t, int64(2), page.Total)
	// 返回的是标记前的状态
	for _, n := range page.List {
		assert.False(t, n.IsSeen)
	}
	assert.Equal(t, model.NotificationFollow, page.List[0].Type)
	assert.Equal(t, "carol", page.List[0].Sender.Username)
	assert.Equal(t, item.Slug, page.List[1].ItemSlug)

	unread, err = env.notifications.UnreadCount(env.ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestListHidesInactive(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)
	bob := env.createUser(t, "bob", false)

	_, err := env.follows.Toggle(env.ctx, bob, alice)
	require.NoError(t, err)
	_, err = env.follows.Toggle(env.ctx, bob, alice)
	require.NoError(t, err)

	page, err := env.notifications.List(env.ctx, alice, &dto.PageRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, page.List)
}

func TestDispatchPushesAndPublishes(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", false)
	bob := env.createUser(t, "bob", false)

	_, err := env.follows.Toggle(env.ctx, bob, alice)
	require.NoError(t, err)

	assert.Equal(t, 1, env.pusher.count(alice))
	msg := env.pusher.messages[0]
	assert.Equal(t, PushTypeNotification, msg.MsgType)
	resp, ok := msg.Data.(dto.NotificationResponse)
	require.True(t, ok)
	assert.Equal(t, "bob", resp.Sender.Username)
	assert.Contains(t, env.publisher.subjects, messaging.SubjectNotificationCreated)
	assert.Contains(t, env.publisher.subjects, messaging.SubjectFollowChanged)
}
