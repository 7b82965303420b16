package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) (*Manager, *RedisMessageStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := NewRedisMessageStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	m := NewManager(store, zap.NewNop().Sugar())
	t.Cleanup(m.Shutdown)
	return m, store, mr
}

func dial(t *testing.T, m *Manager, userID uint) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", func(c *gin.Context) { m.HandleWebSocket(c, userID) })
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestRedisMessageStoreKeepsLatest(t *testing.T) {
	_, store, mr := newTestManager(t)
	ctx := context.Background()

	for i := 0; i < offlineLimit+5; i++ {
		require.NoError(t, store.Save(ctx, 3, []byte{byte(i)}))
	}
	assert.True(t, mr.Exists("gram:notifications:offline:3"))

	payloads, err := store.Drain(ctx, 3)
	require.NoError(t, err)
	require.Len(t, payloads, offlineLimit)
	assert.Equal(t, []byte{5}, payloads[0])
	assert.False(t, mr.Exists("gram:notifications:offline:3"))

	payloads, err = store.Drain(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, payloads)
}

func TestPushOfflineThenDeliverOnConnect(t *testing.T) {
	m, _, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Push(ctx, 5, TypeNotification, map[string]string{"notification_type": "like"}))
	assert.True(t, mr.Exists("gram:notifications:offline:5"))

	conn := dial(t, m, 5)
	msg := readMessage(t, conn)
	assert.Equal(t, TypeNotification, msg.Type)
	assert.NotEmpty(t, msg.ID)
	assert.JSONEq(t, `{"notification_type":"like"}`, string(msg.Data))
	assert.False(t, mr.Exists("gram:notifications:offline:5"))

	require.True(t, m.IsUserOnline(5))
	require.NoError(t, m.Push(ctx, 5, TypeNotification, map[string]int{"id": 9}))
	msg = readMessage(t, conn)
	assert.JSONEq(t, `{"id":9}`, string(msg.Data))
}

func TestPushReachesEveryConnection(t *testing.T) {
	m, _, mr := newTestManager(t)

	first := dial(t, m, 8)
	second := dial(t, m, 8)
	assert.Eventually(t, func() bool {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return len(m.conns[8]) == 2
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, m.Push(context.Background(), 8, TypeNotification, map[string]int{"id": 1}))
	assert.JSONEq(t, `{"id":1}`, string(readMessage(t, first).Data))
	assert.JSONEq(t, `{"id":1}`, string(readMessage(t, second).Data))
	assert.False(t, mr.Exists("gram:notifications:offline:8"))
}

func TestPingGetsPong(t *testing.T) {
	m, _, _ := newTestManager(t)
	conn := dial(t, m, 2)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, TypePong, readMessage(t, conn).Type)
}

func TestDisconnectRemovesConnection(t *testing.T) {
	m, _, _ := newTestManager(t)
	conn := dial(t, m, 4)
	require.Eventually(t, func() bool { return m.IsUserOnline(4) }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return !m.IsUserOnline(4) }, 2*time.Second, 10*time.Millisecond)
}

func TestPushWithoutStore(t *testing.T) {
	m := NewManager(nil, zap.NewNop().Sugar())
	defer m.Shutdown()
	assert.NoError(t, m.Push(context.Background(), 1, TypeNotification, nil))
	assert.False(t, m.IsUserOnline(1))
}
