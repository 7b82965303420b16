package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Manager 管理在线用户的通知连接
type Manager struct {
	mu     sync.RWMutex
	conns  map[uint]map[*connection]struct{}
	store  MessageStore
	logger *zap.SugaredLogger
}

var (
	defaultManager *Manager
	managerOnce    sync.Once
)

// NewManager 创建管理器，store为nil时离线用户收不到补发
func NewManager(store MessageStore, log *zap.SugaredLogger) *Manager {
	return &Manager{
		conns:  make(map[uint]map[*connection]struct{}),
		store:  store,
		logger: log,
	}
}

// GetManager 全局管理器
func GetManager() *Manager {
	managerOnce.Do(func() {
		defaultManager = NewManager(nil, logger.GetSugaredLogger())
	})
	return defaultManager
}

// Initialize 设置离线消息存储
func (m *Manager) Initialize(store MessageStore) {
	m.mu.Lock()
	m.store = store
	m.mu.Unlock()
}

// Shutdown 断开所有连接
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := m.conns
	m.conns = make(map[uint]map[*connection]struct{})
	m.mu.Unlock()

	for _, set := range all {
		for conn := range set {
			conn.close()
		}
	}
	m.logger.Info("通知推送连接已全部关闭")
}

// HandleWebSocket 升级为WebSocket连接，补发离线消息后开始推送
func (m *Manager) HandleWebSocket(c *gin.Context, userID uint) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		m.logger.Warnf("WebSocket升级失败: %v", err)
		return
	}

	conn := newConnection(userID, ws)
	m.add(conn)
	go conn.writeLoop()
	m.flushOffline(c.Request.Context(), conn)
	go conn.readLoop(m.remove)
}

// Push 推送给用户的全部在线连接，一个都没送达时转入离线存储
func (m *Manager) Push(ctx context.Context, userID uint, msgType string, data interface{}) error {
	payload, err := encode(msgType, data)
	if err != nil {
		return err
	}

	m.mu.RLock()
	delivered := false
	for conn := range m.conns[userID] {
		if conn.enqueue(payload) {
			delivered = true
		}
	}
	store := m.store
	m.mu.RUnlock()

	if delivered || store == nil {
		return nil
	}
	return store.Save(ctx, userID, payload)
}

// IsUserOnline 用户是否有在线连接
func (m *Manager) IsUserOnline(userID uint) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns[userID]) > 0
}

func (m *Manager) add(conn *connection) {
	m.mu.Lock()
	set, ok := m.conns[conn.userID]
	if !ok {
		set = make(map[*connection]struct{})
		m.conns[conn.userID] = set
	}
	set[conn] = struct{}{}
	count := len(set)
	m.mu.Unlock()

	m.logger.Debugw("通知连接建立", "user_id", conn.userID, "connections", count)
}

func (m *Manager) remove(conn *connection) {
	m.mu.Lock()
	if set, ok := m.conns[conn.userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(m.conns, conn.userID)
		}
	}
	m.mu.Unlock()

	m.logger.Debugw("通知连接断开", "user_id", conn.userID)
}

// flushOffline 把离线期间的消息写入新连接
func (m *Manager) flushOffline(ctx context.Context, conn *connection) {
	m.mu.RLock()
	store := m.store
	m.mu.RUnlock()
	if store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	payloads, err := store.Drain(ctx, conn.userID)
	if err != nil {
		m.logger.Errorf("补发离线消息失败: %v", err)
		return
	}
	for i, payload := range payloads {
		if !conn.enqueue(payload) {
			m.logger.Warnf("用户 %d 的离线消息有 %d 条未能补发", conn.userID, len(payloads)-i)
			return
		}
	}
}
