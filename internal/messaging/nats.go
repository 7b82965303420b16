package messaging

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nsxzhou1114/gram-api/internal/config"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"go.uber.org/zap"
)

// 事件主题，实际主题为 {prefix}.{subject}
const (
	SubjectNotificationCreated = "notification.created"
	SubjectItemCreated         = "item.created"
	SubjectFollowChanged       = "follow.changed"
)

// Publisher 领域事件发布接口
type Publisher interface {
	Publish(subject string, event interface{}) error
	Close()
}

// NotificationEvent 通知创建或重新激活
type NotificationEvent struct {
	NotificationID uint   `json:"notification_id"`
	Type           string `json:"notification_type"`
	SenderID       uint   `json:"sender_id"`
	ReceiverID     uint   `json:"receiver_id"`
	ItemID         *uint  `json:"item_id,omitempty"`
	CommentID      *uint  `json:"comment_id,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// ItemCreatedEvent 作品发布
type ItemCreatedEvent struct {
	ItemID    uint     `json:"item_id"`
	OwnerID   uint     `json:"owner_id"`
	Slug      string   `json:"slug"`
	Hashtags  []string `json:"hashtags"`
	Timestamp string   `json:"timestamp"`
}

// FollowChangedEvent 关注关系变化，State为followed unfollowed requested
type FollowChangedEvent struct {
	FollowerID uint   `json:"follower_id"`
	FollowedID uint   `json:"followed_id"`
	State      string `json:"state"`
	Timestamp  string `json:"timestamp"`
}

// Now 事件时间戳
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// NatsPublisher 基于NATS的发布者
type NatsPublisher struct {
	conn   *nats.Conn
	prefix string
}

// NewNatsPublisher 连接NATS
func NewNatsPublisher(cfg *config.NatsConfig) (*NatsPublisher, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("gram-api"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS连接断开", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("连接NATS失败: %w", err)
	}
	logger.Info("NATS连接成功", zap.String("url", cfg.URL))
	return &NatsPublisher{conn: conn, prefix: cfg.SubjectPrefix}, nil
}

// Publish 序列化并发布事件
func (p *NatsPublisher) Publish(subject string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	return p.conn.Publish(p.subject(subject), data)
}

// Subscribe 订阅事件，subject支持通配符
func (p *NatsPublisher) Subscribe(subject string, handler func([]byte)) (*nats.Subscription, error) {
	return p.conn.Subscribe(p.subject(subject), func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// Close 清空缓冲并关闭连接
func (p *NatsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

func (p *NatsPublisher) subject(s string) string {
	if p.prefix == "" {
		return s
	}
	return p.prefix + "." + s
}

// NoopPublisher 未启用NATS时使用
type NoopPublisher struct{}

// Publish 丢弃事件
func (NoopPublisher) Publish(string, interface{}) error { return nil }

// Close 无操作
func (NoopPublisher) Close() {}

// NewPublisher 根据配置创建发布者，连接失败时降级为NoopPublisher
func NewPublisher(cfg *config.NatsConfig) Publisher {
	if !cfg.Enabled {
		return NoopPublisher{}
	}
	p, err := NewNatsPublisher(cfg)
	if err != nil {
		logger.Warn("NATS不可用，领域事件将被丢弃", zap.Error(err))
		return NoopPublisher{}
	}
	return p
}

var (
	globalPublisher Publisher = NoopPublisher{}
	publisherMutex  sync.RWMutex
)

// SetPublisher 设置全局发布者
func SetPublisher(p Publisher) {
	publisherMutex.Lock()
	defer publisherMutex.Unlock()
	if p == nil {
		p = NoopPublisher{}
	}
	globalPublisher = p
}

// GetPublisher 获取全局发布者，未设置时为NoopPublisher
func GetPublisher() Publisher {
	publisherMutex.RLock()
	defer publisherMutex.RUnlock()
	return globalPublisher
}
