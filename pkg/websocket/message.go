package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// 推送消息类型
const (
	TypeNotification = "notification"
	TypePong         = "pong"
	TypePing         = "ping"
)

// Message 推送给客户端的消息信封
type Message struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	SentAt time.Time       `json:"sent_at"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// encode 组装消息并序列化
func encode(msgType string, data interface{}) ([]byte, error) {
	msg := Message{
		ID:     uuid.NewString(),
		Type:   msgType,
		SentAt: time.Now(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}
