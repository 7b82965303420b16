package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	readTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
	readLimit    = 4096
	sendBuffer   = 128
)

// connection 单个WebSocket连接，同一用户可以同时存在多个
type connection struct {
	userID uint
	ws     *websocket.Conn
	out    chan []byte

	mu     sync.Mutex
	closed bool
}

func newConnection(userID uint, ws *websocket.Conn) *connection {
	return &connection{
		userID: userID,
		ws:     ws,
		out:    make(chan []byte, sendBuffer),
	}
}

// enqueue 非阻塞写入发送队列
func (c *connection) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.out <- payload:
		return true
	default:
		return false
	}
}

// close 关闭连接，可重复调用
func (c *connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.out)
	_ = c.ws.Close()
}

// readLoop 读取客户端消息直到连接断开，读超时由pong续期
func (c *connection) readLoop(done func(*connection)) {
	defer func() {
		done(c)
		c.close()
	}()

	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(readTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(readTimeout))

		var incoming struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(data, &incoming) == nil && incoming.Type == TypePing {
			if pong, err := encode(TypePong, nil); err == nil {
				c.enqueue(pong)
			}
		}
	}
}

// writeLoop 发送队列中的消息并定时ping
func (c *connection) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case payload, ok := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
