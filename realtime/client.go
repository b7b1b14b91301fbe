package realtime

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chatline/config"
	"chatline/logger"
)

// Client 는 하나의 웹소켓 연결과 그 연결에 묶인 사용자이다.
// 읽기/쓰기 고루틴이 하나씩 붙는다.
type Client struct {
	ID     string
	UserID string
	Role   string

	conn *websocket.Conn
	hub  *Hub
	cfg  config.RealtimeConfig

	// send 는 허브가 소유하고 닫는다. control 은 연결 자신이 보내는 응답용이며 닫지 않는다.
	send    chan []byte
	control chan []byte

	state    *stateMachine
	lastSeen atomic.Int64
}

func newClient(conn *websocket.Conn, hub *Hub, id Identity, sm *stateMachine, cfg config.RealtimeConfig) *Client {
	c := &Client{
		ID:      uuid.NewString(),
		UserID:  id.UserID,
		Role:    id.Role,
		conn:    conn,
		hub:     hub,
		cfg:     cfg,
		send:    make(chan []byte, cfg.SendBuffer),
		control: make(chan []byte, 8),
		state:   sm,
	}
	c.lastSeen.Store(time.Now().UnixNano())
	return c
}

// Address 는 대상 지정 전송에 쓰이는 논리 주소이다.
func (c *Client) Address() string {
	return "user:" + c.UserID
}

func (c *Client) State() State {
	return c.state.Current()
}

func (c *Client) touch() {
	c.lastSeen.Store(time.Now().UnixNano())
	if c.state.Current() == StateIdle {
		_ = c.state.Transition(StateActive)
	}
}

func (c *Client) pushControl(evt Event) {
	b, err := evt.encode()
	if err != nil {
		return
	}
	select {
	case c.control <- b:
	default:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.state.Transition(StateDisconnected)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.touch()
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Log().Warnf("websocket read error (connection=%s): %v", c.ID, err)
			}
			return
		}
		c.touch()
		_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))

		var msg inbound
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			c.pushControl(NewEvent(EventPong, nil))
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	write := func(messageType int, data []byte) error {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
		return c.conn.WriteMessage(messageType, data)
	}

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// 허브가 연결을 해제했다.
				_ = write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := write(websocket.TextMessage, message); err != nil {
				return
			}

		case message := <-c.control:
			if err := write(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			idleFor := time.Since(time.Unix(0, c.lastSeen.Load()))
			if idleFor >= c.cfg.PingInterval && c.state.Current() == StateActive {
				_ = c.state.Transition(StateIdle)
			}
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
