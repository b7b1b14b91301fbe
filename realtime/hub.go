// Package realtime 은 인증된 웹소켓 연결을 사용자 주소(user:<id>)에 묶고
// 대상 지정 전송과 전체 전송을 제공한다. 전달은 best-effort 이며
// 연결이 없는 사용자에게 보낸 이벤트는 버려진다.
package realtime

import (
	"context"
	"errors"
	"sync"

	"chatline/logger"
)

var (
	ErrHubStopped = errors.New("realtime: hub is not running")
	ErrHubRunning = errors.New("realtime: hub already running")
)

type delivery struct {
	userID  string
	all     bool
	payload []byte
}

// Hub manages all bound connections.
type Hub struct {
	clients map[string]*Client
	users   map[string]map[string]*Client
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	deliveries chan delivery

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		users:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliveries: make(chan delivery, 256),
	}
}

// Start 는 허브 루프를 띄운다. ctx 가 끝나거나 Stop 이 호출되면 모든 연결을 닫는다.
func (h *Hub) Start(ctx context.Context) error {
	h.runMu.Lock()
	defer h.runMu.Unlock()
	if h.running {
		return ErrHubRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.done = make(chan struct{})
	h.running = true
	go h.run(ctx, h.done)
	return nil
}

// Stop 은 루프가 끝날 때까지 기다린다.
func (h *Hub) Stop() {
	h.runMu.Lock()
	if !h.running {
		h.runMu.Unlock()
		return
	}
	cancel, done := h.cancel, h.done
	h.runMu.Unlock()

	cancel()
	<-done
}

func (h *Hub) doneChan() (chan struct{}, bool) {
	h.runMu.Lock()
	defer h.runMu.Unlock()
	return h.done, h.running
}

func (h *Hub) run(ctx context.Context, done chan struct{}) {
	defer func() {
		h.mu.Lock()
		for _, c := range h.clients {
			close(c.send)
		}
		h.clients = make(map[string]*Client)
		h.users = make(map[string]map[string]*Client)
		h.mu.Unlock()

		h.runMu.Lock()
		h.running = false
		h.runMu.Unlock()
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.ID] = c
			if h.users[c.UserID] == nil {
				h.users[c.UserID] = make(map[string]*Client)
			}
			h.users[c.UserID][c.ID] = c
			h.mu.Unlock()
			logger.DebugWithFields("realtime connection bound", logger.Fields{
				"connection_id": c.ID,
				"address":       c.Address(),
			})

		case c := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(c)
			h.mu.Unlock()

		case d := <-h.deliveries:
			h.mu.Lock()
			targets := h.clients
			if !d.all {
				targets = h.users[d.userID]
			}
			var slow []*Client
			for _, c := range targets {
				select {
				case c.send <- d.payload:
				default:
					slow = append(slow, c)
				}
			}
			for _, c := range slow {
				logger.Log().Warnf("connection %s buffer full, closing", c.ID)
				h.removeLocked(c)
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) removeLocked(c *Client) {
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	if set := h.users[c.UserID]; set != nil {
		delete(set, c.ID)
		if len(set) == 0 {
			delete(h.users, c.UserID)
		}
	}
	close(c.send)
	logger.DebugWithFields("realtime connection unbound", logger.Fields{"connection_id": c.ID})
}

// Register 는 인증된 연결을 사용자 주소에 합류시킨다.
func (h *Hub) Register(c *Client) error {
	done, running := h.doneChan()
	if !running {
		return ErrHubStopped
	}
	select {
	case h.register <- c:
		return nil
	case <-done:
		return ErrHubStopped
	}
}

func (h *Hub) Unregister(c *Client) {
	done, running := h.doneChan()
	if !running {
		return
	}
	select {
	case h.unregister <- c:
	case <-done:
	}
}

// SendToUser 는 userID 의 모든 연결로 evt 를 보낸다.
func (h *Hub) SendToUser(userID string, evt Event) error {
	return h.enqueue(delivery{userID: userID}, evt)
}

// Broadcast 는 연결된 모든 사용자에게 evt 를 보낸다.
func (h *Hub) Broadcast(evt Event) error {
	return h.enqueue(delivery{all: true}, evt)
}

func (h *Hub) enqueue(d delivery, evt Event) error {
	payload, err := evt.encode()
	if err != nil {
		return err
	}
	d.payload = payload

	done, running := h.doneChan()
	if !running {
		return ErrHubStopped
	}
	select {
	case h.deliveries <- d:
		return nil
	case <-done:
		return ErrHubStopped
	}
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) UserConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}
