package realtime

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"chatline/config"
	"chatline/logger"
)

// Server 는 웹소켓 핸드셰이크를 처리한다.
// 자격 증명은 업그레이드 전에 검증하며, 실패하면 HTTP 401 로 끝나고 연결은 생기지 않는다.
type Server struct {
	hub      *Hub
	auth     Authenticator
	cfg      config.RealtimeConfig
	upgrader websocket.Upgrader
}

func NewServer(hub *Hub, auth Authenticator, cfg config.RealtimeConfig, allowedOrigins []string) *Server {
	return &Server{
		hub:  hub,
		auth: auth,
		cfg:  cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			Subprotocols:    []string{bearerSubprotocol},
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sm := &stateMachine{}
	_ = sm.Transition(StateAuthenticating)

	identity, err := s.authenticate(r)
	if err != nil {
		_ = sm.Transition(StateDisconnected)
		logger.Log().Infof("realtime connection refused from %s: %v", r.RemoteAddr, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 가 이미 오류 응답을 썼다.
		_ = sm.Transition(StateDisconnected)
		logger.Log().Warnf("failed to upgrade websocket: %v", err)
		return
	}

	client := newClient(conn, s.hub, identity, sm, s.cfg)
	_ = sm.Transition(StateBound)
	if err := s.hub.Register(client); err != nil {
		_ = sm.Transition(StateDisconnected)
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "hub stopped"))
		conn.Close()
		return
	}

	client.pushControl(NewEvent(EventConnected, map[string]string{
		"connection_id": client.ID,
		"address":       client.Address(),
	}))
	_ = sm.Transition(StateActive)

	go client.writePump()
	go client.readPump()
}

func (s *Server) authenticate(r *http.Request) (Identity, error) {
	token := ExtractToken(r)
	if token == "" {
		return Identity{}, ErrUnauthorized
	}
	id, err := s.auth.Authenticate(token)
	if err != nil || id.UserID == "" {
		return Identity{}, ErrUnauthorized
	}
	return id, nil
}
