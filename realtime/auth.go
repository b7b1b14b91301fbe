package realtime

import (
	"errors"
	"net/http"
	"strings"
)

var ErrUnauthorized = errors.New("realtime: unauthorized")

// bearerSubprotocol 은 브라우저처럼 헤더를 못 붙이는 클라이언트용이다.
// Sec-WebSocket-Protocol: bearer, <token>
const bearerSubprotocol = "bearer"

// Identity 는 연결에 묶일 사용자이다.
type Identity struct {
	UserID string
	Role   string
}

type Authenticator interface {
	Authenticate(token string) (Identity, error)
}

type AuthenticatorFunc func(token string) (Identity, error)

func (f AuthenticatorFunc) Authenticate(token string) (Identity, error) {
	return f(token)
}

// ExtractToken 은 핸드셰이크 요청에서 자격 증명을 꺼낸다.
// 우선순위: Authorization 헤더 → access_token 쿼리 → Sec-WebSocket-Protocol.
func ExtractToken(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}
	if token := strings.TrimSpace(r.URL.Query().Get("access_token")); token != "" {
		return token
	}
	protocols := websocketProtocols(r)
	for i, p := range protocols {
		if strings.EqualFold(p, bearerSubprotocol) && i+1 < len(protocols) {
			return protocols[i+1]
		}
	}
	return ""
}

func websocketProtocols(r *http.Request) []string {
	var out []string
	for _, h := range r.Header.Values("Sec-WebSocket-Protocol") {
		for _, p := range strings.Split(h, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
