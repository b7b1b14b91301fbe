package main

import (
	"net"

	"golang.org/x/net/netutil"
)

// listen 은 addr 에서 TCP 리스너를 열고, maxConns 가 양수이면 동시 연결 수를 제한한다.
// websocket 클라이언트는 연결을 오래 붙잡고 있으므로 상한이 없으면 fd 가 고갈될 수 있다.
func listen(addr string, maxConns int) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		return netutil.LimitListener(ln, maxConns), nil
	}
	return ln, nil
}
