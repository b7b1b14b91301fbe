package realtime

import (
	"errors"
	"fmt"
	"sync"
)

// State 는 연결 하나의 수명 단계이다.
//
//	Connecting → Authenticating → Bound → Active ⇄ Idle → Disconnected
//
// 어느 단계에서든 Disconnected 로 갈 수 있다.
type State int

const (
	StateConnecting State = iota
	StateAuthenticating
	StateBound
	StateActive
	StateIdle
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateBound:
		return "bound"
	case StateActive:
		return "active"
	case StateIdle:
		return "idle"
	case StateDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var ErrInvalidTransition = errors.New("realtime: invalid state transition")

var transitions = map[State][]State{
	StateConnecting:     {StateAuthenticating, StateDisconnected},
	StateAuthenticating: {StateBound, StateDisconnected},
	StateBound:          {StateActive, StateDisconnected},
	StateActive:         {StateIdle, StateDisconnected},
	StateIdle:           {StateActive, StateDisconnected},
}

func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// stateMachine 은 동시 접근이 가능한 State 보관소이다.
type stateMachine struct {
	mu    sync.Mutex
	state State
}

func (m *stateMachine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *stateMachine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == to {
		return nil
	}
	if !CanTransition(m.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
	}
	m.state = to
	return nil
}
