// Package authz 는 세션/관리 리소스 접근을 OPA 정책으로 판단한다.
package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/open-policy-agent/opa/rego"

	"chatline/models"
	"chatline/repositories"
)

const (
	ActionSessionRead      = "session.read"
	ActionSessionWrite     = "session.write"
	ActionAdminAccess      = "admin.access"
	ActionNotificationSend = "notification.send"
	ActionCreditsGrant     = "credits.grant"
)

var (
	// ErrNotFound 는 세션이 없거나 호출자 소유가 아닐 때 반환된다. 두 경우를 구분하지 않는다.
	ErrNotFound = errors.New("authz: not found")
	// ErrForbidden 은 역할 기반 액션이 거부됐을 때만 사용한다.
	ErrForbidden = errors.New("authz: forbidden")
)

// Caller 는 인증된 요청 주체이다.
type Caller struct {
	ID   string
	Role string
}

type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*models.ChatSession, error)
}

// Gate 는 매 호출마다 세션을 다시 읽고 정책을 평가한다. 결과를 캐시하지 않는다.
type Gate struct {
	sessions SessionFinder
	query    rego.PreparedEvalQuery
}

// NewGate creates a gate with the given policy content. 빈 문자열이면 DefaultPolicy.
func NewGate(ctx context.Context, sessions SessionFinder, policyContent string) (*Gate, error) {
	if policyContent == "" {
		policyContent = DefaultPolicy
	}
	r := rego.New(
		rego.Query("data.chatline.authz.allow"),
		rego.Module("chatline_authz.rego", policyContent),
	)
	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}
	return &Gate{sessions: sessions, query: query}, nil
}

// AuthorizeSession 은 caller 가 sessionID 에 action 을 수행할 수 있는지 확인하고 세션을 반환한다.
func (g *Gate) AuthorizeSession(ctx context.Context, caller Caller, sessionID, action string) (*models.ChatSession, error) {
	s, err := g.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	allowed, err := g.eval(ctx, caller, action, map[string]any{"owner_id": s.UserID})
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrNotFound
	}
	return s, nil
}

// Authorize 는 리소스 없는 역할 기반 액션을 판단한다.
func (g *Gate) Authorize(ctx context.Context, caller Caller, action string) error {
	allowed, err := g.eval(ctx, caller, action, map[string]any{})
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}

func (g *Gate) eval(ctx context.Context, caller Caller, action string, resource map[string]any) (bool, error) {
	input := map[string]any{
		"caller":   map[string]any{"id": caller.ID, "role": caller.Role},
		"action":   action,
		"resource": resource,
	}
	results, err := g.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := results[0].Expressions[0].Value.(bool)
	return ok && allowed, nil
}
