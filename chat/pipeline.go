package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"chatline/authz"
	"chatline/events"
	"chatline/ledger"
	"chatline/llm"
	"chatline/logger"
	"chatline/models"
)

// SessionAuthorizer 는 세션 단위 접근 판단이다 (authz.Gate).
type SessionAuthorizer interface {
	AuthorizeSession(ctx context.Context, caller authz.Caller, sessionID, action string) (*models.ChatSession, error)
}

// CreditLedger 는 파이프라인이 쓰는 원장 연산이다 (ledger.Ledger).
type CreditLedger interface {
	HasSufficientBalance(ctx context.Context, userID string, cost int64) (bool, error)
	Debit(ctx context.Context, userID string, cost int64, reason string, meta map[string]any) (ledger.Debit, error)
}

// TurnPublisher 는 완료된 턴을 이벤트로 내보낸다 (events.Dispatcher).
type TurnPublisher interface {
	PublishChatTurnCompleted(ctx context.Context, evt events.ChatTurnCompletedEvent) error
}

// GenerationQuota 는 생성 호출 한도이다 (llm.QuotaLimiter). 기다리지 않고 바로 판단한다.
type GenerationQuota interface {
	Reserve(ctx context.Context, userID string) error
}

type PipelineConfig struct {
	MessageCost       int64
	GenerationTimeout time.Duration
	MaxContentLength  int
	// Source 는 발행 이벤트의 source 필드이다.
	Source string
	// Quota 가 nil 이면 한도가 없다.
	Quota GenerationQuota
}

// Pipeline 은 사용자 메시지 1건을 처리한다.
// 인가 → 잔액 확인 → 사용자 메시지 저장 → 생성 → 차감 → 응답 저장 → 제목 갱신.
type Pipeline struct {
	store     *SessionStore
	gate      SessionAuthorizer
	ledger    CreditLedger
	generator llm.Generator
	publisher TurnPublisher
	cfg       PipelineConfig
}

func NewPipeline(store *SessionStore, gate SessionAuthorizer, l CreditLedger, g llm.Generator, publisher TurnPublisher, cfg PipelineConfig) *Pipeline {
	if cfg.MessageCost <= 0 {
		cfg.MessageCost = 10
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 60 * time.Second
	}
	if cfg.Source == "" {
		cfg.Source = "api"
	}
	return &Pipeline{
		store:     store,
		gate:      gate,
		ledger:    l,
		generator: g,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Reply 는 Submit 결과이다.
type Reply struct {
	AssistantText    string
	RemainingBalance int64
	Charged          int64
	SessionTitle     string
	UserMessage      *models.ChatMessage
	AssistantMessage *models.ChatMessage
}

// Submit 은 sessionID 세션에 content 를 보내고 응답을 돌려준다.
//
// 입력 검증이 끝난 뒤의 작업은 요청 컨텍스트 취소와 분리된다. 클라이언트가 끊겨도
// 생성, 차감, 저장은 끝까지 진행된다.
func (p *Pipeline) Submit(ctx context.Context, caller authz.Caller, sessionID, content string) (*Reply, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if p.cfg.MaxContentLength > 0 && utf8.RuneCountInString(content) > p.cfg.MaxContentLength {
		return nil, ErrContentTooLong
	}

	if err := p.authorize(ctx, caller, sessionID); err != nil {
		return nil, err
	}

	ok, err := p.ledger.HasSufficientBalance(ctx, caller.ID, p.cfg.MessageCost)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientCredits
	}
	if p.cfg.Quota != nil {
		if err := p.cfg.Quota.Reserve(ctx, caller.ID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		}
	}

	work := context.WithoutCancel(ctx)
	requestedAt := time.Now().UTC()

	if err := p.authorize(work, caller, sessionID); err != nil {
		return nil, err
	}
	userMsg, err := p.store.AppendMessage(work, sessionID, models.MessageRoleUser, content, nil)
	if err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}

	genCtx, cancel := context.WithTimeout(work, p.cfg.GenerationTimeout)
	res, err := p.generator.Generate(genCtx, content)
	cancel()
	if err != nil {
		logger.ErrorWithFields("generation failed", logger.Fields{
			"user_id":    caller.ID,
			"session_id": sessionID,
			"message_id": userMsg.ID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	// 대체 응답도 메시지 1건이므로 같은 고정 비용을 차감한다. 토큰은 0 으로 기록된다.
	debit, err := p.ledger.Debit(work, caller.ID, p.cfg.MessageCost, models.LedgerReasonLLMUsage, map[string]any{
		"prompt_tokens":     res.PromptTokens,
		"completion_tokens": res.CompletionTokens,
		"session_id":        sessionID,
		"model":             res.ModelName,
		"fallback":          res.Fallback,
	})
	if err != nil {
		return nil, fmt.Errorf("debit credits: %w", err)
	}

	if err := p.authorize(work, caller, sessionID); err != nil {
		return nil, err
	}
	usage := &models.TokenUsage{PromptTokens: res.PromptTokens, CompletionTokens: res.CompletionTokens}
	assistantMsg, err := p.store.AppendMessage(work, sessionID, models.MessageRoleAssistant, res.Text, usage)
	if err != nil {
		return nil, fmt.Errorf("append assistant message: %w", err)
	}

	if _, err := p.store.SetInitialTitle(work, sessionID, content); err != nil {
		return nil, fmt.Errorf("rename session: %w", err)
	}
	title := p.store.DefaultTitle()
	if s, err := p.store.GetSession(work, sessionID, caller.ID); err == nil {
		title = s.Title
	}

	reply := &Reply{
		AssistantText:    res.Text,
		RemainingBalance: debit.Balance,
		Charged:          debit.Committed,
		SessionTitle:     title,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}
	p.publish(work, caller, sessionID, reply, res, requestedAt)
	return reply, nil
}

// authorize 는 매 변경 직전에 호출된다. 결과를 재사용하지 않는다.
func (p *Pipeline) authorize(ctx context.Context, caller authz.Caller, sessionID string) error {
	if _, err := p.gate.AuthorizeSession(ctx, caller, sessionID, authz.ActionSessionWrite); err != nil {
		if errors.Is(err, authz.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

func (p *Pipeline) publish(ctx context.Context, caller authz.Caller, sessionID string, reply *Reply, res llm.Result, requestedAt time.Time) {
	if p.publisher == nil {
		return
	}
	evt := events.NewChatTurnCompletedEvent(p.cfg.Source)
	evt.UserID = caller.ID
	evt.SessionID = sessionID
	evt.SessionTitle = reply.SessionTitle
	evt.UserMessage = *reply.UserMessage
	evt.AssistantMessage = *reply.AssistantMessage
	evt.ChargedCredits = reply.Charged
	evt.Balance = reply.RemainingBalance
	evt.ModelName = res.ModelName
	evt.ModelVersion = res.ModelVersion
	evt.DurationMs = res.Latency.Milliseconds()
	evt.Fallback = res.Fallback
	evt.RequestedAt = requestedAt

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.publisher.PublishChatTurnCompleted(pubCtx, evt); err != nil {
		logger.WarnWithFields("failed to publish chat turn", logger.Fields{
			"event_id":   evt.ID,
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}
