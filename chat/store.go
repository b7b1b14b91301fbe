package chat

import (
	"context"
	"errors"
	"time"

	"chatline/config"
	"chatline/models"
	"chatline/repositories"
)

// SessionStore 는 세션과 세션별 메시지 로그를 관리한다.
type SessionStore struct {
	sessions     repositories.SessionRepository
	messages     repositories.MessageRepository
	defaultTitle string
	titleMax     int
}

func NewSessionStore(sessions repositories.SessionRepository, messages repositories.MessageRepository, cfg config.ChatConfig) *SessionStore {
	s := &SessionStore{
		sessions:     sessions,
		messages:     messages,
		defaultTitle: cfg.DefaultTitle,
		titleMax:     cfg.TitleMaxLength,
	}
	if s.defaultTitle == "" {
		s.defaultTitle = "New Chat"
	}
	if s.titleMax <= 0 {
		s.titleMax = 40
	}
	return s
}

func (s *SessionStore) DefaultTitle() string { return s.defaultTitle }

// CreateSession 은 새 세션을 만든다. title 이 비어 있으면 기본 제목을 쓴다.
// 기본 제목과 다른 제목을 주면 첫 메시지가 제목을 바꾸지 않는다.
func (s *SessionStore) CreateSession(ctx context.Context, ownerID, title string) (*models.ChatSession, error) {
	title = NormalizeTitle(title, s.titleMax)
	if title == "" {
		title = s.defaultTitle
	}
	now := time.Now().UTC()
	session := &models.ChatSession{
		ID:        newID(),
		UserID:    ownerID,
		Title:     title,
		TitleSet:  title != s.defaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Insert(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionStore) ListSessions(ctx context.Context, ownerID string) ([]models.ChatSession, error) {
	return s.sessions.ListByOwner(ctx, ownerID)
}

// GetSession 은 소유자 범위 조회이다. 남의 세션과 없는 세션은 똑같이 ErrSessionNotFound 이다.
func (s *SessionStore) GetSession(ctx context.Context, sessionID, ownerID string) (*models.ChatSession, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	session, err := s.sessions.FindByIDAndOwner(ctx, sessionID, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// AppendMessage 는 세션 로그 끝에 메시지를 붙이고 updated_at 을 올린다.
// usage 는 assistant 메시지에만 기록된다.
func (s *SessionStore) AppendMessage(ctx context.Context, sessionID string, role models.MessageRole, content string, usage *models.TokenUsage) (*models.ChatMessage, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	m := &models.ChatMessage{
		ID:        newID(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	}
	if usage != nil && role == models.MessageRoleAssistant {
		prompt, completion := usage.PromptTokens, usage.CompletionTokens
		m.PromptTokens = &prompt
		m.CompletionTokens = &completion
	}
	if err := s.messages.Append(ctx, m); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return m, nil
}

// ListMessages 는 seq 오름차순으로 반환한다. 소유권 확인은 호출자가 먼저 한다.
func (s *SessionStore) ListMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	return s.messages.ListBySession(ctx, sessionID)
}

// SetInitialTitle 은 세션의 첫 완료 턴에서 한 번만 제목을 정한다.
// candidate 가 비거나 기본 제목과 같아도 제목은 그 시점에 확정되고, 이후 호출은 아무것도 바꾸지 않는다.
func (s *SessionStore) SetInitialTitle(ctx context.Context, sessionID, candidate string) (bool, error) {
	title := NormalizeTitle(candidate, s.titleMax)
	if title == "" {
		title = s.defaultTitle
	}
	return s.sessions.SetTitleOnce(ctx, sessionID, title, time.Now().UTC())
}
