// Package notifications 는 사용자 알림과 전체 공지를 저장하고 실시간으로 밀어 준다.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.jetify.com/typeid/v2"

	"chatline/authz"
	"chatline/events"
	"chatline/logger"
	"chatline/models"
	"chatline/repositories"
)

// IDPrefix 는 알림 TypeID 접두사이다.
const IDPrefix = "ntf"

// ListLimit 는 목록 조회 최대 건수이다.
const ListLimit = 100

var (
	ErrInvalidInput = errors.New("notifications: invalid input")
	ErrNotFound     = errors.New("notifications: not found")
)

// Authorizer 는 역할 기반 액션 판단이다 (authz.Gate).
type Authorizer interface {
	Authorize(ctx context.Context, caller authz.Caller, action string) error
}

type Publisher interface {
	PublishNotificationCreated(ctx context.Context, evt events.NotificationCreatedEvent) error
}

type SendInput struct {
	// UserID 가 nil 이면 전체 공지이다.
	UserID *string
	Title  string
	Body   string
}

type Service struct {
	repo      repositories.NotificationRepository
	users     repositories.UserRepository
	gate      Authorizer
	publisher Publisher
	source    string
}

func NewService(repo repositories.NotificationRepository, users repositories.UserRepository, gate Authorizer, publisher Publisher, source string) *Service {
	return &Service{repo: repo, users: users, gate: gate, publisher: publisher, source: source}
}

// List 는 호출자 대상 알림과 전체 공지를 최신순으로 최대 ListLimit 건 반환한다.
func (s *Service) List(ctx context.Context, userID string) ([]models.Notification, error) {
	items, err := s.repo.ListVisibleTo(ctx, userID, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if items == nil {
		items = []models.Notification{}
	}
	return items, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	if err := s.repo.MarkSeen(ctx, id, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.MarkAllSeen(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return n, nil
}

// Send 는 알림을 저장한 뒤 notification.created 를 발행한다.
// 발행 실패는 기록만 하고 저장된 알림을 반환한다.
func (s *Service) Send(ctx context.Context, caller authz.Caller, in SendInput) (*models.Notification, error) {
	if err := s.gate.Authorize(ctx, caller, authz.ActionNotificationSend); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	body := strings.TrimSpace(in.Body)
	if title == "" || body == "" {
		return nil, fmt.Errorf("%w: title and body are required", ErrInvalidInput)
	}

	var target *string
	if in.UserID != nil {
		uid := strings.TrimSpace(*in.UserID)
		if uid == "" {
			return nil, fmt.Errorf("%w: empty user id", ErrInvalidInput)
		}
		if _, err := s.users.FindByID(ctx, uid); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("find target user: %w", err)
		}
		target = &uid
	}

	tid, err := typeid.Generate(IDPrefix)
	if err != nil {
		return nil, fmt.Errorf("generate notification id: %w", err)
	}
	n := &models.Notification{
		ID:        tid.String(),
		UserID:    target,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, n); err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}

	if s.publisher != nil {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.publisher.PublishNotificationCreated(pubCtx, events.NewNotificationCreatedEvent(s.source, *n)); err != nil {
			logger.WarnWithFields("notification publish failed", logger.Fields{
				"notification_id": n.ID,
				"error":           err.Error(),
			})
		}
	}
	return n, nil
}
