package repositories

import (
	"context"
	"errors"
	"time"

	"chatline/models"
)

var (
	// ErrNotFound 는 조회 대상 문서가 없을 때 반환된다.
	ErrNotFound = errors.New("repositories: not found")
	// ErrUnknownUser 는 원장 반영 대상 사용자가 없을 때 반환된다.
	ErrUnknownUser = errors.New("repositories: unknown user")
	// ErrAlreadyExists 는 동일 ID 문서가 이미 있을 때 반환된다.
	ErrAlreadyExists = errors.New("repositories: already exists")
)

type UserRepository interface {
	Insert(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type SessionRepository interface {
	Insert(ctx context.Context, s *models.ChatSession) error
	// FindByID 는 소유자와 무관하게 세션을 조회한다. 인가 판단은 호출자 책임이다.
	FindByID(ctx context.Context, id string) (*models.ChatSession, error)
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*models.ChatSession, error)
	// ListByOwner 는 updated_at 내림차순으로 반환한다.
	ListByOwner(ctx context.Context, ownerID string) ([]models.ChatSession, error)
	// SetTitleOnce 는 title_set 이 거짓일 때만 title 을 쓰고 title_set 을 켠다. 변경 여부를 반환한다.
	SetTitleOnce(ctx context.Context, id, title string, at time.Time) (bool, error)
}

type MessageRepository interface {
	// Append 는 세션의 seq 카운터를 올리고 updated_at 을 단조 증가시킨 뒤 메시지를 저장한다.
	// m.Seq, m.CreatedAt 은 저장 시점에 채워진다.
	Append(ctx context.Context, m *models.ChatMessage) error
	// ListBySession 은 seq 오름차순으로 반환한다.
	ListBySession(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
}

// LedgerRepository 는 잔액 카운터와 원장 엔트리를 하나의 원자 단위로 갱신한다.
type LedgerRepository interface {
	Balance(ctx context.Context, userID string) (int64, error)
	// Apply 는 entry.Delta 만큼 잔액을 바꾸고 entry 를 추가한다.
	// floorAtZero 가 true 이면 잔액이 음수가 되지 않도록 delta 를 줄이고,
	// 실제 반영된 delta 와 BalanceAfter 를 entry 에 기록한다.
	Apply(ctx context.Context, entry *models.LedgerEntry, floorAtZero bool) error
	SumDeltas(ctx context.Context, userID string) (int64, error)
	// ListByUser 는 최신 엔트리부터 limit 개를 반환한다.
	ListByUser(ctx context.Context, userID string, limit int) ([]models.LedgerEntry, error)
}

type NotificationRepository interface {
	Insert(ctx context.Context, n *models.Notification) error
	// ListVisibleTo 는 사용자 대상 알림과 전체 공지를 최신순으로 반환한다.
	ListVisibleTo(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	// MarkSeen 은 사용자에게 보이는 알림 하나를 읽음 처리한다.
	MarkSeen(ctx context.Context, id, userID string) error
	// MarkAllSeen 은 사용자 대상 알림을 모두 읽음 처리한다. 전체 공지는 건드리지 않는다.
	MarkAllSeen(ctx context.Context, userID string) (int64, error)
}

type AILogRepository interface {
	Insert(ctx context.Context, log models.AILog) error
}

// Store 는 저장소 드라이버 하나가 제공하는 리포지토리 묶음이다.
type Store struct {
	Users         UserRepository
	Sessions      SessionRepository
	Messages      MessageRepository
	Ledger        LedgerRepository
	Notifications NotificationRepository
	AILogs        AILogRepository
	Ping          func(ctx context.Context) error
	Close         func(ctx context.Context) error
}
