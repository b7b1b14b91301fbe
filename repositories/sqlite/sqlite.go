// Package sqlite 는 repositories 인터페이스의 SQLite 구현이다.
// 단일 노드 배포와 테스트에서 MongoDB 대신 사용한다.
package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"chatline/repositories"
)

// NewStore 는 db.OpenSQLite 로 연 커넥션 위에 리포지토리 묶음을 만든다.
func NewStore(conn *sql.DB) repositories.Store {
	return repositories.Store{
		Users:         &UserRepository{db: conn},
		Sessions:      &SessionRepository{db: conn},
		Messages:      &MessageRepository{db: conn},
		Ledger:        &LedgerRepository{db: conn},
		Notifications: &NotificationRepository{db: conn},
		AILogs:        &AILogRepository{db: conn},
		Ping:          conn.PingContext,
		Close: func(context.Context) error {
			return conn.Close()
		},
	}
}

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type rowScanner interface {
	Scan(dest ...any) error
}
