package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// NewMongoStore 는 MongoDB 컬렉션 기반 리포지토리 묶음을 만든다.
func NewMongoStore(client *mongo.Client, db *mongo.Database) Store {
	return Store{
		Users:         NewUserRepository(db),
		Sessions:      NewSessionRepository(db),
		Messages:      NewMessageRepository(db),
		Ledger:        NewLedgerRepository(client, db),
		Notifications: NewNotificationRepository(db),
		AILogs:        NewAILogRepository(db),
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		Close: client.Disconnect,
	}
}
