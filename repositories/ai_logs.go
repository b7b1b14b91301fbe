package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"chatline/models"
)

type AILogMongoRepository struct {
	col *mongo.Collection
}

func NewAILogRepository(db *mongo.Database) *AILogMongoRepository {
	return &AILogMongoRepository{col: db.Collection("ai_logs")}
}

// Insert 는 event_id 유니크 인덱스에 걸리면 이미 기록된 것으로 보고 무시한다.
func (r *AILogMongoRepository) Insert(ctx context.Context, log models.AILog) error {
	if log.RequestedAt.IsZero() {
		log.RequestedAt = time.Now()
	}
	if _, err := r.col.InsertOne(ctx, log); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return err
	}
	return nil
}
