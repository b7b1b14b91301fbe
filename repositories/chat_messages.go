package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chatline/models"
)

type MessageMongoRepository struct {
	sessions *mongo.Collection
	col      *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageMongoRepository {
	return &MessageMongoRepository{
		sessions: db.Collection("chat_sessions"),
		col:      db.Collection("chat_messages"),
	}
}

// Append 는 세션 문서의 message_count 를 $inc 하고 updated_at 을 $max 로 올린 결과를
// 그대로 메시지의 seq, created_at 으로 사용한다. 같은 세션에 동시 추가가 일어나도
// seq 는 중복되지 않고 created_at 은 seq 순서로 감소하지 않는다.
func (r *MessageMongoRepository) Append(ctx context.Context, m *models.ChatMessage) error {
	now := time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var s models.ChatSession
	err := r.sessions.FindOneAndUpdate(ctx,
		bson.M{"_id": m.SessionID},
		bson.M{
			"$inc": bson.M{"message_count": 1},
			"$max": bson.M{"updated_at": now},
		},
		opts,
	).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}

	m.Seq = s.MessageCount
	m.CreatedAt = s.UpdatedAt
	if _, err := r.col.InsertOne(ctx, m); err != nil {
		return err
	}
	return nil
}

func (r *MessageMongoRepository) ListBySession(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.ChatMessage, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
