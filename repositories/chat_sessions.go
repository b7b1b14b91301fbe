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

type SessionMongoRepository struct {
	col *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionMongoRepository {
	return &SessionMongoRepository{col: db.Collection("chat_sessions")}
}

func (r *SessionMongoRepository) Insert(ctx context.Context, s *models.ChatSession) error {
	if _, err := r.col.InsertOne(ctx, s); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *SessionMongoRepository) FindByID(ctx context.Context, id string) (*models.ChatSession, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *SessionMongoRepository) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*models.ChatSession, error) {
	return r.findOne(ctx, bson.M{"_id": id, "user_id": ownerID})
}

func (r *SessionMongoRepository) findOne(ctx context.Context, filter bson.M) (*models.ChatSession, error) {
	var s models.ChatSession
	if err := r.col.FindOne(ctx, filter).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByOwner 는 세션을 updated_at 내림차순(동률이면 _id)으로 반환한다.
func (r *SessionMongoRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.ChatSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"user_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.ChatSession, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SessionMongoRepository) SetTitleOnce(ctx context.Context, id, title string, at time.Time) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "title_set": bson.M{"$ne": true}},
		bson.M{
			"$set": bson.M{"title": title, "title_set": true},
			"$max": bson.M{"updated_at": at},
		},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}
