package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chatline/models"
)

type NotificationMongoRepository struct {
	col *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationMongoRepository {
	return &NotificationMongoRepository{col: db.Collection("notifications")}
}

func (r *NotificationMongoRepository) Insert(ctx context.Context, n *models.Notification) error {
	_, err := r.col.InsertOne(ctx, n)
	return err
}

func visibleTo(userID string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"user_id": nil},
		bson.M{"user_id": userID},
	}}
}

func (r *NotificationMongoRepository) ListVisibleTo(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, visibleTo(userID), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Notification, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkSeen 은 전체 공지도 읽음 처리할 수 있다. seen 은 알림 문서 단위 플래그이다.
func (r *NotificationMongoRepository) MarkSeen(ctx context.Context, id, userID string) error {
	filter := visibleTo(userID)
	filter["_id"] = id
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"seen": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationMongoRepository) MarkAllSeen(ctx context.Context, userID string) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"user_id": userID, "seen": false},
		bson.M{"$set": bson.M{"seen": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
