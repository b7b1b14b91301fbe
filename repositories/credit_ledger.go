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

// LedgerMongoRepository 는 users.credits 카운터와 credit_ledger 컬렉션을
// 하나의 트랜잭션으로 갱신한다. MongoDB 는 replica set 으로 떠 있어야 한다.
type LedgerMongoRepository struct {
	client  *mongo.Client
	users   *mongo.Collection
	entries *mongo.Collection
}

func NewLedgerRepository(client *mongo.Client, db *mongo.Database) *LedgerMongoRepository {
	return &LedgerMongoRepository{
		client:  client,
		users:   db.Collection("users"),
		entries: db.Collection("credit_ledger"),
	}
}

func (r *LedgerMongoRepository) Balance(ctx context.Context, userID string) (int64, error) {
	var doc struct {
		Credits int64 `bson:"credits"`
	}
	opts := options.FindOne().SetProjection(bson.M{"credits": 1})
	if err := r.users.FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrUnknownUser
		}
		return 0, err
	}
	return doc.Credits, nil
}

func (r *LedgerMongoRepository) Apply(ctx context.Context, entry *models.LedgerEntry, floorAtZero bool) error {
	sess, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	requested := entry.Delta
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var doc struct {
			Credits int64 `bson:"credits"`
		}
		if err := r.users.FindOne(sc, bson.M{"_id": entry.UserID}).Decode(&doc); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrUnknownUser
			}
			return nil, err
		}

		delta := requested
		if floorAtZero && doc.Credits+delta < 0 {
			delta = -doc.Credits
			if delta > 0 {
				// 이미 음수인 잔액은 올리지 않는다.
				delta = 0
			}
		}

		now := time.Now().UTC()
		if _, err := r.users.UpdateOne(sc,
			bson.M{"_id": entry.UserID},
			bson.M{
				"$inc": bson.M{"credits": delta},
				"$set": bson.M{"updated_at": now},
			},
		); err != nil {
			return nil, err
		}

		entry.Delta = delta
		entry.BalanceAfter = doc.Credits + delta
		entry.CreatedAt = now
		if _, err := r.entries.InsertOne(sc, entry); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		entry.Delta = requested
		return err
	}
	return nil
}

func (r *LedgerMongoRepository) SumDeltas(ctx context.Context, userID string) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$delta"}}}},
	}
	cur, err := r.entries.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (r *LedgerMongoRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.LedgerEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.entries.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.LedgerEntry, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
