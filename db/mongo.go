package db

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"chatline/config"
	"chatline/logger"
)

var (
	clientOnce sync.Once
	client     *mongo.Client
	db         *mongo.Database
)

// Init initializes the global Mongo client and database using config values.
func Init(ctx context.Context) error {
	var initErr error
	clientOnce.Do(func() {
		cfg := config.GetConfig().Storage
		uri := cfg.MongoURI
		if uri == "" {
			// docker-compose 기본값 (트랜잭션을 위해 replica set 필요)
			uri = "mongodb://localhost:27017/?replicaSet=rs0"
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		cl, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			initErr = err
			return
		}
		if err := cl.Ping(ctx, readpref.Primary()); err != nil {
			_ = cl.Disconnect(context.Background())
			initErr = err
			return
		}
		client = cl
		db = client.Database(cfg.MongoDBName)

		if err := EnsureIndexes(ctx, db); err != nil {
			initErr = err
			return
		}
		logger.Log().Infof("MongoDB connected and indexes ensured (db=%s)", cfg.MongoDBName)
	})
	return initErr
}

func Client() *mongo.Client     { return client }
func Database() *mongo.Database { return db }

// Disconnect 는 Init 으로 연결된 클라이언트를 닫는다.
func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func EnsureIndexes(ctx context.Context, d *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		"users": {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("uniq_email").SetUnique(true),
			},
		},
		"chat_sessions": {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}},
				Options: options.Index().SetName("idx_user_updated_desc"),
			},
		},
		"chat_messages": {
			{
				Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "seq", Value: 1}},
				Options: options.Index().SetName("uniq_session_seq").SetUnique(true),
			},
		},
		"credit_ledger": {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_user_created_desc"),
			},
		},
		"notifications": {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_user_created_desc"),
			},
		},
		"ai_logs": {
			{
				Keys:    bson.D{{Key: "event_id", Value: 1}},
				Options: options.Index().SetName("uniq_event_id").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "requested_at", Value: -1}},
				Options: options.Index().SetName("idx_user_requested_desc"),
			},
		},
	}

	for name, models := range indexes {
		if _, err := d.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
