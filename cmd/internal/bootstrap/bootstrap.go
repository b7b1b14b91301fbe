// Package bootstrap 는 실행 파일들이 공통으로 쓰는 저장소/이벤트 버스 조립 코드이다.
package bootstrap

import (
	"context"
	"fmt"

	"chatline/config"
	"chatline/db"
	"chatline/eventbus"
	"chatline/logger"
	"chatline/repositories"
	"chatline/repositories/sqlite"
)

// OpenStore 는 storage.driver 에 맞는 리포지토리 묶음을 연다.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (repositories.Store, error) {
	switch cfg.Driver {
	case "mongo":
		if err := db.Init(ctx); err != nil {
			return repositories.Store{}, fmt.Errorf("mongo init: %w", err)
		}
		return repositories.NewMongoStore(db.Client(), db.Database()), nil
	case "sqlite":
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return repositories.Store{}, err
		}
		logger.Log().Infof("SQLite opened (path=%s)", cfg.SQLitePath)
		return sqlite.NewStore(conn), nil
	default:
		return repositories.Store{}, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// OpenEventBus 는 eventbus.driver 에 맞는 버스를 만든다. kafka 면 토픽도 보장한다.
func OpenEventBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	switch cfg.Driver {
	case "local":
		return eventbus.NewLocalEventBus(), nil
	case "kafka":
		brokers, err := eventbus.GetBrokers()
		if err != nil {
			return nil, err
		}
		if err := eventbus.EnsureAllTopics(brokers, cfg.Partitions); err != nil {
			return nil, fmt.Errorf("ensure topics: %w", err)
		}
		return eventbus.NewKafkaEventBus(brokers)
	default:
		return nil, fmt.Errorf("unsupported eventbus driver: %s", cfg.Driver)
	}
}

// RelayBus 는 실시간 릴레이용 버스를 고른다.
// kafka 에서는 지난 이벤트를 다시 밀지 않도록 latest 부터 읽는 사본을 쓰고,
// local 에서는 같은 프로세스 버스를 그대로 쓴다.
func RelayBus(shared eventbus.EventBus) eventbus.EventBus {
	if k, ok := shared.(*eventbus.KafkaEventBus); ok {
		return k.WithOffsetReset("latest")
	}
	return shared
}
