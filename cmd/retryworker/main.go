package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"chatline/config"
	"chatline/eventbus"
	"chatline/logger"
)

// retryworker 는 Kafka 재시도 토픽의 이벤트를 지연 후 기본 토픽으로 되돌린다.
// local 버스는 프로세스 안에서 재시도하므로 이 워커가 필요 없다.
func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.InitFromEnv("LOG_LEVEL", cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	brokers, err := eventbus.GetBrokers()
	if err != nil {
		logger.Fatalf("%v", err)
	}
	if err := eventbus.EnsureAllTopics(brokers, cfg.EventBus.Partitions); err != nil {
		logger.Log().Errorf("failed to ensure eventbus topics: %v", err)
	}

	bus, err := eventbus.NewKafkaEventBus(brokers)
	if err != nil {
		logger.Fatalf("failed to create event bus: %v", err)
	}
	defer bus.Close()

	groupID := eventbus.GetGroupID("chatline") + "-retry-worker"

	logger.Log().Info("starting retry worker service with eventbus...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	for _, topic := range eventbus.AllTopics {
		wg.Add(1)
		go func() {
			defer wg.Done()
			topicGroupID := groupID + "-" + strings.ReplaceAll(topic.Base(), ".", "-")
			if err := bus.StartRetryReinjector(ctx, topicGroupID, topic); err != nil && !errors.Is(err, context.Canceled) {
				logger.Log().Errorf("eventbus retry reinjector error for %s: %v", topic.Base(), err)
			}
		}()
	}

	<-sigChan
	logger.Log().Info("received shutdown signal, shutting down retry worker service...")

	cancel()
	wg.Wait()

	logger.Log().Info("retry worker service stopped")
}
