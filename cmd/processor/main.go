package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"chatline/cmd/internal/bootstrap"
	"chatline/cmd/processor/handler"
	"chatline/config"
	"chatline/eventbus"
	"chatline/logger"
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := bootstrap.OpenStore(ctx, cfg.Storage)
	if err != nil {
		logger.Fatalf("failed to initialize storage: %v", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		_ = store.Close(closeCtx)
	}()

	bus, err := bootstrap.OpenEventBus(cfg.EventBus)
	if err != nil {
		logger.Fatalf("failed to create event bus: %v", err)
	}
	defer bus.Close()

	usage := handler.NewUsageHandler(store.AILogs)
	groupID := eventbus.GetGroupID("chatline-processor")

	logger.Log().Info("starting processor service with eventbus...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := bus.Subscribe(ctx, groupID, eventbus.TopicChatEvents, usage.Handle); err != nil && !errors.Is(err, context.Canceled) {
			logger.Log().Errorf("eventbus subscribe error: %v", err)
		}
	}()

	<-sigChan
	logger.Log().Info("received shutdown signal, shutting down processor service...")

	cancel()
	wg.Wait()

	logger.Log().Info("processor service stopped")
}
