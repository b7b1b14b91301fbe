package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"chatline/authz"
	"chatline/chat"
	"chatline/cmd/api/auth"
	"chatline/cmd/api/router"
	"chatline/cmd/internal/bootstrap"
	"chatline/config"
	"chatline/eventbus"
	"chatline/events"
	"chatline/ledger"
	"chatline/llm"
	"chatline/logger"
	"chatline/notifications"
	"chatline/realtime"
)

const serviceSource = "api"

// @title           Chatline API
// @version         1.0
// @description     Multi-tenant chat service with metered credits and realtime push
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStore(ctx, cfg.Storage)
	if err != nil {
		logger.Fatalf("storage 초기화 실패: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = store.Close(closeCtx)
	}()

	bus, err := bootstrap.OpenEventBus(cfg.EventBus)
	if err != nil {
		logger.Fatalf("eventbus 초기화 실패: %v", err)
	}
	defer bus.Close()
	dispatcher := events.NewDispatcher(bus)

	tokens, err := auth.NewJWTManagerFromEnv(cfg.Auth)
	if err != nil {
		logger.Fatalf("JWT 설정 오류: %v", err)
	}

	gate, err := authz.NewGate(ctx, store.Sessions, os.Getenv("AUTHZ_POLICY"))
	if err != nil {
		logger.Fatalf("authz 정책 준비 실패: %v", err)
	}
	credits := ledger.New(store.Ledger)

	generator, err := llm.NewFromConfig(ctx, cfg.Generation)
	if err != nil {
		logger.Fatalf("LLM 초기화 실패: %v", err)
	}

	sessions := chat.NewSessionStore(store.Sessions, store.Messages, cfg.Chat)
	pipeline := chat.NewPipeline(sessions, gate, credits, generator, dispatcher, chat.PipelineConfig{
		MessageCost:       cfg.Credits.MessageCost,
		GenerationTimeout: cfg.Generation.Timeout,
		MaxContentLength:  cfg.Chat.MaxContentLength,
		Source:            serviceSource,
		Quota:             llm.NewQuotaLimiter(cfg.Generation),
	})
	notifier := notifications.NewService(store.Notifications, store.Users, gate, dispatcher, serviceSource)

	hub := realtime.NewHub()
	if err := hub.Start(ctx); err != nil {
		logger.Fatalf("realtime hub 시작 실패: %v", err)
	}
	defer hub.Stop()

	relay := notifications.NewRelay(bootstrap.RelayBus(bus), hub, eventbus.InstanceGroupID("chatline-realtime"))
	go func() {
		if err := relay.Run(ctx); err != nil {
			logger.Log().Errorf("realtime relay 종료: %v", err)
		}
	}()

	r := router.New(router.Deps{
		Store:         store,
		Tokens:        tokens,
		Gate:          gate,
		Ledger:        credits,
		Sessions:      sessions,
		Pipeline:      pipeline,
		Notifications: notifier,
		Realtime:      realtime.NewServer(hub, tokens, cfg.Realtime, cfg.Server.CORSAllowedOrigins),
		RealtimePath:  cfg.Realtime.Path,
		AllowedOrigin: cfg.Server.CORSAllowedOrigins,
	})

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: r}
	go func() {
		logger.Log().Infof("API 서버 시작 (addr=%s, storage=%s, eventbus=%s)", cfg.Server.Addr, cfg.Storage.Driver, cfg.EventBus.Driver)
		ln, err := listen(cfg.Server.Addr, cfg.Server.MaxConnections)
		if err != nil {
			logger.Fatalf("리스너 생성 실패: %v", err)
		}
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP 서버 오류: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Log().Info("종료 신호 수신, 서버를 정리합니다")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log().Errorf("HTTP 서버 종료 오류: %v", err)
	}
}
