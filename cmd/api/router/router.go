package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"chatline/authz"
	"chatline/chat"
	"chatline/cmd/api/auth"
	"chatline/cmd/api/dto"
	"chatline/cmd/api/handlers"
	"chatline/cmd/api/middleware"
	_ "chatline/docs"
	"chatline/ledger"
	"chatline/notifications"
	"chatline/realtime"
	"chatline/repositories"
)

// Deps 는 라우터가 묶는 서비스들이다. main 과 테스트가 같은 조립 경로를 쓴다.
type Deps struct {
	Store         repositories.Store
	Tokens        *auth.JWTManager
	Gate          *authz.Gate
	Ledger        *ledger.Ledger
	Sessions      *chat.SessionStore
	Pipeline      *chat.Pipeline
	Notifications *notifications.Service
	// Realtime 이 nil 이면 /ws 를 등록하지 않는다.
	Realtime      *realtime.Server
	RealtimePath  string
	AllowedOrigin []string
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestTrace())
	r.Use(middleware.CORS(d.AllowedOrigin))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		if d.Store.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()
			if err := d.Store.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, dto.HealthDTO{Status: "degraded", Storage: "down", Error: err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, dto.HealthDTO{Status: "ok"})
	})

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if d.Realtime != nil {
		path := d.RealtimePath
		if path == "" {
			path = "/ws"
		}
		r.GET(path, gin.WrapH(d.Realtime))
	}

	// v1 routes
	api := r.Group("/api/v1")
	api.Use(middleware.RequireUser(d.Tokens))
	{
		api.GET("/me", handlers.MeHandler(d.Store.Users))
		api.GET("/credits", handlers.CreditsHandler(d.Ledger))

		sessions := api.Group("/chat/sessions")
		sessions.GET("", handlers.ListSessionsHandler(d.Sessions))
		sessions.POST("", handlers.CreateSessionHandler(d.Sessions))
		sessions.GET("/:id", handlers.GetSessionHandler(d.Gate))
		sessions.GET("/:id/messages", handlers.ListMessagesHandler(d.Gate, d.Sessions))
		sessions.POST("/:id/messages", handlers.SubmitMessageHandler(d.Pipeline))

		api.GET("/notifications", handlers.ListNotificationsHandler(d.Notifications))
		api.POST("/notifications/read-all", handlers.MarkAllNotificationsReadHandler(d.Notifications))
		api.POST("/notifications/:id/read", handlers.MarkNotificationReadHandler(d.Notifications))

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin(d.Gate))
		admin.POST("/notifications", handlers.AdminSendNotificationHandler(d.Notifications))
		admin.POST("/users/:id/credits", handlers.AdminGrantCreditsHandler(d.Gate, d.Ledger))
		admin.GET("/users/:id/ledger/verify", handlers.AdminVerifyLedgerHandler(d.Ledger))
	}

	return r
}
