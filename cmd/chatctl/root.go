package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"chatline/cmd/api/auth"
	"chatline/cmd/internal/bootstrap"
	"chatline/config"
	"chatline/eventbus"
	"chatline/logger"
	"chatline/repositories"
)

// app 은 명령들이 쓰는 외부 자원 생성기이다. 테스트에서 교체한다.
type app struct {
	openStore  func(ctx context.Context) (repositories.Store, error)
	openBus    func() (eventbus.EventBus, error)
	newTokens  func() (*auth.JWTManager, error)
	storageOpt string
	sqliteOpt  string
	verbose    bool
}

func defaultApp() *app {
	a := &app{}
	a.openStore = func(ctx context.Context) (repositories.Store, error) {
		cfg := config.GetConfig().Storage
		if a.storageOpt != "" {
			cfg.Driver = a.storageOpt
		}
		if a.sqliteOpt != "" {
			cfg.SQLitePath = a.sqliteOpt
		}
		return bootstrap.OpenStore(ctx, cfg)
	}
	a.openBus = func() (eventbus.EventBus, error) {
		return bootstrap.OpenEventBus(config.GetConfig().EventBus)
	}
	a.newTokens = func() (*auth.JWTManager, error) {
		return auth.NewJWTManagerFromEnv(config.GetConfig().Auth)
	}
	return a
}

// withStore 는 저장소를 열고 fn 이 끝나면 닫는다.
func (a *app) withStore(ctx context.Context, fn func(store repositories.Store) error) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if store.Close != nil {
			_ = store.Close(context.WithoutCancel(ctx))
		}
	}()
	return fn(store)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "chatctl",
		Short: "Operate a chatline deployment",
		Long: `Operator CLI for chatline.

Quick Start:
  chatctl users create --email ops@example.com --role admin
  chatctl token issue <user-id>
  chatctl credits grant <user-id> 100
  chatctl credits verify <user-id>
  chatctl notify send --title "Maintenance" --body "Tonight 22:00"`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.verbose {
				logger.Init("debug")
			} else {
				logger.Init("warn")
			}
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().StringVar(&a.storageOpt, "storage", "", "Storage driver override (mongo|sqlite)")
	root.PersistentFlags().StringVar(&a.sqliteOpt, "sqlite-path", "", "SQLite file path override")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newUsersCmd(a),
		newTokenCmd(a),
		newCreditsCmd(a),
		newNotifyCmd(a),
		newSessionsCmd(a),
	)
	return root
}
