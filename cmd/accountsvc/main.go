package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/chatapp/internal/infra/config"
	"github.com/mkrupp/chatapp/internal/infra/logging"
	"github.com/mkrupp/chatapp/internal/infra/transport/http"
	"github.com/mkrupp/chatapp/internal/repo/account"
	"github.com/mkrupp/chatapp/internal/svc/accountsvc"
)

const (
	appName = "chat"
	svcName = "accountsvc"
)

type Config struct {
	config.EnvConfig

	Log     logging.LoggerConfig                  `envPrefix:"LOG_"`
	Account accountsvc.AccountConfig              `envPrefix:"ACCOUNT_"`
	HTTP    accountsvc.HTTPTransportConfig        `envPrefix:"HTTP_"`
	User    account.SQLiteAccountRepositoryConfig `envPrefix:"USER_"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	if err := config.LoadDotEnv(".env"); err != nil {
		panic(err)
	}

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.accountsvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
		} else {
			log.InfoContext(ctx, "shutdown")
		}
	}()

	accountSvc, err := accountsvc.NewAccountService(
		ctx,
		account.SQLiteAccountRepositoryFactory(cfg.User),
		cfg.Account,
	)
	if err != nil {
		return fmt.Errorf("new account service: %w", err)
	}
	defer accountSvc.Close()

	httpTransport := accountsvc.NewHTTPTransport(accountSvc, cfg.HTTP)

	log.InfoContext(ctx, "serving", "addr", cfg.HTTP.ServerAddr)

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
