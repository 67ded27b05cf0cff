package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/chatapp/internal/cli"
	"github.com/mkrupp/chatapp/internal/infra/config"
	"github.com/mkrupp/chatapp/internal/infra/logging"
	"github.com/mkrupp/chatapp/internal/platform"
	"github.com/mkrupp/chatapp/internal/repo/blob"
	"github.com/mkrupp/chatapp/internal/repo/token"
	"github.com/mkrupp/chatapp/internal/svc/chatsvc"
	"github.com/mkrupp/chatapp/internal/svc/imagesvc"
	"github.com/mkrupp/chatapp/internal/svc/sessionsvc"
	"github.com/mkrupp/chatapp/internal/svc/sessionsvc/accountclient"
)

const (
	appName = "chat"
	svcName = "app"
)

type Config struct {
	config.EnvConfig

	Log         logging.LoggerConfig                `envPrefix:"LOG_"`
	App         cli.AppConfig                       `envPrefix:"CLIENT_"`
	Account     accountclient.HTTPClientConfig      `envPrefix:"ACCOUNT_"`
	Token       token.SQLiteTokenRepositoryConfig   `envPrefix:"TOKEN_"`
	Blob        blob.FileSystemBlobRepositoryConfig `envPrefix:"BLOB_"`
	Image       imagesvc.ImageConfig                `envPrefix:"IMAGE_"`
	Camera      platform.CameraConfig               `envPrefix:"CAMERA_"`
	Location    platform.LocatorConfig              `envPrefix:"LOCATION_"`
	Permissions platform.PermissionsConfig          `envPrefix:"PERMISSIONS_"`
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
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.chatapp")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
		} else {
			log.InfoContext(ctx, "shutdown")
		}
	}()

	tokens, err := token.NewSQLiteTokenRepository(ctx, cfg.Token)
	if err != nil {
		return fmt.Errorf("new token repository: %w", err)
	}
	defer tokens.Close()

	images, err := imagesvc.NewBlobImageService(ctx, blob.FileSystemBlobRepositoryFactory(cfg.Blob), cfg.Image)
	if err != nil {
		return fmt.Errorf("new image service: %w", err)
	}

	var (
		reader   = bufio.NewReader(os.Stdin)
		prompter = cli.NewPrompter(reader, os.Stdout)
		alerter  = cli.NewAlerter(os.Stdout)

		camera  = platform.NewFileCamera(prompter, cfg.Camera)
		locator = platform.NewFixedLocator(cfg.Location)
		perms   = platform.NewPromptPermissions(prompter, cfg.Permissions)
	)

	session := sessionsvc.NewManager(
		accountclient.NewHTTPClient(cfg.Account, nil),
		tokens,
		sessionsvc.WithAlerter(alerter),
	)

	newChat := func() *chatsvc.Chat {
		return chatsvc.NewChat(images, camera, locator, perms, alerter)
	}

	app := cli.NewApp(cfg.App, session, images, newChat, reader, os.Stdout)

	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("run client: %w", err)
	}

	return nil
}
