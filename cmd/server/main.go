package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/mailer"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("accounts"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := LoadConfig()
	if err != nil {
		lgr.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		lgr.Error("open database", "error", err)
		os.Exit(1)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := accounts.EnsureSchema(ctx, db); err != nil {
		lgr.Error("ensure schema", "error", err)
		os.Exit(1)
	}

	repo := accounts.NewRepositoryManager(db)

	provider := accounts.NewUserProvider(repo.Users()).
		WithLogger(lgr.GetLogger("provider"))

	auther := accounts.NewAuthenticator(provider, cfg).
		WithLogger(lgr.GetLogger("auth"))

	httpAuth, err := accounts.NewHTTPAuthenticator(auther, cfg)
	if err != nil {
		lgr.Error("http authenticator", "error", err)
		os.Exit(1)
	}
	httpAuth.Logger = lgr.GetLogger("auth:http")

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		app := router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))

		app.Use(limiter.New(limiter.Config{
			Max:        cfg.GlobalRateMax,
			Expiration: cfg.RateLimitWindow,
		}))

		app.Use(limiter.New(limiter.Config{
			Max:        cfg.AuthRateMax,
			Expiration: cfg.RateLimitWindow,
			Next: func(c *fiber.Ctx) bool {
				return !strings.HasPrefix(c.Path(), "/auth")
			},
		}))

		return app
	})

	srv.Router().WithLogger(lgr.GetLogger("router"))

	accounts.RegisterAuthRoutes(srv.Router(),
		accounts.WithControllerRepo(repo),
		accounts.WithControllerAuther(httpAuth),
		accounts.WithControllerMailer(buildMailer(cfg, lgr)),
		accounts.WithControllerLogger(lgr.GetLogger("auth:ctrl")),
	)

	lgr.Info("listening", "addr", cfg.ServerAddr)

	srv.Serve(cfg.ServerAddr)

	WaitExitSignal()
}

func buildMailer(cfg *Config, lgr *glog.BaseLogger) accounts.Mailer {
	if cfg.SMTPHost == "" {
		lgr.Warn("SMTP not configured, emails go to stdout")
		return accounts.LogMailer{BaseURL: cfg.ClientURL}
	}

	smtp, err := mailer.NewSMTPMailer(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
		BaseURL:  cfg.ClientURL,
	})
	if err != nil {
		lgr.Error("smtp mailer, falling back to stdout", "error", err)
		return accounts.LogMailer{BaseURL: cfg.ClientURL}
	}
	return smtp
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
