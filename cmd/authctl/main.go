package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fakhri2406/creadev/internal/authctl"
	"github.com/fakhri2406/creadev/internal/cryptox"
	"github.com/fakhri2406/creadev/internal/logging"
	"github.com/fakhri2406/creadev/internal/server"
	"github.com/fakhri2406/creadev/internal/server/config"
	"github.com/fakhri2406/creadev/internal/server/services"
)

func main() {
	os.Exit(run())
}

func run() int {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	db, rdb, rm, err := server.OpenStores(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer server.CloseStores(db, rdb)

	if err := rm.RunMigrations(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "migration error: %v\n", err)
		return 1
	}

	hasher, err := cryptox.NewHasher(cfg.PasswordHasher)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	accounts := services.NewAuthService(db, rm, hasher, cfg, logger)
	maintenance := services.NewMaintenance(db, rm, logger)

	app := authctl.NewApp(accounts, maintenance, os.Stdout)
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, authctl.ErrUsage) {
			return 2
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
