package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-habits/internal/config"
	"github.com/comitanigiacomo/kanso-habits/internal/logger"
)

type CLI struct {
	Config string `help:"Path to the YAML config file." type:"path" env:"CONFIG_PATH"`

	Migrate   MigrateCmd   `cmd:"" help:"Apply pending database migrations."`
	Recompute RecomputeCmd `cmd:"" help:"Rebuild stored streaks from the check-in ledger."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("kansoctl"),
		kong.Description("Operator tooling for the kanso habits service."),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, kctx, cli.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, kctx *kong.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	env := &environment{cfg: cfg, logger: log.With(zap.String("command", kctx.Command()))}
	kctx.BindTo(ctx, (*context.Context)(nil))
	return kctx.Run(env)
}
