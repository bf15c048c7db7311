// riskd is the risk-control service: it watches trading activity against
// the configured risk rules, records incidents and applies remediation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/MAHD04/Risk-Control-System/internal/actions"
	"github.com/MAHD04/Risk-Control-System/internal/config"
	"github.com/MAHD04/Risk-Control-System/internal/engine"
	"github.com/MAHD04/Risk-Control-System/internal/monitor"
	"github.com/MAHD04/Risk-Control-System/internal/rules"
	"github.com/MAHD04/Risk-Control-System/internal/server"
	"github.com/MAHD04/Risk-Control-System/internal/store"
	"github.com/MAHD04/Risk-Control-System/internal/ws"
	"github.com/MAHD04/Risk-Control-System/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "riskd:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	gin.SetMode(cfg.Server.Mode)

	db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Database.Seed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seed defaults: %w", err)
		}
	}

	ruleStore := store.NewRuleStore(db)
	tradeStore := store.NewTradeStore(db)
	incidentStore := store.NewIncidentStore(db)
	accountStore := store.NewAccountStore(db)

	registry := rules.NewDefaultRegistry(tradeStore)

	executor := actions.NewExecutor(
		log.Named("actions"),
		accountStore,
		actions.NewSMTPSender(actions.SMTPConfig{
			Host:     cfg.Notify.SMTPHost,
			Port:     cfg.Notify.SMTPPort,
			From:     cfg.Notify.SMTPFrom,
			Username: cfg.Notify.SMTPUsername,
			Password: cfg.Notify.SMTPPassword,
			Timeout:  cfg.Notify.SMTPTimeout,
		}),
		actions.NewHTTPWebhookSender(cfg.Notify.WebhookTimeout),
	)

	hub := ws.NewHub(log.Named("ws"))
	eng := engine.NewEngine(log.Named("engine"), ruleStore, incidentStore, registry, executor, hub)

	if cfg.Sweep.Enabled {
		sweeper := monitor.NewSweeper(log.Named("sweep"), accountStore, eng, cfg.Sweep.Interval)
		go sweeper.Run(ctx)
	}

	srv := server.New(log.Named("http"), eng, registry, ruleStore, tradeStore, incidentStore, accountStore, hub)

	log.Info("riskd starting",
		zap.String("addr", cfg.Server.Addr),
		zap.String("database", cfg.Database.Driver),
		zap.Bool("sweep", cfg.Sweep.Enabled))

	return srv.Run(cfg.Server.Addr)
}
