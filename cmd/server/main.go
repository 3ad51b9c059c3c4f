package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"trattoria/internal/admin"
	"trattoria/internal/config"
	"trattoria/internal/domain"
	"trattoria/internal/events"
	"trattoria/internal/ledger"
	"trattoria/internal/logger"
	"trattoria/internal/menu"
	"trattoria/internal/orders"
	"trattoria/internal/reservations"
	"trattoria/internal/server"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "path to YAML config")
	flag.Parse()

	// optional .env for local development
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Setup("info")
		logger.New("bootstrap").WithError(err).Fatal("config_load_failed")
	}
	logger.Setup(cfg.Server.LogLevel)
	lg := logger.New("bootstrap")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mn, err := menu.Load(cfg.Server.MenuFile)
	if err != nil {
		lg.WithError(err).Fatal("menu_load_failed")
	}
	lg.WithField("items", mn.Len()).Info("menu_loaded")

	var store ledger.Store
	if cfg.Database.Enabled {
		if err := ledger.Migrate(cfg.Database); err != nil {
			lg.WithError(err).Fatal("migrate_failed")
		}
		pg, err := ledger.Connect(ctx, cfg.Database)
		if err != nil {
			lg.WithError(err).Fatal("db_connect_failed")
		}
		defer pg.Close()
		store = pg
		lg.WithField("host", cfg.Database.Host).Info("postgres_connected")
	} else {
		store = ledger.NewMemory()
		lg.Warn("running_on_in_memory_ledger")
	}

	var pub events.Publisher = events.Noop{}
	if cfg.RabbitMQ.Enabled {
		amqpPub, err := events.Dial(cfg.RabbitMQ)
		if err != nil {
			lg.WithError(err).Fatal("rabbitmq_connect_failed")
		}
		defer amqpPub.Close()
		pub = amqpPub
		lg.WithField("host", cfg.RabbitMQ.Host).Info("rabbitmq_connected")
	}

	allocator := reservations.NewAllocator(domain.DefaultCatalog(), store)
	orderSvc := orders.NewService(store, mn, pub)

	console := admin.NewConsole(os.Stdin, os.Stdout, orderSvc, cancel)
	go console.Run(ctx)

	srv := server.New(cfg.Server, allocator, orderSvc)
	if err := srv.Run(ctx); err != nil {
		lg.WithError(err).Fatal("server_failed")
	}
}
