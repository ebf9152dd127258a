package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"group-order-bot/internal/bot"
	"group-order-bot/internal/config"
	"group-order-bot/internal/db"
	"group-order-bot/internal/logger"
	"group-order-bot/internal/mq"
	"group-order-bot/internal/notify"
	"group-order-bot/internal/repository"
	"group-order-bot/internal/service"
	"group-order-bot/internal/session"
)

func main() {
	mode := flag.String("mode", "bot", "bot | event-logger")
	flag.Parse()

	lg := logger.New("bootstrap")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		lg.Error("config_load", err, nil)
		os.Exit(1)
	}

	switch *mode {
	case "bot":
		lg.Info("service_started", map[string]any{"service": "group-order-bot"})
		if err := runBot(ctx, cfg); err != nil && err != context.Canceled {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	case "event-logger":
		lg.Info("service_started", map[string]any{"service": "event-logger"})
		if err := runEventLogger(ctx, cfg); err != nil && err != context.Canceled {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "--mode must be: bot | event-logger")
		os.Exit(2)
	}
}

func runBot(ctx context.Context, cfg config.App) error {
	if err := cfg.RequireToken(); err != nil {
		return err
	}
	lg := logger.New("group-order-bot")

	conn, err := db.Connect(ctx, cfg.Database.Host, cfg.Database.Port,
		cfg.Database.User, cfg.Database.Pass, cfg.Database.Name, cfg.Database.MaxConns)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer conn.Close()
	if err := conn.InitSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	// events are best-effort; a missing broker only disables publishing
	var events service.EventPublisher
	mqClient, err := mq.Dial(cfg.Rabbit.Host, cfg.Rabbit.Port, cfg.Rabbit.User, cfg.Rabbit.Pass)
	if err != nil {
		lg.Error("mq_dial", err, map[string]any{"host": cfg.Rabbit.Host})
	} else {
		defer mqClient.Close()
		if err := mqClient.DeclareTopology(); err != nil {
			lg.Error("mq_declare", err, nil)
		} else {
			events = mqClient
		}
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("telegram connect: %w", err)
	}
	me, err := api.GetMe()
	if err != nil {
		return fmt.Errorf("telegram identify: %w", err)
	}
	lg.Info("telegram_connected", map[string]any{"username": me.UserName})

	participants := repository.NewParticipants(conn.Pool)
	catalog := repository.NewCatalog(conn.Pool)
	orders := repository.NewOrders(conn.Pool)

	sessions := session.NewMemory(cfg.SessionTTL)
	out := service.NewDispatcher(bot.NewMessenger(api), lg)

	reg := service.NewRegistration(participants, sessions, out, logger.New("registration"))
	cat := service.NewCatalog(catalog, sessions, out, logger.New("catalog"))
	ord := service.NewOrders(orders, catalog, participants, sessions, out, events, logger.New("orders"))
	led := service.NewLedger(orders, catalog, out, logger.New("ledger"))

	return bot.New(api, participants, sessions, out, reg, cat, ord, led, lg).Run(ctx)
}

func runEventLogger(ctx context.Context, cfg config.App) error {
	lg := logger.New("event-logger")
	mqClient, err := mq.Dial(cfg.Rabbit.Host, cfg.Rabbit.Port, cfg.Rabbit.User, cfg.Rabbit.Pass)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer mqClient.Close()
	if err := mqClient.DeclareTopology(); err != nil {
		return fmt.Errorf("declare topology: %w", err)
	}
	return notify.Run(ctx, mqClient, lg)
}
