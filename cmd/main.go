package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	authservice "github.com/hailinhs/alumnisite/auth/service"
	botkvstore "github.com/hailinhs/alumnisite/bot/botstorage/kvstore"
	"github.com/hailinhs/alumnisite/bot/tgbot"
	"github.com/hailinhs/alumnisite/internal/config"
	"github.com/hailinhs/alumnisite/internal/kv"
	"github.com/hailinhs/alumnisite/internal/kv/mem"
	kvredis "github.com/hailinhs/alumnisite/internal/kv/redis"
	kvsqlite "github.com/hailinhs/alumnisite/internal/kv/sqlite"
	"github.com/hailinhs/alumnisite/internal/logger"
	"github.com/hailinhs/alumnisite/internal/scheduler"
	"github.com/hailinhs/alumnisite/internal/service"
	"github.com/hailinhs/alumnisite/internal/storage/kvstore"
	"github.com/hailinhs/alumnisite/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/server.toml", "path to the server config")
	flag.Parse()

	cfg, err := config.New(configPath)
	if err != nil {
		return err
	}
	l := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Store, l)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			l.WithError(err).Warn("close store")
		}
	}()
	storage := kvstore.New(store, l)

	relay := &tgbot.Relay{}
	auth, err := authservice.New(ctx, cfg, storage, l, authservice.WithNotifier(relay))
	if err != nil {
		return err
	}

	if cfg.TgBot.Enabled {
		bot, err := tgbot.New(ctx, cfg, botkvstore.New(store, l), auth, l)
		if err != nil {
			return err
		}
		relay.Attach(bot)
		go bot.Run(ctx)
		defer bot.Stop()
	}

	opts := []service.Option{service.WithLocation(cfg.Location())}
	news := service.NewNewsService(storage, auth, l, opts...)
	events := service.NewEventService(storage, l, opts...)
	directory := service.NewDirectoryService(cfg.Site.Alumni)
	contact := service.NewContactService(storage, relay, l, opts...)

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(cfg.Scheduler, cfg.Location(), events, l)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	server := web.New(cfg, web.Services{
		Auth:      auth,
		News:      news,
		Events:    events,
		Directory: directory,
		Contact:   contact,
		Home:      service.NewHomeService(news, events, directory),
	}, l)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		l.Info("shutting down")
		return server.Shutdown()
	}
}

func openStore(ctx context.Context, cfg config.Store, l *logrus.Logger) (kv.Store, error) {
	switch cfg.Driver {
	case config.DriverSqlite:
		return kvsqlite.New(ctx, l, cfg.SqliteFile)
	case config.DriverRedis:
		return kvredis.New(ctx, l, kvredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	case config.DriverMemory:
		return mem.New(), nil
	}
	return nil, errors.Join(config.ErrUnknownDriver, fmt.Errorf("driver %q", cfg.Driver))
}
