package main

import (
	"fmt"
	"time"

	"github.com/zulandar/isotrack/internal/announce"
	"github.com/zulandar/isotrack/internal/config"
	"github.com/zulandar/isotrack/internal/db"
	"github.com/zulandar/isotrack/internal/detail"
	"github.com/zulandar/isotrack/internal/isolock"
	"github.com/zulandar/isotrack/internal/logger"
	"github.com/zulandar/isotrack/internal/notify"
	"github.com/zulandar/isotrack/internal/notify/discord"
	"github.com/zulandar/isotrack/internal/notify/slack"
	"gorm.io/gorm"
)

func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s database: %w", cfg.Database.Driver, err)
	}
	return cfg, gormDB, nil
}

// app bundles the processors a command needs, built from config.
type app struct {
	cfg       *config.Config
	db        *gorm.DB
	log       *logger.Logger
	announcer *announce.Processor
	importer  *detail.Processor
	closers   []func() error
}

func newApp(configPath string) (*app, error) {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, db: gormDB, log: log}

	locker, err := a.buildLocker()
	if err != nil {
		a.Close()
		return nil, err
	}
	notifier, err := a.buildNotifier()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.announcer = announce.NewProcessor(gormDB, locker, log, announce.WithWorkers(cfg.Announce.Workers))
	a.importer = detail.NewProcessor(gormDB, locker, notifier, log)
	return a, nil
}

func (a *app) buildLocker() (isolock.Locker, error) {
	if a.cfg.Lock.Backend != "redis" {
		return isolock.NewLocal(), nil
	}
	ttl := time.Duration(a.cfg.Lock.TTLSeconds) * time.Second
	r, err := isolock.NewRedis(a.cfg.Lock.RedisAddr, a.cfg.Lock.RedisPassword, a.cfg.Lock.RedisDB, ttl)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, r.Close)
	a.log.Debug("using redis isometric locks", "addr", a.cfg.Lock.RedisAddr)
	return r, nil
}

func (a *app) buildNotifier() (*notify.Notifier, error) {
	var adapters []notify.Adapter
	if c := a.cfg.Notify.Slack; c.Enabled() {
		s, err := slack.New(slack.AdapterOpts{BotToken: c.BotToken, ChannelID: c.ChannelID, Logger: a.log})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, s)
	}
	if c := a.cfg.Notify.Discord; c.Enabled() {
		d, err := discord.New(discord.AdapterOpts{BotToken: c.BotToken, ChannelID: c.ChannelID, Logger: a.log})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, d)
	}
	return notify.New(a.log, adapters...), nil
}

// project returns the override when set, else the configured project.
func (a *app) project(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if a.cfg.Project == "" {
		return "", fmt.Errorf("no project: set project in config or pass --project")
	}
	return a.cfg.Project, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.Warn("close", "error", err)
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
	a.log.Sync()
}
