package main

import (
	"fmt"

	"console_rental/internal/actuator"
	"console_rental/internal/config"
	"console_rental/internal/devicelock"
	"console_rental/internal/logger"
	"console_rental/internal/repository"
	"console_rental/internal/repository/db"
	"console_rental/internal/service"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *sqlx.DB
	redis    *redis.Client
	services *service.Service
}

func newApp(cfg *config.Config) (*app, error) {
	log := logger.Get(cfg.Log.Level)

	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("init sqlite: %w", err)
	}
	a := &app{cfg: cfg, log: log, db: conn}

	locker, err := a.newLocker()
	if err != nil {
		a.close()
		return nil, err
	}

	repos := repository.NewRepository(conn)
	a.services = service.NewService(repos, service.Deps{
		Locker:          locker,
		Actuator:        actuator.FromConfig(cfg.Actuator.BaseURL, cfg.Actuator.APIKey, cfg.Actuator.Timeout),
		Logger:          log,
		Categories:      repository.NewCachedCategories(repos.Categories, cfg.RateCache.Size, cfg.RateCache.TTL),
		GracePeriod:     cfg.Sweeper.GracePeriod,
		RequireStartAck: cfg.Actuator.RequireStartAck,
		SigningKey:      cfg.Auth.SigningKey,
		TokenTTL:        cfg.Auth.TokenTTL,
	})

	if cfg.Actuator.BaseURL == "" {
		log.Infow("actuator disabled; device power is not switched")
	}
	if cfg.Auth.SigningKey == "" {
		log.Warnw("auth.signing_key is empty; tokens will not survive a restart")
	}
	return a, nil
}

func (a *app) newLocker() (devicelock.Locker, error) {
	if a.cfg.Lock.Backend != config.LockBackendRedis {
		return devicelock.NewMemory(a.cfg.Lock.WaitTimeout), nil
	}
	rc := a.cfg.Redis
	client, err := devicelock.OpenRedis(rc.Addr, rc.Password, rc.DB, rc.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.redis = client
	a.log.Infow("using redis device locks", "addr", rc.Addr)
	return devicelock.NewRedis(client, a.cfg.Lock.TTL, a.cfg.Lock.WaitTimeout), nil
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Errorw("failed to close redis", "err", err)
		}
	}
	if err := a.db.Close(); err != nil {
		a.log.Errorw("failed to close sqlite", "err", err)
	}
	_ = a.log.Sync()
}
