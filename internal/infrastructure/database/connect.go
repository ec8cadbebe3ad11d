package database

import (
	"context"
	"fmt"
	"time"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/config"
)

const (
	defaultConnectRetries = 15
	defaultConnectDelay   = 3 * time.Second
)

// Connect opens the master and replica pools described by cfg and waits until
// the master answers a ping. Postgres usually comes up after the service in
// compose setups, so failed attempts are retried with a fixed delay.
func Connect(ctx context.Context, cfg *config.DatabaseConfig) (*dbpg.DB, error) {
	retries := cfg.ConnectRetries
	if retries <= 0 {
		retries = defaultConnectRetries
	}
	delay := time.Duration(cfg.ConnectRetryDelaySec) * time.Second
	if delay <= 0 {
		delay = defaultConnectDelay
	}
	opts := &dbpg.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeSec) * time.Second,
	}
	slaves := cfg.SlaveDSNs()

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		db, err := open(ctx, cfg.DSN, slaves, opts)
		if err == nil {
			zlog.Logger.Info().Int("attempt", attempt).Int("replicas", len(slaves)).Msg("database connected")
			return db, nil
		}
		lastErr = err
		zlog.Logger.Warn().Err(err).Int("attempt", attempt).Int("of", retries).Msg("database not ready")

		if attempt == retries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect database: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("connect database after %d attempts: %w", retries, lastErr)
}

func open(ctx context.Context, master string, slaves []string, opts *dbpg.Options) (*dbpg.DB, error) {
	db, err := dbpg.New(master, slaves, opts)
	if err != nil {
		return nil, err
	}
	if db.Master == nil {
		return nil, fmt.Errorf("master pool is nil")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.Master.PingContext(pingCtx); err != nil {
		Close(db)
		return nil, fmt.Errorf("ping master: %w", err)
	}
	return db, nil
}

// Close releases the master and replica pools. Errors are only logged.
func Close(db *dbpg.DB) {
	if db == nil {
		return
	}
	if db.Master != nil {
		if err := db.Master.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("closing db master failed")
		}
	}
	for i, s := range db.Slaves {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil {
			zlog.Logger.Error().Err(err).Int("slave_index", i).Msg("closing db slave failed")
		}
	}
}
