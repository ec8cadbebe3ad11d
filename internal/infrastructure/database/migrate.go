package database

import (
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

func RunMigrations(database *dbpg.DB, path string) error {
	if database == nil || database.Master == nil {
		return fmt.Errorf("database is not connected")
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(database.Master, path); err != nil {
		return fmt.Errorf("apply migrations from %s: %w", path, err)
	}

	version, err := goose.GetDBVersion(database.Master)
	if err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to read schema version")
		return nil
	}
	zlog.Logger.Info().Int64("version", version).Str("path", path).Msg("migrations applied")
	return nil
}
