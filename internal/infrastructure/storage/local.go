package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/config"
	"github.com/yokitheyo/imageclassifier/internal/domain"
)

type localStorage struct {
	basePath string
	dirs     map[domain.Tier]string
}

func NewLocalStorage(cfg *config.StorageConfig) (Storage, error) {
	if cfg.LocalPath == "" {
		return nil, fmt.Errorf("LocalPath is empty, set storage.local_path in config or env")
	}

	storage := &localStorage{
		basePath: cfg.LocalPath,
		dirs:     tierDirs(cfg),
	}

	for _, tier := range []domain.Tier{domain.TierUploaded, domain.TierEdited} {
		if err := storage.ensureDir(tier); err != nil {
			return nil, err
		}
	}

	canonical := filepath.Join(storage.basePath, storage.dirs[domain.TierCanonical])
	if info, err := os.Stat(canonical); err != nil || !info.IsDir() {
		zlog.Logger.Error().Str("path", canonical).Msg("canonical dataset directory is missing")
		return nil, fmt.Errorf("%w: canonical dataset directory %s is missing", domain.ErrConfiguration, canonical)
	}

	return storage, nil
}

func (s *localStorage) ensureDir(tier domain.Tier) error {
	dir := filepath.Join(s.basePath, s.dirs[tier])
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create %s directory: %v", domain.ErrStorageFailed, tier, err)
	}
	return nil
}

func (s *localStorage) Path(tier domain.Tier, name string) string {
	return filepath.Join(s.dirs[tier], name)
}

func (s *localStorage) fullPath(tier domain.Tier, name string) string {
	return filepath.Join(s.basePath, s.Path(tier, name))
}

func (s *localStorage) Exists(ctx context.Context, tier domain.Tier, name string) (bool, error) {
	info, err := os.Stat(s.fullPath(tier, name))
	if err == nil {
		return !info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", s.Path(tier, name), err)
}

func (s *localStorage) Open(ctx context.Context, tier domain.Tier, name string) (io.ReadCloser, error) {
	fullPath := s.fullPath(tier, name)

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, s.Path(tier, name))
		}
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to open file")
		return nil, fmt.Errorf("open file %s: %w", fullPath, err)
	}
	return file, nil
}

func (s *localStorage) Save(ctx context.Context, tier domain.Tier, name string, reader io.Reader) (string, error) {
	if reader == nil {
		zlog.Logger.Error().Str("filename", name).Msg("reader is nil")
		return "", fmt.Errorf("reader is nil")
	}
	if err := s.ensureDir(tier); err != nil {
		return "", err
	}

	fullPath := s.fullPath(tier, name)
	file, err := os.Create(fullPath)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to create file")
		return "", fmt.Errorf("%w: create file %s: %v", domain.ErrStorageFailed, fullPath, err)
	}
	defer file.Close()

	written, err := io.Copy(file, reader)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to write file")
		return "", fmt.Errorf("%w: write file %s: %v", domain.ErrStorageFailed, fullPath, err)
	}

	relativePath := s.Path(tier, name)
	zlog.Logger.Info().
		Str("path", relativePath).
		Str("tier", string(tier)).
		Int64("bytes", written).
		Msg("file saved successfully")

	return relativePath, nil
}

func (s *localStorage) Delete(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}

	fullPath := filepath.Join(s.basePath, path)
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			zlog.Logger.Debug().Str("path", fullPath).Msg("file not found, skipping delete")
			return nil
		}
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to delete file")
		return fmt.Errorf("delete file %s: %w", fullPath, err)
	}

	zlog.Logger.Info().Str("path", path).Msg("file deleted successfully")
	return nil
}

func (s *localStorage) List(ctx context.Context, tier domain.Tier) ([]string, error) {
	dir := filepath.Join(s.basePath, s.dirs[tier])
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
