package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yokitheyo/imageclassifier/internal/domain"
)

// maxNameAttempts bounds the suffix search in UniqueName.
const maxNameAttempts = 10000

// CleanName reduces a requested filename to a bare, flat file name.
func CleanName(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if base == "" || base == "." || base == ".." || base == "/" {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidImageID, name)
	}
	return base, nil
}

// UniqueName returns requested if it is free in tier, otherwise the first free
// "name_N.ext" for N = 1, 2, ... The check and the later write are not atomic:
// two concurrent writers may pick the same name.
func UniqueName(ctx context.Context, st Storage, tier domain.Tier, requested string) (string, error) {
	name, err := CleanName(requested)
	if err != nil {
		return "", err
	}

	exists, err := st.Exists(ctx, tier, name)
	if err != nil {
		return "", fmt.Errorf("check %s: %w", name, err)
	}
	if !exists {
		return name, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; i <= maxNameAttempts; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		exists, err := st.Exists(ctx, tier, candidate)
		if err != nil {
			return "", fmt.Errorf("check %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no free name for %s in %s", domain.ErrStorageFailed, name, tier)
}
