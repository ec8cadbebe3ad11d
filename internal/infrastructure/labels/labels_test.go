package labels

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/config"
	"github.com/yokitheyo/imageclassifier/internal/domain"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/storage"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

func TestParse(t *testing.T) {
	table, err := Parse(strings.NewReader(`["tench", "goldfish", "great white shark"]`))
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	label, err := table.Label(1)
	require.NoError(t, err)
	assert.Equal(t, "goldfish", label)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"0": "tench"}`))
	assert.Error(t, err)

	_, err = Parse(strings.NewReader(`[]`))
	assert.Error(t, err)
}

func TestLabelOutOfRange(t *testing.T) {
	table := NewTable([]string{"tench"})

	_, err := table.Label(1)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = table.Label(-1)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	canonical := filepath.Join(root, "imagenet_subset")
	require.NoError(t, os.MkdirAll(canonical, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(canonical, "imagenet_labels.json"), []byte(`["tench","goldfish"]`), 0644))

	st, err := storage.NewLocalStorage(&config.StorageConfig{LocalPath: root})
	require.NoError(t, err)

	table, err := Load(context.Background(), st, "imagenet_labels.json")
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	_, err = Load(context.Background(), st, "missing.json")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
