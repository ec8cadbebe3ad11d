package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/config"
	"github.com/yokitheyo/imageclassifier/internal/domain"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

func newTestStorage(t *testing.T) (Storage, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "imagenet_subset"), 0755))

	st, err := New(&config.StorageConfig{Type: "local", LocalPath: root})
	require.NoError(t, err)
	return st, root
}

func TestNewLocalStorage(t *testing.T) {
	_, root := newTestStorage(t)

	assert.DirExists(t, filepath.Join(root, "uploads"))
	assert.DirExists(t, filepath.Join(root, "edited"))
}

func TestNewLocalStorageRequiresCanonicalDir(t *testing.T) {
	_, err := NewLocalStorage(&config.StorageConfig{LocalPath: t.TempDir()})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(&config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)
}

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	st, root := newTestStorage(t)
	ctx := context.Background()

	path, err := st.Save(ctx, domain.TierUploaded, "cat.jpg", strings.NewReader("meow"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("uploads", "cat.jpg"), path)
	assert.FileExists(t, filepath.Join(root, path))

	exists, err := st.Exists(ctx, domain.TierUploaded, "cat.jpg")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = st.Exists(ctx, domain.TierEdited, "cat.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	rc, err := st.Open(ctx, domain.TierUploaded, "cat.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "meow", string(data))

	require.NoError(t, st.Delete(ctx, path))
	assert.NoFileExists(t, filepath.Join(root, path))

	// deleting twice is not an error
	assert.NoError(t, st.Delete(ctx, path))
}

func TestLocalStorageOpenMissing(t *testing.T) {
	st, _ := newTestStorage(t)

	_, err := st.Open(context.Background(), domain.TierCanonical, "nope.JPEG")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorageList(t *testing.T) {
	st, root := newTestStorage(t)
	canonical := filepath.Join(root, "imagenet_subset")
	for _, name := range []string{"b.JPEG", "a.JPEG", "labels.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(canonical, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(canonical, "nested"), 0755))

	names, err := st.List(context.Background(), domain.TierCanonical)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.JPEG", "b.JPEG", "labels.json"}, names)
}

func TestUniqueName(t *testing.T) {
	st, _ := newTestStorage(t)
	ctx := context.Background()

	name, err := UniqueName(ctx, st, domain.TierUploaded, "cat.jpg")
	require.NoError(t, err)
	assert.Equal(t, "cat.jpg", name)

	_, err = st.Save(ctx, domain.TierUploaded, "cat.jpg", bytes.NewReader([]byte("1")))
	require.NoError(t, err)

	name, err = UniqueName(ctx, st, domain.TierUploaded, "cat.jpg")
	require.NoError(t, err)
	assert.Equal(t, "cat_1.jpg", name)

	_, err = st.Save(ctx, domain.TierUploaded, "cat_1.jpg", bytes.NewReader([]byte("2")))
	require.NoError(t, err)

	name, err = UniqueName(ctx, st, domain.TierUploaded, "cat.jpg")
	require.NoError(t, err)
	assert.Equal(t, "cat_2.jpg", name)

	// other tiers are independent
	name, err = UniqueName(ctx, st, domain.TierEdited, "cat.jpg")
	require.NoError(t, err)
	assert.Equal(t, "cat.jpg", name)
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "dog.png", want: "dog.png"},
		{name: "strips directories", in: "../../etc/passwd", want: "passwd"},
		{name: "windows separators", in: `C:\photos\dog.png`, want: "dog.png"},
		{name: "empty", in: "", wantErr: true},
		{name: "dot dot", in: "..", wantErr: true},
		{name: "root", in: "/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanName(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidImageID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
