package inference

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/domain"
)

// WeightsFetcher makes sure exported weight files are present in a local
// cache directory, downloading them from baseURL on first use.
type WeightsFetcher struct {
	dir     string
	baseURL string
	client  *resty.Client
}

func NewWeightsFetcher(dir, baseURL string) *WeightsFetcher {
	client := resty.New().
		SetTimeout(30 * time.Minute).
		SetRetryCount(3).
		SetRetryWaitTime(2 * time.Second)
	return &WeightsFetcher{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Ensure returns the local path of arch's weights, downloading them if needed.
func (f *WeightsFetcher) Ensure(ctx context.Context, arch Architecture) (string, error) {
	path := filepath.Join(f.dir, arch.WeightsFile)
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return path, nil
	}

	if f.baseURL == "" {
		return "", fmt.Errorf("%w: weights %s not found and models.base_url is empty", domain.ErrConfiguration, path)
	}
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return "", fmt.Errorf("create models dir: %w", err)
	}

	url := f.baseURL + "/" + arch.WeightsFile
	tmp := path + ".part"
	zlog.Logger.Info().Str("model_id", arch.ID).Str("url", url).Msg("downloading model weights")

	start := time.Now()
	resp, err := f.client.R().
		SetContext(ctx).
		SetOutput(tmp).
		Get(url)
	if err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("download %s: unexpected status %d", url, resp.StatusCode())
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("move weights into place: %w", err)
	}

	zlog.Logger.Info().
		Str("model_id", arch.ID).
		Str("path", path).
		Dur("took", time.Since(start)).
		Msg("model weights downloaded")
	return path, nil
}
