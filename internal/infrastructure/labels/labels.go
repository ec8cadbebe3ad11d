package labels

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/domain"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/storage"
)

// Table maps class ids to class names. It is read-only after Load.
type Table struct {
	names []string
}

func NewTable(names []string) *Table {
	return &Table{names: names}
}

// Load reads a flat JSON array of class names from the canonical tier.
// Any failure is a configuration error.
func Load(ctx context.Context, st storage.Storage, filename string) (*Table, error) {
	rc, err := st.Open(ctx, domain.TierCanonical, filename)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("file", filename).Msg("failed to open label table")
		return nil, fmt.Errorf("%w: open label table %s: %v", domain.ErrConfiguration, filename, err)
	}
	defer rc.Close()

	table, err := Parse(rc)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("file", filename).Msg("failed to parse label table")
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	zlog.Logger.Info().Str("file", filename).Int("classes", table.Len()).Msg("label table loaded")
	return table, nil
}

func Parse(r io.Reader) (*Table, error) {
	var names []string
	if err := json.NewDecoder(r).Decode(&names); err != nil {
		return nil, fmt.Errorf("decode label table: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("label table is empty")
	}
	return &Table{names: names}, nil
}

func (t *Table) Len() int {
	return len(t.names)
}

func (t *Table) Label(classID int) (string, error) {
	if classID < 0 || classID >= len(t.names) {
		return "", fmt.Errorf("%w: class id %d outside label table of %d entries",
			domain.ErrConfiguration, classID, len(t.names))
	}
	return t.names[classID], nil
}
