package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/odyssey-erp/odyssey-billing/internal/platform/fsx"
	"github.com/odyssey-erp/odyssey-billing/internal/pricing"
	"github.com/odyssey-erp/odyssey-billing/internal/shared"
)

type cartFile struct {
	Lines []Line `json:"lines"`
}

// FileStore keeps the working cart between invocations.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns the saved cart, or an empty one when nothing was saved. A
// saved line whose tax rate is no longer among tiers makes the file
// unreadable until the cart is cleared.
func (s *FileStore) Load(tiers pricing.Tiers) (*Cart, error) {
	c := New(tiers)
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, &shared.StorageReadError{Path: s.path, Err: err}
	}
	var file cartFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &shared.StorageReadError{Path: s.path, Err: err}
	}
	for i, line := range file.Lines {
		if !tiers.Contains(line.TaxRate) {
			err := fmt.Errorf("line %d: tax rate %s%% is not one of %s; clear the cart", i+1, pricing.FormatPercent(line.TaxRate), tiers.Labels())
			return nil, &shared.StorageReadError{Path: s.path, Err: err}
		}
	}
	c.lines = file.Lines
	return c, nil
}

// Save rewrites the cart file atomically.
func (s *FileStore) Save(c *Cart) error {
	data, err := json.MarshalIndent(cartFile{Lines: c.Lines()}, "", "  ")
	if err != nil {
		return &shared.StorageWriteError{Path: s.path, Err: err}
	}
	if err := fsx.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return &shared.StorageWriteError{Path: s.path, Err: err}
	}
	return nil
}
