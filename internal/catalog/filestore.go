package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-billing/internal/platform/fsx"
	"github.com/odyssey-erp/odyssey-billing/internal/pricing"
	"github.com/odyssey-erp/odyssey-billing/internal/shared"
)

// Record is the on-disk shape of one product in the catalog file.
type Record struct {
	ID           string      `json:"id" jsonschema:"format=uuid,description=Stable product identifier"`
	Name         string      `json:"name" jsonschema:"minLength=1"`
	UnitPrice    json.Number `json:"unit_price" jsonschema:"type=number,minimum=0"`
	MaterialCode string      `json:"material_code"`
}

// legacyRecord also accepts files written before ids existed, where the
// price was stored under "price".
type legacyRecord struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	UnitPrice    *json.Number `json:"unit_price"`
	Price        *json.Number `json:"price"`
	MaterialCode string       `json:"material_code"`
}

// errMalformed marks a catalog file that exists but cannot be decoded.
var errMalformed = errors.New("malformed catalog file")

// FileRepository keeps the catalog in a JSON file, rewriting the whole file
// atomically on every mutation.
type FileRepository struct {
	path   string
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewFileRepository builds a FileRepository for path.
func NewFileRepository(path string, logger *slog.Logger) *FileRepository {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileRepository{path: path, logger: logger, now: time.Now}
}

// Path returns the catalog file location.
func (r *FileRepository) Path() string { return r.path }

// List returns the catalog. An absent, unreadable or malformed file yields an empty catalog.
func (r *FileRepository) List(ctx context.Context) ([]Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := r.load()
	if err != nil {
		r.logger.Warn("catalog unreadable, treating as empty", slog.String("path", r.path), slog.Any("error", err))
		return []Product{}, nil
	}
	return products, nil
}

func (r *FileRepository) Add(ctx context.Context, product Product) ([]Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := r.loadForWrite()
	if err != nil {
		return nil, err
	}
	products = append(products, product)
	if err := r.save(products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *FileRepository) Update(ctx context.Context, id uuid.UUID, product Product) ([]Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := r.loadForWrite()
	if err != nil {
		return nil, err
	}
	idx := indexOf(products, id)
	if idx < 0 {
		return nil, fmt.Errorf("catalog: product %s: %w", id, shared.ErrNotFound)
	}
	product.ID = id
	products[idx] = product
	if err := r.save(products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *FileRepository) Delete(ctx context.Context, id uuid.UUID) ([]Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := r.loadForWrite()
	if err != nil {
		return nil, err
	}
	idx := indexOf(products, id)
	if idx < 0 {
		return nil, fmt.Errorf("catalog: product %s: %w", id, shared.ErrNotFound)
	}
	products = append(products[:idx], products[idx+1:]...)
	if err := r.save(products); err != nil {
		return nil, err
	}
	return products, nil
}

// loadForWrite loads the catalog ahead of a rewrite. A malformed file is
// moved aside so the rewrite never destroys it; any other read failure
// aborts the mutation.
func (r *FileRepository) loadForWrite() ([]Product, error) {
	products, err := r.load()
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, errMalformed) {
		return nil, err
	}
	aside := fmt.Sprintf("%s.corrupt-%d", r.path, r.now().Unix())
	if renameErr := os.Rename(r.path, aside); renameErr != nil {
		return nil, &shared.StorageWriteError{Path: r.path, Err: renameErr}
	}
	r.logger.Warn("malformed catalog moved aside", slog.String("path", r.path), slog.String("moved_to", aside))
	return []Product{}, nil
}

func (r *FileRepository) load() ([]Product, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Product{}, nil
		}
		return nil, &shared.StorageReadError{Path: r.path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []Product{}, nil
	}
	products, err := decodeRecords(data)
	if err != nil {
		return nil, &shared.StorageReadError{Path: r.path, Err: fmt.Errorf("%w: %v", errMalformed, err)}
	}
	return products, nil
}

func (r *FileRepository) save(products []Product) error {
	data, err := encodeRecords(products)
	if err != nil {
		return &shared.StorageWriteError{Path: r.path, Err: err}
	}
	if err := fsx.WriteFileAtomic(r.path, data, 0o644); err != nil {
		return &shared.StorageWriteError{Path: r.path, Err: err}
	}
	return nil
}

func decodeRecords(data []byte) ([]Product, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var records []legacyRecord
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(records))
	for i, rec := range records {
		raw := rec.UnitPrice
		if raw == nil {
			raw = rec.Price
		}
		if raw == nil {
			return nil, fmt.Errorf("record %d: missing unit_price", i+1)
		}
		price, err := decimal.NewFromString(raw.String())
		if err != nil {
			return nil, fmt.Errorf("record %d: unit_price: %w", i+1, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("record %d: unit_price must not be negative", i+1)
		}

		id, err := recordID(i, rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: id: %w", i+1, err)
		}
		products = append(products, Product{
			ID:           id,
			Name:         rec.Name,
			UnitPrice:    pricing.Round(price),
			MaterialCode: rec.MaterialCode,
		})
	}
	return products, nil
}

// recordID returns the stored id, or derives a deterministic one for legacy
// records so repeated loads agree until the file is rewritten.
func recordID(index int, rec legacyRecord) (uuid.UUID, error) {
	if rec.ID != "" {
		return uuid.Parse(rec.ID)
	}
	return uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("CATALOG:%d:%s:%s", index, rec.Name, rec.MaterialCode))), nil
}

func encodeRecords(products []Product) ([]byte, error) {
	records := make([]Record, 0, len(products))
	for _, p := range products {
		records = append(records, Record{
			ID:           p.ID.String(),
			Name:         p.Name,
			UnitPrice:    json.Number(p.UnitPrice.StringFixed(2)),
			MaterialCode: p.MaterialCode,
		})
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
