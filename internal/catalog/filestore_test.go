package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRepositoryMissingFileIsEmpty(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "inventory.json"), nil)
	products, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NotNil(t, products)
}

func TestFileRepositoryMalformedIsEmptyAndPreserved(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inventory.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "Widget", "price": `), 0o644))

	repo := NewFileRepository(path, nil)
	repo.now = func() time.Time { return time.Unix(1700000000, 0) }
	ctx := context.Background()

	products, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	products, err = repo.Add(ctx, Product{ID: uuid.New(), Name: "Gadget", UnitPrice: decimal.NewFromInt(5)})
	require.NoError(t, err)
	require.Len(t, products, 1)

	aside, err := os.ReadFile(path + ".corrupt-1700000000")
	require.NoError(t, err)
	assert.Contains(t, string(aside), "Widget")
}

func TestFileRepositoryReadsLegacyRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	legacy := `[
    {"name": "Widget", "price": 100.0, "material_code": "W-1"},
    {"name": "Gadget", "price": 12.5, "material_code": ""}
]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	repo := NewFileRepository(path, nil)
	first, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "Widget", first[0].Name)
	assert.Equal(t, "100.00", first[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "12.50", first[1].UnitPrice.StringFixed(2))

	second, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID, "legacy ids are deterministic")
	assert.NotEqual(t, first[0].ID, first[1].ID)
}

func TestFileRepositoryWritesNumericPrices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	repo := NewFileRepository(path, nil)
	id := uuid.MustParse("6f1c2f0e-8d38-4a51-9a43-0d6c1f1f9a10")

	_, err := repo.Add(context.Background(), Product{ID: id, Name: "Widget", UnitPrice: decimal.RequireFromString("100"), MaterialCode: "W-1"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"unit_price": 100.00`)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, id.String(), raw[0]["id"])
	assert.Equal(t, 100.0, raw[0]["unit_price"])
}

func TestSchemaDescribesRecordArray(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "array", doc["type"])

	items, ok := doc["items"].(map[string]any)
	require.True(t, ok)
	props, ok := items["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"id", "name", "unit_price", "material_code"} {
		assert.Contains(t, props, key)
	}
	assert.True(t, strings.Contains(string(data), "json-schema.org"))
}

func TestFileRepositoryRoundsStoredPrices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "Washer", "price": 0.30000000000000004, "material_code": "WS-1"}]`), 0o644))

	products, err := NewFileRepository(path, nil).List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "0.3", products[0].UnitPrice.String())
}

func TestFileRepositoryRejectsNegativeStoredPrice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "Refund", "price": -5}]`), 0o644))

	products, err := NewFileRepository(path, nil).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}
