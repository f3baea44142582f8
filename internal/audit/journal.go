package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/odyssey-erp/odyssey-billing/internal/shared"
)

// FileName is the journal file created inside the invoice output directory.
const FileName = "invoices.jsonl"

// Journal is an append-only JSON-lines log of issued invoices.
type Journal struct {
	path string
	mu   sync.Mutex
}

// NewJournal opens the journal at path. The file is created on first Append.
func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

func (j *Journal) Path() string { return j.path }

// Append writes entry as a single line.
func (j *Journal) Append(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: encode entry: %w", err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return &shared.StorageWriteError{Path: j.path, Err: err}
	}
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return &shared.StorageWriteError{Path: j.path, Err: err}
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return &shared.StorageWriteError{Path: j.path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &shared.StorageWriteError{Path: j.path, Err: err}
	}
	return nil
}

// Timeline returns matching entries, newest first, one page at a time.
func (j *Journal) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}

	rows, err := j.Export(ctx, filters)
	if err != nil {
		return Result{}, err
	}
	offset := (page - 1) * pageSize
	if offset > len(rows) {
		offset = len(rows)
	}
	rows = rows[offset:]
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Export returns every matching entry, newest first. Lines that do not
// decode are skipped.
func (j *Journal) Export(ctx context.Context, filters TimelineFilters) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	j.mu.Lock()
	data, err := os.ReadFile(j.path)
	j.mu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, &shared.StorageReadError{Path: j.path, Err: err}
	}

	entries := make([]Entry, 0)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if filters.match(entry) {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &shared.StorageReadError{Path: j.path, Err: err}
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].At.After(entries[b].At)
	})
	return entries, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(substr)))
}
