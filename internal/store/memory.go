package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"tariff-workers/internal/models"
)

// Snapshot is the on-disk form of a MemoryStore.
type Snapshot struct {
	Version string                    `json:"version"`
	Records []models.TariffCodeRecord `json:"records"`
}

// MemoryStore serves a fixed set of records. It is immutable after
// construction and safe for concurrent use, which makes it the store of
// choice for tests, the CLI and deterministic replays.
type MemoryStore struct {
	version string
	byCode  map[string]models.TariffCodeRecord
	ordered []models.TariffCodeRecord
	limit   int
}

// NewMemoryStore indexes records by normalized code. Later duplicates win.
func NewMemoryStore(records []models.TariffCodeRecord) (*MemoryStore, error) {
	m := &MemoryStore{byCode: make(map[string]models.TariffCodeRecord, len(records))}
	for _, r := range records {
		code, err := NormalizeCode(r.Code)
		if err != nil {
			return nil, fmt.Errorf("snapshot record %q: %w", r.Code, err)
		}
		r.Code = code
		if r.Source == "" {
			r.Source = "snapshot"
		}
		m.byCode[code] = r
	}

	m.ordered = make([]models.TariffCodeRecord, 0, len(m.byCode))
	for _, r := range m.byCode {
		m.ordered = append(m.ordered, r)
	}
	sort.Slice(m.ordered, func(i, j int) bool { return m.ordered[i].Code < m.ordered[j].Code })

	return m, nil
}

// LoadSnapshot reads a JSON snapshot file.
func LoadSnapshot(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	m, err := NewMemoryStore(snap.Records)
	if err != nil {
		return nil, err
	}
	m.version = snap.Version
	return m, nil
}

// WithLimit caps the number of search hits per term. Zero means unlimited.
func (m *MemoryStore) WithLimit(limit int) *MemoryStore {
	cp := *m
	cp.limit = limit
	return &cp
}

func (m *MemoryStore) Version() string { return m.version }

func (m *MemoryStore) Len() int { return len(m.ordered) }

func (m *MemoryStore) Search(ctx context.Context, term, categoryHint string) ([]models.TariffCodeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return nil, nil
	}

	var out []models.TariffCodeRecord
	for _, r := range m.ordered {
		if categoryHint != "" && !strings.EqualFold(r.Category, categoryHint) {
			continue
		}
		if strings.Contains(strings.ToLower(r.Description), needle) {
			out = append(out, r)
			if m.limit > 0 && len(out) >= m.limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) GetByCode(ctx context.Context, code string) (*models.TariffCodeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, ok := m.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}
