// Package store exposes the read-only tariff record store: description search
// and keyed lookup by code at 2, 4, 6, 8 or 10 digits.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "tariff-workers/internal/common/errors"
	"tariff-workers/internal/models"
)

// ErrNotFound is returned by GetByCode when no record has exactly that code.
var ErrNotFound = errors.New("tariff code not found")

// Searcher finds records whose description contains term, ignoring case.
// A non-empty categoryHint restricts results to that category.
type Searcher interface {
	Search(ctx context.Context, term, categoryHint string) ([]models.TariffCodeRecord, error)
}

// Lookup fetches the record stored under exactly code.
type Lookup interface {
	GetByCode(ctx context.Context, code string) (*models.TariffCodeRecord, error)
}

// RecordStore is the collaborator consumed by the scorer and the rate resolver.
type RecordStore interface {
	Searcher
	Lookup
}

const maxCodeDigits = 10

// NormalizeCode strips dots, spaces and any other non-digit, and truncates to
// ten digits. Fewer than two digits cannot name a chapter.
func NormalizeCode(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	code := b.String()
	if len(code) < 2 {
		return "", apperrors.NewInvalidInputError(fmt.Sprintf("tariff code %q has fewer than 2 digits", raw))
	}
	if len(code) > maxCodeDigits {
		code = code[:maxCodeDigits]
	}
	return code, nil
}

// Composite serves search and lookup from different backends, e.g.
// Elasticsearch for descriptions and PostgreSQL for codes.
type Composite struct {
	Searcher Searcher
	Lookup   Lookup
}

func (c *Composite) Search(ctx context.Context, term, categoryHint string) ([]models.TariffCodeRecord, error) {
	return c.Searcher.Search(ctx, term, categoryHint)
}

func (c *Composite) GetByCode(ctx context.Context, code string) (*models.TariffCodeRecord, error) {
	return c.Lookup.GetByCode(ctx, code)
}

// Chain consults each store in order. Lookups return the first hit; searches
// merge hits by code with earlier stores winning.
type Chain []RecordStore

func (c Chain) GetByCode(ctx context.Context, code string) (*models.TariffCodeRecord, error) {
	var firstErr error
	for _, s := range c {
		rec, err := s.GetByCode(ctx, code)
		switch {
		case err == nil:
			return rec, nil
		case errors.Is(err, ErrNotFound):
			continue
		case firstErr == nil:
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, ErrNotFound
}

func (c Chain) Search(ctx context.Context, term, categoryHint string) ([]models.TariffCodeRecord, error) {
	var (
		out      []models.TariffCodeRecord
		seen     = make(map[string]bool)
		failures int
		firstErr error
	)
	for _, s := range c {
		recs, err := s.Search(ctx, term, categoryHint)
		if err != nil {
			failures++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, r := range recs {
			if seen[r.Code] {
				continue
			}
			seen[r.Code] = true
			out = append(out, r)
		}
	}
	if failures == len(c) && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
