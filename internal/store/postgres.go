package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	apperrors "tariff-workers/internal/common/errors"
	"tariff-workers/internal/models"
)

// PostgresStore reads the tariff_codes table:
//
//	code text primary key, description text, category text,
//	mfn_rate numeric, preferential_rate numeric
type PostgresStore struct {
	db    *sql.DB
	table string
	limit int
}

func NewPostgresStore(db *sql.DB, table string, limit int) *PostgresStore {
	if table == "" {
		table = "tariff_codes"
	}
	if limit <= 0 {
		limit = 50
	}
	return &PostgresStore{db: db, table: pq.QuoteIdentifier(table), limit: limit}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *PostgresStore) Search(ctx context.Context, term, categoryHint string) ([]models.TariffCodeRecord, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}

	args := []interface{}{"%" + likeEscaper.Replace(term) + "%"}
	query := fmt.Sprintf(`
		SELECT code, description, COALESCE(category, ''), mfn_rate, preferential_rate
		FROM %s
		WHERE description ILIKE $1`, s.table)
	if categoryHint != "" {
		args = append(args, categoryHint)
		query += ` AND LOWER(category) = LOWER($2)`
	}
	args = append(args, s.limit)
	query += fmt.Sprintf(` ORDER BY code LIMIT $%d`, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("postgres.search", err)
	}
	defer rows.Close()

	var out []models.TariffCodeRecord
	for rows.Next() {
		var r models.TariffCodeRecord
		if err := rows.Scan(&r.Code, &r.Description, &r.Category, &r.MFNRate, &r.PreferentialRate); err != nil {
			return nil, apperrors.NewStoreUnavailableError("postgres.search", err)
		}
		r.Source = "postgres"
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailableError("postgres.search", err)
	}
	return out, nil
}

func (s *PostgresStore) GetByCode(ctx context.Context, code string) (*models.TariffCodeRecord, error) {
	query := fmt.Sprintf(`
		SELECT code, description, COALESCE(category, ''), mfn_rate, preferential_rate
		FROM %s
		WHERE code = $1`, s.table)

	var r models.TariffCodeRecord
	err := s.db.QueryRowContext(ctx, query, code).Scan(
		&r.Code, &r.Description, &r.Category, &r.MFNRate, &r.PreferentialRate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("postgres.get_by_code", err)
	}
	r.Source = "postgres"
	return &r, nil
}
