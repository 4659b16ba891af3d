package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tariff-workers/internal/common/errors"
)

var recordColumns = []string{"code", "description", "category", "mfn_rate", "preferential_rate"}

func TestPostgresStore_Search(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresStore(db, "", 25)

	t.Run("unscoped", func(t *testing.T) {
		mock.ExpectQuery(`SELECT code, description, COALESCE\(category, ''\), mfn_rate, preferential_rate\s+FROM "tariff_codes"\s+WHERE description ILIKE \$1 ORDER BY code LIMIT \$2`).
			WithArgs("%copper%", 25).
			WillReturnRows(sqlmock.NewRows(recordColumns).
				AddRow("7408", "Copper wire", "metals", 3.0, 0.0).
				AddRow("854411", "Winding wire of copper, insulated", "electronics", 3.5, 0.0))

		recs, err := s.Search(context.Background(), "copper", "")
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "854411", recs[1].Code)
		assert.Equal(t, "postgres", recs[1].Source)
	})

	t.Run("scoped by category with escaped pattern", func(t *testing.T) {
		mock.ExpectQuery(`AND LOWER\(category\) = LOWER\(\$2\) ORDER BY code LIMIT \$3`).
			WithArgs(`%100\%%`, "electronics", 25).
			WillReturnRows(sqlmock.NewRows(recordColumns))

		recs, err := s.Search(context.Background(), "100%", "electronics")
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("query failure is store unavailable", func(t *testing.T) {
		mock.ExpectQuery(`SELECT code`).
			WithArgs("%wire%", 25).
			WillReturnError(errors.New("connection reset"))

		_, err := s.Search(context.Background(), "wire", "")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStoreUnavailable))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetByCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresStore(db, "hts_rates", 0)

	mock.ExpectQuery(`FROM "hts_rates"\s+WHERE code = \$1`).
		WithArgs("8544").
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow("8544", "Insulated wire, cable", "electronics", 2.6, 0.0))
	mock.ExpectQuery(`WHERE code = \$1`).
		WithArgs("9999").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`WHERE code = \$1`).
		WithArgs("85").
		WillReturnError(context.DeadlineExceeded)

	rec, err := s.GetByCode(context.Background(), "8544")
	require.NoError(t, err)
	assert.Equal(t, 2.6, rec.MFNRate)
	assert.Equal(t, "electronics", rec.Category)

	_, err = s.GetByCode(context.Background(), "9999")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetByCode(context.Background(), "85")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStoreUnavailable))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.NoError(t, mock.ExpectationsWereMet())
}
