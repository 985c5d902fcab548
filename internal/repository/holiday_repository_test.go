package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medora-hq/roster-api/internal/models"
)

func newHolidayMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestHolidayRepositoryListByRange(t *testing.T) {
	db, mock, cleanup := newHolidayMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	from := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "date", "label", "created_at"}).
		AddRow("h1", time.Date(2025, 9, 23, 0, 0, 0, 0, time.UTC), "National Day", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, date, label, created_at FROM holidays WHERE date >= $1 AND date <= $2 ORDER BY date ASC")).
		WithArgs(from, to).
		WillReturnRows(rows)

	holidays, err := repo.ListByRange(context.Background(), from, to)
	require.NoError(t, err)
	assert.Len(t, holidays, 1)
	assert.Equal(t, "National Day", holidays[0].Label)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newHolidayMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectExec("INSERT INTO holidays").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	holiday := &models.Holiday{Date: time.Date(2025, 9, 23, 0, 0, 0, 0, time.UTC), Label: "National Day"}
	err := repo.Create(context.Background(), holiday)
	require.NoError(t, err)
	assert.NotEmpty(t, holiday.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newHolidayMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM holidays WHERE id = $1")).
		WithArgs("h1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "h1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
