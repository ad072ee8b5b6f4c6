package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageRepo_UserUsage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUsageRepo(db)

	usage, err := repo.UserUsage(context.Background(), "", []string{"o1"})
	require.NoError(t, err)
	assert.Empty(t, usage)

	mock.ExpectQuery(regexp.QuoteMeta("FROM offer_usage")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"offer_id", "usage_count"}).AddRow("o1", 2))

	usage, err = repo.UserUsage(context.Background(), "u1", []string{"o1", "o2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"o1": 2}, usage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageRepo_GetAndLockUsageCreatesRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUsageRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT usage_count")).
		WithArgs("o1", "u1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO offer_usage")).
		WithArgs("o1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"usage_count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE offer_usage")).
		WithArgs("o1", "u1", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := db.Begin()
	require.NoError(t, err)

	count, err := repo.GetAndLockUsage(ctx, tx, "o1", "u1")
	require.NoError(t, err)
	assert.Zero(t, count)
	require.NoError(t, repo.IncrementUsage(ctx, tx, "o1", "u1", 2))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageRepo_OfferTotals(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUsageRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT num_applications, max_global_applications, total_discount, max_discount")).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"num_applications", "max_global_applications", "total_discount", "max_discount"}).
			AddRow(9, 10, "45.00", nil))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE offers")).
		WithArgs("o1", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := db.Begin()
	require.NoError(t, err)

	totals, err := repo.LockOffer(ctx, tx, "o1")
	require.NoError(t, err)
	assert.Equal(t, 9, totals.NumApplications)
	assert.Equal(t, 10, totals.MaxGlobalApplications)
	assert.False(t, totals.MaxDiscount.Valid)

	require.NoError(t, repo.RecordOfferUsage(ctx, tx, "o1", 1, decimal.RequireFromString("5")))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageRepo_WrapsDriverErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUsageRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM offer_usage")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnError(sql.ErrConnDone)
	_, err = repo.UserUsage(context.Background(), "u1", []string{"o1"})
	require.ErrorIs(t, err, sql.ErrConnDone)
	assert.Contains(t, err.Error(), "query user usage")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM offers")).
		WithArgs("o1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	_, err = repo.LockOffer(context.Background(), tx, "o1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.Contains(t, err.Error(), "lock offer o1")
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}
