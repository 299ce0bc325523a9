package wb

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomarket_feedbacks/pkg/logger"
)

func TestCreateFeedbacksTable_AppliesOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ledger := regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM migrations.migrations WHERE name = $1)")

	mock.ExpectQuery(ledger).WithArgs(FeedbacksMigration).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS wildberries.feedbacks")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO migrations.migrations")).WithArgs(FeedbacksMigration).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(ledger).WithArgs(FeedbacksMigration).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	m := &CreateFeedbacksTable{Log: logger.Nop()}
	require.NoError(t, m.UpMigration(context.Background(), db))
	require.NoError(t, m.UpMigration(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFeedbacksIndexes_SkipsWhenRecorded(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).WithArgs(FeedbacksIndexesMigration).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	require.NoError(t, (&CreateFeedbacksIndexes{}).UpMigration(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
