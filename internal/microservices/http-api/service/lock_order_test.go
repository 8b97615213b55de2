package service

import (
	"context"
	"testing"

	"libhub/internal/microservices/http-api/dto"
	"libhub/internal/microservices/http-api/models"
	"libhub/internal/microservices/http-api/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// These tests run the service against the gorm store and pin the SQL order
// inside each transaction. sqlmock matches expectations in order.

func newSQLStore(t *testing.T) (repository.Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return repository.NewStore(db), mock
}

var seriesColumns = []string{"id", "name", "author_id", "is_deleted"}

func TestCascade_AuthorLocksSeriesBeforeMarkingBooks(t *testing.T) {
	store, mock := newSQLStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "authors" WHERE .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_deleted"}).AddRow(1, "Le Guin", false))
	mock.ExpectQuery(`SELECT \* FROM "series" WHERE .*author_id = \$\d+.*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(seriesColumns).AddRow(3, "Earthsea", 1, false))
	mock.ExpectExec(`UPDATE "books" SET "is_deleted"`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE "series" SET "is_deleted"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "authors" SET "is_deleted"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := NewCascadeEngine(store, nil).Delete(context.Background(), LevelAuthor,
		&ResolvedPath{Author: &models.Author{ID: 1}})

	require.NoError(t, err)
	assert.Equal(t, CascadeResult{Authors: 1, Series: 1, Books: 2}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBook_LocksSeriesBeforeInsert(t *testing.T) {
	store, mock := newSQLStore(t)

	// path resolution outside the transaction
	mock.ExpectQuery(`SELECT \* FROM "authors" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_deleted"}).AddRow(1, "Le Guin", false))
	mock.ExpectQuery(`SELECT \* FROM "series" WHERE`).
		WillReturnRows(sqlmock.NewRows(seriesColumns).AddRow(3, "Earthsea", 1, false))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "series" WHERE .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(seriesColumns).AddRow(3, "Earthsea", 1, false))
	mock.ExpectQuery(`INSERT INTO "books"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectCommit()

	svc := NewLibraryService(store, nil)
	res, err := svc.CreateBook(context.Background(), reader,
		PathIDs{AuthorID: 1, SeriesID: id64(3)}, dto.FormPayload{"name": "Tehanu", "rating": "7"})

	require.NoError(t, err)
	assert.Equal(t, dto.SeriesURL(1, 3), res.Location)
	assert.Equal(t, int64(9), res.Book.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
