package repositories

import (
	"context"
	"errors"
	"testing"

	"mcbarchive/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestReactionRepository_InsertUpvote(t *testing.T) {
	gormDB, mock := setupTestDB(t)
	repo := NewReactionRepository()

	mock.ExpectExec(`INSERT INTO "show_reactions" .* ON CONFLICT \("show_id","device_id","type"\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "show_reactions" .* ON CONFLICT \("show_id","device_id","type"\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.InsertUpvote(context.Background(), gormDB, &models.Reaction{
		ShowID:   "kpty-1998-01",
		DeviceID: "device-1",
	})
	assert.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.InsertUpvote(context.Background(), gormDB, &models.Reaction{
		ShowID:   "kpty-1998-01",
		DeviceID: "device-1",
	})
	assert.NoError(t, err)
	assert.False(t, inserted)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReactionRepository_InsertUpvote_Error(t *testing.T) {
	gormDB, mock := setupTestDB(t)
	repo := NewReactionRepository()

	mock.ExpectExec(`INSERT INTO "show_reactions"`).
		WillReturnError(errors.New("connection reset"))

	inserted, err := repo.InsertUpvote(context.Background(), gormDB, &models.Reaction{
		ShowID:   "kpty-1998-01",
		DeviceID: "device-1",
	})

	assert.Error(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReactionRepository_DeleteAll(t *testing.T) {
	gormDB, mock := setupTestDB(t)
	repo := NewReactionRepository()

	mock.ExpectExec(`DELETE FROM "show_reactions"`).WillReturnResult(sqlmock.NewResult(0, 4))

	deleted, err := repo.DeleteAll(context.Background(), gormDB)

	assert.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
