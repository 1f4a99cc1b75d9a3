package history_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/civicarchive/councilcast/internal/database"
	"github.com/civicarchive/councilcast/internal/history"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T) *database.Manager {
	manager := database.New()
	require.NoError(t, manager.Connect(database.DatabaseConfig{
		Dialect: database.DialectSqlite,
		Path:    filepath.Join(t.TempDir(), "history.db"),
	}))
	t.Cleanup(func() { manager.Close() })

	return manager
}

func TestRecordAndList(t *testing.T) {
	db := connect(t).GetSqlxDb()
	store := history.NewStore()

	base := time.Date(2025, time.January, 7, 18, 0, 0, 0, time.UTC)
	first := &history.Upload{
		RunID:         uuid.New(),
		VideoID:       "vid-1",
		Title:         "Regular Council Meeting",
		MeetingDate:   "Tuesday, January 7, 2025",
		MeetingTime:   "10:00 AM",
		PrivacyStatus: "unlisted",
		UploadedAt:    base,
	}
	second := &history.Upload{
		RunID:         uuid.New(),
		VideoID:       "vid-2",
		Title:         "Budget Committee",
		MeetingDate:   "Thursday, January 9, 2025",
		MeetingTime:   "Unknown Time",
		PrivacyStatus: "public",
		UploadedAt:    base.Add(time.Hour),
	}

	require.NoError(t, store.Record(db, first))
	require.NoError(t, store.Record(db, second))
	assert.NotEqual(t, uuid.Nil, first.ID)

	uploads, err := store.List(db, 0)
	require.NoError(t, err)
	require.Len(t, uploads, 2)

	assert.Equal(t, "vid-2", uploads[0].VideoID)
	assert.Equal(t, "vid-1", uploads[1].VideoID)
	assert.Equal(t, first.ID, uploads[1].ID)
	assert.Equal(t, first.RunID, uploads[1].RunID)
	assert.True(t, base.Equal(uploads[1].UploadedAt))

	limited, err := store.List(db, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestForMeeting(t *testing.T) {
	manager := connect(t)
	store := history.NewStore()

	err := manager.WrapTx(func(tx *sqlx.Tx) error {
		for _, videoID := range []string{"a", "b"} {
			if err := store.Record(tx, &history.Upload{RunID: uuid.New(), VideoID: videoID, Title: "Council", MeetingDate: "Monday, March 3, 2025"}); err != nil {
				return err
			}
		}
		return store.Record(tx, &history.Upload{RunID: uuid.New(), VideoID: "c", Title: "Council", MeetingDate: "Monday, March 10, 2025"})
	})
	require.NoError(t, err)

	uploads, err := store.ForMeeting(manager.GetSqlxDb(), "Council", "Monday, March 3, 2025")
	require.NoError(t, err)
	assert.Len(t, uploads, 2)

	none, err := store.ForMeeting(manager.GetSqlxDb(), "Planning", "Monday, March 3, 2025")
	require.NoError(t, err)
	assert.Empty(t, none)
}
