package history

import (
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/civicarchive/councilcast/internal/database"
	"github.com/google/uuid"
)

const DefaultListLimit = 50

type (
	// Upload is a single row of the upload ledger, written once a
	// meeting video has been published.
	Upload struct {
		ID            uuid.UUID `db:"id" json:"id"`
		RunID         uuid.UUID `db:"run_id" json:"run_id"`
		VideoID       string    `db:"video_id" json:"video_id"`
		Title         string    `db:"title" json:"title"`
		MeetingDate   string    `db:"meeting_date" json:"meeting_date"`
		MeetingTime   string    `db:"meeting_time" json:"meeting_time"`
		PrivacyStatus string    `db:"privacy_status" json:"privacy_status"`
		UploadedAt    time.Time `db:"uploaded_at" json:"uploaded_at"`
	}

	Store struct{}
)

func NewStore() *Store { return &Store{} }

func (store *Store) Record(db database.Queryable, upload *Upload) error {
	if upload.ID == uuid.Nil {
		upload.ID = uuid.New()
	}
	if upload.UploadedAt.IsZero() {
		upload.UploadedAt = time.Now().UTC()
	}

	query, args, err := squirrel.Insert("uploads").
		Columns("id", "run_id", "video_id", "title", "meeting_date", "meeting_time", "privacy_status", "uploaded_at").
		Values(upload.ID, upload.RunID, upload.VideoID, upload.Title, upload.MeetingDate, upload.MeetingTime, upload.PrivacyStatus, upload.UploadedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to construct insert upload query: %w", err)
	}

	if _, err := db.Exec(db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to insert upload %s: %w", upload.VideoID, err)
	}

	return nil
}

// List returns the most recent uploads first. A non-positive limit
// uses DefaultListLimit.
func (store *Store) List(db database.Queryable, limit int) ([]*Upload, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query, args, err := selectUploadBuilder().Limit(uint64(limit)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct list uploads query: %w", err)
	}

	var results []*Upload
	if err := db.Select(&results, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}

	return results, nil
}

// ForMeeting returns every upload recorded for a meeting with the
// given title and date, most recent first.
func (store *Store) ForMeeting(db database.Queryable, title string, date string) ([]*Upload, error) {
	query, args, err := selectUploadBuilder().
		Where(squirrel.Eq{"title": title, "meeting_date": date}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct meeting uploads query: %w", err)
	}

	var results []*Upload
	if err := db.Select(&results, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to find uploads for meeting %s (%s): %w", title, date, err)
	}

	return results, nil
}

func selectUploadBuilder() squirrel.SelectBuilder {
	return squirrel.Select("id", "run_id", "video_id", "title", "meeting_date", "meeting_time", "privacy_status", "uploaded_at").
		From("uploads").
		OrderBy("uploaded_at DESC")
}
