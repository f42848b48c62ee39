package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Details is what a reviewer records when accepting a record.
type Details struct {
	RecordID    string    `json:"record_id" yaml:"record_id"`
	Description string    `json:"description" yaml:"description"`
	HasMedia    bool      `json:"has_media" yaml:"has_media"`
	IsMeme      bool      `json:"is_meme" yaml:"is_meme"`
	HasSlang    bool      `json:"has_slang" yaml:"has_slang"`
	Language    string    `json:"language" yaml:"language"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// AutoDetail holds the facts extracted from a fetched record without
// reviewer input.
type AutoDetail struct {
	RecordID    string
	BasedOn     string
	URL         string
	UserID      string
	DateCreated string
	HasMedia    bool
	Language    string
	Text        string
}

type User struct {
	ID         string
	URL        string
	ScreenName string
}

type MediaItem struct {
	ID   string
	URL  string
	Type string
}

// Finalize stores d and moves the record from REVIEWING to FINALIZED in one
// transaction.
func (s *Store) Finalize(ctx context.Context, d Details) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := transition(ctx, tx, d.RecordID, []Status{StatusReviewing}, StatusFinalized); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO record_details (record_id, description, has_media, is_meme, has_slang, language, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(record_id) DO UPDATE SET
				description = excluded.description,
				has_media = excluded.has_media,
				is_meme = excluded.is_meme,
				has_slang = excluded.has_slang,
				language = excluded.language`,
			d.RecordID, d.Description, d.HasMedia, d.IsMeme, d.HasSlang, d.Language, time.Now())
		if err != nil {
			return fmt.Errorf("failed to save details for %s: %w", d.RecordID, err)
		}
		return nil
	})
}

// SavePreprocessed stores the auto details, the author and the media of a
// record and moves it from UNPROCESSED to PREPROCESSED.
func (s *Store) SavePreprocessed(ctx context.Context, a AutoDetail, u User, media []MediaItem) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := transition(ctx, tx, a.RecordID, []Status{StatusUnprocessed}, StatusPreprocessed); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO record_auto_details
				(record_id, based_on, url, user_id, date_created, has_media, language, text)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.RecordID, a.BasedOn, a.URL, a.UserID, a.DateCreated, a.HasMedia, a.Language, a.Text)
		if err != nil {
			return fmt.Errorf("failed to save auto details: %w", err)
		}

		if u.ID != "" {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO users (user_id, user_url, screen_name) VALUES (?, ?, ?)
				ON CONFLICT(user_id) DO UPDATE SET screen_name = excluded.screen_name`,
				u.ID, u.URL, u.ScreenName)
			if err != nil {
				return fmt.Errorf("failed to save user: %w", err)
			}
		}

		for _, m := range media {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO media (media_id, media_url, type) VALUES (?, ?, ?)`,
				m.ID, m.URL, m.Type); err != nil {
				return fmt.Errorf("failed to save media %s: %w", m.ID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO record_media (record_id, media_id) VALUES (?, ?)`,
				a.RecordID, m.ID); err != nil {
				return fmt.Errorf("failed to link media %s: %w", m.ID, err)
			}
		}
		return nil
	})
}

// GetAutoDetail returns the preprocessing facts for id.
func (s *Store) GetAutoDetail(ctx context.Context, id string) (AutoDetail, bool, error) {
	var a AutoDetail
	err := s.db.QueryRowContext(ctx, `
		SELECT record_id, based_on, url, user_id, date_created, has_media, language, text
		FROM record_auto_details WHERE record_id = ?`, id).
		Scan(&a.RecordID, &a.BasedOn, &a.URL, &a.UserID, &a.DateCreated, &a.HasMedia, &a.Language, &a.Text)
	if err == sql.ErrNoRows {
		return AutoDetail{}, false, nil
	}
	if err != nil {
		return AutoDetail{}, false, err
	}
	return a, true, nil
}

// ListDetails returns the reviewer details of every FINALIZED record,
// ordered by id.
func (s *Store) ListDetails(ctx context.Context) ([]Details, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.record_id, d.description, d.has_media, d.is_meme, d.has_slang, d.language, d.created_at
		FROM record_details d
		JOIN records r ON r.record_id = d.record_id
		WHERE r.status = ?
		ORDER BY d.record_id`, int(StatusFinalized))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Details
	for rows.Next() {
		var d Details
		if err := rows.Scan(&d.RecordID, &d.Description, &d.HasMedia, &d.IsMeme, &d.HasSlang, &d.Language, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
