package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
)

type TranslationEntry struct {
	RecordID       string
	TargetLang     string
	TranslatedText string
	CreatedAt      time.Time
}

type TranslationStats struct {
	TotalEntries int
	Negative     int
	Languages    map[string]int
}

// GetTranslation returns the cached translation of id into lang. An empty
// text with found=true is a cached negative result.
func (s *Store) GetTranslation(ctx context.Context, id, lang string) (string, bool, error) {
	var text string
	err := s.db.QueryRowContext(ctx,
		`SELECT translated_text FROM translations WHERE record_id = ? AND target_lang = ?`,
		id, lang).Scan(&text)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// SaveTranslation caches text for (id, lang). Entries are write-once: a
// second save for the same key keeps the first value.
func (s *Store) SaveTranslation(ctx context.Context, id, lang, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO translations (record_id, target_lang, translated_text, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(record_id, target_lang) DO NOTHING`,
		id, lang, text, time.Now())
	return err
}

// ListTranslations returns cached entries, newest first. An empty lang lists
// every language.
func (s *Store) ListTranslations(ctx context.Context, lang string, limit int) ([]TranslationEntry, error) {
	q := squirrel.Select("record_id", "target_lang", "translated_text", "created_at").
		From("translations").
		OrderBy("created_at DESC", "record_id")
	if lang != "" {
		q = q.Where(squirrel.Eq{"target_lang": lang})
	}
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []TranslationEntry
	for rows.Next() {
		var e TranslationEntry
		if err := rows.Scan(&e.RecordID, &e.TargetLang, &e.TranslatedText, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) TranslationStats(ctx context.Context) (*TranslationStats, error) {
	stats := &TranslationStats{Languages: make(map[string]int)}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN translated_text = '' THEN 1 ELSE 0 END), 0)
		FROM translations`).Scan(&stats.TotalEntries, &stats.Negative)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT target_lang, COUNT(*) FROM translations GROUP BY target_lang`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var lang string
		var n int
		if err := rows.Scan(&lang, &n); err != nil {
			return nil, err
		}
		stats.Languages[lang] = n
	}
	return stats, rows.Err()
}

// DeleteTranslation removes the cached entries of id. An empty lang removes
// every language.
func (s *Store) DeleteTranslation(ctx context.Context, id, lang string) (int64, error) {
	q := squirrel.Delete("translations").Where(squirrel.Eq{"record_id": id})
	if lang != "" {
		q = q.Where(squirrel.Eq{"target_lang": lang})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) ClearTranslations(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translations`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
