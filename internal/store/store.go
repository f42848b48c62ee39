package store

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when no record exists for an id.
	ErrNotFound = errors.New("record not found")

	// ErrStatusConflict is returned when a transition is attempted from a
	// status other than the expected one.
	ErrStatusConflict = errors.New("status conflict")
)

// loadBatchSize is the number of ids inserted per transaction by LoadIDs.
const loadBatchSize = 5000

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		record_id TEXT PRIMARY KEY,
		status INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- record_details stores what the reviewer entered on accept
	CREATE TABLE IF NOT EXISTS record_details (
		record_id TEXT PRIMARY KEY,
		description TEXT NOT NULL DEFAULT '',
		has_media BOOLEAN DEFAULT FALSE,
		is_meme BOOLEAN DEFAULT FALSE,
		has_slang BOOLEAN DEFAULT FALSE,
		language TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- record_auto_details stores facts extracted by preprocessing
	CREATE TABLE IF NOT EXISTS record_auto_details (
		record_id TEXT PRIMARY KEY,
		based_on TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		user_id TEXT NOT NULL DEFAULT '',
		date_created TEXT NOT NULL DEFAULT '',
		has_media BOOLEAN DEFAULT FALSE,
		language TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		user_url TEXT NOT NULL DEFAULT '',
		screen_name TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS media (
		media_id TEXT PRIMARY KEY,
		media_url TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS record_media (
		record_id TEXT NOT NULL,
		media_id TEXT NOT NULL,
		PRIMARY KEY (record_id, media_id)
	);

	-- translations is a permanent memo: one row per record and target language
	CREATE TABLE IF NOT EXISTS translations (
		record_id TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (record_id, target_lang)
	);

	-- review_events is an append-only log of status changes
	CREATE TABLE IF NOT EXISTS review_events (
		id TEXT PRIMARY KEY,
		record_id TEXT NOT NULL,
		from_status INTEGER NOT NULL,
		to_status INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_records_status ON records(status);
	CREATE INDEX IF NOT EXISTS idx_details_slang ON record_details(has_slang);
	CREATE INDEX IF NOT EXISTS idx_details_meme ON record_details(is_meme);
	CREATE INDEX IF NOT EXISTS idx_auto_details_media ON record_auto_details(has_media);
	CREATE INDEX IF NOT EXISTS idx_events_record ON review_events(record_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// LoadIDs inserts one UNPROCESSED record per non-blank line of r. Ids that
// already exist keep their status. It returns the number of new records.
func (s *Store) LoadIDs(ctx context.Context, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	batch := make([]string, 0, loadBatchSize)
	total := 0

	flush := func() error {
		n, err := s.insertBatch(ctx, batch)
		total += n
		batch = batch[:0]
		return err
	}

	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		batch = append(batch, id)
		if len(batch) == loadBatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return total, fmt.Errorf("failed to read ids: %w", err)
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *Store) insertBatch(ctx context.Context, ids []string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO records (record_id, status) VALUES (?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, id := range ids {
		res, err := stmt.ExecContext(ctx, id, int(StatusUnprocessed))
		if err != nil {
			return 0, fmt.Errorf("failed to insert %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, tx.Commit()
}

// Status returns the persisted status of id. found is false when the id is
// unknown.
func (s *Store) Status(ctx context.Context, id string) (Status, bool, error) {
	var code int
	err := s.db.QueryRowContext(ctx, `SELECT status FROM records WHERE record_id = ?`, id).Scan(&code)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return Status(code), true, nil
}

// InsertIfAbsent creates id with the given status. created is false when the
// id already existed; its status is left untouched.
func (s *Store) InsertIfAbsent(ctx context.Context, id string, st Status) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO records (record_id, status, updated_at) VALUES (?, ?, ?)`,
		id, int(st), time.Now())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetStatus moves id to st regardless of its current status.
func (s *Store) SetStatus(ctx context.Context, id string, st Status) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return transition(ctx, tx, id, nil, st)
	})
}

// Transition moves id to `to` only if its current status is one of from.
// It returns ErrNotFound for unknown ids and ErrStatusConflict otherwise.
func (s *Store) Transition(ctx context.Context, id string, from []Status, to Status) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return transition(ctx, tx, id, from, to)
	})
}

// transition checks the current status inside tx, updates it and appends a
// review event. A nil from accepts any current status.
func transition(ctx context.Context, tx *sql.Tx, id string, from []Status, to Status) error {
	var code int
	err := tx.QueryRowContext(ctx, `SELECT status FROM records WHERE record_id = ?`, id).Scan(&code)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return err
	}

	current := Status(code)
	if from != nil && !contains(from, current) {
		return fmt.Errorf("%w: %s is %s, want one of %v", ErrStatusConflict, id, current, from)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE records SET status = ?, updated_at = ? WHERE record_id = ?`,
		int(to), time.Now(), id); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO review_events (id, record_id, from_status, to_status, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), id, int(current), int(to), time.Now())
	return err
}

// SampleIDs returns up to n ids, chosen uniformly at random, whose status is
// one of statuses.
func (s *Store) SampleIDs(ctx context.Context, statuses []Status, n int) ([]string, error) {
	if len(statuses) == 0 || n <= 0 {
		return nil, nil
	}
	query, args, err := squirrel.Select("record_id").
		From("records").
		Where(squirrel.Eq{"status": statusCodes(statuses)}).
		OrderBy("RANDOM()").
		Limit(uint64(n)).
		ToSql()
	if err != nil {
		return nil, err
	}
	return s.queryIDs(ctx, query, args...)
}

// ListIDs pages through the ids in status st, ordered by id.
func (s *Store) ListIDs(ctx context.Context, st Status, limit, offset int) ([]string, error) {
	q := squirrel.Select("record_id").
		From("records").
		Where(squirrel.Eq{"status": int(st)}).
		OrderBy("record_id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	return s.queryIDs(ctx, query, args...)
}

func (s *Store) queryIDs(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountByStatus returns the number of records per status. Statuses with no
// records are present with a zero count.
func (s *Store) CountByStatus(ctx context.Context) (map[Status]int, error) {
	counts := make(map[Status]int, len(AllStatuses))
	for _, st := range AllStatuses {
		counts[st] = 0
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM records GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var code, n int
		if err := rows.Scan(&code, &n); err != nil {
			return nil, err
		}
		counts[Status(code)] = n
	}
	return counts, rows.Err()
}

// Requeue moves every record in status from to status to, logging one event
// per record. It is the recovery path for records left in REVIEWING by a
// session that never recorded a decision.
func (s *Store) Requeue(ctx context.Context, from, to Status) (int64, error) {
	ids, err := s.ListIDs(ctx, from, 0, 0)
	if err != nil {
		return 0, err
	}
	var moved int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if err := transition(ctx, tx, id, []Status{from}, to); err != nil {
				return err
			}
			moved++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}

// Event is one status change of a record.
type Event struct {
	ID        string
	RecordID  string
	From      Status
	To        Status
	CreatedAt time.Time
}

// Events returns the status history of id, oldest first.
func (s *Store) Events(ctx context.Context, id string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, record_id, from_status, to_status, created_at FROM review_events WHERE record_id = ? ORDER BY created_at, rowid`,
		id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var from, to int
		if err := rows.Scan(&e.ID, &e.RecordID, &from, &to, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.From, e.To = Status(from), Status(to)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func contains(statuses []Status, st Status) bool {
	for _, s := range statuses {
		if s == st {
			return true
		}
	}
	return false
}
