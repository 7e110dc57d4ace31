package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// One writer at a time; also keeps ":memory:" on a single database.
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepository{db: db}
	if err := repo.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *SQLiteRepository) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		source TEXT NOT NULL,
		kind TEXT NOT NULL,
		value_ns INTEGER NOT NULL,
		display TEXT NOT NULL,
		at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id);
	CREATE INDEX IF NOT EXISTS idx_events_user_at ON events(user_id, at);
	`

	_, err := r.db.Exec(schema)
	return err
}

func (r *SQLiteRepository) SaveEvent(record *EventRecord) error {
	query := `
		INSERT INTO events (session_id, user_id, source, kind, value_ns, display, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(
		query,
		record.SessionID,
		record.UserID,
		record.Source,
		record.Kind,
		int64(record.Value),
		record.Display,
		record.At.UTC(),
	)

	return err
}

func (r *SQLiteRepository) GetEventsBySession(sessionID string) ([]EventRecord, error) {
	query := `
		SELECT session_id, user_id, source, kind, value_ns, display, at
		FROM events
		WHERE session_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Query(query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *SQLiteRepository) GetRecentEvents(userID string, since time.Time) ([]EventRecord, error) {
	query := `
		SELECT session_id, user_id, source, kind, value_ns, display, at
		FROM events
		WHERE user_id = ? AND at >= ?
		ORDER BY id DESC
	`

	rows, err := r.db.Query(query, userID, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *SQLiteRepository) GetUserStats(userID string) (*UserStats, error) {
	return queryStats(r.db, fmt.Sprintf(statsQuery, "?"), userID)
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
