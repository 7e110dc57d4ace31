package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(connStr string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	repo := &PostgresRepository{db: db}
	if err := repo.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *PostgresRepository) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id BIGSERIAL PRIMARY KEY,
		session_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		source TEXT NOT NULL,
		kind TEXT NOT NULL,
		value_ns BIGINT NOT NULL,
		display TEXT NOT NULL,
		at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id);
	CREATE INDEX IF NOT EXISTS idx_events_user_at ON events(user_id, at);
	`

	_, err := r.db.Exec(schema)
	return err
}

func (r *PostgresRepository) SaveEvent(record *EventRecord) error {
	query := `
		INSERT INTO events (session_id, user_id, source, kind, value_ns, display, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(
		query,
		record.SessionID,
		record.UserID,
		record.Source,
		record.Kind,
		int64(record.Value),
		record.Display,
		record.At,
	)

	return err
}

func (r *PostgresRepository) GetEventsBySession(sessionID string) ([]EventRecord, error) {
	query := `
		SELECT session_id, user_id, source, kind, value_ns, display, at
		FROM events
		WHERE session_id = $1
		ORDER BY id ASC
	`

	rows, err := r.db.Query(query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *PostgresRepository) GetRecentEvents(userID string, since time.Time) ([]EventRecord, error) {
	query := `
		SELECT session_id, user_id, source, kind, value_ns, display, at
		FROM events
		WHERE user_id = $1 AND at >= $2
		ORDER BY id DESC
	`

	rows, err := r.db.Query(query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *PostgresRepository) GetUserStats(userID string) (*UserStats, error) {
	return queryStats(r.db, fmt.Sprintf(statsQuery, "$1"), userID)
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
