package storage

import (
	"database/sql"
	"time"
)

func scanEvents(rows *sql.Rows) ([]EventRecord, error) {
	var records []EventRecord

	for rows.Next() {
		var record EventRecord
		var valueNs int64

		err := rows.Scan(
			&record.SessionID,
			&record.UserID,
			&record.Source,
			&record.Kind,
			&valueNs,
			&record.Display,
			&record.At,
		)
		if err != nil {
			return nil, err
		}

		record.Value = time.Duration(valueNs)
		records = append(records, record)
	}

	return records, rows.Err()
}

func queryStats(db *sql.DB, query string, userID string) (*UserStats, error) {
	var stats UserStats
	var runs, laps, started, completed sql.NullInt64

	err := db.QueryRow(query, userID).Scan(&runs, &laps, &started, &completed)
	if err != nil {
		return nil, err
	}

	stats.StopwatchRuns = int(runs.Int64)
	stats.Laps = int(laps.Int64)
	stats.TimersStarted = int(started.Int64)
	stats.TimersCompleted = int(completed.Int64)
	stats.fillRate()

	return &stats, nil
}
