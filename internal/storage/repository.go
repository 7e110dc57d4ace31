package storage

import "time"

type Repository interface {
	SaveEvent(record *EventRecord) error

	GetEventsBySession(sessionID string) ([]EventRecord, error)

	GetRecentEvents(userID string, since time.Time) ([]EventRecord, error)

	GetUserStats(userID string) (*UserStats, error)

	Close() error
}

type UserStats struct {
	StopwatchRuns   int     `json:"stopwatchRuns"`
	Laps            int     `json:"laps"`
	TimersStarted   int     `json:"timersStarted"`
	TimersCompleted int     `json:"timersCompleted"`
	CompletionRate  float64 `json:"completionRate"`
}

const statsQuery = `
	SELECT
		SUM(CASE WHEN source = 'stopwatch' AND kind = 'started' THEN 1 ELSE 0 END),
		SUM(CASE WHEN source = 'stopwatch' AND kind = 'lap' THEN 1 ELSE 0 END),
		SUM(CASE WHEN source = 'timer' AND kind = 'started' THEN 1 ELSE 0 END),
		SUM(CASE WHEN source = 'timer' AND kind = 'completed' THEN 1 ELSE 0 END)
	FROM events
	WHERE user_id = %s
`

func (s *UserStats) fillRate() {
	if s.TimersStarted > 0 {
		s.CompletionRate = float64(s.TimersCompleted) / float64(s.TimersStarted) * 100
	}
}
