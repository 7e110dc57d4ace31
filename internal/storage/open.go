package storage

import (
	"fmt"
	"time"

	"github.com/avast/retry-go"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Open connects to the journal database, retrying while it comes up.
func Open(driver, dsn string) (Repository, error) {
	var repo Repository

	err := retry.Do(
		func() error {
			var err error
			switch driver {
			case DriverSQLite:
				repo, err = NewSQLiteRepository(dsn)
			case DriverPostgres:
				repo, err = NewPostgresRepository(dsn)
			default:
				return retry.Unrecoverable(fmt.Errorf("unknown journal driver %q", driver))
			}
			return err
		},
		retry.Attempts(5),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	return repo, nil
}
