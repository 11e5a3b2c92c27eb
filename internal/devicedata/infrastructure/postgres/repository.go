package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lekien2k2/viot/internal/devicedata/domain"
)

const (
	defaultDataTable   = "device_data"
	defaultLatestTable = "device_data_latest"
)

// DataRepository is a Postgres implementation for device telemetry.
// History rows live in the data table, the newest reading per key in
// the latest table.
type DataRepository struct {
	db          *sql.DB
	dataTable   string
	latestTable string
}

// NewDataRepository constructs a repository with default table names.
func NewDataRepository(db *sql.DB, opts ...RepositoryOption) *DataRepository {
	repo := &DataRepository{db: db, dataTable: defaultDataTable, latestTable: defaultLatestTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RepositoryOption configures the repository.
type RepositoryOption func(*DataRepository)

// WithDataTable overrides the default history table name.
func WithDataTable(table string) RepositoryOption {
	return func(repo *DataRepository) {
		if table != "" {
			repo.dataTable = table
		}
	}
}

// WithLatestTable overrides the default latest-value table name.
func WithLatestTable(table string) RepositoryOption {
	return func(repo *DataRepository) {
		if table != "" {
			repo.latestTable = table
		}
	}
}

// InsertSamples upserts telemetry samples into the history table and
// refreshes latest-value rows that are not newer than the incoming
// sample.
func (r *DataRepository) InsertSamples(ctx context.Context, deviceID string, samples []devicedata.Sample) error {
	if r == nil || r.db == nil {
		return errors.New("device data repo: nil db")
	}
	if deviceID == "" {
		return errors.New("device data repo: invalid device id")
	}
	if len(samples) == 0 {
		return nil
	}

	historyQuery := fmt.Sprintf(`
INSERT INTO %s (
	device_id,
	key,
	ts,
	value
) VALUES (
	$1, $2, $3, $4::jsonb
)
ON CONFLICT (device_id, key, ts)
DO UPDATE SET
	value = EXCLUDED.value`, r.dataTable)

	latestQuery := fmt.Sprintf(`
INSERT INTO %s (
	device_id,
	key,
	ts,
	value
) VALUES (
	$1, $2, $3, $4::jsonb
)
ON CONFLICT (device_id, key)
DO UPDATE SET
	ts = EXCLUDED.ts,
	value = EXCLUDED.value
WHERE %s.ts <= EXCLUDED.ts`, r.latestTable, r.latestTable)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	historyStmt, err := tx.PrepareContext(ctx, historyQuery)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer historyStmt.Close()

	latestStmt, err := tx.PrepareContext(ctx, latestQuery)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer latestStmt.Close()

	for _, s := range samples {
		if s.Key == "" || s.TS.IsZero() {
			_ = tx.Rollback()
			return errors.New("device data repo: invalid sample")
		}

		payload, err := json.Marshal(s.Value)
		if err != nil {
			_ = tx.Rollback()
			return err
		}

		if _, err := historyStmt.ExecContext(ctx, deviceID, s.Key, s.TS.UTC(), string(payload)); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := latestStmt.ExecContext(ctx, deviceID, s.Key, s.TS.UTC(), string(payload)); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}
