package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	devices "github.com/lekien2k2/viot/internal/devices/domain"
)

const defaultDevicesTable = "devices"

// DBTX is the subset of database/sql used by repositories. Both
// *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DeviceRepository is a Postgres implementation for devices.
type DeviceRepository struct {
	db    DBTX
	table string
}

// NewDeviceRepository constructs a repository.
func NewDeviceRepository(db DBTX, opts ...DeviceOption) *DeviceRepository {
	repo := &DeviceRepository{db: db, table: defaultDevicesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// DeviceOption configures the repository.
type DeviceOption func(*DeviceRepository)

// WithDeviceTable overrides the default table name.
func WithDeviceTable(table string) DeviceOption {
	return func(repo *DeviceRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a device by id.
func (r *DeviceRepository) Get(ctx context.Context, id string) (*devices.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}
	if id == "" {
		return nil, errors.New("device repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, team_id, name, device_type, token, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var device devices.Device
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&device.ID,
		&device.TeamID,
		&device.Name,
		&device.DeviceType,
		&device.Token,
		&device.CreatedAt,
		&device.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	device.CreatedAt = device.CreatedAt.UTC()
	device.UpdatedAt = device.UpdatedAt.UTC()
	return &device, nil
}

// ListByTeam loads devices for a team.
func (r *DeviceRepository) ListByTeam(ctx context.Context, teamID string) ([]devices.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}
	if teamID == "" {
		return nil, errors.New("device repo: empty team id")
	}

	query := fmt.Sprintf(`
SELECT id, team_id, name, device_type, token, created_at, updated_at
FROM %s
WHERE team_id = $1
ORDER BY id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []devices.Device
	for rows.Next() {
		var device devices.Device
		if err := rows.Scan(
			&device.ID,
			&device.TeamID,
			&device.Name,
			&device.DeviceType,
			&device.Token,
			&device.CreatedAt,
			&device.UpdatedAt,
		); err != nil {
			return nil, err
		}
		device.CreatedAt = device.CreatedAt.UTC()
		device.UpdatedAt = device.UpdatedAt.UTC()
		result = append(result, device)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Save upserts a device.
func (r *DeviceRepository) Save(ctx context.Context, device *devices.Device) error {
	if r == nil || r.db == nil {
		return errors.New("device repo: nil db")
	}
	if device == nil {
		return errors.New("device repo: nil device")
	}
	if err := device.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	team_id,
	name,
	device_type,
	token
) VALUES (
	$1, $2, $3, $4, $5
)
ON CONFLICT (id)
DO UPDATE SET
	team_id = EXCLUDED.team_id,
	name = EXCLUDED.name,
	device_type = EXCLUDED.device_type,
	token = EXCLUDED.token,
	updated_at = NOW()`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		device.ID,
		device.TeamID,
		device.Name,
		device.DeviceType,
		device.Token,
	)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	device.UpdatedAt = now
	return nil
}
