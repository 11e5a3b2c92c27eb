package devices

import (
	"context"
	"errors"
	"time"
)

// Device represents a telemetry-emitting device owned by a team.
type Device struct {
	ID         string
	TeamID     string
	Name       string
	DeviceType string
	Token      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks device invariants.
func (d Device) Validate() error {
	if d.ID == "" {
		return errors.New("device: empty id")
	}
	if d.TeamID == "" {
		return errors.New("device: empty team id")
	}
	return nil
}

// DeviceRepository manages device persistence.
type DeviceRepository interface {
	Get(ctx context.Context, id string) (*Device, error)
	ListByTeam(ctx context.Context, teamID string) ([]Device, error)
	Save(ctx context.Context, device *Device) error
}
