package auth

import (
	"context"
	"database/sql"
	"errors"

	devicesrepo "github.com/lekien2k2/viot/internal/devices/infrastructure/postgres"
)

var (
	// ErrTeamMismatch indicates resource belongs to a different team.
	ErrTeamMismatch = errors.New("team mismatch")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("resource not found")
)

// DeviceTeamChecker validates device team ownership.
type DeviceTeamChecker interface {
	EnsureDeviceTeam(ctx context.Context, teamID, deviceID string) error
}

// DeviceChecker checks device ownership using the device registry.
type DeviceChecker struct {
	repo *devicesrepo.DeviceRepository
}

// NewDeviceChecker constructs a DeviceChecker.
func NewDeviceChecker(db *sql.DB) *DeviceChecker {
	if db == nil {
		return nil
	}
	return &DeviceChecker{repo: devicesrepo.NewDeviceRepository(db)}
}

// EnsureDeviceTeam verifies the device belongs to the team.
func (c *DeviceChecker) EnsureDeviceTeam(ctx context.Context, teamID, deviceID string) error {
	if c == nil || c.repo == nil {
		return nil
	}
	if teamID == "" || deviceID == "" {
		return nil
	}
	device, err := c.repo.Get(ctx, deviceID)
	if err != nil {
		return err
	}
	if device == nil {
		return ErrNotFound
	}
	if device.TeamID != teamID {
		return ErrTeamMismatch
	}
	return nil
}
