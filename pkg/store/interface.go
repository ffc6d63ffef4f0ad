// Package store provides the gateway persistence layer.
//
// This package persists decoded telemetry (GPS fixes and IO elements), the
// per-device digital-output automation state, and the GPRS command queue.
// The backend is SQLite; session workers share one store handle.
package store

import (
	"context"

	"github.com/mhadysydney/fridge-controll-app/pkg/store/models"
)

// Store provides the gateway persistence interface.
//
// Thread Safety: Implementations must be safe for concurrent use from
// multiple goroutines. Telemetry tables are append-only; dout1_state rows
// are written by at most one session worker per IMEI at a time.
type Store interface {
	// InsertGPS appends one position fix. No uniqueness constraints.
	InsertGPS(ctx context.Context, rec *models.GPSRecord) error

	// InsertIO appends one IO element.
	InsertIO(ctx context.Context, rec *models.IORecord) error

	// GetDOUT1State returns the automation state for an IMEI.
	// Returns models.ErrStateNotFound if the device has no row yet.
	GetDOUT1State(ctx context.Context, imei string) (*models.DOUT1State, error)

	// UpsertDOUT1State creates or replaces the automation state for
	// state.IMEI.
	UpsertDOUT1State(ctx context.Context, state *models.DOUT1State) error

	// EnqueueCommand appends a pending command for an IMEI and returns its id.
	EnqueueCommand(ctx context.Context, imei, command string) (uint64, error)

	// ListPendingCommands returns the pending commands for an IMEI in FIFO
	// order.
	ListPendingCommands(ctx context.Context, imei string) ([]*models.Command, error)

	// MarkCommand transitions a command to the given status.
	// Returns models.ErrCommandNotFound if no command has this id and
	// models.ErrInvalidStatus for unknown status values.
	MarkCommand(ctx context.Context, id uint64, status models.CommandStatus) error

	// KnownIMEI reports whether the gateway has ever seen this device: a
	// telemetry row, an automation row, or a queued command.
	KnownIMEI(ctx context.Context, imei string) (bool, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close releases the database connection.
	Close() error
}
