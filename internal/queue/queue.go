// Package queue implements the per-device FIFO of actuator commands that
// field gateways poll for. Commands are handed out strictly oldest-first and
// exactly once; the dequeue primitive is atomic so two pollers for the same
// device can never both consume the same command.
package queue

import (
	"context"
	"time"

	"example.com/backstage/services/farm/internal/models"
)

// DefaultRetention is how long an unexecuted command stays eligible for
// dequeue before it is expired.
const DefaultRetention = 24 * time.Hour

// Queue is the command store consulted at the tail of every ingestion
// request and by the command endpoints.
type Queue interface {
	// Enqueue inserts a new queued command for a device.
	Enqueue(ctx context.Context, deviceUID string, action models.CommandAction, target models.CommandTarget, trigger string) (*models.PendingCommand, error)

	// DequeueOldest atomically hands out the oldest queued, non-expired
	// command for a device, transitioning it to dequeued. Returns nil
	// without error when no command is available.
	DequeueOldest(ctx context.Context, deviceUID string) (*models.PendingCommand, error)

	// Acknowledge resolves the most recently dequeued command matching
	// device, action and target. Success marks it executed; failure
	// returns it to queued so the next poll retries it. The bool reports
	// whether a matching command was found.
	Acknowledge(ctx context.Context, deviceUID string, action models.CommandAction, target models.CommandTarget, success bool) (bool, error)

	// HasPending reports whether a device has at least one queued,
	// non-expired command, without consuming it.
	HasPending(ctx context.Context, deviceUID string) (bool, error)

	// PurgeExpired garbage-collects commands older than the retention
	// window and returns how many were removed.
	PurgeExpired(ctx context.Context) (int64, error)

	// CountQueued returns the number of queued, non-expired commands
	// across all devices.
	CountQueued(ctx context.Context) (int64, error)
}
