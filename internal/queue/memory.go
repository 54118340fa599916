package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/backstage/services/farm/internal/models"
)

// memoryQueue keeps commands in process memory, keyed by device UID. It is a
// fallback for deployments without a durable store: single-process only, not
// safe across multiple server instances, and commands are lost on restart.
type memoryQueue struct {
	mu        sync.Mutex
	retention time.Duration
	commands  map[string][]*models.PendingCommand
}

// NewMemoryQueue creates the in-process fallback queue
func NewMemoryQueue(retention time.Duration) Queue {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &memoryQueue{
		retention: retention,
		commands:  make(map[string][]*models.PendingCommand),
	}
}

func (q *memoryQueue) expired(command *models.PendingCommand, now time.Time) bool {
	return command.CreatedAt.Before(now.Add(-q.retention))
}

// dropExpired removes expired commands for one device. Callers must hold the
// lock.
func (q *memoryQueue) dropExpired(deviceUID string, now time.Time) {
	commands, ok := q.commands[deviceUID]
	if !ok {
		return
	}
	kept := commands[:0]
	for _, command := range commands {
		if !q.expired(command, now) {
			kept = append(kept, command)
		}
	}
	if len(kept) == 0 {
		delete(q.commands, deviceUID)
		return
	}
	q.commands[deviceUID] = kept
}

// Enqueue appends a new queued command to the device's FIFO
func (q *memoryQueue) Enqueue(ctx context.Context, deviceUID string, action models.CommandAction, target models.CommandTarget, trigger string) (*models.PendingCommand, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now().UTC()
	command := &models.PendingCommand{
		Base: models.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		DeviceUID: deviceUID,
		Action:    action,
		Target:    target,
		Trigger:   trigger,
		Status:    models.CommandQueued,
	}
	q.commands[deviceUID] = append(q.commands[deviceUID], command)

	copied := *command
	return &copied, nil
}

// DequeueOldest hands out the first queued command in the device's FIFO.
// The whole operation runs under the queue mutex, so concurrent pollers
// serialize and each command is handed out once.
func (q *memoryQueue) DequeueOldest(ctx context.Context, deviceUID string) (*models.PendingCommand, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now().UTC()
	q.dropExpired(deviceUID, now)

	for _, command := range q.commands[deviceUID] {
		if command.Status != models.CommandQueued {
			continue
		}
		dequeuedAt := now
		command.Status = models.CommandDequeued
		command.DequeuedAt = &dequeuedAt
		command.Attempts++
		command.UpdatedAt = now

		copied := *command
		return &copied, nil
	}
	return nil, nil
}

// Acknowledge resolves the most recently dequeued command matching device,
// action and target
func (q *memoryQueue) Acknowledge(ctx context.Context, deviceUID string, action models.CommandAction, target models.CommandTarget, success bool) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now().UTC()
	commands := q.commands[deviceUID]
	for i := len(commands) - 1; i >= 0; i-- {
		command := commands[i]
		if command.Status != models.CommandDequeued || command.Action != action || command.Target != target {
			continue
		}
		if success {
			executedAt := now
			command.Status = models.CommandExecuted
			command.ExecutedAt = &executedAt
		} else {
			command.Status = models.CommandQueued
			command.DequeuedAt = nil
		}
		command.UpdatedAt = now
		return true, nil
	}
	return false, nil
}

// HasPending reports whether a device has a queued, non-expired command
func (q *memoryQueue) HasPending(ctx context.Context, deviceUID string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now().UTC()
	q.dropExpired(deviceUID, now)

	for _, command := range q.commands[deviceUID] {
		if command.Status == models.CommandQueued {
			return true, nil
		}
	}
	return false, nil
}

// PurgeExpired drops expired commands for every device
func (q *memoryQueue) PurgeExpired(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now().UTC()
	var purged int64
	for deviceUID, commands := range q.commands {
		kept := commands[:0]
		for _, command := range commands {
			if q.expired(command, now) {
				purged++
				continue
			}
			kept = append(kept, command)
		}
		if len(kept) == 0 {
			delete(q.commands, deviceUID)
		} else {
			q.commands[deviceUID] = kept
		}
	}
	return purged, nil
}

// CountQueued returns the number of queued, non-expired commands across all
// devices
func (q *memoryQueue) CountQueued(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now().UTC()
	var count int64
	for _, commands := range q.commands {
		for _, command := range commands {
			if command.Status == models.CommandQueued && !q.expired(command, now) {
				count++
			}
		}
	}
	return count, nil
}
