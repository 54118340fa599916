package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"example.com/backstage/services/farm/internal/database"
	"example.com/backstage/services/farm/internal/models"
)

// dequeueRetries bounds the compare-and-swap loop when concurrent pollers
// race for the same command
const dequeueRetries = 3

// postgresQueue stores commands in the pending_commands table. The dequeue
// compare-and-swap works across multiple server instances.
type postgresQueue struct {
	db        database.DB
	retention time.Duration
}

// NewPostgresQueue creates the durable command queue
func NewPostgresQueue(db database.DB, retention time.Duration) Queue {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &postgresQueue{db: db, retention: retention}
}

func (q *postgresQueue) cutoff() time.Time {
	return time.Now().UTC().Add(-q.retention)
}

// Enqueue inserts a new queued command
func (q *postgresQueue) Enqueue(ctx context.Context, deviceUID string, action models.CommandAction, target models.CommandTarget, trigger string) (*models.PendingCommand, error) {
	gormDB, err := q.db.DB()
	if err != nil {
		return nil, err
	}

	command := &models.PendingCommand{
		Base:      models.Base{ID: uuid.New()},
		DeviceUID: deviceUID,
		Action:    action,
		Target:    target,
		Trigger:   trigger,
		Status:    models.CommandQueued,
	}
	if err := gormDB.WithContext(ctx).Create(command).Error; err != nil {
		return nil, err
	}
	return command, nil
}

// DequeueOldest hands out the oldest queued command for a device. The status
// transition is a conditional update keyed on the queued status, so of two
// concurrent pollers exactly one wins the row; the loser retries against the
// next oldest command.
func (q *postgresQueue) DequeueOldest(ctx context.Context, deviceUID string) (*models.PendingCommand, error) {
	gormDB, err := q.db.DB()
	if err != nil {
		return nil, err
	}

	cutoff := q.cutoff()
	for attempt := 0; attempt < dequeueRetries; attempt++ {
		var candidate models.PendingCommand
		err := gormDB.WithContext(ctx).
			Where("device_uid = ? AND status = ? AND created_at >= ?",
				deviceUID, models.CommandQueued, cutoff).
			Order("created_at ASC").
			First(&candidate).Error
		if err != nil {
			if database.IsRecordNotFoundError(err) {
				return nil, nil
			}
			return nil, err
		}

		now := time.Now().UTC()
		result := gormDB.WithContext(ctx).Model(&models.PendingCommand{}).
			Where("id = ? AND status = ?", candidate.ID, models.CommandQueued).
			Updates(map[string]interface{}{
				"status":      models.CommandDequeued,
				"dequeued_at": now,
				"attempts":    gorm.Expr("attempts + 1"),
			})
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			// Another poller consumed it between read and write
			continue
		}

		candidate.Status = models.CommandDequeued
		candidate.DequeuedAt = &now
		candidate.Attempts++
		return &candidate, nil
	}
	return nil, nil
}

// Acknowledge resolves the most recently dequeued command matching device,
// action and target
func (q *postgresQueue) Acknowledge(ctx context.Context, deviceUID string, action models.CommandAction, target models.CommandTarget, success bool) (bool, error) {
	gormDB, err := q.db.DB()
	if err != nil {
		return false, err
	}

	var command models.PendingCommand
	err = gormDB.WithContext(ctx).
		Where("device_uid = ? AND action = ? AND target = ? AND status = ?",
			deviceUID, action, target, models.CommandDequeued).
		Order("dequeued_at DESC").
		First(&command).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return false, nil
		}
		return false, err
	}

	updates := map[string]interface{}{}
	if success {
		updates["status"] = models.CommandExecuted
		updates["executed_at"] = time.Now().UTC()
	} else {
		updates["status"] = models.CommandQueued
		updates["dequeued_at"] = nil
	}

	result := gormDB.WithContext(ctx).Model(&models.PendingCommand{}).
		Where("id = ? AND status = ?", command.ID, models.CommandDequeued).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// HasPending reports whether a device has a queued, non-expired command
func (q *postgresQueue) HasPending(ctx context.Context, deviceUID string) (bool, error) {
	gormDB, err := q.db.DB()
	if err != nil {
		return false, err
	}

	var count int64
	err = gormDB.WithContext(ctx).Model(&models.PendingCommand{}).
		Where("device_uid = ? AND status = ? AND created_at >= ?",
			deviceUID, models.CommandQueued, q.cutoff()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// PurgeExpired deletes commands older than the retention window regardless
// of state
func (q *postgresQueue) PurgeExpired(ctx context.Context) (int64, error) {
	gormDB, err := q.db.DB()
	if err != nil {
		return 0, err
	}

	result := gormDB.WithContext(ctx).
		Where("created_at < ?", q.cutoff()).
		Delete(&models.PendingCommand{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountQueued returns the number of queued, non-expired commands
func (q *postgresQueue) CountQueued(ctx context.Context) (int64, error) {
	gormDB, err := q.db.DB()
	if err != nil {
		return 0, err
	}

	var count int64
	err = gormDB.WithContext(ctx).Model(&models.PendingCommand{}).
		Where("status = ? AND created_at >= ?", models.CommandQueued, q.cutoff()).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
