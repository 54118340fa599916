package service

import (
	"context"

	"example.com/backstage/services/farm/internal/messaging"
	"example.com/backstage/services/farm/internal/metrics"
	"example.com/backstage/services/farm/internal/models"
)

// EnqueueCommand inserts an operator command into the device's FIFO and
// publishes a command.queued event
func (s *farmService) EnqueueCommand(ctx context.Context, deviceUID string, action models.CommandAction, target models.CommandTarget, trigger string) (*models.PendingCommand, error) {
	command, err := s.queue.Enqueue(ctx, deviceUID, action, target, trigger)
	if err != nil {
		return nil, err
	}

	metrics.GetMetricsCollector().RecordCommand(metrics.CommandOpEnqueue, 1)
	s.invalidateStatusCache(ctx, deviceUID)
	s.publishEvent(ctx, messaging.EventCommandQueued, deviceUID, map[string]interface{}{
		"command_id": command.ID.String(),
		"action":     command.Action,
		"target":     command.Target,
		"trigger":    command.Trigger,
	})
	return command, nil
}

// PollCommand consumes the oldest queued command for a device. Returns nil
// when the queue is empty.
func (s *farmService) PollCommand(ctx context.Context, deviceUID string) (*models.PendingCommand, error) {
	command, err := s.queue.DequeueOldest(ctx, deviceUID)
	if err != nil {
		return nil, err
	}
	if command != nil {
		metrics.GetMetricsCollector().RecordCommand(metrics.CommandOpDequeue, 1)
		s.invalidateStatusCache(ctx, deviceUID)
	}
	return command, nil
}

// AcknowledgeCommand resolves a dequeued command. A failure acknowledgement
// returns the command to the queue so the next poll retries it.
func (s *farmService) AcknowledgeCommand(ctx context.Context, deviceUID string, action models.CommandAction, target models.CommandTarget, success bool) (bool, error) {
	updated, err := s.queue.Acknowledge(ctx, deviceUID, action, target, success)
	if err != nil {
		return false, err
	}
	if updated {
		if success {
			metrics.GetMetricsCollector().RecordCommand(metrics.CommandOpExecute, 1)
		} else {
			metrics.GetMetricsCollector().RecordCommand(metrics.CommandOpRequeue, 1)
		}
		s.invalidateStatusCache(ctx, deviceUID)
	}
	return updated, nil
}
