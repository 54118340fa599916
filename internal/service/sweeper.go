package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"example.com/backstage/services/farm/internal/messaging"
	"example.com/backstage/services/farm/internal/metrics"
	"example.com/backstage/services/farm/internal/models"
)

// SweepStaleEquipment forces offline every device whose heartbeat is older
// than the timeout or missing entirely, zeroing its sensor and power flags.
// The offline write re-checks the staleness filter, so a device that
// heartbeated after selection is skipped and an already-offline device is a
// no-op. Returns how many devices were actually forced offline.
func (s *farmService) SweepStaleEquipment(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-s.heartbeatTimeout)

	stale, err := s.repo.ListStaleEquipment(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range stale {
		equipment := &stale[i]
		forced, err := s.repo.ForceEquipmentOffline(ctx, equipment.ID, cutoff)
		if err != nil {
			s.log.WithError(err).WithField("device_uid", equipment.DeviceUID).Error("Failed to force equipment offline")
			continue
		}
		if !forced {
			// A heartbeat arrived between selection and update
			continue
		}

		entry := &models.EquipmentStatusLog{
			Base:       models.Base{ID: uuid.New()},
			DeviceUID:  equipment.DeviceUID,
			Status:     models.StatusOffline,
			Source:     models.SourceSweep,
			RecordedAt: now,
		}
		if err := s.repo.CreateStatusLog(ctx, entry); err != nil {
			s.log.WithError(err).WithField("device_uid", equipment.DeviceUID).Warn("Failed to append sweep history")
		}

		s.publishEvent(ctx, messaging.EventEquipmentOffline, equipment.DeviceUID, map[string]interface{}{
			"previous_status":   equipment.Status,
			"last_heartbeat_at": equipment.LastHeartbeatAt,
		})
		s.invalidateStatusCache(ctx, equipment.DeviceUID)
		swept++
	}

	if swept > 0 {
		metrics.GetMetricsCollector().RecordSweep(int64(swept))
		s.log.WithField("count", swept).Info("Swept stale equipment offline")
	}
	return swept, nil
}

// PurgeExpiredCommands garbage-collects commands past the retention window
// and refreshes the queued-commands gauge
func (s *farmService) PurgeExpiredCommands(ctx context.Context) (int64, error) {
	purged, err := s.queue.PurgeExpired(ctx)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		metrics.GetMetricsCollector().RecordCommand(metrics.CommandOpExpire, purged)
		s.log.WithField("count", purged).Info("Purged expired commands")
	}

	if count, err := s.queue.CountQueued(ctx); err == nil {
		metrics.GetMetricsCollector().SetQueuedCommands(count)
	}
	return purged, nil
}
