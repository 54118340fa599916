package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"example.com/backstage/services/farm/internal/messaging"
	"example.com/backstage/services/farm/internal/models"
	"example.com/backstage/services/farm/internal/repository"
)

// ProcessEquipmentReport upserts the equipment record from a self-report,
// derives the status from the active sensor count, stamps the heartbeat and
// appends a history entry. A status transition publishes an event; the first
// report of an unknown device counts as a transition.
func (s *farmService) ProcessEquipmentReport(ctx context.Context, report *models.EquipmentReport) (*models.Equipment, error) {
	now := time.Now().UTC()

	equipment, err := s.repo.GetEquipmentByUID(ctx, report.DeviceID)
	if err != nil {
		if errors.Cause(err) != repository.ErrNotFound {
			return nil, err
		}
		equipment = &models.Equipment{
			Base:      models.Base{ID: uuid.New()},
			DeviceUID: report.DeviceID,
		}
	}

	previousStatus := equipment.Status

	if report.Name != "" {
		equipment.Name = report.Name
	}
	equipment.Sensor1Active = report.Sensor1Active
	equipment.Sensor2Active = report.Sensor2Active
	equipment.Sensor3Active = report.Sensor3Active
	equipment.PowerPresent = report.PowerPresent
	equipment.Status = models.StatusFromSensorCount(equipment.ActiveSensorCount())
	equipment.LastHeartbeatAt = &now

	if err := s.repo.SaveEquipment(ctx, equipment); err != nil {
		return nil, err
	}

	entry := &models.EquipmentStatusLog{
		Base:          models.Base{ID: uuid.New()},
		DeviceUID:     equipment.DeviceUID,
		Status:        equipment.Status,
		Sensor1Active: equipment.Sensor1Active,
		Sensor2Active: equipment.Sensor2Active,
		Sensor3Active: equipment.Sensor3Active,
		PowerPresent:  equipment.PowerPresent,
		Source:        models.SourceReport,
		RecordedAt:    now,
	}
	if err := s.repo.CreateStatusLog(ctx, entry); err != nil {
		s.log.WithError(err).WithField("device_uid", equipment.DeviceUID).Warn("Failed to append equipment history")
	}

	if previousStatus != equipment.Status {
		s.publishEvent(ctx, messaging.EventEquipmentStatusChanged, equipment.DeviceUID, map[string]interface{}{
			"previous_status": previousStatus,
			"status":          equipment.Status,
			"power_present":   equipment.PowerPresent,
		})
	}

	s.invalidateStatusCache(ctx, equipment.DeviceUID)

	return equipment, nil
}

// GetEquipment finds an equipment record by device UID
func (s *farmService) GetEquipment(ctx context.Context, deviceUID string) (*models.Equipment, error) {
	return s.repo.GetEquipmentByUID(ctx, deviceUID)
}

// GetEquipmentHistory returns the status history of a device, newest first
func (s *farmService) GetEquipmentHistory(ctx context.Context, deviceUID string, limit int) ([]models.EquipmentStatusLog, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return s.repo.ListStatusLogs(ctx, deviceUID, limit)
}
