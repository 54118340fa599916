package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"example.com/backstage/services/farm/internal/cache"
	"example.com/backstage/services/farm/internal/metrics"
	"example.com/backstage/services/farm/internal/models"
	"example.com/backstage/services/farm/internal/repository"
)

// DeviceStatusSnapshot is the cached status view of one device: the latest
// reading per class, the equipment record if the device is registered as
// equipment, and a non-consuming pending-command flag
type DeviceStatusSnapshot struct {
	DeviceUID         string            `json:"device_uid"`
	Water             *models.Reading   `json:"water,omitempty"`
	Soil              *models.Reading   `json:"soil,omitempty"`
	Environment       *models.Reading   `json:"environment,omitempty"`
	Equipment         *models.Equipment `json:"equipment,omitempty"`
	HasPendingCommand bool              `json:"has_pending_command"`
	GeneratedAt       time.Time         `json:"generated_at"`
}

// SeriesPoint is one sample of a reading series
type SeriesPoint struct {
	RecordedAt time.Time `json:"recorded_at"`
	Value      float64   `json:"value"`
}

// DeviceStatus builds the status snapshot of a device, served through the
// cache. A device with no readings yields an empty snapshot, not an error.
func (s *farmService) DeviceStatus(ctx context.Context, deviceUID string) (*DeviceStatusSnapshot, error) {
	key := cache.DeviceStatusKey(deviceUID)
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var snapshot DeviceStatusSnapshot
		if err := json.Unmarshal([]byte(raw), &snapshot); err == nil {
			metrics.GetMetricsCollector().RecordCacheLookup(true)
			return &snapshot, nil
		}
	}
	metrics.GetMetricsCollector().RecordCacheLookup(false)

	snapshot := &DeviceStatusSnapshot{
		DeviceUID:   deviceUID,
		GeneratedAt: time.Now().UTC(),
	}

	for _, class := range []models.SensorClass{models.ClassWater, models.ClassSoil, models.ClassEnvironment} {
		reading, err := s.repo.LatestReadingByClass(ctx, deviceUID, class)
		if err != nil {
			if errors.Cause(err) == repository.ErrNotFound {
				continue
			}
			return nil, err
		}
		switch class {
		case models.ClassWater:
			snapshot.Water = reading
		case models.ClassSoil:
			snapshot.Soil = reading
		case models.ClassEnvironment:
			snapshot.Environment = reading
		}
	}

	equipment, err := s.repo.GetEquipmentByUID(ctx, deviceUID)
	if err != nil && errors.Cause(err) != repository.ErrNotFound {
		return nil, err
	}
	snapshot.Equipment = equipment

	pending, err := s.queue.HasPending(ctx, deviceUID)
	if err != nil {
		s.log.WithError(err).WithField("device_uid", deviceUID).Warn("Pending command check failed")
	} else {
		snapshot.HasPendingCommand = pending
	}

	if raw, err := json.Marshal(snapshot); err == nil {
		if err := s.cache.Set(ctx, key, string(raw), s.statusCacheTTL); err != nil {
			s.log.WithError(err).WithField("device_uid", deviceUID).Debug("Failed to cache device status")
		}
	}
	return snapshot, nil
}

// ReadingSeries returns ascending samples of one metric for a device
func (s *farmService) ReadingSeries(ctx context.Context, deviceUID string, metric models.MetricKind, hours, limit int) ([]SeriesPoint, error) {
	if hours <= 0 {
		hours = 24
	}
	if limit <= 0 {
		limit = 500
	}
	if limit > 1000 {
		limit = 1000
	}
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	readings, err := s.repo.ListReadingSeries(ctx, deviceUID, metric, since, limit)
	if err != nil {
		return nil, err
	}

	// The repository returns newest first; charts want ascending time
	points := make([]SeriesPoint, 0, len(readings))
	for i := len(readings) - 1; i >= 0; i-- {
		if value := metric.Value(&readings[i]); value != nil {
			points = append(points, SeriesPoint{
				RecordedAt: readings[i].RecordedAt,
				Value:      *value,
			})
		}
	}
	return points, nil
}
