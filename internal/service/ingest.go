package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"example.com/backstage/services/farm/internal/agronomy"
	"example.com/backstage/services/farm/internal/messaging"
	"example.com/backstage/services/farm/internal/metrics"
	"example.com/backstage/services/farm/internal/models"
	"example.com/backstage/services/farm/internal/repository"
)

// ClassError is one per-class failure in an otherwise successful ingestion
type ClassError struct {
	Class   models.SensorClass `json:"class"`
	Message string             `json:"message"`
}

// ClassResult is the outcome of processing one sensor class
type ClassResult struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// WaterResult summarizes a persisted water reading
type WaterResult struct {
	ReadingID       uuid.UUID `json:"reading_id"`
	TankID          string    `json:"tank_id"`
	DistanceCM      *float64  `json:"distance_cm,omitempty"`
	WaterLevelCM    float64   `json:"water_level_cm"`
	FillPercent     *float64  `json:"fill_percent,omitempty"`
	VolumeLiters    *float64  `json:"volume_liters,omitempty"`
	RefillTriggered bool      `json:"refill_triggered"`
}

// StageResult summarizes the growth stage the zone's crop is in
type StageResult struct {
	Name            string `json:"name"`
	DayInCrop       int    `json:"day_in_crop"`
	DayInStage      int    `json:"day_in_stage"`
	ProgressPercent int    `json:"progress_percent"`
	PastMaturity    bool   `json:"past_maturity,omitempty"`
}

// SoilResult summarizes a persisted soil reading and the irrigation decision
type SoilResult struct {
	ReadingID           uuid.UUID    `json:"reading_id"`
	ZoneID              string       `json:"zone_id"`
	MoisturePct         float64      `json:"moisture_pct"`
	TargetMinPct        float64      `json:"target_min_pct"`
	TargetMaxPct        float64      `json:"target_max_pct"`
	Stage               *StageResult `json:"stage,omitempty"`
	IrrigationTriggered bool         `json:"irrigation_triggered"`
}

// EnvironmentResult summarizes a persisted environment reading
type EnvironmentResult struct {
	ReadingID    uuid.UUID `json:"reading_id"`
	TemperatureC *float64  `json:"temperature_c,omitempty"`
	HumidityPct  *float64  `json:"humidity_pct,omitempty"`
}

// IngestResult aggregates the per-class outcomes of one gateway payload plus
// at most one manual command drawn from the queue
type IngestResult struct {
	DeviceUID     string                              `json:"device_uid"`
	Responses     map[models.SensorClass]*ClassResult `json:"responses"`
	Errors        []ClassError                        `json:"errors"`
	ManualCommand *models.PendingCommand              `json:"manualCommand,omitempty"`
}

// softError marks a per-class failure that must not escalate to a request
// level failure: missing configuration or an unusable payload, not a storage
// fault
type softError struct {
	msg string
}

func (e *softError) Error() string { return e.msg }

func softErrorf(format string, args ...interface{}) error {
	return &softError{msg: fmt.Sprintf(format, args...)}
}

func isSoftError(err error) bool {
	_, ok := errors.Cause(err).(*softError)
	return ok
}

// ProcessReadings is the single entry point for gateway telemetry. Every
// valid class block runs in its own failure domain: an error in one class is
// recorded and the remaining classes still process. The command queue is
// consulted exactly once at the tail, after every class was attempted, and a
// queue fault there is treated as "no command available". The returned error
// is non-nil only when at least one class hit a storage fault and none could
// be saved.
func (s *farmService) ProcessReadings(ctx context.Context, payload *models.IngestPayload) (*IngestResult, error) {
	result := &IngestResult{
		DeviceUID: payload.DeviceID,
		Responses: make(map[models.SensorClass]*ClassResult),
		Errors:    []ClassError{},
	}

	saved := 0
	storageFailures := 0

	record := func(class models.SensorClass, data interface{}, err error) {
		if err == nil {
			result.Responses[class] = &ClassResult{Success: true, Data: data}
			saved++
			return
		}
		fields := logrus.Fields{"device_uid": payload.DeviceID, "class": class}
		if isSoftError(err) {
			s.log.WithError(err).WithFields(fields).Warn("Dropped reading")
		} else {
			storageFailures++
			s.log.WithError(err).WithFields(fields).Error("Failed to process reading")
		}
		result.Responses[class] = &ClassResult{Success: false, Error: err.Error()}
		result.Errors = append(result.Errors, ClassError{Class: class, Message: err.Error()})
	}

	if payload.Water != nil && payload.Water.Valid {
		start := time.Now()
		data, err := s.processWaterReading(ctx, payload.DeviceID, payload.Water)
		metrics.GetMetricsCollector().RecordIngestion(string(models.ClassWater), err == nil, time.Since(start))
		record(models.ClassWater, data, err)
	}
	if payload.Soil != nil && payload.Soil.Valid {
		start := time.Now()
		data, err := s.processSoilReading(ctx, payload.DeviceID, payload.Soil)
		metrics.GetMetricsCollector().RecordIngestion(string(models.ClassSoil), err == nil, time.Since(start))
		record(models.ClassSoil, data, err)
	}
	if payload.Environment != nil && payload.Environment.Valid {
		start := time.Now()
		data, err := s.processEnvironmentReading(ctx, payload.DeviceID, payload.Environment)
		metrics.GetMetricsCollector().RecordIngestion(string(models.ClassEnvironment), err == nil, time.Since(start))
		record(models.ClassEnvironment, data, err)
	}

	// A gateway that is also registered as equipment gets its liveness
	// bumped by every telemetry payload
	if _, err := s.repo.TouchEquipmentHeartbeat(ctx, payload.DeviceID, time.Now().UTC()); err != nil {
		s.log.WithError(err).WithField("device_uid", payload.DeviceID).Warn("Failed to touch equipment heartbeat")
	}

	result.ManualCommand = s.drainOneCommand(ctx, payload.DeviceID)

	s.invalidateStatusCache(ctx, payload.DeviceID)

	if saved == 0 && storageFailures > 0 {
		return result, errors.New("no sensor class could be saved")
	}
	return result, nil
}

// drainOneCommand pops the oldest queued command, swallowing queue faults so
// telemetry ingestion is never blocked by the command store
func (s *farmService) drainOneCommand(ctx context.Context, deviceUID string) *models.PendingCommand {
	command, err := s.queue.DequeueOldest(ctx, deviceUID)
	if err != nil {
		s.log.WithError(err).WithField("device_uid", deviceUID).Warn("Command dequeue failed, treating as no command")
		metrics.GetMetricsCollector().RecordError(metrics.ErrorTypeDatabase)
		return nil
	}
	if command != nil {
		metrics.GetMetricsCollector().RecordCommand(metrics.CommandOpDequeue, 1)
	}
	return command
}

// processWaterReading converts tank telemetry into derived metrics, persists
// the reading and evaluates the refill decision. When the decision fires the
// reading insert and the pump-run stamp commit in one transaction.
func (s *farmService) processWaterReading(ctx context.Context, deviceUID string, payload *models.WaterPayload) (*WaterResult, error) {
	tank, err := s.repo.FindTankBySensorUID(ctx, deviceUID)
	if err != nil {
		if errors.Cause(err) == repository.ErrNotFound {
			return nil, softErrorf("no tank configuration for sensor %s", deviceUID)
		}
		return nil, errors.Wrap(err, "tank lookup failed")
	}

	now := time.Now().UTC()
	reading := &models.Reading{
		Base:       models.Base{ID: uuid.New()},
		DeviceUID:  deviceUID,
		Class:      models.ClassWater,
		RecordedAt: now,
	}

	var level float64
	switch {
	case payload.Value != nil:
		level = agronomy.WaterLevel(*payload.Value, tank.HeightCM)
		reading.DistanceCM = payload.Value
	case payload.Level != nil:
		// Legacy firmware reports the water column directly
		level = *payload.Level
		if level < 0 {
			level = 0
		}
		if tank.HeightCM > 0 && level > tank.HeightCM {
			level = tank.HeightCM
		}
	default:
		return nil, softErrorf("water payload carries no value")
	}

	reading.WaterLevelCM = &level
	reading.FillPercent = agronomy.FillPercentage(level, tank.HeightCM)
	reading.VolumeLiters = agronomy.EstimatedVolume(level, tank.RadiusCM)

	refill := false
	if reading.FillPercent != nil {
		refill = agronomy.ShouldActuate(
			*reading.FillPercent,
			agronomy.Band{Min: tank.MinFillPercent, Max: 100},
			tank.AutoRefillEnabled,
			tank.LastPumpRunAt,
			time.Duration(tank.PumpCooldownMinutes)*time.Minute,
			now,
		)
	}

	if refill {
		err = s.repo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.Repository) error {
			if err := txRepo.CreateReading(ctx, reading); err != nil {
				return err
			}
			return txRepo.StampTankPumpRun(ctx, tank.ID, now)
		})
	} else {
		err = s.repo.CreateReading(ctx, reading)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to persist water reading")
	}

	s.indexer.Enqueue(reading)

	if refill {
		metrics.GetMetricsCollector().RecordDecision(string(models.TargetWaterPump))
		s.publishEvent(ctx, messaging.EventPumpRefillRequested, deviceUID, map[string]interface{}{
			"tank_id":      tank.TankID,
			"fill_percent": *reading.FillPercent,
			"min_fill":     tank.MinFillPercent,
		})
	}

	return &WaterResult{
		ReadingID:       reading.ID,
		TankID:          tank.TankID,
		DistanceCM:      reading.DistanceCM,
		WaterLevelCM:    level,
		FillPercent:     reading.FillPercent,
		VolumeLiters:    reading.VolumeLiters,
		RefillTriggered: refill,
	}, nil
}

// processSoilReading resolves the target moisture band, persists the reading
// and evaluates the irrigation decision. The band comes from the crop's
// current growth stage when a profile exists; otherwise the zone's static
// band applies.
func (s *farmService) processSoilReading(ctx context.Context, deviceUID string, payload *models.SoilPayload) (*SoilResult, error) {
	zone, err := s.repo.FindZoneBySensorUID(ctx, deviceUID)
	if err != nil {
		if errors.Cause(err) == repository.ErrNotFound {
			return nil, softErrorf("no zone configuration for sensor %s", deviceUID)
		}
		return nil, errors.Wrap(err, "zone lookup failed")
	}
	if payload.Value == nil {
		return nil, softErrorf("soil payload carries no value")
	}

	now := time.Now().UTC()
	moisture := *payload.Value

	band := agronomy.Band{Min: zone.MoistureMinPct, Max: zone.MoistureMaxPct}
	var stageResult *StageResult
	if zone.CropType != "" && zone.PlantingDate != nil {
		profile, err := s.cropProfileByType(ctx, zone.CropType)
		if err != nil {
			if errors.Cause(err) != repository.ErrNotFound {
				s.log.WithError(err).WithField("crop_type", zone.CropType).Warn("Crop profile lookup failed, using static band")
			}
		} else if info := agronomy.ResolveStage(profile, *zone.PlantingDate, now); info != nil {
			band = info.TargetBand()
			stageResult = &StageResult{
				Name:            info.Stage.Name,
				DayInCrop:       info.DayInCrop,
				DayInStage:      info.DayInStage,
				ProgressPercent: info.ProgressPercent,
				PastMaturity:    info.PastMaturity,
			}
		}
	}

	irrigate := agronomy.ShouldActuate(
		moisture,
		band,
		zone.IrrigationEnabled,
		zone.LastIrrigationAt,
		time.Duration(zone.CooldownMinutes)*time.Minute,
		now,
	)

	reading := &models.Reading{
		Base:        models.Base{ID: uuid.New()},
		DeviceUID:   deviceUID,
		Class:       models.ClassSoil,
		RecordedAt:  now,
		MoisturePct: &moisture,
	}

	if irrigate {
		err = s.repo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.Repository) error {
			if err := txRepo.CreateReading(ctx, reading); err != nil {
				return err
			}
			return txRepo.StampZoneIrrigation(ctx, zone.ID, now)
		})
	} else {
		err = s.repo.CreateReading(ctx, reading)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to persist soil reading")
	}

	s.indexer.Enqueue(reading)

	if irrigate {
		metrics.GetMetricsCollector().RecordDecision(string(models.TargetIrrigation))
		s.publishEvent(ctx, messaging.EventIrrigationTriggered, deviceUID, map[string]interface{}{
			"zone_id":      zone.ZoneID,
			"moisture_pct": moisture,
			"target_min":   band.Min,
			"minutes":      zone.IrrigationMinutes,
		})
	}

	return &SoilResult{
		ReadingID:           reading.ID,
		ZoneID:              zone.ZoneID,
		MoisturePct:         moisture,
		TargetMinPct:        band.Min,
		TargetMaxPct:        band.Max,
		Stage:               stageResult,
		IrrigationTriggered: irrigate,
	}, nil
}

// processEnvironmentReading persists ambient telemetry. Environment readings
// need no configuration entity and drive no decision.
func (s *farmService) processEnvironmentReading(ctx context.Context, deviceUID string, payload *models.EnvironmentPayload) (*EnvironmentResult, error) {
	if payload.Temperature == nil && payload.Humidity == nil {
		return nil, softErrorf("environment payload carries no values")
	}

	reading := &models.Reading{
		Base:         models.Base{ID: uuid.New()},
		DeviceUID:    deviceUID,
		Class:        models.ClassEnvironment,
		RecordedAt:   time.Now().UTC(),
		TemperatureC: payload.Temperature,
		HumidityPct:  payload.Humidity,
	}
	if err := s.repo.CreateReading(ctx, reading); err != nil {
		return nil, errors.Wrap(err, "failed to persist environment reading")
	}

	s.indexer.Enqueue(reading)

	return &EnvironmentResult{
		ReadingID:    reading.ID,
		TemperatureC: payload.Temperature,
		HumidityPct:  payload.Humidity,
	}, nil
}
