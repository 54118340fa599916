package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"example.com/backstage/services/farm/internal/models"
	"example.com/backstage/services/farm/internal/repository"
)

// plantingDateLayout is the wire format of zone planting dates
const plantingDateLayout = "2006-01-02"

// ErrValidation marks input the binding layer could not reject; handlers map
// it to a 400
var ErrValidation = errors.New("invalid input")

// UpsertTank creates or replaces a tank configuration by its business key.
// Sensor assignment and pump-run bookkeeping survive the update.
func (s *farmService) UpsertTank(ctx context.Context, input *models.TankInput) (*models.TankConfig, error) {
	existing, err := s.repo.GetTankByTankID(ctx, input.TankID)
	if err != nil && errors.Cause(err) != repository.ErrNotFound {
		return nil, err
	}

	if existing == nil {
		tank := &models.TankConfig{
			Base:                models.Base{ID: uuid.New()},
			TankID:              input.TankID,
			Name:                input.Name,
			HeightCM:            input.HeightCM,
			RadiusCM:            input.RadiusCM,
			MinFillPercent:      input.MinFillPercent,
			AutoRefillEnabled:   input.AutoRefillEnabled,
			PumpCooldownMinutes: input.PumpCooldownMinutes,
		}
		if err := s.repo.CreateTankConfig(ctx, tank); err != nil {
			return nil, err
		}
		return tank, nil
	}

	existing.Name = input.Name
	existing.HeightCM = input.HeightCM
	existing.RadiusCM = input.RadiusCM
	existing.MinFillPercent = input.MinFillPercent
	existing.AutoRefillEnabled = input.AutoRefillEnabled
	existing.PumpCooldownMinutes = input.PumpCooldownMinutes
	if err := s.repo.UpdateTankConfig(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// GetTank finds a tank configuration by business key
func (s *farmService) GetTank(ctx context.Context, tankID string) (*models.TankConfig, error) {
	return s.repo.GetTankByTankID(ctx, tankID)
}

// ListTanks returns all tank configurations
func (s *farmService) ListTanks(ctx context.Context) ([]models.TankConfig, error) {
	return s.repo.ListTankConfigs(ctx)
}

// AssignTankSensor wires a sensor to a tank. Fails with ErrConflict when the
// sensor already serves another tank or the tank already holds a different
// sensor; re-assigning the same sensor succeeds.
func (s *farmService) AssignTankSensor(ctx context.Context, tankID, sensorUID string) (*models.TankConfig, error) {
	holder, err := s.repo.FindTankBySensorUID(ctx, sensorUID)
	if err != nil && errors.Cause(err) != repository.ErrNotFound {
		return nil, err
	}
	if holder != nil && holder.TankID != tankID {
		return nil, errors.Wrapf(repository.ErrConflict, "sensor %s is assigned to tank %s", sensorUID, holder.TankID)
	}
	return s.repo.AssignTankSensor(ctx, tankID, sensorUID)
}

// UnassignTankSensor clears a tank's sensor slot
func (s *farmService) UnassignTankSensor(ctx context.Context, tankID string) (*models.TankConfig, error) {
	return s.repo.UnassignTankSensor(ctx, tankID)
}

// UpsertZone creates or replaces a zone configuration by its business key.
// Sensor assignment and irrigation bookkeeping survive the update.
func (s *farmService) UpsertZone(ctx context.Context, input *models.ZoneInput) (*models.ZoneConfig, error) {
	var plantingDate *time.Time
	if input.PlantingDate != "" {
		parsed, err := time.Parse(plantingDateLayout, input.PlantingDate)
		if err != nil {
			return nil, errors.Wrapf(ErrValidation, "planting_date %q is not %s", input.PlantingDate, plantingDateLayout)
		}
		plantingDate = &parsed
	}

	existing, err := s.repo.GetZoneByZoneID(ctx, input.ZoneID)
	if err != nil && errors.Cause(err) != repository.ErrNotFound {
		return nil, err
	}

	if existing == nil {
		zone := &models.ZoneConfig{
			Base:              models.Base{ID: uuid.New()},
			ZoneID:            input.ZoneID,
			Name:              input.Name,
			CropType:          input.CropType,
			PlantingDate:      plantingDate,
			MoistureMinPct:    input.MoistureMinPct,
			MoistureMaxPct:    input.MoistureMaxPct,
			IrrigationEnabled: input.IrrigationEnabled,
			IrrigationMinutes: input.IrrigationMinutes,
			CooldownMinutes:   input.CooldownMinutes,
		}
		if err := s.repo.CreateZoneConfig(ctx, zone); err != nil {
			return nil, err
		}
		return zone, nil
	}

	existing.Name = input.Name
	existing.CropType = input.CropType
	existing.PlantingDate = plantingDate
	existing.MoistureMinPct = input.MoistureMinPct
	existing.MoistureMaxPct = input.MoistureMaxPct
	existing.IrrigationEnabled = input.IrrigationEnabled
	existing.IrrigationMinutes = input.IrrigationMinutes
	existing.CooldownMinutes = input.CooldownMinutes
	if err := s.repo.UpdateZoneConfig(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// GetZone finds a zone configuration by business key
func (s *farmService) GetZone(ctx context.Context, zoneID string) (*models.ZoneConfig, error) {
	return s.repo.GetZoneByZoneID(ctx, zoneID)
}

// ListZones returns all zone configurations
func (s *farmService) ListZones(ctx context.Context) ([]models.ZoneConfig, error) {
	return s.repo.ListZoneConfigs(ctx)
}

// AssignZoneSensor wires a sensor to a zone, with the same conflict rules as
// AssignTankSensor. A sensor may serve one tank and one zone at the same
// time; that is how a single gateway reports water and soil together.
func (s *farmService) AssignZoneSensor(ctx context.Context, zoneID, sensorUID string) (*models.ZoneConfig, error) {
	holder, err := s.repo.FindZoneBySensorUID(ctx, sensorUID)
	if err != nil && errors.Cause(err) != repository.ErrNotFound {
		return nil, err
	}
	if holder != nil && holder.ZoneID != zoneID {
		return nil, errors.Wrapf(repository.ErrConflict, "sensor %s is assigned to zone %s", sensorUID, holder.ZoneID)
	}
	return s.repo.AssignZoneSensor(ctx, zoneID, sensorUID)
}

// UnassignZoneSensor clears a zone's sensor slot
func (s *farmService) UnassignZoneSensor(ctx context.Context, zoneID string) (*models.ZoneConfig, error) {
	return s.repo.UnassignZoneSensor(ctx, zoneID)
}

// UpdateZoneIrrigation updates the irrigation policy of a zone without
// touching its crop or sensor fields
func (s *farmService) UpdateZoneIrrigation(ctx context.Context, zoneID string, input *models.IrrigationPolicyInput) (*models.ZoneConfig, error) {
	zone, err := s.repo.GetZoneByZoneID(ctx, zoneID)
	if err != nil {
		return nil, err
	}

	zone.IrrigationEnabled = *input.Enabled
	if input.MoistureMinPct != nil {
		zone.MoistureMinPct = *input.MoistureMinPct
	}
	if input.MoistureMaxPct != nil {
		zone.MoistureMaxPct = *input.MoistureMaxPct
	}
	if input.IrrigationMinutes != nil {
		zone.IrrigationMinutes = *input.IrrigationMinutes
	}
	if input.CooldownMinutes != nil {
		zone.CooldownMinutes = *input.CooldownMinutes
	}

	if err := s.repo.UpdateZoneConfig(ctx, zone); err != nil {
		return nil, err
	}
	return zone, nil
}

// GetCropProfile loads one crop profile through the cache
func (s *farmService) GetCropProfile(ctx context.Context, cropType string) (*models.CropProfile, error) {
	return s.cropProfileByType(ctx, cropType)
}

// ListCropProfiles returns all crop profiles with their stages
func (s *farmService) ListCropProfiles(ctx context.Context) ([]models.CropProfile, error) {
	return s.repo.ListCropProfiles(ctx)
}
