package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/backstage/services/farm/internal/database"
	"example.com/backstage/services/farm/internal/models"
)

// Repository provides access to the storage layer
type Repository interface {
	// Reading operations
	CreateReading(ctx context.Context, reading *models.Reading) error
	LatestReadingByClass(ctx context.Context, deviceUID string, class models.SensorClass) (*models.Reading, error)
	ListReadingSeries(ctx context.Context, deviceUID string, metric models.MetricKind, since time.Time, limit int) ([]models.Reading, error)

	// Tank configuration operations
	CreateTankConfig(ctx context.Context, tank *models.TankConfig) error
	UpdateTankConfig(ctx context.Context, tank *models.TankConfig) error
	GetTankByTankID(ctx context.Context, tankID string) (*models.TankConfig, error)
	FindTankBySensorUID(ctx context.Context, sensorUID string) (*models.TankConfig, error)
	ListTankConfigs(ctx context.Context) ([]models.TankConfig, error)
	AssignTankSensor(ctx context.Context, tankID, sensorUID string) (*models.TankConfig, error)
	UnassignTankSensor(ctx context.Context, tankID string) (*models.TankConfig, error)
	StampTankPumpRun(ctx context.Context, id uuid.UUID, at time.Time) error

	// Zone configuration operations
	CreateZoneConfig(ctx context.Context, zone *models.ZoneConfig) error
	UpdateZoneConfig(ctx context.Context, zone *models.ZoneConfig) error
	GetZoneByZoneID(ctx context.Context, zoneID string) (*models.ZoneConfig, error)
	FindZoneBySensorUID(ctx context.Context, sensorUID string) (*models.ZoneConfig, error)
	ListZoneConfigs(ctx context.Context) ([]models.ZoneConfig, error)
	AssignZoneSensor(ctx context.Context, zoneID, sensorUID string) (*models.ZoneConfig, error)
	UnassignZoneSensor(ctx context.Context, zoneID string) (*models.ZoneConfig, error)
	StampZoneIrrigation(ctx context.Context, id uuid.UUID, at time.Time) error

	// Crop profile operations
	CreateCropProfile(ctx context.Context, profile *models.CropProfile) error
	GetCropProfileByType(ctx context.Context, cropType string) (*models.CropProfile, error)
	ListCropProfiles(ctx context.Context) ([]models.CropProfile, error)

	// Equipment operations
	GetEquipmentByUID(ctx context.Context, deviceUID string) (*models.Equipment, error)
	SaveEquipment(ctx context.Context, equipment *models.Equipment) error
	TouchEquipmentHeartbeat(ctx context.Context, deviceUID string, at time.Time) (bool, error)
	ListStaleEquipment(ctx context.Context, cutoff time.Time) ([]models.Equipment, error)
	ForceEquipmentOffline(ctx context.Context, id uuid.UUID, cutoff time.Time) (bool, error)
	CreateStatusLog(ctx context.Context, entry *models.EquipmentStatusLog) error
	ListStatusLogs(ctx context.Context, deviceUID string, limit int) ([]models.EquipmentStatusLog, error)

	// Transaction support
	WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error
}

// repo implements Repository
type repo struct {
	db database.DB
}

// NewRepository creates a new repository backed by the given database
func NewRepository(db database.DB) Repository {
	return &repo{db: db}
}

// CreateReading persists a new reading
func (r *repo) CreateReading(ctx context.Context, reading *models.Reading) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Create(reading).Error
}

// LatestReadingByClass returns the most recent reading of one sensor class
// for a device
func (r *repo) LatestReadingByClass(ctx context.Context, deviceUID string, class models.SensorClass) (*models.Reading, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var reading models.Reading
	err = gormDB.WithContext(ctx).
		Where("device_uid = ? AND class = ?", deviceUID, class).
		Order("recorded_at DESC").
		First(&reading).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reading, nil
}

// ListReadingSeries returns the readings carrying the requested metric for a
// device since the given time, newest first. The metric is resolved to its
// storage column through a closed switch, never through caller-supplied SQL.
func (r *repo) ListReadingSeries(ctx context.Context, deviceUID string, metric models.MetricKind, since time.Time, limit int) ([]models.Reading, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	column, err := seriesColumn(metric)
	if err != nil {
		return nil, err
	}

	var readings []models.Reading
	err = gormDB.WithContext(ctx).
		Where("device_uid = ? AND recorded_at >= ?", deviceUID, since).
		Where(column + " IS NOT NULL").
		Order("recorded_at DESC").
		Limit(limit).
		Find(&readings).Error
	if err != nil {
		return nil, err
	}
	return readings, nil
}

// seriesColumn maps a metric kind to the reading column that stores it
func seriesColumn(metric models.MetricKind) (string, error) {
	switch metric {
	case models.MetricWaterLevel:
		return "water_level_cm", nil
	case models.MetricFillPercent:
		return "fill_percent", nil
	case models.MetricDistance:
		return "distance_cm", nil
	case models.MetricVolume:
		return "volume_liters", nil
	case models.MetricSoilMoisture:
		return "moisture_pct", nil
	case models.MetricTemperature:
		return "temperature_c", nil
	case models.MetricHumidity:
		return "humidity_pct", nil
	default:
		return "", errors.Errorf("unknown metric kind: %s", metric)
	}
}

// CreateTankConfig persists a new tank configuration
func (r *repo) CreateTankConfig(ctx context.Context, tank *models.TankConfig) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Create(tank).Error
}

// UpdateTankConfig saves an existing tank configuration
func (r *repo) UpdateTankConfig(ctx context.Context, tank *models.TankConfig) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Save(tank).Error
}

// GetTankByTankID finds a tank configuration by its business key
func (r *repo) GetTankByTankID(ctx context.Context, tankID string) (*models.TankConfig, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var tank models.TankConfig
	err = gormDB.WithContext(ctx).Where("tank_id = ?", tankID).First(&tank).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tank, nil
}

// FindTankBySensorUID finds the tank a sensor is assigned to
func (r *repo) FindTankBySensorUID(ctx context.Context, sensorUID string) (*models.TankConfig, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var tank models.TankConfig
	err = gormDB.WithContext(ctx).Where("sensor_uid = ?", sensorUID).First(&tank).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tank, nil
}

// ListTankConfigs returns all tank configurations
func (r *repo) ListTankConfigs(ctx context.Context) ([]models.TankConfig, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var tanks []models.TankConfig
	if err := gormDB.WithContext(ctx).Order("tank_id ASC").Find(&tanks).Error; err != nil {
		return nil, err
	}
	return tanks, nil
}

// AssignTankSensor wires a sensor to a tank. The update only matches when the
// slot is free or already holds the same sensor, so a concurrent conflicting
// assignment cannot overwrite it.
func (r *repo) AssignTankSensor(ctx context.Context, tankID, sensorUID string) (*models.TankConfig, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	result := gormDB.WithContext(ctx).Model(&models.TankConfig{}).
		Where("tank_id = ? AND (sensor_uid IS NULL OR sensor_uid = ?)", tankID, sensorUID).
		Updates(map[string]interface{}{
			"sensor_uid":         sensorUID,
			"sensor_assigned_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetTankByTankID(ctx, tankID); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	return r.GetTankByTankID(ctx, tankID)
}

// UnassignTankSensor clears a tank's sensor slot
func (r *repo) UnassignTankSensor(ctx context.Context, tankID string) (*models.TankConfig, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	result := gormDB.WithContext(ctx).Model(&models.TankConfig{}).
		Where("tank_id = ?", tankID).
		Updates(map[string]interface{}{
			"sensor_uid":         nil,
			"sensor_assigned_at": nil,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetTankByTankID(ctx, tankID)
}

// StampTankPumpRun records when the refill pump last started for a tank
func (r *repo) StampTankPumpRun(ctx context.Context, id uuid.UUID, at time.Time) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Model(&models.TankConfig{}).
		Where("id = ?", id).
		Update("last_pump_run_at", at).Error
}

// CreateZoneConfig persists a new zone configuration
func (r *repo) CreateZoneConfig(ctx context.Context, zone *models.ZoneConfig) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Create(zone).Error
}

// UpdateZoneConfig saves an existing zone configuration
func (r *repo) UpdateZoneConfig(ctx context.Context, zone *models.ZoneConfig) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Save(zone).Error
}

// GetZoneByZoneID finds a zone configuration by its business key
func (r *repo) GetZoneByZoneID(ctx context.Context, zoneID string) (*models.ZoneConfig, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var zone models.ZoneConfig
	err = gormDB.WithContext(ctx).Where("zone_id = ?", zoneID).First(&zone).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &zone, nil
}

// FindZoneBySensorUID finds the zone a sensor is assigned to
func (r *repo) FindZoneBySensorUID(ctx context.Context, sensorUID string) (*models.ZoneConfig, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var zone models.ZoneConfig
	err = gormDB.WithContext(ctx).Where("sensor_uid = ?", sensorUID).First(&zone).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &zone, nil
}

// ListZoneConfigs returns all zone configurations
func (r *repo) ListZoneConfigs(ctx context.Context) ([]models.ZoneConfig, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var zones []models.ZoneConfig
	if err := gormDB.WithContext(ctx).Order("zone_id ASC").Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}

// AssignZoneSensor wires a sensor to a zone, with the same free-or-same-slot
// condition as AssignTankSensor
func (r *repo) AssignZoneSensor(ctx context.Context, zoneID, sensorUID string) (*models.ZoneConfig, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	result := gormDB.WithContext(ctx).Model(&models.ZoneConfig{}).
		Where("zone_id = ? AND (sensor_uid IS NULL OR sensor_uid = ?)", zoneID, sensorUID).
		Updates(map[string]interface{}{
			"sensor_uid":         sensorUID,
			"sensor_assigned_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetZoneByZoneID(ctx, zoneID); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	return r.GetZoneByZoneID(ctx, zoneID)
}

// UnassignZoneSensor clears a zone's sensor slot
func (r *repo) UnassignZoneSensor(ctx context.Context, zoneID string) (*models.ZoneConfig, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	result := gormDB.WithContext(ctx).Model(&models.ZoneConfig{}).
		Where("zone_id = ?", zoneID).
		Updates(map[string]interface{}{
			"sensor_uid":         nil,
			"sensor_assigned_at": nil,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetZoneByZoneID(ctx, zoneID)
}

// StampZoneIrrigation records when irrigation last triggered for a zone
func (r *repo) StampZoneIrrigation(ctx context.Context, id uuid.UUID, at time.Time) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Model(&models.ZoneConfig{}).
		Where("id = ?", id).
		Update("last_irrigation_at", at).Error
}

// CreateCropProfile persists a crop profile together with its stages
func (r *repo) CreateCropProfile(ctx context.Context, profile *models.CropProfile) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Create(profile).Error
}

// GetCropProfileByType finds a crop profile by crop type, stages ordered by
// position
func (r *repo) GetCropProfileByType(ctx context.Context, cropType string) (*models.CropProfile, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var profile models.CropProfile
	err = gormDB.WithContext(ctx).
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("crop_stages.position ASC")
		}).
		Where("crop_type = ?", cropType).
		First(&profile).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// ListCropProfiles returns all crop profiles with their stages
func (r *repo) ListCropProfiles(ctx context.Context) ([]models.CropProfile, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var profiles []models.CropProfile
	err = gormDB.WithContext(ctx).
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("crop_stages.position ASC")
		}).
		Order("crop_type ASC").
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// GetEquipmentByUID finds an equipment record by device UID
func (r *repo) GetEquipmentByUID(ctx context.Context, deviceUID string) (*models.Equipment, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var equipment models.Equipment
	err = gormDB.WithContext(ctx).Where("device_uid = ?", deviceUID).First(&equipment).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &equipment, nil
}

// SaveEquipment creates or updates an equipment record
func (r *repo) SaveEquipment(ctx context.Context, equipment *models.Equipment) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Save(equipment).Error
}

// TouchEquipmentHeartbeat bumps the heartbeat timestamp of a registered
// device. Returns false without error when the device has no equipment
// record.
func (r *repo) TouchEquipmentHeartbeat(ctx context.Context, deviceUID string, at time.Time) (bool, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return false, err
	}

	result := gormDB.WithContext(ctx).Model(&models.Equipment{}).
		Where("device_uid = ?", deviceUID).
		Update("last_heartbeat_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListStaleEquipment returns equipment that is not offline but has no
// heartbeat newer than the cutoff
func (r *repo) ListStaleEquipment(ctx context.Context, cutoff time.Time) ([]models.Equipment, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var stale []models.Equipment
	err = gormDB.WithContext(ctx).
		Where("status <> ? AND (last_heartbeat_at IS NULL OR last_heartbeat_at < ?)",
			models.StatusOffline, cutoff).
		Find(&stale).Error
	if err != nil {
		return nil, err
	}
	return stale, nil
}

// ForceEquipmentOffline marks a stale device offline and zeroes its sensor
// and power flags. The update re-checks the staleness predicate so a
// heartbeat that arrived after the row was selected cancels the sweep, and
// re-sweeping an offline device matches nothing.
func (r *repo) ForceEquipmentOffline(ctx context.Context, id uuid.UUID, cutoff time.Time) (bool, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return false, err
	}

	result := gormDB.WithContext(ctx).Model(&models.Equipment{}).
		Where("id = ? AND status <> ? AND (last_heartbeat_at IS NULL OR last_heartbeat_at < ?)",
			id, models.StatusOffline, cutoff).
		Updates(map[string]interface{}{
			"status":         models.StatusOffline,
			"sensor1_active": false,
			"sensor2_active": false,
			"sensor3_active": false,
			"power_present":  false,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CreateStatusLog appends an equipment history entry
func (r *repo) CreateStatusLog(ctx context.Context, entry *models.EquipmentStatusLog) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Create(entry).Error
}

// ListStatusLogs returns the history of a device, newest first
func (r *repo) ListStatusLogs(ctx context.Context, deviceUID string, limit int) ([]models.EquipmentStatusLog, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	query := gormDB.WithContext(ctx).
		Where("device_uid = ?", deviceUID).
		Order("recorded_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []models.EquipmentStatusLog
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// WithTransaction executes the given function within a database transaction.
// The function receives a repository bound to the transaction; returning an
// error rolls everything back.
func (r *repo) WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &repo{db: &dbWrapper{db: tx}}
		return fn(ctx, txRepo)
	})
}

// dbWrapper adapts a transaction handle to the database.DB interface
type dbWrapper struct {
	db *gorm.DB
}

// DB returns the wrapped gorm handle
func (w *dbWrapper) DB() (*gorm.DB, error) {
	return w.db, nil
}

// Close is a no-op; the transaction owner manages the connection
func (w *dbWrapper) Close() error {
	return nil
}
