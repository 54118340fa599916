package models

import (
	"time"

	"github.com/google/uuid"
)

// Base holds the columns shared by all persisted entities
type Base struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// SensorClass identifies the telemetry lane a reading belongs to
type SensorClass string

const (
	// ClassWater represents tank level telemetry
	ClassWater SensorClass = "water"
	// ClassSoil represents soil moisture telemetry
	ClassSoil SensorClass = "soil"
	// ClassEnvironment represents ambient temperature/humidity telemetry
	ClassEnvironment SensorClass = "environment"
)

// Reading is a single immutable telemetry fact reported by a field gateway.
// RecordedAt is assigned by the server, never taken from the device. The
// per-class value columns are nullable; only the columns belonging to the
// reading's class are ever set.
type Reading struct {
	Base
	DeviceUID  string      `json:"device_uid" gorm:"column:device_uid;not null;index:idx_readings_device_recorded"`
	Class      SensorClass `json:"class" gorm:"column:class;not null;index:idx_readings_device_class"`
	RecordedAt time.Time   `json:"recorded_at" gorm:"column:recorded_at;not null;index:idx_readings_device_recorded"`

	// Water lane
	DistanceCM   *float64 `json:"distance_cm,omitempty" gorm:"column:distance_cm"`
	WaterLevelCM *float64 `json:"water_level_cm,omitempty" gorm:"column:water_level_cm"`
	FillPercent  *float64 `json:"fill_percent,omitempty" gorm:"column:fill_percent"`
	VolumeLiters *float64 `json:"volume_liters,omitempty" gorm:"column:volume_liters"`

	// Soil lane
	MoisturePct *float64 `json:"moisture_pct,omitempty" gorm:"column:moisture_pct"`

	// Environment lane
	TemperatureC *float64 `json:"temperature_c,omitempty" gorm:"column:temperature_c"`
	HumidityPct  *float64 `json:"humidity_pct,omitempty" gorm:"column:humidity_pct"`
}

// TankConfig describes one water tank: its geometry, the refill policy and
// the sensor currently wired to it. At most one sensor may be assigned.
type TankConfig struct {
	Base
	TankID              string     `json:"tank_id" gorm:"column:tank_id;not null;uniqueIndex"`
	Name                string     `json:"name" gorm:"column:name"`
	HeightCM            float64    `json:"height_cm" gorm:"column:height_cm"`
	RadiusCM            float64    `json:"radius_cm" gorm:"column:radius_cm"`
	MinFillPercent      float64    `json:"min_fill_percent" gorm:"column:min_fill_percent"`
	AutoRefillEnabled   bool       `json:"auto_refill_enabled" gorm:"column:auto_refill_enabled"`
	PumpCooldownMinutes int        `json:"pump_cooldown_minutes" gorm:"column:pump_cooldown_minutes"`
	LastPumpRunAt       *time.Time `json:"last_pump_run_at" gorm:"column:last_pump_run_at"`
	SensorUID           *string    `json:"sensor_uid" gorm:"column:sensor_uid;index"`
	SensorAssignedAt    *time.Time `json:"sensor_assigned_at" gorm:"column:sensor_assigned_at"`
}

// ZoneConfig describes one irrigation zone: the crop growing in it, the
// static moisture band used when no crop profile matches, the irrigation
// policy and the sensor currently wired to it.
type ZoneConfig struct {
	Base
	ZoneID            string     `json:"zone_id" gorm:"column:zone_id;not null;uniqueIndex"`
	Name              string     `json:"name" gorm:"column:name"`
	CropType          string     `json:"crop_type" gorm:"column:crop_type"`
	PlantingDate      *time.Time `json:"planting_date" gorm:"column:planting_date"`
	MoistureMinPct    float64    `json:"moisture_min_pct" gorm:"column:moisture_min_pct"`
	MoistureMaxPct    float64    `json:"moisture_max_pct" gorm:"column:moisture_max_pct"`
	IrrigationEnabled bool       `json:"irrigation_enabled" gorm:"column:irrigation_enabled"`
	IrrigationMinutes int        `json:"irrigation_minutes" gorm:"column:irrigation_minutes"`
	CooldownMinutes   int        `json:"cooldown_minutes" gorm:"column:cooldown_minutes"`
	LastIrrigationAt  *time.Time `json:"last_irrigation_at" gorm:"column:last_irrigation_at"`
	SensorUID         *string    `json:"sensor_uid" gorm:"column:sensor_uid;index"`
	SensorAssignedAt  *time.Time `json:"sensor_assigned_at" gorm:"column:sensor_assigned_at"`
}

// CropProfile is versioned reference data: the growth stages of one crop
// type. Stage day ranges are contiguous and non-overlapping, covering day 1
// through DurationDays.
type CropProfile struct {
	Base
	CropType     string      `json:"crop_type" gorm:"column:crop_type;not null;uniqueIndex"`
	DurationDays int         `json:"duration_days" gorm:"column:duration_days"`
	Stages       []CropStage `json:"stages" gorm:"foreignKey:ProfileID"`
}

// CropStage is one day-range segment of a crop's lifecycle with its own
// moisture target band. StartDay and EndDay are inclusive, relative to the
// planting date (day 1 = planting day).
type CropStage struct {
	Base
	ProfileID      uuid.UUID `json:"profile_id" gorm:"column:profile_id;type:uuid;not null;index"`
	Position       int       `json:"position" gorm:"column:position"`
	Name           string    `json:"name" gorm:"column:name"`
	StartDay       int       `json:"start_day" gorm:"column:start_day"`
	EndDay         int       `json:"end_day" gorm:"column:end_day"`
	MoistureMinPct float64   `json:"moisture_min_pct" gorm:"column:moisture_min_pct"`
	MoistureMaxPct float64   `json:"moisture_max_pct" gorm:"column:moisture_max_pct"`
}

// CommandAction defines what the actuator should do
type CommandAction string

const (
	// ActionStart switches the target on
	ActionStart CommandAction = "start"
	// ActionStop switches the target off
	ActionStop CommandAction = "stop"
)

// CommandTarget defines which actuator a command addresses
type CommandTarget string

const (
	// TargetWaterPump addresses the tank refill pump
	TargetWaterPump CommandTarget = "water_pump"
	// TargetIrrigation addresses the zone irrigation valve
	TargetIrrigation CommandTarget = "irrigation"
)

// ActionFromString converts a string to a CommandAction; the second return
// reports whether the input named a known action
func ActionFromString(action string) (CommandAction, bool) {
	switch action {
	case "start":
		return ActionStart, true
	case "stop":
		return ActionStop, true
	default:
		return "", false
	}
}

// TargetFromString converts a string to a CommandTarget. "pump" is accepted
// as a historical alias for "water_pump"; older gateway firmware still sends
// it.
func TargetFromString(target string) (CommandTarget, bool) {
	switch target {
	case "water_pump", "pump":
		return TargetWaterPump, true
	case "irrigation":
		return TargetIrrigation, true
	default:
		return "", false
	}
}

// CommandStatus defines the lifecycle state of a queued command
type CommandStatus string

const (
	// CommandQueued means the command is waiting for the next gateway poll
	CommandQueued CommandStatus = "queued"
	// CommandDequeued means the command was handed to a gateway
	CommandDequeued CommandStatus = "dequeued"
	// CommandExecuted means the gateway acknowledged successful execution
	CommandExecuted CommandStatus = "executed"
	// CommandFailed is unused in the normal flow; failed acknowledgements
	// revert the command to queued so the next poll retries it
	CommandFailed CommandStatus = "failed"
)

// PendingCommand is one actuator instruction waiting in the per-device FIFO.
// Commands older than the retention window are expired and never handed out.
type PendingCommand struct {
	Base
	DeviceUID  string        `json:"device_uid" gorm:"column:device_uid;not null;index:idx_commands_device_status"`
	Action     CommandAction `json:"action" gorm:"column:action;not null"`
	Target     CommandTarget `json:"target" gorm:"column:target;not null"`
	Trigger    string        `json:"trigger" gorm:"column:trigger"`
	Status     CommandStatus `json:"status" gorm:"column:status;not null;index:idx_commands_device_status"`
	DequeuedAt *time.Time    `json:"dequeued_at" gorm:"column:dequeued_at"`
	ExecutedAt *time.Time    `json:"executed_at" gorm:"column:executed_at"`
	Attempts   int           `json:"attempts" gorm:"column:attempts"`
}

// EquipmentStatus is the derived health of a piece of field equipment
type EquipmentStatus string

const (
	// StatusOperational means all three sub-sensors report active
	StatusOperational EquipmentStatus = "operational"
	// StatusWarning means two of three sub-sensors report active
	StatusWarning EquipmentStatus = "warning"
	// StatusCritical means one of three sub-sensors reports active
	StatusCritical EquipmentStatus = "critical"
	// StatusOffline means no sub-sensor reports active, or the heartbeat
	// went stale and the sweeper forced the device down
	StatusOffline EquipmentStatus = "offline"
)

// StatusFromSensorCount derives the equipment status from the number of
// active sub-sensors
func StatusFromSensorCount(active int) EquipmentStatus {
	switch active {
	case 3:
		return StatusOperational
	case 2:
		return StatusWarning
	case 1:
		return StatusCritical
	default:
		return StatusOffline
	}
}

// Equipment is a field machine with three boolean sub-sensor flags, a power
// flag and a liveness heartbeat. Status is a pure function of the active
// sensor count except when the sweeper forces offline, which always wins.
type Equipment struct {
	Base
	DeviceUID       string          `json:"device_uid" gorm:"column:device_uid;not null;uniqueIndex"`
	Name            string          `json:"name" gorm:"column:name"`
	Sensor1Active   bool            `json:"sensor1_active" gorm:"column:sensor1_active"`
	Sensor2Active   bool            `json:"sensor2_active" gorm:"column:sensor2_active"`
	Sensor3Active   bool            `json:"sensor3_active" gorm:"column:sensor3_active"`
	PowerPresent    bool            `json:"power_present" gorm:"column:power_present"`
	Status          EquipmentStatus `json:"status" gorm:"column:status;not null"`
	LastHeartbeatAt *time.Time      `json:"last_heartbeat_at" gorm:"column:last_heartbeat_at"`
}

// ActiveSensorCount returns how many of the three sub-sensor flags are set
func (e *Equipment) ActiveSensorCount() int {
	count := 0
	for _, active := range []bool{e.Sensor1Active, e.Sensor2Active, e.Sensor3Active} {
		if active {
			count++
		}
	}
	return count
}

// StatusLogSource records what wrote a history entry
type StatusLogSource string

const (
	// SourceReport means the equipment reported its own state
	SourceReport StatusLogSource = "report"
	// SourceSweep means the heartbeat sweeper forced the state
	SourceSweep StatusLogSource = "sweep"
)

// EquipmentStatusLog is an append-only snapshot of an Equipment entity,
// written on every equipment report and on every sweeper transition
type EquipmentStatusLog struct {
	Base
	DeviceUID     string          `json:"device_uid" gorm:"column:device_uid;not null;index:idx_status_log_device_recorded"`
	Status        EquipmentStatus `json:"status" gorm:"column:status;not null"`
	Sensor1Active bool            `json:"sensor1_active" gorm:"column:sensor1_active"`
	Sensor2Active bool            `json:"sensor2_active" gorm:"column:sensor2_active"`
	Sensor3Active bool            `json:"sensor3_active" gorm:"column:sensor3_active"`
	PowerPresent  bool            `json:"power_present" gorm:"column:power_present"`
	Source        StatusLogSource `json:"source" gorm:"column:source;not null"`
	RecordedAt    time.Time       `json:"recorded_at" gorm:"column:recorded_at;not null;index:idx_status_log_device_recorded"`
}
