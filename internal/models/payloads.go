package models

// IngestPayload is the composite reading a field gateway submits. Every
// class block is optional; only blocks marked valid are processed, and each
// block is processed independently of its siblings.
type IngestPayload struct {
	DeviceID    string              `json:"device_id" binding:"required"`
	Water       *WaterPayload       `json:"water"`
	Soil        *SoilPayload        `json:"soil"`
	Environment *EnvironmentPayload `json:"environment"`
}

// HasValidClass reports whether at least one class block is marked valid
func (p *IngestPayload) HasValidClass() bool {
	return (p.Water != nil && p.Water.Valid) ||
		(p.Soil != nil && p.Soil.Valid) ||
		(p.Environment != nil && p.Environment.Valid)
}

// WaterPayload carries tank telemetry. Value is the ultrasonic distance from
// the sensor down to the water surface in cm; Level is the direct water
// column height older firmware reports instead.
type WaterPayload struct {
	Value *float64 `json:"value"`
	Level *float64 `json:"level"`
	Valid bool     `json:"valid"`
}

// SoilPayload carries volumetric soil moisture in percent
type SoilPayload struct {
	Value *float64 `json:"value"`
	Valid bool     `json:"valid"`
}

// EnvironmentPayload carries ambient temperature and humidity
type EnvironmentPayload struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Valid       bool     `json:"valid"`
}

// CommandRequest is an operator-issued actuator instruction
type CommandRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
	Action   string `json:"action" binding:"required"`
	Target   string `json:"target" binding:"required"`
	Trigger  string `json:"trigger"`
}

// CommandAck reports the outcome of an executed command
type CommandAck struct {
	DeviceID string `json:"device_id" binding:"required"`
	Action   string `json:"action" binding:"required"`
	Target   string `json:"target" binding:"required"`
	Success  *bool  `json:"success" binding:"required"`
}

// EquipmentReport is the periodic self-report of a piece of field equipment
type EquipmentReport struct {
	DeviceID      string `json:"device_id" binding:"required"`
	Name          string `json:"name"`
	Sensor1Active bool   `json:"sensor1"`
	Sensor2Active bool   `json:"sensor2"`
	Sensor3Active bool   `json:"sensor3"`
	PowerPresent  bool   `json:"power"`
}

// TankInput creates or replaces a tank configuration, keyed by TankID
type TankInput struct {
	TankID              string  `json:"tank_id" binding:"required"`
	Name                string  `json:"name"`
	HeightCM            float64 `json:"height_cm" binding:"gte=0"`
	RadiusCM            float64 `json:"radius_cm" binding:"gte=0"`
	MinFillPercent      float64 `json:"min_fill_percent" binding:"gte=0,lte=100"`
	AutoRefillEnabled   bool    `json:"auto_refill_enabled"`
	PumpCooldownMinutes int     `json:"pump_cooldown_minutes" binding:"gte=0"`
}

// ZoneInput creates or replaces a zone configuration, keyed by ZoneID
type ZoneInput struct {
	ZoneID            string  `json:"zone_id" binding:"required"`
	Name              string  `json:"name"`
	CropType          string  `json:"crop_type"`
	PlantingDate      string  `json:"planting_date"`
	MoistureMinPct    float64 `json:"moisture_min_pct" binding:"gte=0,lte=100"`
	MoistureMaxPct    float64 `json:"moisture_max_pct" binding:"gte=0,lte=100"`
	IrrigationEnabled bool    `json:"irrigation_enabled"`
	IrrigationMinutes int     `json:"irrigation_minutes" binding:"gte=0"`
	CooldownMinutes   int     `json:"cooldown_minutes" binding:"gte=0"`
}

// SensorAssignment wires a sensor to a tank or zone
type SensorAssignment struct {
	SensorUID string `json:"sensor_uid" binding:"required"`
}

// IrrigationPolicyInput updates the irrigation policy of a zone
type IrrigationPolicyInput struct {
	Enabled           *bool    `json:"enabled" binding:"required"`
	MoistureMinPct    *float64 `json:"moisture_min" binding:"omitempty,gte=0,lte=100"`
	MoistureMaxPct    *float64 `json:"moisture_max" binding:"omitempty,gte=0,lte=100"`
	IrrigationMinutes *int     `json:"irrigation_minutes" binding:"omitempty,gte=0"`
	CooldownMinutes   *int     `json:"cooldown_minutes" binding:"omitempty,gte=0"`
}
