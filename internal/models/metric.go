package models

// MetricKind identifies one stored reading column exposed by the
// time-series endpoints. The set is closed; unknown keys are rejected
// at binding time.
type MetricKind string

const (
	MetricWaterLevel   MetricKind = "water_level"
	MetricFillPercent  MetricKind = "fill_percent"
	MetricDistance     MetricKind = "distance"
	MetricVolume       MetricKind = "volume"
	MetricSoilMoisture MetricKind = "soil_moisture"
	MetricTemperature  MetricKind = "temperature"
	MetricHumidity     MetricKind = "humidity"
)

// MetricFromString converts a string to a MetricKind; the second return
// reports whether the input named a known metric
func MetricFromString(metric string) (MetricKind, bool) {
	switch MetricKind(metric) {
	case MetricWaterLevel, MetricFillPercent, MetricDistance, MetricVolume,
		MetricSoilMoisture, MetricTemperature, MetricHumidity:
		return MetricKind(metric), true
	default:
		return "", false
	}
}

// Value extracts the metric's column from a reading, returning nil when
// the reading does not carry that lane.
func (m MetricKind) Value(r *Reading) *float64 {
	switch m {
	case MetricWaterLevel:
		return r.WaterLevelCM
	case MetricFillPercent:
		return r.FillPercent
	case MetricDistance:
		return r.DistanceCM
	case MetricVolume:
		return r.VolumeLiters
	case MetricSoilMoisture:
		return r.MoisturePct
	case MetricTemperature:
		return r.TemperatureC
	case MetricHumidity:
		return r.HumidityPct
	default:
		return nil
	}
}
