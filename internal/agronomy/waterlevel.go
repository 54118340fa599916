// Package agronomy holds the pure domain computations of the farm service:
// derived tank metrics, crop growth-stage resolution and the actuation
// decision rule. Nothing in this package performs I/O; every function is a
// total function of its inputs so the ingestion path can call it without a
// failure mode.
package agronomy

import "math"

// WaterLevel converts an ultrasonic distance measurement into the water
// column height inside the tank. The distance is clamped to [0, height] so
// noisy sensors can never produce a negative or over-height level. When the
// tank height is unknown or non-positive the level is reported as 0 rather
// than failing; a reading must always be persistable even with incomplete
// tank configuration.
func WaterLevel(distanceCM, tankHeightCM float64) float64 {
	if tankHeightCM <= 0 {
		return 0
	}
	distance := distanceCM
	if distance < 0 {
		distance = 0
	}
	if distance > tankHeightCM {
		distance = tankHeightCM
	}
	return tankHeightCM - distance
}

// FillPercentage returns the rounded fill level of the tank, or nil when the
// tank height is unknown or non-positive.
func FillPercentage(waterLevelCM, tankHeightCM float64) *float64 {
	if tankHeightCM <= 0 {
		return nil
	}
	pct := math.Round(waterLevelCM / tankHeightCM * 100)
	return &pct
}

// EstimatedVolume returns the rounded water volume in liters for a
// cylindrical tank, or nil when the radius is unknown or non-positive.
func EstimatedVolume(waterLevelCM, radiusCM float64) *float64 {
	if radiusCM <= 0 {
		return nil
	}
	liters := math.Round(math.Pi * radiusCM * radiusCM * waterLevelCM / 1000)
	return &liters
}
