package agronomy

import "time"

// ShouldActuate decides whether an actuator (irrigation valve or refill
// pump) should be triggered. Rules apply in order:
//
//  1. a disabled zone/tank never triggers;
//  2. the metric must be strictly below the band minimum; a metric exactly
//     at the minimum does not trigger, and the band maximum never triggers
//     anything (no "too full" automation, upper bound is display only);
//  3. a trigger inside the cooldown window is suppressed to prevent
//     short-cycling the actuator.
//
// The caller owns stamping the new actuation timestamp, transactionally with
// the write that records the triggering reading.
func ShouldActuate(currentMetric float64, band Band, enabled bool, lastActuationAt *time.Time, cooldown time.Duration, now time.Time) bool {
	if !enabled {
		return false
	}
	if currentMetric >= band.Min {
		return false
	}
	if lastActuationAt != nil && now.Sub(*lastActuationAt) < cooldown {
		return false
	}
	return true
}
