package agronomy

import (
	"math"
	"time"

	"example.com/backstage/services/farm/internal/models"
)

// Band is a moisture target band. Only the lower bound drives actuation;
// the upper bound is informational for dashboards.
type Band struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// StageInfo describes where a crop is in its lifecycle right now.
type StageInfo struct {
	Stage           models.CropStage `json:"stage"`
	DayInCrop       int              `json:"day_in_crop"`
	DayInStage      int              `json:"day_in_stage"`
	ProgressPercent int              `json:"progress_percent"`
	PastMaturity    bool             `json:"past_maturity"`
}

// TargetBand returns the moisture band of the resolved stage.
func (s *StageInfo) TargetBand() Band {
	return Band{Min: s.Stage.MoistureMinPct, Max: s.Stage.MoistureMaxPct}
}

// ResolveStage computes the active growth stage for a crop planted on
// plantingDate, as of now. Day 1 is the planting day. The first stage whose
// inclusive [StartDay, EndDay] range contains the current crop day wins.
// When the crop day exceeds the profile duration the last stage is returned
// with ProgressPercent 100 and the crop day clamped to the duration; growing
// past maturity is normal operation, not an error.
//
// A nil profile or a profile without stages returns nil; the caller falls
// back to the zone's static moisture band.
func ResolveStage(profile *models.CropProfile, plantingDate, now time.Time) *StageInfo {
	if profile == nil || len(profile.Stages) == 0 {
		return nil
	}

	dayInCrop := int(math.Floor(now.Sub(plantingDate).Hours() / 24))
	if dayInCrop < 1 {
		dayInCrop = 1
	}

	last := profile.Stages[len(profile.Stages)-1]
	duration := profile.DurationDays
	if duration <= 0 {
		duration = last.EndDay
	}

	for _, stage := range profile.Stages {
		if dayInCrop >= stage.StartDay && dayInCrop <= stage.EndDay {
			return &StageInfo{
				Stage:           stage,
				DayInCrop:       dayInCrop,
				DayInStage:      clampDay(dayInCrop - stage.StartDay + 1),
				ProgressPercent: progressPercent(dayInCrop, duration),
				PastMaturity:    false,
			}
		}
	}

	// Past maturity: clamp to the duration and report the final stage.
	clamped := dayInCrop
	if clamped > duration {
		clamped = duration
	}
	return &StageInfo{
		Stage:           last,
		DayInCrop:       dayInCrop,
		DayInStage:      clampDay(clamped - last.StartDay + 1),
		ProgressPercent: 100,
		PastMaturity:    true,
	}
}

func clampDay(day int) int {
	if day < 1 {
		return 1
	}
	return day
}

func progressPercent(dayInCrop, duration int) int {
	if duration <= 0 {
		return 100
	}
	pct := int(math.Round(float64(dayInCrop) / float64(duration) * 100))
	if pct > 100 {
		pct = 100
	}
	return pct
}
