package agronomy

import (
	"testing"
	"time"

	"example.com/backstage/services/farm/internal/models"

	"github.com/stretchr/testify/require"
)

func twoStageProfile() *models.CropProfile {
	return &models.CropProfile{
		CropType:     "tomato",
		DurationDays: 49,
		Stages: []models.CropStage{
			{Position: 1, Name: "establishment", StartDay: 1, EndDay: 14, MoistureMinPct: 60, MoistureMaxPct: 80},
			{Position: 2, Name: "vegetative", StartDay: 15, EndDay: 49, MoistureMinPct: 50, MoistureMaxPct: 70},
		},
	}
}

func TestResolveStageSelectsContainingRange(t *testing.T) {
	profile := twoStageProfile()
	now := time.Now().UTC()

	// Planted 10 days ago: day 10 falls in the establishment stage
	info := ResolveStage(profile, now.AddDate(0, 0, -10), now)
	require.NotNil(t, info)
	require.Equal(t, "establishment", info.Stage.Name)
	require.Equal(t, 10, info.DayInCrop)
	require.Equal(t, 10, info.DayInStage)
	require.False(t, info.PastMaturity)
	require.Equal(t, Band{Min: 60, Max: 80}, info.TargetBand())

	// Day 20 falls in the vegetative stage
	info = ResolveStage(profile, now.AddDate(0, 0, -20), now)
	require.NotNil(t, info)
	require.Equal(t, "vegetative", info.Stage.Name)
	require.Equal(t, 20, info.DayInCrop)
	require.Equal(t, 6, info.DayInStage)
	require.Equal(t, 41, info.ProgressPercent)
}

func TestResolveStagePastMaturityClampsToFinalStage(t *testing.T) {
	profile := twoStageProfile()
	now := time.Now().UTC()

	// Planted 60 days ago on a 49 day crop: the crop is past maturity
	info := ResolveStage(profile, now.AddDate(0, 0, -60), now)
	require.NotNil(t, info)
	require.Equal(t, "vegetative", info.Stage.Name)
	require.Equal(t, 100, info.ProgressPercent)
	require.Equal(t, 35, info.DayInStage)
	require.True(t, info.PastMaturity)
}

func TestResolveStageClampsEarlyPlantingToDayOne(t *testing.T) {
	profile := twoStageProfile()
	now := time.Now().UTC()

	// Planted today, or with a planting date in the future, reads as day 1
	info := ResolveStage(profile, now, now)
	require.NotNil(t, info)
	require.Equal(t, 1, info.DayInCrop)
	require.Equal(t, 1, info.DayInStage)

	info = ResolveStage(profile, now.AddDate(0, 0, 5), now)
	require.NotNil(t, info)
	require.Equal(t, 1, info.DayInCrop)
}

func TestResolveStageDayInStageNeverBelowOne(t *testing.T) {
	profile := twoStageProfile()
	now := time.Now().UTC()

	for days := 0; days <= 80; days += 5 {
		info := ResolveStage(profile, now.AddDate(0, 0, -days), now)
		require.NotNil(t, info)
		require.GreaterOrEqual(t, info.DayInStage, 1)
		if !info.PastMaturity {
			require.GreaterOrEqual(t, info.DayInCrop, info.Stage.StartDay)
			require.LessOrEqual(t, info.DayInCrop, info.Stage.EndDay)
		}
	}
}

func TestResolveStageWithoutProfile(t *testing.T) {
	now := time.Now().UTC()

	require.Nil(t, ResolveStage(nil, now.AddDate(0, 0, -10), now))
	require.Nil(t, ResolveStage(&models.CropProfile{CropType: "bare"}, now.AddDate(0, 0, -10), now))
}
