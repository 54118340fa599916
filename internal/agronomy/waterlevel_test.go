package agronomy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWaterLevelFromDistance(t *testing.T) {
	// 300cm tank, sensor reads 280cm of air above the surface
	require.Equal(t, 20.0, WaterLevel(280, 300))

	// Sensor flush with the surface means a full tank
	require.Equal(t, 300.0, WaterLevel(0, 300))
}

func TestWaterLevelClampsNoisyDistance(t *testing.T) {
	// A distance beyond the tank height clamps to empty, never negative
	require.Equal(t, 0.0, WaterLevel(450, 300))
	require.Equal(t, 0.0, WaterLevel(300.0001, 300))

	// A negative distance clamps to full
	require.Equal(t, 300.0, WaterLevel(-15, 300))
}

func TestWaterLevelWithoutTankHeight(t *testing.T) {
	// Unknown geometry degrades to level 0 so the reading still persists
	require.Equal(t, 0.0, WaterLevel(120, 0))
	require.Equal(t, 0.0, WaterLevel(120, -1))
}

func TestFillPercentage(t *testing.T) {
	pct := FillPercentage(20, 300)
	require.NotNil(t, pct)
	require.Equal(t, 7.0, *pct)

	pct = FillPercentage(300, 300)
	require.NotNil(t, pct)
	require.Equal(t, 100.0, *pct)

	// No height, no percentage
	require.Nil(t, FillPercentage(20, 0))
	require.Nil(t, FillPercentage(20, -3))
}

func TestEstimatedVolume(t *testing.T) {
	// r=50cm, level=100cm: pi * 2500 * 100 / 1000 ~= 785 liters
	liters := EstimatedVolume(100, 50)
	require.NotNil(t, liters)
	require.Equal(t, 785.0, *liters)

	require.Nil(t, EstimatedVolume(100, 0))
}
