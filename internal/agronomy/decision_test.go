package agronomy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShouldActuateBelowBand(t *testing.T) {
	now := time.Now()
	band := Band{Min: 50, Max: 70}

	require.True(t, ShouldActuate(35, band, true, nil, 30*time.Minute, now))
}

func TestShouldActuateDisabledWinsOverEverything(t *testing.T) {
	now := time.Now()
	band := Band{Min: 50, Max: 70}

	// Bone dry and long out of cooldown, but irrigation is switched off
	old := now.Add(-24 * time.Hour)
	require.False(t, ShouldActuate(5, band, false, &old, 30*time.Minute, now))
	require.False(t, ShouldActuate(5, band, false, nil, 0, now))
}

func TestShouldActuateBoundaryExclusion(t *testing.T) {
	now := time.Now()
	band := Band{Min: 50, Max: 70}

	// Exactly at the minimum does not trigger
	require.False(t, ShouldActuate(50, band, true, nil, 30*time.Minute, now))
	// Just below does
	require.True(t, ShouldActuate(49.99, band, true, nil, 30*time.Minute, now))
	// Above never does
	require.False(t, ShouldActuate(65, band, true, nil, 30*time.Minute, now))
}

func TestShouldActuateCooldownGate(t *testing.T) {
	now := time.Now()
	band := Band{Min: 50, Max: 70}
	cooldown := 30 * time.Minute

	// Actuated 10 minutes ago: still cooling down
	recent := now.Add(-10 * time.Minute)
	require.False(t, ShouldActuate(35, band, true, &recent, cooldown, now))

	// Actuated 31 minutes ago: window elapsed
	stale := now.Add(-31 * time.Minute)
	require.True(t, ShouldActuate(35, band, true, &stale, cooldown, now))

	// Never actuated: no gate
	require.True(t, ShouldActuate(35, band, true, nil, cooldown, now))
}
