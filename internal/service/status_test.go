package service

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/farm/internal/models"
	"example.com/backstage/services/farm/internal/repository"
)

func TestDeviceStatusAssemblesSnapshot(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	svc := newTestService(t, mockRepo, mockQueue, nil)

	level := 120.0
	waterReading := &models.Reading{
		DeviceUID:    "GW-0042",
		Class:        models.ClassWater,
		WaterLevelCM: &level,
		RecordedAt:   time.Now().UTC(),
	}
	equipment := &models.Equipment{
		DeviceUID: "GW-0042",
		Status:    models.StatusOperational,
	}

	// Setup expectations: only the water class has readings
	mockRepo.On("LatestReadingByClass", mock.Anything, "GW-0042", models.ClassWater).Return(waterReading, nil)
	mockRepo.On("LatestReadingByClass", mock.Anything, "GW-0042", models.ClassSoil).Return(nil, repository.ErrNotFound)
	mockRepo.On("LatestReadingByClass", mock.Anything, "GW-0042", models.ClassEnvironment).Return(nil, repository.ErrNotFound)
	mockRepo.On("GetEquipmentByUID", mock.Anything, "GW-0042").Return(equipment, nil)
	mockQueue.On("HasPending", mock.Anything, "GW-0042").Return(true, nil)

	snapshot, err := svc.DeviceStatus(context.Background(), "GW-0042")

	require.NoError(t, err)
	require.Equal(t, "GW-0042", snapshot.DeviceUID)
	require.NotNil(t, snapshot.Water)
	require.Equal(t, 120.0, *snapshot.Water.WaterLevelCM)
	require.Nil(t, snapshot.Soil)
	require.Nil(t, snapshot.Environment)
	require.NotNil(t, snapshot.Equipment)
	require.Equal(t, models.StatusOperational, snapshot.Equipment.Status)
	require.True(t, snapshot.HasPendingCommand)
	require.False(t, snapshot.GeneratedAt.IsZero())

	mockRepo.AssertExpectations(t)
	mockQueue.AssertExpectations(t)
}

func TestDeviceStatusUnknownDeviceYieldsEmptySnapshot(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	svc := newTestService(t, mockRepo, mockQueue, nil)

	// Setup expectations: nothing is known about this device anywhere
	mockRepo.On("LatestReadingByClass", mock.Anything, "GW-9999", mock.Anything).Return(nil, repository.ErrNotFound)
	mockRepo.On("GetEquipmentByUID", mock.Anything, "GW-9999").Return(nil, repository.ErrNotFound)
	mockQueue.On("HasPending", mock.Anything, "GW-9999").Return(false, nil)

	snapshot, err := svc.DeviceStatus(context.Background(), "GW-9999")

	require.NoError(t, err)
	require.Equal(t, "GW-9999", snapshot.DeviceUID)
	require.Nil(t, snapshot.Water)
	require.Nil(t, snapshot.Soil)
	require.Nil(t, snapshot.Environment)
	require.Nil(t, snapshot.Equipment)
	require.False(t, snapshot.HasPendingCommand)

	mockRepo.AssertExpectations(t)
}

func TestDeviceStatusPendingCheckFaultTolerated(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	svc := newTestService(t, mockRepo, mockQueue, nil)

	// Setup expectations: the queue is down, the snapshot still builds
	mockRepo.On("LatestReadingByClass", mock.Anything, "GW-0042", mock.Anything).Return(nil, repository.ErrNotFound)
	mockRepo.On("GetEquipmentByUID", mock.Anything, "GW-0042").Return(nil, repository.ErrNotFound)
	mockQueue.On("HasPending", mock.Anything, "GW-0042").Return(false, errors.New("command store unavailable"))

	snapshot, err := svc.DeviceStatus(context.Background(), "GW-0042")

	require.NoError(t, err)
	require.False(t, snapshot.HasPendingCommand)

	mockQueue.AssertExpectations(t)
}

func TestDeviceStatusStorageFaultPropagates(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	svc := newTestService(t, mockRepo, mockQueue, nil)

	// Setup expectations
	mockRepo.On("LatestReadingByClass", mock.Anything, "GW-0042", models.ClassWater).Return(nil, errors.New("connection reset"))

	snapshot, err := svc.DeviceStatus(context.Background(), "GW-0042")

	require.Error(t, err)
	require.Nil(t, snapshot)

	mockRepo.AssertExpectations(t)
}

func TestReadingSeriesAscendsAndSkipsEmptyValues(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	svc := newTestService(t, mockRepo, mockQueue, nil)

	now := time.Now().UTC()
	v1, v2 := 110.0, 95.0

	// Newest first, as the repository returns them; the middle row carries
	// no value for the requested metric
	rows := []models.Reading{
		{DeviceUID: "GW-0042", Class: models.ClassWater, WaterLevelCM: &v1, RecordedAt: now},
		{DeviceUID: "GW-0042", Class: models.ClassWater, RecordedAt: now.Add(-10 * time.Minute)},
		{DeviceUID: "GW-0042", Class: models.ClassWater, WaterLevelCM: &v2, RecordedAt: now.Add(-20 * time.Minute)},
	}

	// Setup expectations
	mockRepo.On("ListReadingSeries", mock.Anything, "GW-0042", models.MetricWaterLevel, mock.AnythingOfType("time.Time"), 500).Return(rows, nil)

	points, err := svc.ReadingSeries(context.Background(), "GW-0042", models.MetricWaterLevel, 0, 0)

	require.NoError(t, err)
	require.Len(t, points, 2)
	require.Equal(t, 95.0, points[0].Value)
	require.Equal(t, 110.0, points[1].Value)
	require.True(t, points[0].RecordedAt.Before(points[1].RecordedAt))

	mockRepo.AssertExpectations(t)
}

func TestReadingSeriesCapsLimit(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	svc := newTestService(t, mockRepo, mockQueue, nil)

	// Setup expectations: an oversized limit is capped at 1000
	mockRepo.On("ListReadingSeries", mock.Anything, "GW-0042", models.MetricSoilMoisture, mock.AnythingOfType("time.Time"), 1000).Return([]models.Reading{}, nil)

	points, err := svc.ReadingSeries(context.Background(), "GW-0042", models.MetricSoilMoisture, 48, 5000)

	require.NoError(t, err)
	require.Len(t, points, 0)

	mockRepo.AssertExpectations(t)
}
