package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/farm/internal/models"
	"example.com/backstage/services/farm/internal/repository"
)

func boolPtr(v bool) *bool { return &v }

func TestUpsertTankCreatesNewConfig(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	svc := newTestService(t, mockRepo, mockQueue, nil)

	var created *models.TankConfig

	// Setup expectations
	mockRepo.On("GetTankByTankID", mock.Anything, "tank-north").Return(nil, repository.ErrNotFound)
	mockRepo.On("CreateTankConfig", mock.Anything, mock.AnythingOfType("*models.TankConfig")).Run(func(args mock.Arguments) {
		created = args.Get(1).(*models.TankConfig)
	}).Return(nil)

	input := &models.TankInput{
		TankID:              "tank-north",
		Name:                "North tank",
		HeightCM:            300,
		RadiusCM:            50,
		MinFillPercent:      30,
		AutoRefillEnabled:   true,
		PumpCooldownMinutes: 15,
	}
	tank, err := svc.UpsertTank(context.Background(), input)

	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, tank.ID)
	require.Equal(t, created, tank)
	require.Equal(t, "tank-north", tank.TankID)
	require.Equal(t, 300.0, tank.HeightCM)
	require.True(t, tank.AutoRefillEnabled)

	mockRepo.AssertExpectations(t)
}

func TestUpsertTankUpdatePreservesSensorAssignment(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	svc := newTestService(t, mockRepo, mockQueue, nil)

	sensorUID := "GW-0042"
	lastRun := time.Now().UTC().Add(-time.Hour)
	existing := &models.TankConfig{
		Base:           models.Base{ID: uuid.New()},
		TankID:         "tank-north",
		Name:           "Old name",
		HeightCM:       250,
		SensorUID:      &sensorUID,
		LastPumpRunAt:  &lastRun,
		MinFillPercent: 20,
	}

	// Setup expectations
	mockRepo.On("GetTankByTankID", mock.Anything, "tank-north").Return(existing, nil)
	mockRepo.On("UpdateTankConfig", mock.Anything, existing).Return(nil)

	input := &models.TankInput{
		TankID:         "tank-north",
		Name:           "North tank",
		HeightCM:       300,
		MinFillPercent: 35,
	}
	tank, err := svc.UpsertTank(context.Background(), input)

	require.NoError(t, err)
	require.Equal(t, existing.ID, tank.ID)
	require.Equal(t, "North tank", tank.Name)
	require.Equal(t, 300.0, tank.HeightCM)
	require.Equal(t, 35.0, tank.MinFillPercent)
	require.Equal(t, &sensorUID, tank.SensorUID)
	require.Equal(t, &lastRun, tank.LastPumpRunAt)

	mockRepo.AssertExpectations(t)
}

func TestAssignTankSensorConflictingHolder(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	svc := newTestService(t, mockRepo, mockQueue, nil)

	holder := &models.TankConfig{TankID: "tank-south"}

	// Setup expectations: the sensor already serves another tank
	mockRepo.On("FindTankBySensorUID", mock.Anything, "GW-0042").Return(holder, nil)

	tank, err := svc.AssignTankSensor(context.Background(), "tank-north", "GW-0042")

	require.Error(t, err)
	require.Nil(t, tank)
	require.Equal(t, repository.ErrConflict, errors.Cause(err))

	mockRepo.AssertNotCalled(t, "AssignTankSensor", mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestAssignTankSensorReassignSameSensor(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	svc := newTestService(t, mockRepo, mockQueue, nil)

	sensorUID := "GW-0042"
	holder := &models.TankConfig{TankID: "tank-north", SensorUID: &sensorUID}

	// Setup expectations: the tank already holds this sensor, assignment
	// passes through as a no-op
	mockRepo.On("FindTankBySensorUID", mock.Anything, "GW-0042").Return(holder, nil)
	mockRepo.On("AssignTankSensor", mock.Anything, "tank-north", "GW-0042").Return(holder, nil)

	tank, err := svc.AssignTankSensor(context.Background(), "tank-north", "GW-0042")

	require.NoError(t, err)
	require.Equal(t, "tank-north", tank.TankID)

	mockRepo.AssertExpectations(t)
}

func TestUpsertZoneParsesPlantingDate(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	svc := newTestService(t, mockRepo, mockQueue, nil)

	var created *models.ZoneConfig

	// Setup expectations
	mockRepo.On("GetZoneByZoneID", mock.Anything, "zone-a").Return(nil, repository.ErrNotFound)
	mockRepo.On("CreateZoneConfig", mock.Anything, mock.AnythingOfType("*models.ZoneConfig")).Run(func(args mock.Arguments) {
		created = args.Get(1).(*models.ZoneConfig)
	}).Return(nil)

	input := &models.ZoneInput{
		ZoneID:         "zone-a",
		Name:           "Zone A",
		CropType:       "tomato",
		PlantingDate:   "2026-03-01",
		MoistureMinPct: 20,
		MoistureMaxPct: 40,
	}
	zone, err := svc.UpsertZone(context.Background(), input)

	require.NoError(t, err)
	require.NotNil(t, created.PlantingDate)
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *zone.PlantingDate)
	require.Equal(t, "tomato", zone.CropType)

	mockRepo.AssertExpectations(t)
}

func TestUpsertZoneRejectsMalformedPlantingDate(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	svc := newTestService(t, mockRepo, mockQueue, nil)

	input := &models.ZoneInput{
		ZoneID:       "zone-a",
		PlantingDate: "03/01/2026",
	}
	zone, err := svc.UpsertZone(context.Background(), input)

	require.Error(t, err)
	require.Nil(t, zone)
	require.Equal(t, ErrValidation, errors.Cause(err))

	mockRepo.AssertNotCalled(t, "GetZoneByZoneID", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "CreateZoneConfig", mock.Anything, mock.Anything)
}

func TestUpdateZoneIrrigationPartialUpdate(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	svc := newTestService(t, mockRepo, mockQueue, nil)

	zone := &models.ZoneConfig{
		Base:              models.Base{ID: uuid.New()},
		ZoneID:            "zone-a",
		MoistureMinPct:    20,
		MoistureMaxPct:    40,
		IrrigationEnabled: true,
		IrrigationMinutes: 10,
		CooldownMinutes:   30,
	}

	// Setup expectations
	mockRepo.On("GetZoneByZoneID", mock.Anything, "zone-a").Return(zone, nil)
	mockRepo.On("UpdateZoneConfig", mock.Anything, zone).Return(nil)

	min := 35.0
	input := &models.IrrigationPolicyInput{
		Enabled:        boolPtr(false),
		MoistureMinPct: &min,
	}
	updated, err := svc.UpdateZoneIrrigation(context.Background(), "zone-a", input)

	require.NoError(t, err)
	require.False(t, updated.IrrigationEnabled)
	require.Equal(t, 35.0, updated.MoistureMinPct)
	// Untouched fields keep their values
	require.Equal(t, 40.0, updated.MoistureMaxPct)
	require.Equal(t, 10, updated.IrrigationMinutes)
	require.Equal(t, 30, updated.CooldownMinutes)

	mockRepo.AssertExpectations(t)
}

func TestUpdateZoneIrrigationUnknownZone(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	svc := newTestService(t, mockRepo, mockQueue, nil)

	// Setup expectations
	mockRepo.On("GetZoneByZoneID", mock.Anything, "zone-x").Return(nil, repository.ErrNotFound)

	updated, err := svc.UpdateZoneIrrigation(context.Background(), "zone-x", &models.IrrigationPolicyInput{Enabled: boolPtr(true)})

	require.Error(t, err)
	require.Nil(t, updated)
	require.Equal(t, repository.ErrNotFound, errors.Cause(err))

	mockRepo.AssertExpectations(t)
}
