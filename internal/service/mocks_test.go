package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/farm/config"
	"example.com/backstage/services/farm/internal/cache"
	"example.com/backstage/services/farm/internal/messaging"
	"example.com/backstage/services/farm/internal/models"
	"example.com/backstage/services/farm/internal/repository"
)

// MockRepository is a testify mock of repository.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateReading(ctx context.Context, reading *models.Reading) error {
	args := m.Called(ctx, reading)
	return args.Error(0)
}

func (m *MockRepository) LatestReadingByClass(ctx context.Context, deviceUID string, class models.SensorClass) (*models.Reading, error) {
	args := m.Called(ctx, deviceUID, class)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reading), args.Error(1)
}

func (m *MockRepository) ListReadingSeries(ctx context.Context, deviceUID string, metric models.MetricKind, since time.Time, limit int) ([]models.Reading, error) {
	args := m.Called(ctx, deviceUID, metric, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reading), args.Error(1)
}

func (m *MockRepository) CreateTankConfig(ctx context.Context, tank *models.TankConfig) error {
	args := m.Called(ctx, tank)
	return args.Error(0)
}

func (m *MockRepository) UpdateTankConfig(ctx context.Context, tank *models.TankConfig) error {
	args := m.Called(ctx, tank)
	return args.Error(0)
}

func (m *MockRepository) GetTankByTankID(ctx context.Context, tankID string) (*models.TankConfig, error) {
	args := m.Called(ctx, tankID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TankConfig), args.Error(1)
}

func (m *MockRepository) FindTankBySensorUID(ctx context.Context, sensorUID string) (*models.TankConfig, error) {
	args := m.Called(ctx, sensorUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TankConfig), args.Error(1)
}

func (m *MockRepository) ListTankConfigs(ctx context.Context) ([]models.TankConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TankConfig), args.Error(1)
}

func (m *MockRepository) AssignTankSensor(ctx context.Context, tankID, sensorUID string) (*models.TankConfig, error) {
	args := m.Called(ctx, tankID, sensorUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TankConfig), args.Error(1)
}

func (m *MockRepository) UnassignTankSensor(ctx context.Context, tankID string) (*models.TankConfig, error) {
	args := m.Called(ctx, tankID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TankConfig), args.Error(1)
}

func (m *MockRepository) StampTankPumpRun(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockRepository) CreateZoneConfig(ctx context.Context, zone *models.ZoneConfig) error {
	args := m.Called(ctx, zone)
	return args.Error(0)
}

func (m *MockRepository) UpdateZoneConfig(ctx context.Context, zone *models.ZoneConfig) error {
	args := m.Called(ctx, zone)
	return args.Error(0)
}

func (m *MockRepository) GetZoneByZoneID(ctx context.Context, zoneID string) (*models.ZoneConfig, error) {
	args := m.Called(ctx, zoneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ZoneConfig), args.Error(1)
}

func (m *MockRepository) FindZoneBySensorUID(ctx context.Context, sensorUID string) (*models.ZoneConfig, error) {
	args := m.Called(ctx, sensorUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ZoneConfig), args.Error(1)
}

func (m *MockRepository) ListZoneConfigs(ctx context.Context) ([]models.ZoneConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ZoneConfig), args.Error(1)
}

func (m *MockRepository) AssignZoneSensor(ctx context.Context, zoneID, sensorUID string) (*models.ZoneConfig, error) {
	args := m.Called(ctx, zoneID, sensorUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ZoneConfig), args.Error(1)
}

func (m *MockRepository) UnassignZoneSensor(ctx context.Context, zoneID string) (*models.ZoneConfig, error) {
	args := m.Called(ctx, zoneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ZoneConfig), args.Error(1)
}

func (m *MockRepository) StampZoneIrrigation(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockRepository) CreateCropProfile(ctx context.Context, profile *models.CropProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockRepository) GetCropProfileByType(ctx context.Context, cropType string) (*models.CropProfile, error) {
	args := m.Called(ctx, cropType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CropProfile), args.Error(1)
}

func (m *MockRepository) ListCropProfiles(ctx context.Context) ([]models.CropProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CropProfile), args.Error(1)
}

func (m *MockRepository) GetEquipmentByUID(ctx context.Context, deviceUID string) (*models.Equipment, error) {
	args := m.Called(ctx, deviceUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Equipment), args.Error(1)
}

func (m *MockRepository) SaveEquipment(ctx context.Context, equipment *models.Equipment) error {
	args := m.Called(ctx, equipment)
	return args.Error(0)
}

func (m *MockRepository) TouchEquipmentHeartbeat(ctx context.Context, deviceUID string, at time.Time) (bool, error) {
	args := m.Called(ctx, deviceUID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListStaleEquipment(ctx context.Context, cutoff time.Time) ([]models.Equipment, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Equipment), args.Error(1)
}

func (m *MockRepository) ForceEquipmentOffline(ctx context.Context, id uuid.UUID, cutoff time.Time) (bool, error) {
	args := m.Called(ctx, id, cutoff)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) CreateStatusLog(ctx context.Context, entry *models.EquipmentStatusLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRepository) ListStatusLogs(ctx context.Context, deviceUID string, limit int) ([]models.EquipmentStatusLog, error) {
	args := m.Called(ctx, deviceUID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EquipmentStatusLog), args.Error(1)
}

// WithTransaction runs the function against the mock itself, so transaction
// bodies assert against the same expectations
func (m *MockRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo repository.Repository) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx, m)
}

// MockQueue is a testify mock of queue.Queue
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Enqueue(ctx context.Context, deviceUID string, action models.CommandAction, target models.CommandTarget, trigger string) (*models.PendingCommand, error) {
	args := m.Called(ctx, deviceUID, action, target, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PendingCommand), args.Error(1)
}

func (m *MockQueue) DequeueOldest(ctx context.Context, deviceUID string) (*models.PendingCommand, error) {
	args := m.Called(ctx, deviceUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PendingCommand), args.Error(1)
}

func (m *MockQueue) Acknowledge(ctx context.Context, deviceUID string, action models.CommandAction, target models.CommandTarget, success bool) (bool, error) {
	args := m.Called(ctx, deviceUID, action, target, success)
	return args.Bool(0), args.Error(1)
}

func (m *MockQueue) HasPending(ctx context.Context, deviceUID string) (bool, error) {
	args := m.Called(ctx, deviceUID)
	return args.Bool(0), args.Error(1)
}

func (m *MockQueue) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQueue) CountQueued(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockServiceBus is a testify mock of messaging.ServiceBusClient
type MockServiceBus struct {
	mock.Mock
}

func (m *MockServiceBus) PublishEvent(ctx context.Context, event messaging.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockServiceBus) Close() error {
	args := m.Called()
	return args.Error(0)
}

// newTestService builds a service around the given mocks with a disabled
// cache and a silenced logger
func newTestService(t *testing.T, repo repository.Repository, q *MockQueue, bus messaging.ServiceBusClient) *farmService {
	t.Helper()

	cacheClient, err := cache.NewRedisClient(config.RedisConfig{Enabled: false})
	require.NoError(t, err)

	if bus == nil {
		noopBus, err := messaging.NewServiceBusClient(config.ServiceBusConfig{}, "test")
		require.NoError(t, err)
		bus = noopBus
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	svc, err := NewService(ServiceConfig{
		Repository:      repo,
		Queue:           q,
		Cache:           cacheClient,
		MessagingClient: bus,
		Logger:          log,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, svc.Shutdown())
	})
	return svc.(*farmService)
}
