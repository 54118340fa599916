package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"example.com/backstage/services/farm/internal/cache"
	"example.com/backstage/services/farm/internal/messaging"
	"example.com/backstage/services/farm/internal/metrics"
	"example.com/backstage/services/farm/internal/models"
	"example.com/backstage/services/farm/internal/queue"
	"example.com/backstage/services/farm/internal/repository"
	"example.com/backstage/services/farm/internal/search"
)

// cropProfileCacheTTL bounds how long growth-stage reference data is served
// from Redis before it is re-read from the database
const cropProfileCacheTTL = 10 * time.Minute

// Service defines the business logic operations
type Service interface {
	// Ingestion
	ProcessReadings(ctx context.Context, payload *models.IngestPayload) (*IngestResult, error)

	// Command operations
	EnqueueCommand(ctx context.Context, deviceUID string, action models.CommandAction, target models.CommandTarget, trigger string) (*models.PendingCommand, error)
	PollCommand(ctx context.Context, deviceUID string) (*models.PendingCommand, error)
	AcknowledgeCommand(ctx context.Context, deviceUID string, action models.CommandAction, target models.CommandTarget, success bool) (bool, error)

	// Status and series
	DeviceStatus(ctx context.Context, deviceUID string) (*DeviceStatusSnapshot, error)
	ReadingSeries(ctx context.Context, deviceUID string, metric models.MetricKind, hours, limit int) ([]SeriesPoint, error)

	// Tank configuration
	UpsertTank(ctx context.Context, input *models.TankInput) (*models.TankConfig, error)
	GetTank(ctx context.Context, tankID string) (*models.TankConfig, error)
	ListTanks(ctx context.Context) ([]models.TankConfig, error)
	AssignTankSensor(ctx context.Context, tankID, sensorUID string) (*models.TankConfig, error)
	UnassignTankSensor(ctx context.Context, tankID string) (*models.TankConfig, error)

	// Zone configuration
	UpsertZone(ctx context.Context, input *models.ZoneInput) (*models.ZoneConfig, error)
	GetZone(ctx context.Context, zoneID string) (*models.ZoneConfig, error)
	ListZones(ctx context.Context) ([]models.ZoneConfig, error)
	AssignZoneSensor(ctx context.Context, zoneID, sensorUID string) (*models.ZoneConfig, error)
	UnassignZoneSensor(ctx context.Context, zoneID string) (*models.ZoneConfig, error)
	UpdateZoneIrrigation(ctx context.Context, zoneID string, input *models.IrrigationPolicyInput) (*models.ZoneConfig, error)

	// Crop profiles
	GetCropProfile(ctx context.Context, cropType string) (*models.CropProfile, error)
	ListCropProfiles(ctx context.Context) ([]models.CropProfile, error)

	// Equipment
	ProcessEquipmentReport(ctx context.Context, report *models.EquipmentReport) (*models.Equipment, error)
	GetEquipment(ctx context.Context, deviceUID string) (*models.Equipment, error)
	GetEquipmentHistory(ctx context.Context, deviceUID string, limit int) ([]models.EquipmentStatusLog, error)

	// Background jobs
	SweepStaleEquipment(ctx context.Context) (int, error)
	PurgeExpiredCommands(ctx context.Context) (int64, error)

	// Lifecycle
	Shutdown() error
}

// farmService is an implementation of the Service interface
type farmService struct {
	repo             repository.Repository
	queue            queue.Queue
	cache            cache.CacheClient
	messagingClient  messaging.ServiceBusClient
	log              *logrus.Logger
	indexer          *ReadingIndexer
	heartbeatTimeout time.Duration
	statusCacheTTL   time.Duration
}

// ServiceConfig holds the collaborators and tunables of the service
type ServiceConfig struct {
	Repository       repository.Repository
	Queue            queue.Queue
	Cache            cache.CacheClient
	Search           *search.ElasticClient
	MessagingClient  messaging.ServiceBusClient
	Logger           *logrus.Logger
	HeartbeatTimeout time.Duration
	StatusCacheTTL   time.Duration
	IndexerWorkers   int
	IndexerQueueSize int
}

// NewService creates a new service instance
func NewService(config ServiceConfig) (Service, error) {
	if config.Repository == nil {
		return nil, errors.New("repository is required")
	}
	if config.Queue == nil {
		return nil, errors.New("command queue is required")
	}
	if config.Cache == nil {
		return nil, errors.New("cache is required")
	}
	if config.MessagingClient == nil {
		return nil, errors.New("messaging client is required")
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	if config.HeartbeatTimeout <= 0 {
		config.HeartbeatTimeout = 5 * time.Minute
	}
	if config.StatusCacheTTL <= 0 {
		config.StatusCacheTTL = 30 * time.Second
	}

	indexer := NewReadingIndexer(config.Search, config.Logger, config.IndexerWorkers, config.IndexerQueueSize)

	return &farmService{
		repo:             config.Repository,
		queue:            config.Queue,
		cache:            config.Cache,
		messagingClient:  config.MessagingClient,
		log:              config.Logger,
		indexer:          indexer,
		heartbeatTimeout: config.HeartbeatTimeout,
		statusCacheTTL:   config.StatusCacheTTL,
	}, nil
}

// Shutdown flushes the indexer queue and stops its workers
func (s *farmService) Shutdown() error {
	s.indexer.Stop()
	return nil
}

// publishEvent sends a domain event to the service bus. Publishing is best
// effort: failures are logged and never propagate to the caller.
func (s *farmService) publishEvent(ctx context.Context, eventType, deviceUID string, data map[string]interface{}) {
	event := messaging.Event{
		Type:      eventType,
		DeviceUID: deviceUID,
		Data:      data,
	}
	if err := s.messagingClient.PublishEvent(ctx, event); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event_type": eventType,
			"device_uid": deviceUID,
		}).Warn("Failed to publish event")
		metrics.GetMetricsCollector().RecordMessageBusSend(eventType, false)
		return
	}
	metrics.GetMetricsCollector().RecordMessageBusSend(eventType, true)
}

// invalidateStatusCache drops the cached status snapshot of a device
func (s *farmService) invalidateStatusCache(ctx context.Context, deviceUID string) {
	if err := s.cache.Delete(ctx, cache.DeviceStatusKey(deviceUID)); err != nil {
		s.log.WithError(err).WithField("device_uid", deviceUID).Debug("Failed to invalidate status cache")
	}
}

// cropProfileByType loads a crop profile through the cache
func (s *farmService) cropProfileByType(ctx context.Context, cropType string) (*models.CropProfile, error) {
	key := cache.CropProfileKey(cropType)
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var profile models.CropProfile
		if err := json.Unmarshal([]byte(raw), &profile); err == nil {
			metrics.GetMetricsCollector().RecordCacheLookup(true)
			return &profile, nil
		}
	}
	metrics.GetMetricsCollector().RecordCacheLookup(false)

	profile, err := s.repo.GetCropProfileByType(ctx, cropType)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(profile); err == nil {
		if err := s.cache.Set(ctx, key, string(raw), cropProfileCacheTTL); err != nil {
			s.log.WithError(err).WithField("crop_type", cropType).Debug("Failed to cache crop profile")
		}
	}
	return profile, nil
}
