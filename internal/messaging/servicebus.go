package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"example.com/backstage/services/farm/config"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

// Event types published to the farm-events topic
const (
	EventIrrigationTriggered    = "irrigation.triggered"
	EventPumpRefillRequested    = "pump.refill_requested"
	EventCommandQueued          = "command.queued"
	EventEquipmentStatusChanged = "equipment.status_changed"
	EventEquipmentOffline       = "equipment.offline"
)

// Event is the envelope every published farm event uses. Data carries the
// per-type fields; consumers dispatch on Type.
type Event struct {
	Type       string                 `json:"type"`
	DeviceUID  string                 `json:"device_uid"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// ServiceBusClient is an interface for Azure Service Bus operations
type ServiceBusClient interface {
	PublishEvent(ctx context.Context, event Event) error
	Close() error
}

// serviceBusClient implements the ServiceBusClient interface
type serviceBusClient struct {
	client     *azservicebus.Client
	sender     *azservicebus.Sender
	topicName  string
	clientType string
}

// mockServiceBusClient is a mock implementation for local development
type mockServiceBusClient struct {
	clientType string
}

// NewServiceBusClient creates a new Azure Service Bus client. Without a
// connection string configured a mock client is returned that only logs,
// so local deployments run without a broker.
func NewServiceBusClient(cfg config.ServiceBusConfig, clientType string) (ServiceBusClient, error) {
	if cfg.ConnectionString == "" {
		return &mockServiceBusClient{clientType: clientType}, nil
	}

	// Create the Service Bus client
	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus client: %w", err)
	}

	// Create a sender for the topic
	sender, err := client.NewSender(cfg.TopicName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus sender: %w", err)
	}

	return &serviceBusClient{
		client:     client,
		sender:     sender,
		topicName:  cfg.TopicName,
		clientType: clientType,
	}, nil
}

// PublishEvent sends a farm event to the Service Bus topic. The device UID
// doubles as the session ID so per-device ordering is preserved for session
// aware consumers.
func (s *serviceBusClient) PublishEvent(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event body: %w", err)
	}

	sessionID := event.DeviceUID

	msg := &azservicebus.Message{
		Body: data,
		ApplicationProperties: map[string]interface{}{
			"source": s.clientType,
			"type":   event.Type,
			"time":   event.OccurredAt.Format(time.RFC3339),
		},
		SessionID: &sessionID,
	}

	return s.sender.SendMessage(ctx, msg, nil)
}

// Close closes the Service Bus client
func (s *serviceBusClient) Close() error {
	if s.sender != nil {
		if err := s.sender.Close(context.Background()); err != nil {
			return err
		}
	}

	if s.client != nil {
		return s.client.Close(context.Background())
	}

	return nil
}

// PublishEvent implementation for mock client
func (m *mockServiceBusClient) PublishEvent(ctx context.Context, event Event) error {
	// Just log the event for local development
	fmt.Printf("[MOCK ServiceBus] Event %s from %s for device %s\n",
		event.Type, m.clientType, event.DeviceUID)
	return nil
}

// Close implementation for mock client
func (m *mockServiceBusClient) Close() error {
	return nil
}
