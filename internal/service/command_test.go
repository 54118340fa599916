package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/farm/internal/messaging"
	"example.com/backstage/services/farm/internal/models"
)

func TestEnqueueCommandPublishesQueuedEvent(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	mockBus := new(MockServiceBus)
	svc := newTestService(t, mockRepo, mockQueue, mockBus)

	command := &models.PendingCommand{
		Base:      models.Base{ID: uuid.New()},
		DeviceUID: "GW-0042",
		Action:    models.ActionStart,
		Target:    models.TargetWaterPump,
		Trigger:   "operator",
		Status:    models.CommandQueued,
	}

	// Setup expectations
	mockQueue.On("Enqueue", mock.Anything, "GW-0042", models.ActionStart, models.TargetWaterPump, "operator").Return(command, nil)
	mockBus.On("PublishEvent", mock.Anything, mock.MatchedBy(func(e messaging.Event) bool {
		return e.Type == messaging.EventCommandQueued && e.Data["command_id"] == command.ID.String()
	})).Return(nil)

	got, err := svc.EnqueueCommand(context.Background(), "GW-0042", models.ActionStart, models.TargetWaterPump, "operator")

	require.NoError(t, err)
	require.Equal(t, command.ID, got.ID)
	require.Equal(t, models.CommandQueued, got.Status)

	mockQueue.AssertExpectations(t)
	mockBus.AssertExpectations(t)
}

func TestEnqueueCommandQueueFaultPropagates(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	mockBus := new(MockServiceBus)
	svc := newTestService(t, mockRepo, mockQueue, mockBus)

	// Setup expectations
	mockQueue.On("Enqueue", mock.Anything, "GW-0042", models.ActionStop, models.TargetIrrigation, "").Return(nil, errors.New("insert failed"))

	got, err := svc.EnqueueCommand(context.Background(), "GW-0042", models.ActionStop, models.TargetIrrigation, "")

	require.Error(t, err)
	require.Nil(t, got)

	mockBus.AssertNotCalled(t, "PublishEvent", mock.Anything, mock.Anything)
	mockQueue.AssertExpectations(t)
}

func TestPollCommandEmptyQueueReturnsNil(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	svc := newTestService(t, mockRepo, mockQueue, nil)

	// Setup expectations
	mockQueue.On("DequeueOldest", mock.Anything, "GW-0042").Return(nil, nil)

	got, err := svc.PollCommand(context.Background(), "GW-0042")

	require.NoError(t, err)
	require.Nil(t, got)

	mockQueue.AssertExpectations(t)
}

func TestPollCommandHandsOutCommand(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	svc := newTestService(t, mockRepo, mockQueue, nil)

	command := &models.PendingCommand{
		Base:      models.Base{ID: uuid.New()},
		DeviceUID: "GW-0042",
		Action:    models.ActionStart,
		Target:    models.TargetIrrigation,
		Status:    models.CommandDequeued,
		Attempts:  1,
	}

	// Setup expectations
	mockQueue.On("DequeueOldest", mock.Anything, "GW-0042").Return(command, nil)

	got, err := svc.PollCommand(context.Background(), "GW-0042")

	require.NoError(t, err)
	require.Equal(t, command.ID, got.ID)
	require.Equal(t, models.CommandDequeued, got.Status)

	mockQueue.AssertExpectations(t)
}

func TestAcknowledgeCommandSuccess(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	svc := newTestService(t, mockRepo, mockQueue, nil)

	// Setup expectations
	mockQueue.On("Acknowledge", mock.Anything, "GW-0042", models.ActionStart, models.TargetWaterPump, true).Return(true, nil)

	updated, err := svc.AcknowledgeCommand(context.Background(), "GW-0042", models.ActionStart, models.TargetWaterPump, true)

	require.NoError(t, err)
	require.True(t, updated)

	mockQueue.AssertExpectations(t)
}

func TestAcknowledgeCommandWithoutMatch(t *testing.T) {
	// Create mocks
	mockRepo := new(MockRepository)
	mockQueue := new(MockQueue)
	svc := newTestService(t, mockRepo, mockQueue, nil)

	// Setup expectations
	mockQueue.On("Acknowledge", mock.Anything, "GW-0042", models.ActionStop, models.TargetWaterPump, false).Return(false, nil)

	updated, err := svc.AcknowledgeCommand(context.Background(), "GW-0042", models.ActionStop, models.TargetWaterPump, false)

	require.NoError(t, err)
	require.False(t, updated)

	mockQueue.AssertExpectations(t)
}
