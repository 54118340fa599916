package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"example.com/backstage/services/farm/internal/models"
)

func TestMemoryQueueFIFOOrder(t *testing.T) {
	q := NewMemoryQueue(DefaultRetention)
	ctx := context.Background()

	// Enqueue three commands in order
	for _, trigger := range []string{"first", "second", "third"} {
		_, err := q.Enqueue(ctx, "GW-0042", models.ActionStart, models.TargetIrrigation, trigger)
		require.NoError(t, err)
	}

	// Dequeue hands them out oldest first
	for _, trigger := range []string{"first", "second", "third"} {
		command, err := q.DequeueOldest(ctx, "GW-0042")
		require.NoError(t, err)
		require.NotNil(t, command)
		require.Equal(t, trigger, command.Trigger)
		require.Equal(t, models.CommandDequeued, command.Status)
		require.NotNil(t, command.DequeuedAt)
		require.Equal(t, 1, command.Attempts)
	}

	// Queue drained
	command, err := q.DequeueOldest(ctx, "GW-0042")
	require.NoError(t, err)
	require.Nil(t, command)
}

func TestMemoryQueueConcurrentDequeueSingleWinner(t *testing.T) {
	q := NewMemoryQueue(DefaultRetention)
	_, err := q.Enqueue(context.Background(), "GW-0042", models.ActionStart, models.TargetWaterPump, "manual")
	require.NoError(t, err)

	// Many pollers race for the single queued command
	const pollers = 16
	results := make(chan *models.PendingCommand, pollers)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < pollers; i++ {
		g.Go(func() error {
			command, err := q.DequeueOldest(ctx, "GW-0042")
			if err != nil {
				return err
			}
			results <- command
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(results)

	// Exactly one poller wins it
	winners := 0
	for command := range results {
		if command != nil {
			winners++
		}
	}
	require.Equal(t, 1, winners)
}

func TestMemoryQueueAcknowledgeSuccess(t *testing.T) {
	q := NewMemoryQueue(DefaultRetention)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "GW-0042", models.ActionStop, models.TargetIrrigation, "manual")
	require.NoError(t, err)

	command, err := q.DequeueOldest(ctx, "GW-0042")
	require.NoError(t, err)
	require.NotNil(t, command)

	updated, err := q.Acknowledge(ctx, "GW-0042", models.ActionStop, models.TargetIrrigation, true)
	require.NoError(t, err)
	require.True(t, updated)

	// The executed command is gone from the pending view
	pending, err := q.HasPending(ctx, "GW-0042")
	require.NoError(t, err)
	require.False(t, pending)

	// A second acknowledgement has nothing left to match
	updated, err = q.Acknowledge(ctx, "GW-0042", models.ActionStop, models.TargetIrrigation, true)
	require.NoError(t, err)
	require.False(t, updated)
}

func TestMemoryQueueFailedAckRequeues(t *testing.T) {
	q := NewMemoryQueue(DefaultRetention)
	ctx := context.Background()

	original, err := q.Enqueue(ctx, "GW-0042", models.ActionStart, models.TargetWaterPump, "low_fill")
	require.NoError(t, err)

	command, err := q.DequeueOldest(ctx, "GW-0042")
	require.NoError(t, err)
	require.NotNil(t, command)

	updated, err := q.Acknowledge(ctx, "GW-0042", models.ActionStart, models.TargetWaterPump, false)
	require.NoError(t, err)
	require.True(t, updated)

	// The failed command is back in the queue for the next poll
	retried, err := q.DequeueOldest(ctx, "GW-0042")
	require.NoError(t, err)
	require.NotNil(t, retried)
	require.Equal(t, original.ID, retried.ID)
	require.Equal(t, 2, retried.Attempts)
}

func TestMemoryQueueAcknowledgeMatchesActionAndTarget(t *testing.T) {
	q := NewMemoryQueue(DefaultRetention)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "GW-0042", models.ActionStart, models.TargetWaterPump, "manual")
	require.NoError(t, err)
	_, err = q.DequeueOldest(ctx, "GW-0042")
	require.NoError(t, err)

	// Wrong action or target does not resolve the command
	updated, err := q.Acknowledge(ctx, "GW-0042", models.ActionStop, models.TargetWaterPump, true)
	require.NoError(t, err)
	require.False(t, updated)

	updated, err = q.Acknowledge(ctx, "GW-0042", models.ActionStart, models.TargetIrrigation, true)
	require.NoError(t, err)
	require.False(t, updated)

	updated, err = q.Acknowledge(ctx, "GW-0042", models.ActionStart, models.TargetWaterPump, true)
	require.NoError(t, err)
	require.True(t, updated)
}

func TestMemoryQueueIsolatesDevices(t *testing.T) {
	q := NewMemoryQueue(DefaultRetention)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "GW-0042", models.ActionStart, models.TargetIrrigation, "manual")
	require.NoError(t, err)

	command, err := q.DequeueOldest(ctx, "GW-0077")
	require.NoError(t, err)
	require.Nil(t, command)

	pending, err := q.HasPending(ctx, "GW-0042")
	require.NoError(t, err)
	require.True(t, pending)
}

func TestMemoryQueueExpiredCommandsNeverHandedOut(t *testing.T) {
	q := NewMemoryQueue(time.Hour)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "GW-0042", models.ActionStart, models.TargetWaterPump, "manual")
	require.NoError(t, err)

	// Backdate the command past the retention window
	mq := q.(*memoryQueue)
	mq.mu.Lock()
	mq.commands["GW-0042"][0].CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	mq.mu.Unlock()

	command, err := q.DequeueOldest(ctx, "GW-0042")
	require.NoError(t, err)
	require.Nil(t, command)
}

func TestMemoryQueuePurgeExpired(t *testing.T) {
	q := NewMemoryQueue(time.Hour)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "GW-0042", models.ActionStart, models.TargetWaterPump, "stale")
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, "GW-0077", models.ActionStart, models.TargetIrrigation, "fresh")
	require.NoError(t, err)

	mq := q.(*memoryQueue)
	mq.mu.Lock()
	mq.commands["GW-0042"][0].CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	mq.mu.Unlock()

	purged, err := q.PurgeExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), purged)

	count, err := q.CountQueued(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}
