package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/backstage/services/farm/config"
	"example.com/backstage/services/farm/internal/cache"
	"example.com/backstage/services/farm/internal/database"
	"example.com/backstage/services/farm/internal/messaging"
	"example.com/backstage/services/farm/internal/queue"
	"example.com/backstage/services/farm/internal/repository"
	"example.com/backstage/services/farm/internal/service"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long: `Start the background worker that marks silent equipment offline and
deletes expired pending commands. Runs alongside the API server.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Create an error group to manage goroutines
	g, ctx := errgroup.WithContext(ctx)

	// Initialize database connection
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	// Initialize cache
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// Initialize messaging client
	msgClient, err := messaging.NewServiceBusClient(cfg.ServiceBus, "farm-worker")
	if err != nil {
		return err
	}
	defer msgClient.Close()

	// Initialize repository and command queue
	repo := repository.NewRepository(db)

	retention := cfg.Farm.CommandRetention
	if retention <= 0 {
		retention = queue.DefaultRetention
	}
	var q queue.Queue
	switch cfg.Farm.QueueDriver {
	case "memory":
		log.Warn("Using in-memory command queue; the worker only purges its own process-local queue")
		q = queue.NewMemoryQueue(retention)
	default:
		q = queue.NewPostgresQueue(db, retention)
	}

	// Initialize the service layer; the worker never indexes readings so
	// search stays nil
	svc, err := service.NewService(service.ServiceConfig{
		Repository:       repo,
		Queue:            q,
		Cache:            redisClient,
		MessagingClient:  msgClient,
		Logger:           log,
		HeartbeatTimeout: cfg.Farm.HeartbeatTimeout,
		StatusCacheTTL:   cfg.Farm.StatusCacheTTL,
	})
	if err != nil {
		return err
	}
	defer svc.Shutdown()

	// Start the maintenance cron jobs
	g.Go(func() error {
		log.WithField("sweep_interval", cfg.Farm.SweepInterval.String()).
			Info("Starting equipment heartbeat sweeper")

		// Create a scheduler
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		// Add the heartbeat sweep job
		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Farm.SweepInterval),
			gocron.NewTask(func() {
				swept, err := svc.SweepStaleEquipment(ctx)
				if err != nil {
					log.WithError(err).Error("Failed to sweep stale equipment")
					return
				}
				if swept > 0 {
					log.WithField("count", swept).Info("Marked silent equipment offline")
				}
			}),
		)
		if err != nil {
			return err
		}

		// Add the expired command purge job
		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Farm.PurgeInterval),
			gocron.NewTask(func() {
				purged, err := svc.PurgeExpiredCommands(ctx)
				if err != nil {
					log.WithError(err).Error("Failed to purge expired commands")
					return
				}
				if purged > 0 {
					log.WithField("count", purged).Info("Purged expired commands")
				}
			}),
		)
		if err != nil {
			return err
		}

		// Start the scheduler
		scheduler.Start()

		// Wait for context cancellation
		<-ctx.Done()

		// Shutdown the scheduler
		return scheduler.Shutdown()
	})

	// Wait for any goroutine to exit
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Worker error")
		return err
	}

	log.Info("Worker shutting down gracefully")
	return nil
}
