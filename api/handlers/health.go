package handlers

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/backstage/services/farm/internal/cache"
	"example.com/backstage/services/farm/internal/database"
	"example.com/backstage/services/farm/internal/metrics"
	"example.com/backstage/services/farm/internal/queue"
)

// HealthHandler reports the reachability of the service's dependencies
type HealthHandler struct {
	db    database.DB
	cache cache.CacheClient
	queue queue.Queue
	log   *logrus.Logger
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(db database.DB, cacheClient cache.CacheClient, q queue.Queue, log *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		db:    db,
		cache: cacheClient,
		queue: q,
		log:   log,
	}
}

// Health handles health check requests. The probe degrades to 503 when the
// database or the command queue is unreachable; a cache outage is reported
// but keeps the service healthy because every cached path has a fallback.
func (h *HealthHandler) Health(c *gin.Context) {
	healthy := true
	checks := gin.H{}

	if err := h.pingDatabase(c); err != nil {
		h.log.WithError(err).Warn("Health check: database unreachable")
		checks["database"] = "unreachable"
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	if h.cache.Enabled() {
		if err := h.cache.Ping(c); err != nil {
			h.log.WithError(err).Warn("Health check: cache unreachable")
			checks["cache"] = "unreachable"
		} else {
			checks["cache"] = "ok"
		}
	} else {
		checks["cache"] = "disabled"
	}

	if _, err := h.queue.CountQueued(c); err != nil {
		h.log.WithError(err).Warn("Health check: command queue unreachable")
		checks["queue"] = "unreachable"
		healthy = false
	} else {
		checks["queue"] = "ok"
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":  state,
		"service": "Farm Service",
		"checks":  checks,
	})
}

func (h *HealthHandler) pingDatabase(c *gin.Context) error {
	gormDB, err := h.db.DB()
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(c)
}

// Metrics exposes the in-process metrics collector
func Metrics(c *gin.Context) {
	collector := metrics.GetMetricsCollector()
	data := collector.GetMetrics()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	data["runtime"] = map[string]interface{}{
		"goroutines": runtime.NumGoroutine(),
		"memory": map[string]interface{}{
			"alloc_bytes":       memStats.Alloc,
			"total_alloc_bytes": memStats.TotalAlloc,
			"sys_bytes":         memStats.Sys,
			"heap_objects":      memStats.HeapObjects,
			"gc_cycles":         memStats.NumGC,
		},
	}

	c.JSON(http.StatusOK, data)
}
