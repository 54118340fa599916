package routes

import (
	"example.com/backstage/services/farm/api/handlers"
	"example.com/backstage/services/farm/internal/cache"
	"example.com/backstage/services/farm/internal/database"
	"example.com/backstage/services/farm/internal/queue"
	"example.com/backstage/services/farm/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRoutes sets up all the routes for the server
func SetupRoutes(r *gin.Engine, svc service.Service, db database.DB, cacheClient cache.CacheClient, q queue.Queue, log *logrus.Logger) {
	// Operational surface
	healthHandler := handlers.NewHealthHandler(db, cacheClient, q, log)
	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", handlers.Metrics)

	// Gateway routes stay at the root: deployed firmware has these paths
	// compiled in
	gatewayHandler := handlers.NewGatewayHandler(svc, log)
	r.POST("/ingest-reading", gatewayHandler.IngestReading)
	r.POST("/command", gatewayHandler.EnqueueCommand)
	r.GET("/pending-command/:deviceID", gatewayHandler.PendingCommand)
	r.POST("/command/ack", gatewayHandler.CommandAck)
	r.GET("/device-status/:deviceID", gatewayHandler.DeviceStatus)
	r.POST("/equipment-report", gatewayHandler.EquipmentReport)

	// Dashboard routes
	api := r.Group("/api/v1")

	readingHandler := handlers.NewReadingHandler(svc, log)
	api.GET("/readings/:deviceID/series", readingHandler.Series)

	tankHandler := handlers.NewTankHandler(svc, log)
	tanks := api.Group("/tanks")
	{
		tanks.POST("", tankHandler.UpsertTank)
		tanks.GET("", tankHandler.ListTanks)
		tanks.GET("/:tankID", tankHandler.GetTank)
		tanks.POST("/:tankID/sensor", tankHandler.AssignSensor)
		tanks.DELETE("/:tankID/sensor", tankHandler.UnassignSensor)
	}

	zoneHandler := handlers.NewZoneHandler(svc, log)
	zones := api.Group("/zones")
	{
		zones.POST("", zoneHandler.UpsertZone)
		zones.GET("", zoneHandler.ListZones)
		zones.GET("/:zoneID", zoneHandler.GetZone)
		zones.POST("/:zoneID/sensor", zoneHandler.AssignSensor)
		zones.DELETE("/:zoneID/sensor", zoneHandler.UnassignSensor)
		zones.PUT("/:zoneID/irrigation", zoneHandler.UpdateIrrigation)
	}

	cropHandler := handlers.NewCropHandler(svc, log)
	crops := api.Group("/crops")
	{
		crops.GET("", cropHandler.ListCropProfiles)
		crops.GET("/:cropType", cropHandler.GetCropProfile)
	}

	equipmentHandler := handlers.NewEquipmentHandler(svc, log)
	equipment := api.Group("/equipment")
	{
		equipment.GET("/:deviceID", equipmentHandler.GetEquipment)
		equipment.GET("/:deviceID/history", equipmentHandler.GetHistory)
	}
}
