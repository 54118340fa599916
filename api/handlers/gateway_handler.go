package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/backstage/services/farm/internal/models"
	"example.com/backstage/services/farm/internal/service"
)

// GatewayHandler serves the root-level routes field gateways call. These
// paths are frozen: deployed firmware has them compiled in.
type GatewayHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewGatewayHandler creates a new GatewayHandler instance
func NewGatewayHandler(svc service.Service, log *logrus.Logger) *GatewayHandler {
	return &GatewayHandler{
		service: svc,
		log:     log,
	}
}

// IngestReading handles a composite telemetry payload
func (h *GatewayHandler) IngestReading(c *gin.Context) {
	var payload models.IngestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, h.log, err, "Invalid ingest payload")
		return
	}
	if !payload.HasValidClass() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "At least one valid sensor class is required",
		})
		return
	}

	result, err := h.service.ProcessReadings(c, &payload)
	if err != nil {
		// Per-class detail still goes out so the gateway can tell which
		// classes were lost
		h.log.WithError(err).WithField("device_uid", payload.DeviceID).Error("Failed to process readings")
		c.JSON(http.StatusInternalServerError, result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// EnqueueCommand handles a manual actuator command from the dashboard
func (h *GatewayHandler) EnqueueCommand(c *gin.Context) {
	var req models.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.log, err, "Invalid command request")
		return
	}

	action, ok := models.ActionFromString(req.Action)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown action, expected start or stop",
		})
		return
	}
	target, ok := models.TargetFromString(req.Target)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown target, expected water_pump or irrigation",
		})
		return
	}

	command, err := h.service.EnqueueCommand(c, req.DeviceID, action, target, req.Trigger)
	if err != nil {
		respondError(c, h.log, err, "Failed to queue command")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"queued":    true,
		"commandId": command.ID,
		"queuedAt":  command.CreatedAt,
	})
}

// PendingCommand hands out the oldest queued command for a device,
// consuming it
func (h *GatewayHandler) PendingCommand(c *gin.Context) {
	deviceUID := c.Param("deviceID")

	command, err := h.service.PollCommand(c, deviceUID)
	if err != nil {
		respondError(c, h.log, err, "Failed to poll command")
		return
	}
	if command == nil {
		c.JSON(http.StatusOK, gin.H{"hasCommand": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hasCommand": true,
		"command":    command,
	})
}

// CommandAck resolves a previously handed-out command
func (h *GatewayHandler) CommandAck(c *gin.Context) {
	var ack models.CommandAck
	if err := c.ShouldBindJSON(&ack); err != nil {
		respondBindError(c, h.log, err, "Invalid command acknowledgement")
		return
	}

	action, ok := models.ActionFromString(ack.Action)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown action, expected start or stop",
		})
		return
	}
	target, ok := models.TargetFromString(ack.Target)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown target, expected water_pump or irrigation",
		})
		return
	}

	updated, err := h.service.AcknowledgeCommand(c, ack.DeviceID, action, target, *ack.Success)
	if err != nil {
		respondError(c, h.log, err, "Failed to acknowledge command")
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// DeviceStatus returns the cached status snapshot of a device
func (h *GatewayHandler) DeviceStatus(c *gin.Context) {
	deviceUID := c.Param("deviceID")

	snapshot, err := h.service.DeviceStatus(c, deviceUID)
	if err != nil {
		respondError(c, h.log, err, "Failed to build device status")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// EquipmentReport ingests an equipment self-report
func (h *GatewayHandler) EquipmentReport(c *gin.Context) {
	var report models.EquipmentReport
	if err := c.ShouldBindJSON(&report); err != nil {
		respondBindError(c, h.log, err, "Invalid equipment report")
		return
	}

	equipment, err := h.service.ProcessEquipmentReport(c, &report)
	if err != nil {
		respondError(c, h.log, err, "Failed to process equipment report")
		return
	}

	c.JSON(http.StatusOK, equipment)
}
