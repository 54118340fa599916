package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/backstage/services/farm/internal/models"
	"example.com/backstage/services/farm/internal/service"
)

// ZoneHandler handles irrigation zone configuration requests
type ZoneHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewZoneHandler creates a new ZoneHandler instance
func NewZoneHandler(svc service.Service, log *logrus.Logger) *ZoneHandler {
	return &ZoneHandler{
		service: svc,
		log:     log,
	}
}

// UpsertZone creates or replaces a zone configuration
func (h *ZoneHandler) UpsertZone(c *gin.Context) {
	var input models.ZoneInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, h.log, err, "Invalid zone configuration")
		return
	}

	zone, err := h.service.UpsertZone(c, &input)
	if err != nil {
		respondError(c, h.log, err, "Failed to save zone configuration")
		return
	}

	c.JSON(http.StatusOK, zone)
}

// ListZones lists all zone configurations
func (h *ZoneHandler) ListZones(c *gin.Context) {
	zones, err := h.service.ListZones(c)
	if err != nil {
		respondError(c, h.log, err, "Failed to list zones")
		return
	}

	c.JSON(http.StatusOK, zones)
}

// GetZone returns one zone configuration by business key
func (h *ZoneHandler) GetZone(c *gin.Context) {
	zone, err := h.service.GetZone(c, c.Param("zoneID"))
	if err != nil {
		respondError(c, h.log, err, "Failed to get zone")
		return
	}

	c.JSON(http.StatusOK, zone)
}

// AssignSensor wires a sensor to a zone
func (h *ZoneHandler) AssignSensor(c *gin.Context) {
	var assignment models.SensorAssignment
	if err := c.ShouldBindJSON(&assignment); err != nil {
		respondBindError(c, h.log, err, "sensor_uid is required")
		return
	}

	zone, err := h.service.AssignZoneSensor(c, c.Param("zoneID"), assignment.SensorUID)
	if err != nil {
		respondError(c, h.log, err, "Failed to assign sensor")
		return
	}

	c.JSON(http.StatusOK, zone)
}

// UnassignSensor clears a zone's sensor slot
func (h *ZoneHandler) UnassignSensor(c *gin.Context) {
	zone, err := h.service.UnassignZoneSensor(c, c.Param("zoneID"))
	if err != nil {
		respondError(c, h.log, err, "Failed to unassign sensor")
		return
	}

	c.JSON(http.StatusOK, zone)
}

// UpdateIrrigation updates the irrigation policy of a zone
func (h *ZoneHandler) UpdateIrrigation(c *gin.Context) {
	var input models.IrrigationPolicyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, h.log, err, "Invalid irrigation policy")
		return
	}

	zone, err := h.service.UpdateZoneIrrigation(c, c.Param("zoneID"), &input)
	if err != nil {
		respondError(c, h.log, err, "Failed to update irrigation policy")
		return
	}

	c.JSON(http.StatusOK, zone)
}
