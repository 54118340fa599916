package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/backstage/services/farm/internal/models"
	"example.com/backstage/services/farm/internal/service"
)

// TankHandler handles tank configuration requests
type TankHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewTankHandler creates a new TankHandler instance
func NewTankHandler(svc service.Service, log *logrus.Logger) *TankHandler {
	return &TankHandler{
		service: svc,
		log:     log,
	}
}

// UpsertTank creates or replaces a tank configuration
func (h *TankHandler) UpsertTank(c *gin.Context) {
	var input models.TankInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, h.log, err, "Invalid tank configuration")
		return
	}

	tank, err := h.service.UpsertTank(c, &input)
	if err != nil {
		respondError(c, h.log, err, "Failed to save tank configuration")
		return
	}

	c.JSON(http.StatusOK, tank)
}

// ListTanks lists all tank configurations
func (h *TankHandler) ListTanks(c *gin.Context) {
	tanks, err := h.service.ListTanks(c)
	if err != nil {
		respondError(c, h.log, err, "Failed to list tanks")
		return
	}

	c.JSON(http.StatusOK, tanks)
}

// GetTank returns one tank configuration by business key
func (h *TankHandler) GetTank(c *gin.Context) {
	tank, err := h.service.GetTank(c, c.Param("tankID"))
	if err != nil {
		respondError(c, h.log, err, "Failed to get tank")
		return
	}

	c.JSON(http.StatusOK, tank)
}

// AssignSensor wires a sensor to a tank
func (h *TankHandler) AssignSensor(c *gin.Context) {
	var assignment models.SensorAssignment
	if err := c.ShouldBindJSON(&assignment); err != nil {
		respondBindError(c, h.log, err, "sensor_uid is required")
		return
	}

	tank, err := h.service.AssignTankSensor(c, c.Param("tankID"), assignment.SensorUID)
	if err != nil {
		respondError(c, h.log, err, "Failed to assign sensor")
		return
	}

	c.JSON(http.StatusOK, tank)
}

// UnassignSensor clears a tank's sensor slot
func (h *TankHandler) UnassignSensor(c *gin.Context) {
	tank, err := h.service.UnassignTankSensor(c, c.Param("tankID"))
	if err != nil {
		respondError(c, h.log, err, "Failed to unassign sensor")
		return
	}

	c.JSON(http.StatusOK, tank)
}
