package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/backstage/services/farm/internal/service"
)

// EquipmentHandler serves equipment records and status history
type EquipmentHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewEquipmentHandler creates a new EquipmentHandler instance
func NewEquipmentHandler(svc service.Service, log *logrus.Logger) *EquipmentHandler {
	return &EquipmentHandler{
		service: svc,
		log:     log,
	}
}

// GetEquipment returns one equipment record by device UID
func (h *EquipmentHandler) GetEquipment(c *gin.Context) {
	equipment, err := h.service.GetEquipment(c, c.Param("deviceID"))
	if err != nil {
		respondError(c, h.log, err, "Failed to get equipment")
		return
	}

	c.JSON(http.StatusOK, equipment)
}

// GetHistory returns the status history of a device, newest first
func (h *EquipmentHandler) GetHistory(c *gin.Context) {
	deviceUID := c.Param("deviceID")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	history, err := h.service.GetEquipmentHistory(c, deviceUID, limit)
	if err != nil {
		respondError(c, h.log, err, "Failed to load equipment history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"device_uid": deviceUID,
		"history":    history,
	})
}
