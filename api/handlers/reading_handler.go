package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/backstage/services/farm/internal/models"
	"example.com/backstage/services/farm/internal/service"
)

// ReadingHandler serves reading series for dashboards
type ReadingHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewReadingHandler creates a new ReadingHandler instance
func NewReadingHandler(svc service.Service, log *logrus.Logger) *ReadingHandler {
	return &ReadingHandler{
		service: svc,
		log:     log,
	}
}

// Series returns ascending samples of one metric for a device
func (h *ReadingHandler) Series(c *gin.Context) {
	deviceUID := c.Param("deviceID")

	metric, ok := models.MetricFromString(c.Query("metric"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown metric",
		})
		return
	}

	hours, _ := strconv.Atoi(c.DefaultQuery("hours", "24"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "500"))

	points, err := h.service.ReadingSeries(c, deviceUID, metric, hours, limit)
	if err != nil {
		respondError(c, h.log, err, "Failed to load reading series")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"device_uid": deviceUID,
		"metric":     metric,
		"points":     points,
	})
}
