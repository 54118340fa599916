package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/backstage/services/farm/internal/service"
)

// CropHandler serves crop profile reference data
type CropHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewCropHandler creates a new CropHandler instance
func NewCropHandler(svc service.Service, log *logrus.Logger) *CropHandler {
	return &CropHandler{
		service: svc,
		log:     log,
	}
}

// ListCropProfiles lists all crop profiles with their stages
func (h *CropHandler) ListCropProfiles(c *gin.Context) {
	profiles, err := h.service.ListCropProfiles(c)
	if err != nil {
		respondError(c, h.log, err, "Failed to list crop profiles")
		return
	}

	c.JSON(http.StatusOK, profiles)
}

// GetCropProfile returns one crop profile by crop type
func (h *CropHandler) GetCropProfile(c *gin.Context) {
	profile, err := h.service.GetCropProfile(c, c.Param("cropType"))
	if err != nil {
		respondError(c, h.log, err, "Failed to get crop profile")
		return
	}

	c.JSON(http.StatusOK, profile)
}
