package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"example.com/backstage/services/farm/internal/repository"
	"example.com/backstage/services/farm/internal/service"
)

// respondError maps service errors onto HTTP statuses. Missing records are
// 404, conflicting sensor assignments 409, rejected input 400; anything else
// is logged and reported as a 500 with the fallback message so storage
// details never leak to clients.
func respondError(c *gin.Context, log *logrus.Logger, err error, fallback string) {
	switch errors.Cause(err) {
	case repository.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case repository.ErrConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case service.ErrValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// respondBindError renders a request binding failure. Tag violations are
// reported per field so gateway firmware can tell which value was rejected;
// malformed JSON gets only the fallback message.
func respondBindError(c *gin.Context, log *logrus.Logger, err error, fallback string) {
	log.WithError(err).Warn(fallback)

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": fallback, "details": details})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": fallback})
}
