package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/skypass/internal/domain"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("request error")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", `Basic realm="skypass"`)
	}

	body := gin.H{"error": err.Error()}
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) && len(conflict.Seats) > 0 {
		body["seats"] = conflict.Seats
	}
	c.JSON(status, body)
}
