package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	msgInternal     = "Error inesperado en el servidor"
	msgUnauthorized = "No autorizado"
	msgBadJSON      = "Solicitud inválida"
)

func respondMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

// respondInternal logs err under tag and answers a generic 500.
func respondInternal(c *gin.Context, tag string, err error) {
	loggerFrom(c).WithError(err).WithField("route", tag).Error("unexpected error")
	respondMessage(c, http.StatusInternalServerError, msgInternal)
}
