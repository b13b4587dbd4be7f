package api

import (
	"math"
	"net/http"
	"strconv"

	"burger-storefront/services"

	"github.com/gin-gonic/gin"
)

// GET /api/puntos-venta
func (s *Server) listLocations(c *gin.Context) {
	locs, err := s.store.ListLocations(c.Request.Context())
	if err != nil {
		respondInternal(c, "GET /api/puntos-venta", err)
		return
	}
	c.JSON(http.StatusOK, locs)
}

func parseCoord(raw string, limit float64) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > limit {
		return 0, false
	}
	return v, true
}

// GET /api/puntos-venta/cercano?lat=&lng=
func (s *Server) nearestLocation(c *gin.Context) {
	lat, okLat := parseCoord(c.Query("lat"), 90)
	lng, okLng := parseCoord(c.Query("lng"), 180)
	if !okLat || !okLng {
		respondMessage(c, http.StatusBadRequest, "Coordenadas inválidas")
		return
	}
	locs, err := s.store.ListLocations(c.Request.Context())
	if err != nil {
		respondInternal(c, "GET /api/puntos-venta/cercano", err)
		return
	}
	nearest, dist, ok := services.NearestLocation(lat, lng, locs)
	if !ok {
		respondMessage(c, http.StatusNotFound, "No hay puntos de venta disponibles")
		return
	}
	c.JSON(http.StatusOK, services.LocationWithDistance{Location: nearest, Distance: services.RoundKm(dist)})
}
