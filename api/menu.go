package api

import (
	"errors"
	"net/http"
	"strconv"

	"burger-storefront/services"

	"github.com/gin-gonic/gin"
)

// GET /api/menu[?tipo=]
func (s *Server) listMenu(c *gin.Context) {
	var tipo *int
	if raw := c.Query("tipo"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondMessage(c, http.StatusBadRequest, "tipo inválido")
			return
		}
		tipo = &n
	}
	items, err := s.store.ListMenu(c.Request.Context(), tipo)
	if err != nil {
		respondInternal(c, "GET /api/menu", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /api/menu/item/:id
func (s *Server) getMenuItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondMessage(c, http.StatusBadRequest, "ID inválido")
		return
	}
	item, err := s.store.GetMenuItem(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		respondMessage(c, http.StatusNotFound, "Producto no encontrado")
		return
	}
	if err != nil {
		respondInternal(c, "GET /api/menu/item/:id", err)
		return
	}
	c.JSON(http.StatusOK, item)
}
