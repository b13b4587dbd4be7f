package api

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"burger-storefront/models"

	"github.com/gin-gonic/gin"
)

const maxSummaryLen = 10000

type orderRequest struct {
	NombreCliente    string `json:"nombre_cliente"`
	ResumenPedido    string `json:"resumen_pedido"`
	DireccionCliente string `json:"direccion_cliente"`
	CelularCliente   string `json:"celular_cliente"`
	PuntoVenta       string `json:"puntoventa"`
}

// POST /api/pedidos
func (s *Server) createOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, msgBadJSON)
		return
	}
	o := models.Order{
		NombreCliente:    strings.TrimSpace(req.NombreCliente),
		ResumenPedido:    strings.TrimSpace(req.ResumenPedido),
		DireccionCliente: strings.TrimSpace(req.DireccionCliente),
		CelularCliente:   strings.TrimSpace(req.CelularCliente),
		PuntoVenta:       strings.TrimSpace(req.PuntoVenta),
		Estado:           models.OrderStatusReceived,
	}
	if o.NombreCliente == "" || o.ResumenPedido == "" {
		respondMessage(c, http.StatusBadRequest, "nombre_cliente y resumen_pedido son obligatorios")
		return
	}
	if utf8.RuneCountInString(o.ResumenPedido) > maxSummaryLen {
		respondMessage(c, http.StatusBadRequest, "resumen_pedido es demasiado largo")
		return
	}

	id, err := s.store.CreateOrder(c.Request.Context(), o)
	if err != nil {
		respondInternal(c, "POST /api/pedidos", err)
		return
	}
	o.ID = id
	s.notifyStaff(c, o)
	c.JSON(http.StatusCreated, gin.H{"message": "Pedido registrado", "id": id})
}

// notifyStaff never fails the request.
func (s *Server) notifyStaff(c *gin.Context, o models.Order) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyOrder(c.Request.Context(), o); err != nil {
		loggerFrom(c).WithError(err).WithField("order_id", o.ID).Warn("staff notification dropped")
	}
}
