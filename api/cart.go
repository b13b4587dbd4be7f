package api

import (
	"errors"
	"net/http"
	"strings"

	"burger-storefront/models"
	"burger-storefront/services"

	"github.com/gin-gonic/gin"
)

const maxCartLines = 50

type quoteRequest struct {
	Items []services.CartLineRequest `json:"items"`
	Modo  string                     `json:"modo"`
}

type quoteResponse struct {
	Items     []services.CartItem `json:"items"`
	Subtotal  int64               `json:"subtotal"`
	Domicilio int64               `json:"domicilio"`
	Total     int64               `json:"total"`
}

func normMode(m string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(m)) {
	case "", models.DeliveryModeDelivery:
		return models.DeliveryModeDelivery, true
	case models.DeliveryModePickup:
		return models.DeliveryModePickup, true
	default:
		return "", false
	}
}

// priceLines loads menu prices and builds the cart. It writes the error
// response itself and returns ok=false when the request cannot go on.
func (s *Server) priceLines(c *gin.Context, tag string, lines []services.CartLineRequest) (services.Cart, bool) {
	if len(lines) > maxCartLines {
		respondMessage(c, http.StatusBadRequest, "Demasiados productos en el carrito")
		return services.Cart{}, false
	}
	menu, err := s.store.MenuItemsByID(c.Request.Context(), services.MenuIDs(lines))
	if err != nil {
		respondInternal(c, tag, err)
		return services.Cart{}, false
	}
	cart, err := services.PriceCart(lines, menu, s.opt.PriceZone)
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		respondMessage(c, http.StatusBadRequest, verr.Msg)
		return services.Cart{}, false
	}
	if err != nil {
		respondInternal(c, tag, err)
		return services.Cart{}, false
	}
	return cart, true
}

func newQuote(cart services.Cart, mode string, fee int64) quoteResponse {
	return quoteResponse{
		Items:     cart.Items,
		Subtotal:  cart.Subtotal(),
		Domicilio: cart.DeliveryFee(mode, fee),
		Total:     cart.Total(mode, fee),
	}
}

// POST /api/carrito/cotizar
func (s *Server) quoteCart(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, msgBadJSON)
		return
	}
	mode, ok := normMode(req.Modo)
	if !ok {
		respondMessage(c, http.StatusBadRequest, "Modo de entrega inválido")
		return
	}
	cart, ok := s.priceLines(c, "POST /api/carrito/cotizar", req.Items)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newQuote(cart, mode, s.opt.DeliveryFee))
}

type checkoutRequest struct {
	Cliente      models.Customer            `json:"cliente"`
	PuntoVentaID int64                      `json:"puntoVentaId"`
	Modo         string                     `json:"modo"`
	Items        []services.CartLineRequest `json:"items"`
}

type checkoutResponse struct {
	quoteResponse
	PedidoID    int64  `json:"pedidoId,omitempty"`
	Registrado  bool   `json:"registrado"`
	Mensaje     string `json:"mensaje"`
	WhatsAppURL string `json:"whatsappUrl"`
}

// POST /api/checkout validates the customer, prices the cart, builds the
// order text and records the order. A failed insert does not block the
// WhatsApp handoff; registrado reports it.
func (s *Server) checkout(c *gin.Context) {
	const tag = "POST /api/checkout"
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, msgBadJSON)
		return
	}
	mode, ok := normMode(req.Modo)
	if !ok {
		respondMessage(c, http.StatusBadRequest, "Modo de entrega inválido")
		return
	}

	cust := models.Customer{
		Nombre:    strings.TrimSpace(req.Cliente.Nombre),
		Correo:    normEmail(req.Cliente.Correo),
		Celular:   services.NormalizePhone(req.Cliente.Celular),
		Direccion: strings.TrimSpace(req.Cliente.Direccion),
	}
	switch {
	case cust.Nombre == "":
		respondMessage(c, http.StatusBadRequest, "El nombre es obligatorio")
		return
	case !services.ValidEmail(cust.Correo):
		respondMessage(c, http.StatusBadRequest, "Correo inválido")
		return
	case !services.ValidPhone(cust.Celular):
		respondMessage(c, http.StatusBadRequest, "Celular inválido, usa el formato +57XXXXXXXXXX")
		return
	case mode == models.DeliveryModeDelivery && cust.Direccion == "":
		respondMessage(c, http.StatusBadRequest, "La dirección es obligatoria para domicilio")
		return
	}

	ctx := c.Request.Context()
	loc, err := s.store.LocationByID(ctx, req.PuntoVentaID)
	if errors.Is(err, services.ErrNotFound) {
		respondMessage(c, http.StatusBadRequest, "Punto de venta no encontrado")
		return
	}
	if err != nil {
		respondInternal(c, tag, err)
		return
	}
	cart, ok := s.priceLines(c, tag, req.Items)
	if !ok {
		return
	}
	text := services.BuildOrderText(cust, cart, loc, mode, s.opt.DeliveryFee)
	waURL := services.WhatsAppURL(loc.NumWhatsapp, text)
	if waURL == "" {
		respondMessage(c, http.StatusBadRequest, "El punto de venta no tiene WhatsApp configurado")
		return
	}

	o := models.Order{
		NombreCliente:    cust.Correo,
		ResumenPedido:    text,
		DireccionCliente: cust.Direccion,
		CelularCliente:   cust.Celular,
		PuntoVenta:       loc.OrderLabel(),
		Estado:           models.OrderStatusReceived,
	}
	resp := checkoutResponse{
		quoteResponse: newQuote(cart, mode, s.opt.DeliveryFee),
		Mensaje:       text,
		WhatsAppURL:   waURL,
	}
	id, err := s.store.CreateOrder(ctx, o)
	if err != nil {
		loggerFrom(c).WithError(err).WithField("route", tag).Error("record order")
	} else {
		o.ID, resp.PedidoID, resp.Registrado = id, id, true
	}
	s.notifyStaff(c, o)
	c.JSON(http.StatusOK, resp)
}
