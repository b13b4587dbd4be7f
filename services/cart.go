package services

import (
	"fmt"
	"strings"

	"burger-storefront/models"

	"github.com/pkg/errors"
)

const (
	MinQuantity = 1
	MaxQuantity = 99
)

// Cooking terms accepted on burger and cooked-item lines.
const (
	CookingNormal     = "normal"
	CookingMedium     = "medio"
	CookingWellDone   = "bien_cocida"
	maxModifications  = 20
	maxModificationLn = 80
)

var ErrLineIndex = errors.New("cart line out of range")

// ValidationError is a client mistake in a cart or checkout request. Msg is
// safe to show to the customer.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

type Extra struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
	Precio int64  `json:"precio"`
}

// CartItem is one configured product line, the same shape the storefront keeps
// in the browser.
type CartItem struct {
	ProductID     int64    `json:"productId"`
	Nombre        string   `json:"nombre"`
	Tipo          int      `json:"tipo"`
	BasePrice     int64    `json:"basePrice"`
	Extras        []Extra  `json:"extras"`
	Modifications []string `json:"modifications"`
	Cooking       string   `json:"cooking,omitempty"`
	Quantity      int      `json:"quantity"`
	Total         int64    `json:"total"`
}

func (it *CartItem) recompute() {
	it.Total = LineTotal(it.BasePrice, it.Extras, it.Quantity)
}

// LineTotal = (base + sum of extras) x qty.
func LineTotal(base int64, extras []Extra, qty int) int64 {
	unit := base
	for _, ex := range extras {
		unit += ex.Precio
	}
	return unit * int64(qty)
}

func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// CookingLabel is how a cooking term reads in the order text.
func CookingLabel(term string) string {
	switch term {
	case CookingMedium:
		return "Medio hecha"
	case CookingWellDone:
		return "Bien cocida"
	default:
		return "Normal"
	}
}

// Cart is the reference implementation of the browser cart. The storefront's
// +, - and remove buttons map to Increment, Decrement and Remove, and its
// totals must equal Subtotal and Total. PriceCart builds one from a request.
type Cart struct {
	Items []CartItem `json:"items"`
}

// Add appends a line with its quantity clamped and total recomputed.
func (c *Cart) Add(it CartItem) {
	it.Quantity = ClampQuantity(it.Quantity)
	it.recompute()
	c.Items = append(c.Items, it)
}

// Increment raises quantity by one, stopping at MaxQuantity.
func (c *Cart) Increment(i int) error {
	if i < 0 || i >= len(c.Items) {
		return ErrLineIndex
	}
	it := &c.Items[i]
	it.Quantity = ClampQuantity(it.Quantity + 1)
	it.recompute()
	return nil
}

// Decrement lowers quantity by one. A line at quantity 1 is left untouched and
// needsConfirm is true: the caller must confirm and then call Remove.
func (c *Cart) Decrement(i int) (needsConfirm bool, err error) {
	if i < 0 || i >= len(c.Items) {
		return false, ErrLineIndex
	}
	it := &c.Items[i]
	if it.Quantity <= MinQuantity {
		return true, nil
	}
	it.Quantity--
	it.recompute()
	return false, nil
}

func (c *Cart) Remove(i int) error {
	if i < 0 || i >= len(c.Items) {
		return ErrLineIndex
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return nil
}

func (c Cart) Subtotal() int64 {
	var s int64
	for _, it := range c.Items {
		s += it.Total
	}
	return s
}

// DeliveryFee is charged only for delivery orders with at least one line.
func (c Cart) DeliveryFee(mode string, fee int64) int64 {
	if mode != models.DeliveryModeDelivery || len(c.Items) == 0 {
		return 0
	}
	return fee
}

func (c Cart) Total(mode string, fee int64) int64 {
	return c.Subtotal() + c.DeliveryFee(mode, fee)
}

// CartLineRequest is a cart line as sent by the client: ids and options only,
// prices are looked up server side.
type CartLineRequest struct {
	ProductID     int64    `json:"productId"`
	Quantity      int      `json:"quantity"`
	ExtraIDs      []int64  `json:"extraIds"`
	Modifications []string `json:"modifications"`
	Cooking       string   `json:"cooking"`
}

// MenuIDs lists every product and extra id referenced by lines.
func MenuIDs(lines []CartLineRequest) []int64 {
	seen := map[int64]bool{}
	var ids []int64
	add := func(id int64) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, l := range lines {
		add(l.ProductID)
		for _, id := range l.ExtraIDs {
			add(id)
		}
	}
	return ids
}

// PriceCart builds a cart from request lines using menu prices for zone. menu
// must hold the active items referenced by lines (see MenuIDs).
func PriceCart(lines []CartLineRequest, menu map[int64]models.MenuItem, zone string) (Cart, error) {
	var cart Cart
	if len(lines) == 0 {
		return cart, invalid("El carrito está vacío")
	}
	for i, l := range lines {
		p, ok := menu[l.ProductID]
		if !ok || p.Activo != 1 {
			return Cart{}, invalid("Producto no disponible en la línea %d", i+1)
		}
		if p.Tipo == models.CategoryExtra {
			return Cart{}, invalid("La adición %q no se vende sola", p.Nombre)
		}
		item := CartItem{
			ProductID:     p.ID,
			Nombre:        p.Nombre,
			Tipo:          p.Tipo,
			BasePrice:     p.Price(zone),
			Extras:        []Extra{},
			Modifications: cleanModifications(l.Modifications),
			Quantity:      l.Quantity,
		}
		for _, id := range l.ExtraIDs {
			ex, ok := menu[id]
			if !ok || ex.Activo != 1 || ex.Tipo != models.CategoryExtra {
				return Cart{}, invalid("Adición no disponible en la línea %d", i+1)
			}
			item.Extras = append(item.Extras, Extra{ID: ex.ID, Nombre: ex.Nombre, Precio: ex.Price(zone)})
		}
		if models.HasCookingTerm(p.Tipo) {
			switch l.Cooking {
			case "", CookingNormal:
				item.Cooking = CookingNormal
			case CookingMedium, CookingWellDone:
				item.Cooking = l.Cooking
			default:
				return Cart{}, invalid("Término de cocción inválido en la línea %d", i+1)
			}
		}
		cart.Add(item)
	}
	return cart, nil
}

func cleanModifications(mods []string) []string {
	out := []string{}
	for _, m := range mods {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if r := []rune(m); len(r) > maxModificationLn {
			m = string(r[:maxModificationLn])
		}
		out = append(out, m)
		if len(out) == maxModifications {
			break
		}
	}
	return out
}
