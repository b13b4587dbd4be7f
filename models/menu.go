package models

// MenuItem is a row of the menu table. JSON names match the storefront wire format.
type MenuItem struct {
	ID               int64  `json:"id"`
	Nombre           string `json:"Nombre"`
	Descripcion      string `json:"Descripcion"`
	PrecioOriente    int64  `json:"PrecioOriente"`
	PrecioRestoPais  int64  `json:"PrecioRestoPais"`
	PrecioAreaMetrop int64  `json:"PrecioAreaMetrop"`
	Tipo             int    `json:"tipo"`
	Activo           int    `json:"Activo"`
	Imagen           string `json:"imagen"`
}

// Category codes (menu.tipo).
const (
	CategoryBurger = 1
	CategoryExtra  = 2 // add-ons selectable on a cart line
	CategoryCooked = 3
)

// Price zones, one per regional price column.
const (
	ZoneOriente    = "oriente"
	ZoneRestoPais  = "resto_pais"
	ZoneAreaMetrop = "area_metrop"
)

// Price returns the item price for the zone; unknown zones fall back to Oriente.
func (m MenuItem) Price(zone string) int64 {
	switch zone {
	case ZoneRestoPais:
		return m.PrecioRestoPais
	case ZoneAreaMetrop:
		return m.PrecioAreaMetrop
	default:
		return m.PrecioOriente
	}
}

// HasCookingTerm reports whether a cooking preference applies to this category.
func HasCookingTerm(tipo int) bool {
	return tipo == CategoryBurger || tipo == CategoryCooked
}
