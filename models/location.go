package models

import "strconv"

// Location is a store (punto de venta) with coordinates and a WhatsApp contact.
type Location struct {
	ID           int64   `json:"id"`
	Direccion    string  `json:"Direccion"`
	Latitud      float64 `json:"Latitud"`
	Longitud     float64 `json:"Longitud"`
	Departamento string  `json:"Departamento"`
	Municipio    string  `json:"Municipio"`
	Barrio       string  `json:"Barrio"`
	NumWhatsapp  string  `json:"num_whatsapp"`
	URLImage     string  `json:"URL_image"`
}

// name is the Barrio, else the Direccion, else "".
func (l Location) name() string {
	if l.Barrio != "" {
		return l.Barrio
	}
	return l.Direccion
}

// DisplayName is how a store is named in order texts.
func (l Location) DisplayName() string {
	if n := l.name(); n != "" {
		return n
	}
	return "Punto de venta"
}

// OrderLabel is the store reference written to pedidos.puntoventa. Unnamed
// stores are recorded by id.
func (l Location) OrderLabel() string {
	if n := l.name(); n != "" {
		return n
	}
	return strconv.FormatInt(l.ID, 10)
}
