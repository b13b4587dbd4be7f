package models

import "time"

const OrderStatusReceived = "Recibido"

// Order is a row from the pedidos table. Orders are append-only.
type Order struct {
	ID               int64     `json:"id"`
	NombreCliente    string    `json:"nombre_cliente"` // customer email
	ResumenPedido    string    `json:"resumen_pedido"`
	DireccionCliente string    `json:"direccion_cliente"`
	CelularCliente   string    `json:"celular_cliente"`
	PuntoVenta       string    `json:"puntoventa"`
	Estado           string    `json:"estado"`
	CreatedAt        time.Time `json:"created_at"`
}

// Delivery modes chosen at checkout.
const (
	DeliveryModeDelivery = "domicilio"
	DeliveryModePickup   = "recoger"
)

// Customer is the contact block entered at checkout.
type Customer struct {
	Nombre    string `json:"nombre"`
	Correo    string `json:"correo"`
	Celular   string `json:"celular"`
	Direccion string `json:"direccion"`
}
