package services

import (
	"context"

	"burger-storefront/models"

	"github.com/pkg/errors"
)

// CreateOrder appends a pedidos row. Estado is always Recibido at creation.
func (s *Store) CreateOrder(ctx context.Context, o models.Order) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO pedidos (nombre_cliente, resumen_pedido, direccion_cliente, celular_cliente, puntoventa, estado)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		o.NombreCliente, o.ResumenPedido, o.DireccionCliente, o.CelularCliente, o.PuntoVenta,
		models.OrderStatusReceived,
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "insert pedido")
	}
	return id, nil
}
