package services

import (
	"context"

	"burger-storefront/models"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const menuColumns = `id, "Nombre", "Descripcion", "PrecioOriente", "PrecioRestoPais", "PrecioAreaMetrop", tipo, "Activo", imagen`

func scanMenuItem(row pgx.Row) (models.MenuItem, error) {
	var m models.MenuItem
	err := row.Scan(&m.ID, &m.Nombre, &m.Descripcion, &m.PrecioOriente, &m.PrecioRestoPais,
		&m.PrecioAreaMetrop, &m.Tipo, &m.Activo, &m.Imagen)
	return m, err
}

// ListMenu returns active items ordered by id, optionally only one category.
func (s *Store) ListMenu(ctx context.Context, tipo *int) ([]models.MenuItem, error) {
	q := `SELECT ` + menuColumns + ` FROM menu WHERE "Activo" = 1`
	args := []any{}
	if tipo != nil {
		q += ` AND tipo = $1`
		args = append(args, *tipo)
	}
	q += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list menu")
	}
	defer rows.Close()

	items := []models.MenuItem{}
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan menu item")
		}
		items = append(items, m)
	}
	return items, errors.Wrap(rows.Err(), "list menu")
}

// GetMenuItem returns one item regardless of its Activo flag.
func (s *Store) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	m, err := scanMenuItem(s.pool.QueryRow(ctx, `SELECT `+menuColumns+` FROM menu WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "get menu item %d", id)
	}
	return &m, nil
}

// MenuItemsByID loads the active items among ids, keyed by id. Missing or
// inactive ids are simply absent from the map.
func (s *Store) MenuItemsByID(ctx context.Context, ids []int64) (map[int64]models.MenuItem, error) {
	out := make(map[int64]models.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT `+menuColumns+` FROM menu WHERE "Activo" = 1 AND id = ANY($1)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "menu items by id")
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan menu item")
		}
		out[m.ID] = m
	}
	return out, errors.Wrap(rows.Err(), "menu items by id")
}
