package services

import (
	"context"
	"math"
	"sort"

	"burger-storefront/models"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const locationColumns = `id, "Direccion", "Latitud", "Longitud", COALESCE("Departamento", ''), COALESCE("Municipio", ''),
	COALESCE("Barrio", ''), COALESCE(num_whatsapp, ''), COALESCE("URL_image", '')`

func scanLocation(row pgx.Row) (models.Location, error) {
	var l models.Location
	err := row.Scan(&l.ID, &l.Direccion, &l.Latitud, &l.Longitud, &l.Departamento, &l.Municipio,
		&l.Barrio, &l.NumWhatsapp, &l.URLImage)
	return l, err
}

// ListLocations returns all store locations.
func (s *Store) ListLocations(ctx context.Context) ([]models.Location, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+locationColumns+` FROM puntos_venta ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list locations")
	}
	defer rows.Close()

	res := []models.Location{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan location")
		}
		res = append(res, l)
	}
	return res, errors.Wrap(rows.Err(), "list locations")
}

// LocationByID returns a location by ID or ErrNotFound.
func (s *Store) LocationByID(ctx context.Context, id int64) (*models.Location, error) {
	l, err := scanLocation(s.pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM puntos_venta WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "location %d", id)
	}
	return &l, nil
}

// HaversineDistanceKm is the great-circle distance on a sphere of radius 6371 km.
func HaversineDistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

func finiteCoords(lat, lon float64) bool {
	return !math.IsNaN(lat) && !math.IsInf(lat, 0) && !math.IsNaN(lon) && !math.IsInf(lon, 0)
}

// NearestLocation picks the closest location. On equal distances the first one
// in list order wins. Locations with unusable coordinates are ignored; ok is
// false when none qualifies.
func NearestLocation(lat, lon float64, locs []models.Location) (nearest models.Location, distanceKm float64, ok bool) {
	if !finiteCoords(lat, lon) {
		return models.Location{}, 0, false
	}
	best := math.Inf(1)
	for _, l := range locs {
		if !finiteCoords(l.Latitud, l.Longitud) {
			continue
		}
		d := HaversineDistanceKm(lat, lon, l.Latitud, l.Longitud)
		if d < best {
			best, nearest, ok = d, l, true
		}
	}
	if !ok {
		return models.Location{}, 0, false
	}
	return nearest, best, true
}

type LocationWithDistance struct {
	Location models.Location `json:"puntoVenta"`
	Distance float64         `json:"distanciaKm"`
}

// SortLocationsByDistance computes distance from user and returns sorted slice.
// Locations with unusable coordinates are dropped.
func SortLocationsByDistance(userLat, userLon float64, locs []models.Location) []LocationWithDistance {
	withDist := make([]LocationWithDistance, 0, len(locs))
	for _, l := range locs {
		if !finiteCoords(l.Latitud, l.Longitud) {
			continue
		}
		withDist = append(withDist, LocationWithDistance{
			Location: l,
			Distance: RoundKm(HaversineDistanceKm(userLat, userLon, l.Latitud, l.Longitud)),
		})
	}
	sort.SliceStable(withDist, func(i, j int) bool {
		return withDist[i].Distance < withDist[j].Distance
	})
	return withDist
}

// RoundKm rounds to two decimals for display.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
