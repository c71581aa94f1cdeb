package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"kml-eagle/internal/database"
	"kml-eagle/internal/errors"
	"kml-eagle/internal/models"
)

type routeRepository struct {
	store *Store
}

const routeColumns = `id, name, frequency, shift, waypoints, total_distance, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (*models.SavedRoute, error) {
	var r models.SavedRoute
	var waypoints string
	if err := row.Scan(
		&r.ID, &r.Info.Name, &r.Info.Frequency, &r.Info.Shift,
		&waypoints, &r.TotalDistance, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(waypoints), &r.Waypoints); err != nil {
		return nil, errors.Wrapf(err, "failed to decode waypoints of route %d", r.ID)
	}
	return &r, nil
}

func encodeWaypoints(wps []models.Waypoint) (string, error) {
	if wps == nil {
		wps = []models.Waypoint{}
	}
	data, err := json.Marshal(wps)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode waypoints")
	}
	return string(data), nil
}

func (r *routeRepository) List(ctx context.Context, search string) ([]models.SavedRoute, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var rows *sql.Rows
	var err error

	if search != "" {
		query := `SELECT ` + routeColumns + ` FROM saved_routes WHERE name LIKE ? ORDER BY name`
		rows, err = r.store.db.QueryContext(ctx, query, "%"+search+"%")
	} else {
		query := `SELECT ` + routeColumns + ` FROM saved_routes ORDER BY name`
		rows, err = r.store.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query saved routes")
	}
	defer rows.Close()

	routes := []models.SavedRoute{}
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan saved route")
		}
		routes = append(routes, *route)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating saved routes")
	}
	return routes, nil
}

func (r *routeRepository) GetByID(ctx context.Context, id int64) (*models.SavedRoute, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT ` + routeColumns + ` FROM saved_routes WHERE id = ?`
	route, err := scanRoute(r.store.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get saved route")
	}
	return route, nil
}

func (r *routeRepository) Create(ctx context.Context, route *models.SavedRoute) (*models.SavedRoute, error) {
	waypoints, err := encodeWaypoints(route.Waypoints)
	if err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	route.CreatedAt = now
	route.UpdatedAt = now

	query := `INSERT INTO saved_routes (name, frequency, shift, waypoints, total_distance, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := r.store.db.ExecContext(ctx, query,
		route.Info.Name, route.Info.Frequency, route.Info.Shift,
		waypoints, route.TotalDistance, route.CreatedAt, route.UpdatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create saved route")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get last insert id")
	}
	route.ID = id

	return route, nil
}

func (r *routeRepository) Update(ctx context.Context, route *models.SavedRoute) (*models.SavedRoute, error) {
	waypoints, err := encodeWaypoints(route.Waypoints)
	if err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	route.UpdatedAt = time.Now().UTC()

	query := `UPDATE saved_routes
	          SET name = ?, frequency = ?, shift = ?, waypoints = ?, total_distance = ?, updated_at = ?
	          WHERE id = ?`

	result, err := r.store.db.ExecContext(ctx, query,
		route.Info.Name, route.Info.Frequency, route.Info.Shift,
		waypoints, route.TotalDistance, route.UpdatedAt, route.ID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update saved route")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return nil, database.ErrNotFound
	}

	// created_at is not part of the update payload
	if err := r.store.db.QueryRowContext(ctx,
		`SELECT created_at FROM saved_routes WHERE id = ?`, route.ID,
	).Scan(&route.CreatedAt); err != nil {
		return nil, errors.Wrap(err, "failed to reload saved route")
	}

	return route, nil
}

func (r *routeRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result, err := r.store.db.ExecContext(ctx, `DELETE FROM saved_routes WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete saved route")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return database.ErrNotFound
	}
	return nil
}
