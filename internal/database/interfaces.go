package database

import (
	"context"

	"kml-eagle/internal/models"
)

// DataStore is the interface for data persistence
type DataStore interface {
	Close() error
	HealthCheck(ctx context.Context) error
	Routes() RouteRepository
}

// RouteRepository handles saved route persistence. GetByID returns
// (nil, nil) for a missing id; Update and Delete return ErrNotFound.
type RouteRepository interface {
	List(ctx context.Context, search string) ([]models.SavedRoute, error)
	GetByID(ctx context.Context, id int64) (*models.SavedRoute, error)
	Create(ctx context.Context, r *models.SavedRoute) (*models.SavedRoute, error)
	Update(ctx context.Context, r *models.SavedRoute) (*models.SavedRoute, error)
	Delete(ctx context.Context, id int64) error
}
