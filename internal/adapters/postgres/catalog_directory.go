package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/drivehub/booking-service/internal/domain"
	"github.com/drivehub/booking-service/internal/domain/ports"
)

// CatalogDirectory resolves branches and vehicles from the catalog tables.
// The booking service only needs existence and the active flag; the rest of
// the catalog belongs to the fleet system.
type CatalogDirectory struct {
	db ports.DBPort
}

// NewCatalogDirectory creates a new catalog directory
func NewCatalogDirectory(db ports.DBPort) *CatalogDirectory {
	return &CatalogDirectory{db: db}
}

// GetBranch looks up a branch by id
func (d *CatalogDirectory) GetBranch(ctx context.Context, id string) (*ports.CatalogEntry, error) {
	return d.lookup(ctx, `SELECT id, active FROM branches WHERE id = $1`, id, "branch_id")
}

// GetVehicle looks up a vehicle by id
func (d *CatalogDirectory) GetVehicle(ctx context.Context, id string) (*ports.CatalogEntry, error) {
	return d.lookup(ctx, `SELECT id, active FROM vehicles WHERE id = $1`, id, "vehicle_id")
}

func (d *CatalogDirectory) lookup(ctx context.Context, query, id, detailKey string) (*ports.CatalogEntry, error) {
	var entry ports.CatalogEntry
	err := d.db.GetDB().QueryRow(ctx, query, id).Scan(&entry.ID, &entry.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCatalogNotFound.WithDetail(detailKey, id)
		}
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "catalog lookup", err)
	}
	return &entry, nil
}
