package ports

import "context"

// CatalogEntry is the existence/active flag returned by the catalog collaborator
type CatalogEntry struct {
	ID     string
	Active bool
}

// CatalogDirectory is the read-only lookup into the branch and vehicle
// catalogs. Catalog CRUD lives outside this service.
type CatalogDirectory interface {
	GetBranch(ctx context.Context, id string) (*CatalogEntry, error)
	GetVehicle(ctx context.Context, id string) (*CatalogEntry, error)
}
