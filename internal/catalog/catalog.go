// internal/catalog/catalog.go
package catalog

import (
	"context"

	"weighbridge-service/internal/model"
)

// Provider supplies device descriptors. Providers are read-only; an unknown
// code yields model.ErrDeviceNotFound.
type Provider interface {
	Get(ctx context.Context, code string) (model.Descriptor, error)
	List(ctx context.Context) ([]model.Descriptor, error)
}
