package port

import (
	"support-triage-agent/internal/domain/entity"
)

// CatalogProvider exposes the read-only issue catalog. The catalog is fixed
// at startup; catalog changes are a deployment concern, not a runtime
// mutation, so the port deliberately has no write methods.
type CatalogProvider interface {
	// Causes returns all catalog entries in declaration order.
	Causes() []entity.Cause
}
