// Package tenant derives the stable tenant identifier and tenant-scoped
// collection names used to isolate indexed data per hosting instance.
package tenant

import (
	"fmt"
	"hash/crc32"
)

// ResolveTenantID derives a stable tenant id from host configuration.
// A configured reverse-proxy/override host URL wins; otherwise the first
// 8 characters of the instance id are used. Missing values fall back to
// the literal "default" instance id. Deterministic and side-effect-free.
func ResolveTenantID(overrideHost, instanceID string) string {
	if overrideHost != "" {
		return fmt.Sprintf("nc_%d", crc32.ChecksumIEEE([]byte(overrideHost)))
	}
	if instanceID == "" {
		instanceID = "default"
	}
	if len(instanceID) > 8 {
		instanceID = instanceID[:8]
	}
	return "nc_" + instanceID
}

// Resolver maps base collection names to tenant-scoped names. Immutable for
// the process lifetime.
type Resolver struct {
	tenantID    string
	multitenant bool
}

// NewResolver builds a Resolver. An explicit tenantID override wins over
// derivation from host configuration.
func NewResolver(multitenant bool, tenantID, overrideHost, instanceID string) *Resolver {
	if tenantID == "" {
		tenantID = ResolveTenantID(overrideHost, instanceID)
	}
	return &Resolver{tenantID: tenantID, multitenant: multitenant}
}

// TenantID returns the resolved tenant identifier.
func (r *Resolver) TenantID() string {
	return r.tenantID
}

// Multitenant reports whether tenant-scoped collection naming is enabled.
func (r *Resolver) Multitenant() bool {
	return r.multitenant
}

// CollectionName returns the tenant-scoped collection name for base.
// When multi-tenancy is disabled the base name is returned unchanged.
func (r *Resolver) CollectionName(base string) string {
	if !r.multitenant {
		return base
	}
	return base + "_" + r.tenantID
}
