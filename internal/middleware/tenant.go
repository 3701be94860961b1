package middleware

import (
	"context"
	"net/http"
)

type tenantKeyType struct{}

var tenantKey = tenantKeyType{}

// DefaultTenant is used when a request carries no X-Tenant-ID header, so a
// single-tenant deployment needs no client changes.
const DefaultTenant = "default"

// TenantID resolves the caller's tenant from the X-Tenant-ID header and
// stores it on the request context. Every data access downstream is scoped
// by this value.
func TenantID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := r.Header.Get("X-Tenant-ID")
		if tenant == "" {
			tenant = DefaultTenant
		}
		next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenant)))
	})
}

func WithTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, tenantKey, tenant)
}

func GetTenant(ctx context.Context) string {
	if tenant, ok := ctx.Value(tenantKey).(string); ok && tenant != "" {
		return tenant
	}
	return DefaultTenant
}
