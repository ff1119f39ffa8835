// Package tenantctx carries the active company (tenant) through the
// request context.
package tenantctx

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type companyKey struct{}

// WithCompanyID stores the company ID in the context.
func WithCompanyID(ctx context.Context, id snowflake.ID) context.Context {
	return context.WithValue(ctx, companyKey{}, id)
}

// CompanyID returns the company ID from context, if set.
func CompanyID(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(companyKey{}).(snowflake.ID)
	if !ok || id == 0 {
		return 0, false
	}
	return id, true
}
