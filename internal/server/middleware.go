package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/billwise/billwise/pkg/tenantctx"
)

const HeaderCompany = "X-Company-ID"

// CompanyContext resolves the tenant from the X-Company-ID header and
// injects it into the request context. Tenant-scoped routes refuse
// requests without it.
func (s *Server) CompanyContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderCompany))
		if raw == "" {
			AbortWithError(c, newValidationError("company_id", "missing_company_id", "missing X-Company-ID header"))
			return
		}

		companyID, err := snowflake.ParseString(raw)
		if err != nil || companyID == 0 {
			AbortWithError(c, newValidationError("company_id", "invalid_company_id", "invalid X-Company-ID header"))
			return
		}

		ctx := tenantctx.WithCompanyID(c.Request.Context(), companyID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
