package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billwise/billwise/pkg/tenantctx"
)

func (s *Server) ListAuditLogs(c *gin.Context) {
	companyID, ok := tenantctx.CompanyID(c.Request.Context())
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), companyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
