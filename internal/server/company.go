package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	companydomain "github.com/billwise/billwise/internal/company/domain"
)

type createCompanyRequest struct {
	Name      string `json:"name"`
	TaxNumber string `json:"tax_number"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	CreatedBy string `json:"created_by"`
}

type updateCompanyRequest struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	UpdatedBy string `json:"updated_by"`
}

func (s *Server) CreateCompany(c *gin.Context) {
	var req createCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.companySvc.Create(c.Request.Context(), companydomain.CreateCompanyRequest{
		Name:      req.Name,
		TaxNumber: req.TaxNumber,
		Address:   req.Address,
		Phone:     req.Phone,
		Email:     req.Email,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCompanies(c *gin.Context) {
	resp, err := s.companySvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCompanyByID(c *gin.Context) {
	resp, err := s.companySvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCompany(c *gin.Context) {
	var req updateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.companySvc.Update(c.Request.Context(), companydomain.UpdateCompanyRequest{
		ID:        strings.TrimSpace(c.Param("id")),
		Name:      req.Name,
		Address:   req.Address,
		Phone:     req.Phone,
		Email:     req.Email,
		UpdatedBy: req.UpdatedBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ActivateCompany(c *gin.Context) {
	resp, err := s.companySvc.Activate(c.Request.Context(), strings.TrimSpace(c.Param("id")), actorFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivateCompany(c *gin.Context) {
	resp, err := s.companySvc.Deactivate(c.Request.Context(), strings.TrimSpace(c.Param("id")), actorFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteCompany(c *gin.Context) {
	if err := s.companySvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id")), actorFrom(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) RestoreCompany(c *gin.Context) {
	resp, err := s.companySvc.Restore(c.Request.Context(), strings.TrimSpace(c.Param("id")), actorFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func actorFrom(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("X-Actor"))
}

func isCompanyValidationError(err error) bool {
	switch err {
	case companydomain.ErrInvalidID,
		companydomain.ErrInvalidName,
		companydomain.ErrInvalidTaxNumber:
		return true
	default:
		return false
	}
}
