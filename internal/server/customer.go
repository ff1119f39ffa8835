package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	customerdomain "github.com/billwise/billwise/internal/customer/domain"
)

type createCustomerRequest struct {
	Name           string          `json:"name"`
	TaxNumber      string          `json:"tax_number"`
	IdentityNumber string          `json:"identity_number"`
	Address        string          `json:"address"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	Type           string          `json:"type"`
	CreditLimit    decimal.Decimal `json:"credit_limit"`
	CreatedBy      string          `json:"created_by"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.Create(c.Request.Context(), customerdomain.CreateCustomerRequest{
		Name:           req.Name,
		TaxNumber:      req.TaxNumber,
		IdentityNumber: req.IdentityNumber,
		Address:        req.Address,
		Phone:          req.Phone,
		Email:          req.Email,
		Type:           customerdomain.CustomerType(strings.ToUpper(strings.TrimSpace(req.Type))),
		CreditLimit:    req.CreditLimit,
		CreatedBy:      req.CreatedBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCustomers(c *gin.Context) {
	resp, err := s.customerSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	resp, err := s.customerSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AddCustomerDebt(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.AddDebt(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.Amount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PayCustomerDebt(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.PayDebt(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.Amount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCustomerCreditLimit(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.UpdateCreditLimit(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.Amount, actorFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ActivateCustomer(c *gin.Context) {
	resp, err := s.customerSvc.Activate(c.Request.Context(), strings.TrimSpace(c.Param("id")), actorFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivateCustomer(c *gin.Context) {
	resp, err := s.customerSvc.Deactivate(c.Request.Context(), strings.TrimSpace(c.Param("id")), actorFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteCustomer(c *gin.Context) {
	if err := s.customerSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id")), actorFrom(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func isCustomerValidationError(err error) bool {
	switch err {
	case customerdomain.ErrInvalidID,
		customerdomain.ErrInvalidName,
		customerdomain.ErrInvalidAmount,
		customerdomain.ErrAmountExceedsDebt:
		return true
	default:
		return false
	}
}
