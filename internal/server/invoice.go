package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	invoicedomain "github.com/billwise/billwise/internal/invoice/domain"
)

type createInvoiceRequest struct {
	CustomerID  string `json:"customer_id"`
	InvoiceDate string `json:"invoice_date"`
	DueDate     string `json:"due_date"`
	Description string `json:"description"`
	CreatedBy   string `json:"created_by"`
}

type addInvoiceItemRequest struct {
	ProductID    string           `json:"product_id"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	DiscountRate decimal.Decimal  `json:"discount_rate"`
}

type payInvoiceRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	PaymentDate string          `json:"payment_date"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoiceDate, err := parseOptionalDate(req.InvoiceDate)
	if err != nil {
		AbortWithError(c, newValidationError("invoice_date", "invalid_invoice_date", "invalid invoice_date"))
		return
	}
	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		CustomerID:  req.CustomerID,
		InvoiceDate: invoiceDate,
		DueDate:     dueDate,
		Description: req.Description,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	resp, err := s.invoiceSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AddInvoiceItem(c *gin.Context) {
	var req addInvoiceItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.AddItem(c.Request.Context(), invoicedomain.AddItemRequest{
		InvoiceID:    strings.TrimSpace(c.Param("id")),
		ProductID:    req.ProductID,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		DiscountRate: req.DiscountRate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RemoveInvoiceItem(c *gin.Context) {
	err := s.invoiceSvc.RemoveItem(c.Request.Context(),
		strings.TrimSpace(c.Param("id")),
		strings.TrimSpace(c.Param("itemId")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func (s *Server) SendInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.MarkAsSent(c.Request.Context(), strings.TrimSpace(c.Param("id")), actorFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PayInvoice(c *gin.Context) {
	var req payInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var paymentDate *time.Time
	if strings.TrimSpace(req.PaymentDate) != "" {
		parsed, err := parseOptionalDate(req.PaymentDate)
		if err != nil {
			AbortWithError(c, newValidationError("payment_date", "invalid_payment_date", "invalid payment_date"))
			return
		}
		paymentDate = &parsed
	}

	resp, err := s.invoiceSvc.MarkAsPaid(c.Request.Context(), invoicedomain.MarkAsPaidRequest{
		InvoiceID:   strings.TrimSpace(c.Param("id")),
		Amount:      req.Amount,
		Method:      invoicedomain.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.Method))),
		PaymentDate: paymentDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CheckInvoiceOverdue(c *gin.Context) {
	resp, err := s.invoiceSvc.CheckOverdueStatus(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.Cancel(c.Request.Context(), strings.TrimSpace(c.Param("id")), actorFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RecalculateInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.RecalculateTotals(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// parseOptionalDate accepts RFC 3339 timestamps and bare dates. The
// empty string parses to the zero time.
func parseOptionalDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", raw)
}

func isInvoiceValidationError(err error) bool {
	switch err {
	case invoicedomain.ErrInvalidID,
		invoicedomain.ErrInvalidQuantity,
		invoicedomain.ErrInvalidAmount,
		invoicedomain.ErrInvalidDueDate:
		return true
	default:
		return false
	}
}
