package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	productdomain "github.com/billwise/billwise/internal/product/domain"
)

type createProductRequest struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	ProductCode    string          `json:"product_code"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	Unit           string          `json:"unit"`
	Type           string          `json:"type"`
	IsStockTracked bool            `json:"is_stock_tracked"`
	StockQuantity  decimal.Decimal `json:"stock_quantity"`
	MinimumStock   decimal.Decimal `json:"minimum_stock"`
	MaximumStock   decimal.Decimal `json:"maximum_stock"`
	CreatedBy      string          `json:"created_by"`
}

type quantityRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

type priceRequest struct {
	Price decimal.Decimal `json:"price"`
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.productSvc.Create(c.Request.Context(), productdomain.CreateProductRequest{
		Name:           req.Name,
		Description:    req.Description,
		ProductCode:    req.ProductCode,
		UnitPrice:      req.UnitPrice,
		CostPrice:      req.CostPrice,
		TaxRate:        req.TaxRate,
		Unit:           req.Unit,
		Type:           productdomain.ProductType(strings.ToUpper(strings.TrimSpace(req.Type))),
		IsStockTracked: req.IsStockTracked,
		StockQuantity:  req.StockQuantity,
		MinimumStock:   req.MinimumStock,
		MaximumStock:   req.MaximumStock,
		CreatedBy:      req.CreatedBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListProducts(c *gin.Context) {
	resp, err := s.productSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProductByID(c *gin.Context) {
	resp, err := s.productSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AddProductStock(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.productSvc.AddStock(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.Quantity)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateProductPrice(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.productSvc.UpdatePrice(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.Price, actorFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ActivateProduct(c *gin.Context) {
	resp, err := s.productSvc.Activate(c.Request.Context(), strings.TrimSpace(c.Param("id")), actorFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivateProduct(c *gin.Context) {
	resp, err := s.productSvc.Deactivate(c.Request.Context(), strings.TrimSpace(c.Param("id")), actorFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteProduct(c *gin.Context) {
	if err := s.productSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id")), actorFrom(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func isProductValidationError(err error) bool {
	switch err {
	case productdomain.ErrInvalidID,
		productdomain.ErrInvalidName,
		productdomain.ErrInvalidPrice,
		productdomain.ErrInvalidQuantity,
		productdomain.ErrStockUntracked:
		return true
	default:
		return false
	}
}
