package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/billwise/billwise/internal/audit"
	auditdomain "github.com/billwise/billwise/internal/audit/domain"
	"github.com/billwise/billwise/internal/company"
	companydomain "github.com/billwise/billwise/internal/company/domain"
	"github.com/billwise/billwise/internal/config"
	"github.com/billwise/billwise/internal/customer"
	customerdomain "github.com/billwise/billwise/internal/customer/domain"
	"github.com/billwise/billwise/internal/invoice"
	invoicedomain "github.com/billwise/billwise/internal/invoice/domain"
	"github.com/billwise/billwise/internal/product"
	productdomain "github.com/billwise/billwise/internal/product/domain"
	"github.com/billwise/billwise/internal/user"
	userdomain "github.com/billwise/billwise/internal/user/domain"
	"github.com/billwise/billwise/pkg/telemetry"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	audit.Module,
	company.Module,
	customer.Module,
	product.Module,
	user.Module,
	invoice.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(metrics *telemetry.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	return r
}

func registerGin(metrics *telemetry.Metrics) *gin.Engine {
	return NewEngine(metrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	genID  *snowflake.Node

	auditSvc    auditdomain.Service
	companySvc  companydomain.Service
	customerSvc customerdomain.Service
	productSvc  productdomain.Service
	userSvc     userdomain.Service
	invoiceSvc  invoicedomain.Service
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	DB    *gorm.DB
	GenID *snowflake.Node

	AuditSvc    auditdomain.Service
	CompanySvc  companydomain.Service
	CustomerSvc customerdomain.Service
	ProductSvc  productdomain.Service
	UserSvc     userdomain.Service
	InvoiceSvc  invoicedomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine: p.Gin,
		cfg:    p.Cfg,
		db:     p.DB,
		genID:  p.GenID,

		auditSvc:    p.AuditSvc,
		companySvc:  p.CompanySvc,
		customerSvc: p.CustomerSvc,
		productSvc:  p.ProductSvc,
		userSvc:     p.UserSvc,
		invoiceSvc:  p.InvoiceSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Companies --------
	api.GET("/companies", s.ListCompanies)
	api.POST("/companies", s.CreateCompany)
	api.GET("/companies/:id", s.GetCompanyByID)
	api.PUT("/companies/:id", s.UpdateCompany)
	api.POST("/companies/:id/activate", s.ActivateCompany)
	api.POST("/companies/:id/deactivate", s.DeactivateCompany)
	api.DELETE("/companies/:id", s.DeleteCompany)
	api.POST("/companies/:id/restore", s.RestoreCompany)

	// Everything below is scoped to the tenant named by X-Company-ID.
	tenant := api.Group("", s.CompanyContext())

	// -------- Customers --------
	tenant.GET("/customers", s.ListCustomers)
	tenant.POST("/customers", s.CreateCustomer)
	tenant.GET("/customers/:id", s.GetCustomerByID)
	tenant.POST("/customers/:id/debt", s.AddCustomerDebt)
	tenant.POST("/customers/:id/payments", s.PayCustomerDebt)
	tenant.PUT("/customers/:id/credit-limit", s.UpdateCustomerCreditLimit)
	tenant.POST("/customers/:id/activate", s.ActivateCustomer)
	tenant.POST("/customers/:id/deactivate", s.DeactivateCustomer)
	tenant.DELETE("/customers/:id", s.DeleteCustomer)

	// -------- Products --------
	tenant.GET("/products", s.ListProducts)
	tenant.POST("/products", s.CreateProduct)
	tenant.GET("/products/:id", s.GetProductByID)
	tenant.POST("/products/:id/stock", s.AddProductStock)
	tenant.PUT("/products/:id/price", s.UpdateProductPrice)
	tenant.POST("/products/:id/activate", s.ActivateProduct)
	tenant.POST("/products/:id/deactivate", s.DeactivateProduct)
	tenant.DELETE("/products/:id", s.DeleteProduct)

	// -------- Users --------
	tenant.GET("/users", s.ListUsers)
	tenant.POST("/users", s.CreateUser)
	tenant.GET("/users/:id", s.GetUserByID)
	tenant.POST("/users/login", s.Login)
	tenant.PUT("/users/:id/role", s.ChangeUserRole)
	tenant.POST("/users/:id/activate", s.ActivateUser)
	tenant.POST("/users/:id/deactivate", s.DeactivateUser)
	tenant.DELETE("/users/:id", s.DeleteUser)

	// -------- Invoices --------
	tenant.GET("/invoices", s.ListInvoices)
	tenant.POST("/invoices", s.CreateInvoice)
	tenant.GET("/invoices/:id", s.GetInvoiceByID)
	tenant.POST("/invoices/:id/items", s.AddInvoiceItem)
	tenant.DELETE("/invoices/:id/items/:itemId", s.RemoveInvoiceItem)
	tenant.POST("/invoices/:id/send", s.SendInvoice)
	tenant.POST("/invoices/:id/payments", s.PayInvoice)
	tenant.POST("/invoices/:id/check-overdue", s.CheckInvoiceOverdue)
	tenant.POST("/invoices/:id/cancel", s.CancelInvoice)
	tenant.POST("/invoices/:id/recalculate", s.RecalculateInvoice)

	// -------- Audit --------
	tenant.GET("/audit-logs", s.ListAuditLogs)
}
