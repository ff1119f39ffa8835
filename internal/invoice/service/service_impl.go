package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/billwise/billwise/internal/audit/domain"
	"github.com/billwise/billwise/internal/clock"
	companydomain "github.com/billwise/billwise/internal/company/domain"
	"github.com/billwise/billwise/internal/config"
	customerdomain "github.com/billwise/billwise/internal/customer/domain"
	"github.com/billwise/billwise/internal/entity"
	invoicedomain "github.com/billwise/billwise/internal/invoice/domain"
	productdomain "github.com/billwise/billwise/internal/product/domain"
	"github.com/billwise/billwise/pkg/db"
	"github.com/billwise/billwise/pkg/money"
	"github.com/billwise/billwise/pkg/repository"
	"github.com/billwise/billwise/pkg/telemetry"
	"github.com/billwise/billwise/pkg/tenantctx"
	"github.com/billwise/billwise/pkg/uow"
)

const defaultDueDays = 30

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock

	AuditSvc auditdomain.Service         `optional:"true"`
	Metrics  *telemetry.Metrics          `optional:"true"`
	Billing  *config.BillingConfigHolder `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	invoicerepo repository.Repository[invoicedomain.Invoice]
	auditSvc    auditdomain.Service
	metrics     *telemetry.Metrics
	billing     *config.BillingConfigHolder
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		genID: p.GenID,
		clock: p.Clock,

		invoicerepo: repository.ProvideStore[invoicedomain.Invoice](p.DB),
		auditSvc:    p.AuditSvc,
		metrics:     p.Metrics,
		billing:     p.Billing,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	companyID, err := companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	customerID, err := parseID(req.CustomerID)
	if err != nil {
		return invoicedomain.Invoice{}, customerdomain.ErrInvalidID
	}

	now := s.clock.Now()
	invoiceDate := req.InvoiceDate
	if invoiceDate.IsZero() {
		invoiceDate = now
	}
	dueDate := req.DueDate
	if dueDate.IsZero() {
		dueDate = invoiceDate.AddDate(0, 0, s.paymentTermsDays())
	}
	if dueDate.Before(invoiceDate) {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidDueDate
	}

	scope, err := uow.New(s.db).Begin(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	defer scope.Rollback()

	company, err := s.loadCompany(ctx, scope.Tx(), companyID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if !company.CanOwnRecords() {
		s.recordGuardFailure(invoicedomain.GuardCompanyActive)
		return invoicedomain.Invoice{}, &invoicedomain.GuardError{
			Guard:  invoicedomain.GuardCompanyActive,
			Detail: "company is inactive",
		}
	}

	customer, err := s.loadCustomerForUpdate(ctx, scope.Tx(), companyID, customerID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if !customer.CanBeInvoiced() {
		s.recordGuardFailure(invoicedomain.GuardCustomerActive)
		return invoicedomain.Invoice{}, &invoicedomain.GuardError{
			Guard:  invoicedomain.GuardCustomerActive,
			Detail: "customer is inactive",
		}
	}

	invoice := invoicedomain.Invoice{
		ID:            s.genID.Generate(),
		CompanyID:     companyID,
		CustomerID:    customer.ID,
		InvoiceDate:   invoiceDate,
		DueDate:       dueDate,
		Status:        invoicedomain.InvoiceStatusDraft,
		Description:   req.Description,
		SubTotal:      decimal.Zero,
		TotalDiscount: decimal.Zero,
		TotalTax:      decimal.Zero,
		GrandTotal:    decimal.Zero,
		PaidAmount:    decimal.Zero,
		Meta:          entity.NewMeta(now, req.CreatedBy),
	}
	invoice.SnapshotCustomer(customer, now)

	seq, err := s.nextInvoiceSeq(ctx, scope.Tx())
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	invoice.AssignNumber(seq, now)

	if err := scope.Invoices.Create(ctx, &invoice); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return invoicedomain.Invoice{}, &invoicedomain.ConcurrencyError{Resource: "invoice", Err: err}
		}
		return invoicedomain.Invoice{}, err
	}

	if err := scope.Commit(); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return invoicedomain.Invoice{}, &invoicedomain.ConcurrencyError{Resource: "invoice", Err: err}
		}
		return invoicedomain.Invoice{}, err
	}

	s.emitAudit(ctx, &invoice, "invoice.created", req.CreatedBy, nil)
	return invoice, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	companyID, err := companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidID
	}

	item, err := s.invoicerepo.FindOne(ctx, &invoicedomain.Invoice{ID: invoiceID, CompanyID: companyID})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if item == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}
	if err := s.loadItems(ctx, s.db, item); err != nil {
		return invoicedomain.Invoice{}, err
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context) ([]invoicedomain.Invoice, error) {
	companyID, err := companyIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.invoicerepo.Find(ctx, &invoicedomain.Invoice{CompanyID: companyID})
	if err != nil {
		return nil, err
	}

	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}
	return invoices, nil
}

// AddItem appends a product line to a draft invoice. The guards run
// before anything is touched; a failed guard leaves the invoice, the
// product and the customer exactly as they were.
func (s *Service) AddItem(ctx context.Context, req invoicedomain.AddItemRequest) (invoicedomain.InvoiceItem, error) {
	companyID, err := companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.InvoiceItem{}, err
	}
	invoiceID, err := parseID(req.InvoiceID)
	if err != nil {
		return invoicedomain.InvoiceItem{}, invoicedomain.ErrInvalidID
	}
	productID, err := parseID(req.ProductID)
	if err != nil {
		return invoicedomain.InvoiceItem{}, productdomain.ErrInvalidID
	}
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return invoicedomain.InvoiceItem{}, invoicedomain.ErrInvalidQuantity
	}

	now := s.clock.Now()

	scope, err := uow.New(s.db).Begin(ctx)
	if err != nil {
		return invoicedomain.InvoiceItem{}, err
	}
	defer scope.Rollback()

	company, err := s.loadCompany(ctx, scope.Tx(), companyID)
	if err != nil {
		return invoicedomain.InvoiceItem{}, err
	}
	if !company.CanOwnRecords() {
		s.recordGuardFailure(invoicedomain.GuardCompanyActive)
		return invoicedomain.InvoiceItem{}, &invoicedomain.GuardError{
			Guard:  invoicedomain.GuardCompanyActive,
			Detail: "company is inactive",
		}
	}

	invoice, err := s.loadInvoiceForUpdate(ctx, scope.Tx(), companyID, invoiceID)
	if err != nil {
		return invoicedomain.InvoiceItem{}, err
	}
	if !invoice.CanBeEdited() {
		return invoicedomain.InvoiceItem{}, &invoicedomain.StateError{
			Status:     invoice.Status,
			Transition: "edit",
		}
	}

	product, err := s.loadProductForUpdate(ctx, scope.Tx(), companyID, productID)
	if err != nil {
		return invoicedomain.InvoiceItem{}, err
	}
	if !product.CanSell(req.Quantity) {
		s.recordGuardFailure(invoicedomain.GuardProductSellable)
		return invoicedomain.InvoiceItem{}, &invoicedomain.GuardError{
			Guard:     invoicedomain.GuardProductSellable,
			Requested: req.Quantity,
			Available: product.StockQuantity,
		}
	}

	customer, err := s.loadCustomerForUpdate(ctx, scope.Tx(), companyID, invoice.CustomerID)
	if err != nil {
		return invoicedomain.InvoiceItem{}, err
	}

	// Price the candidate line before mutating anything so the credit
	// guard sees the exact amount the line would add.
	lineTotal := priceLine(product, req.Quantity, req.UnitPrice, req.DiscountRate)
	if !customer.CanUseCredit(lineTotal) {
		s.recordGuardFailure(invoicedomain.GuardCustomerCredit)
		return invoicedomain.InvoiceItem{}, &invoicedomain.GuardError{
			Guard:     invoicedomain.GuardCustomerCredit,
			Requested: lineTotal,
			Available: customer.AvailableCredit(),
		}
	}

	item := invoice.AddItem(s.genID.Generate(), product, req.Quantity, req.UnitPrice, req.DiscountRate, now)

	if err := scope.InvoiceItems.Create(ctx, item); err != nil {
		return invoicedomain.InvoiceItem{}, err
	}
	if err := scope.Invoices.Save(ctx, invoice); err != nil {
		return invoicedomain.InvoiceItem{}, err
	}

	if product.IsStockTracked {
		product.ReduceStock(req.Quantity, now)
		if err := scope.Products.Save(ctx, product); err != nil {
			return invoicedomain.InvoiceItem{}, err
		}
	}

	customer.AddDebt(lineTotal, now)
	if err := scope.Customers.Save(ctx, customer); err != nil {
		return invoicedomain.InvoiceItem{}, err
	}

	if err := scope.Commit(); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return invoicedomain.InvoiceItem{}, &invoicedomain.ConcurrencyError{Resource: "invoice_item", Err: err}
		}
		return invoicedomain.InvoiceItem{}, err
	}

	s.recordItemMutation("add")
	s.emitAudit(ctx, invoice, "invoice.item_added", "", map[string]any{
		"product_id": product.ID.String(),
		"quantity":   req.Quantity.String(),
		"line_total": lineTotal.String(),
	})
	return *item, nil
}

// RemoveItem removes a line by identity, restoring the product stock
// and paying the customer debt back down. Removing an unknown item is
// a no-op.
func (s *Service) RemoveItem(ctx context.Context, invoiceIDRaw, itemIDRaw string) error {
	companyID, err := companyIDFromContext(ctx)
	if err != nil {
		return err
	}
	invoiceID, err := parseID(invoiceIDRaw)
	if err != nil {
		return invoicedomain.ErrInvalidID
	}
	itemID, err := parseID(itemIDRaw)
	if err != nil {
		return invoicedomain.ErrInvalidID
	}

	now := s.clock.Now()

	scope, err := uow.New(s.db).Begin(ctx)
	if err != nil {
		return err
	}
	defer scope.Rollback()

	invoice, err := s.loadInvoiceForUpdate(ctx, scope.Tx(), companyID, invoiceID)
	if err != nil {
		return err
	}
	if !invoice.CanBeEdited() {
		return &invoicedomain.StateError{Status: invoice.Status, Transition: "edit"}
	}

	removed := invoice.RemoveItem(itemID, now)
	if removed == nil {
		return scope.Rollback()
	}

	removedTotal := removed.TotalAmount()

	if err := s.softDeleteItem(ctx, scope.Tx(), removed, now); err != nil {
		return err
	}
	if err := scope.Invoices.Save(ctx, invoice); err != nil {
		return err
	}

	// A product deleted since the item was added has no stock to
	// restore; any other load failure aborts the whole removal.
	product, err := s.loadProductForUpdate(ctx, scope.Tx(), companyID, removed.ProductID)
	if err != nil {
		if !errors.Is(err, productdomain.ErrNotFound) {
			return err
		}
	} else if product.IsStockTracked {
		product.AddStock(removed.Quantity, now)
		if err := scope.Products.Save(ctx, product); err != nil {
			return err
		}
	}

	customer, err := s.loadCustomerForUpdate(ctx, scope.Tx(), companyID, invoice.CustomerID)
	if err != nil {
		return err
	}
	customer.PayDebt(removedTotal, now)
	if err := scope.Customers.Save(ctx, customer); err != nil {
		return err
	}

	if err := scope.Commit(); err != nil {
		return err
	}

	s.recordItemMutation("remove")
	s.emitAudit(ctx, invoice, "invoice.item_removed", "", map[string]any{
		"item_id":    removed.ID.String(),
		"line_total": removedTotal.String(),
	})
	return nil
}

func (s *Service) MarkAsSent(ctx context.Context, invoiceIDRaw, actor string) (invoicedomain.Invoice, error) {
	return s.transition(ctx, invoiceIDRaw, func(invoice *invoicedomain.Invoice, now time.Time) error {
		if !invoice.CanBeSent() {
			return &invoicedomain.StateError{Status: invoice.Status, Transition: "send"}
		}
		invoice.MarkAsSent(actor, now)
		return nil
	}, "invoice.sent", actor)
}

func (s *Service) Cancel(ctx context.Context, invoiceIDRaw, actor string) (invoicedomain.Invoice, error) {
	return s.transition(ctx, invoiceIDRaw, func(invoice *invoicedomain.Invoice, now time.Time) error {
		if !invoice.CanBeCancelled() {
			return &invoicedomain.StateError{Status: invoice.Status, Transition: "cancel"}
		}
		invoice.Cancel(actor, now)
		return nil
	}, "invoice.cancelled", actor)
}

// MarkAsPaid records a payment and pays the customer's debt down by the
// newly paid delta. Partial payments keep the current status.
func (s *Service) MarkAsPaid(ctx context.Context, req invoicedomain.MarkAsPaidRequest) (invoicedomain.Invoice, error) {
	companyID, err := companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	invoiceID, err := parseID(req.InvoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidID
	}
	if req.Amount.IsNegative() {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidAmount
	}

	now := s.clock.Now()

	scope, err := uow.New(s.db).Begin(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	defer scope.Rollback()

	invoice, err := s.loadInvoiceForUpdate(ctx, scope.Tx(), companyID, invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	previouslyPaid := invoice.PaidAmount
	invoice.MarkAsPaid(req.Amount, req.Method, req.PaymentDate, now)

	if err := scope.Invoices.Save(ctx, invoice); err != nil {
		return invoicedomain.Invoice{}, err
	}

	delta := req.Amount.Sub(previouslyPaid)
	if delta.GreaterThan(decimal.Zero) {
		customer, err := s.loadCustomerForUpdate(ctx, scope.Tx(), companyID, invoice.CustomerID)
		if err != nil {
			return invoicedomain.Invoice{}, err
		}
		customer.PayDebt(delta, now)
		if err := scope.Customers.Save(ctx, customer); err != nil {
			return invoicedomain.Invoice{}, err
		}
	}

	if err := scope.Commit(); err != nil {
		return invoicedomain.Invoice{}, err
	}

	if invoice.Status == invoicedomain.InvoiceStatusPaid {
		s.recordTransition(string(invoicedomain.InvoiceStatusPaid))
	}
	s.emitAudit(ctx, invoice, "invoice.paid", "", map[string]any{
		"amount": req.Amount.String(),
		"method": string(req.Method),
	})
	return *invoice, nil
}

// CheckOverdueStatus is the idempotent overdue poll.
func (s *Service) CheckOverdueStatus(ctx context.Context, invoiceIDRaw string) (invoicedomain.Invoice, error) {
	companyID, err := companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	invoiceID, err := parseID(invoiceIDRaw)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidID
	}

	now := s.clock.Now()

	scope, err := uow.New(s.db).Begin(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	defer scope.Rollback()

	invoice, err := s.loadInvoiceForUpdate(ctx, scope.Tx(), companyID, invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	if !invoice.CheckOverdueStatus(now) {
		_ = scope.Rollback()
		return *invoice, nil
	}

	if err := scope.Invoices.Save(ctx, invoice); err != nil {
		return invoicedomain.Invoice{}, err
	}
	if err := scope.Commit(); err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.recordTransition(string(invoicedomain.InvoiceStatusOverdue))
	s.emitAudit(ctx, invoice, "invoice.overdue", "", nil)
	return *invoice, nil
}

// RecalculateTotals recomputes and persists the invoice totals from its
// current line set. Idempotent.
func (s *Service) RecalculateTotals(ctx context.Context, invoiceIDRaw string) (invoicedomain.Invoice, error) {
	companyID, err := companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	invoiceID, err := parseID(invoiceIDRaw)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidID
	}

	now := s.clock.Now()

	scope, err := uow.New(s.db).Begin(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	defer scope.Rollback()

	invoice, err := s.loadInvoiceForUpdate(ctx, scope.Tx(), companyID, invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	invoice.RecalculateTotals(now)

	if err := scope.Invoices.Save(ctx, invoice); err != nil {
		return invoicedomain.Invoice{}, err
	}
	if err := scope.Commit(); err != nil {
		return invoicedomain.Invoice{}, err
	}
	return *invoice, nil
}

func (s *Service) transition(ctx context.Context, invoiceIDRaw string, apply func(*invoicedomain.Invoice, time.Time) error, action, actor string) (invoicedomain.Invoice, error) {
	companyID, err := companyIDFromContext(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	invoiceID, err := parseID(invoiceIDRaw)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidID
	}

	now := s.clock.Now()

	scope, err := uow.New(s.db).Begin(ctx)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	defer scope.Rollback()

	invoice, err := s.loadInvoiceForUpdate(ctx, scope.Tx(), companyID, invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	if err := apply(invoice, now); err != nil {
		return invoicedomain.Invoice{}, err
	}

	if err := scope.Invoices.Save(ctx, invoice); err != nil {
		return invoicedomain.Invoice{}, err
	}
	if err := scope.Commit(); err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.recordTransition(string(invoice.Status))
	s.emitAudit(ctx, invoice, action, actor, nil)
	return *invoice, nil
}

// priceLine computes what a candidate line would total without touching
// the invoice.
func priceLine(p *productdomain.Product, quantity decimal.Decimal, unitPrice *decimal.Decimal, discountRate decimal.Decimal) decimal.Decimal {
	price := p.UnitPrice
	if unitPrice != nil {
		price = *unitPrice
	}
	subtotal := quantity.Mul(price)
	afterDiscount := subtotal.Sub(money.Percent(subtotal, discountRate))
	return afterDiscount.Add(money.Percent(afterDiscount, p.TaxRate))
}

func (s *Service) loadCompany(ctx context.Context, tx *gorm.DB, companyID snowflake.ID) (*companydomain.Company, error) {
	company, err := repository.ProvideStore[companydomain.Company](tx).
		FindOne(ctx, &companydomain.Company{ID: companyID})
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, companydomain.ErrNotFound
	}
	return company, nil
}

func (s *Service) loadInvoiceForUpdate(ctx context.Context, tx *gorm.DB, companyID, invoiceID snowflake.ID) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := db.LockForUpdate(tx).WithContext(ctx).
		Where("company_id = ? AND id = ? AND is_deleted = ?", companyID, invoiceID, false).
		Limit(1).
		Find(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, invoicedomain.ErrNotFound
	}
	if err := s.loadItems(ctx, tx, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (s *Service) loadItems(ctx context.Context, tx *gorm.DB, invoice *invoicedomain.Invoice) error {
	items, err := repository.ProvideStore[invoicedomain.InvoiceItem](tx).
		Find(ctx, &invoicedomain.InvoiceItem{InvoiceID: invoice.ID})
	if err != nil {
		return err
	}
	invoice.Items = make([]invoicedomain.InvoiceItem, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoice.Items = append(invoice.Items, *item)
	}
	return nil
}

func (s *Service) loadProductForUpdate(ctx context.Context, tx *gorm.DB, companyID, productID snowflake.ID) (*productdomain.Product, error) {
	var product productdomain.Product
	err := db.LockForUpdate(tx).WithContext(ctx).
		Where("company_id = ? AND id = ? AND is_deleted = ?", companyID, productID, false).
		Limit(1).
		Find(&product).Error
	if err != nil {
		return nil, err
	}
	if product.ID == 0 {
		return nil, productdomain.ErrNotFound
	}
	return &product, nil
}

func (s *Service) loadCustomerForUpdate(ctx context.Context, tx *gorm.DB, companyID, customerID snowflake.ID) (*customerdomain.Customer, error) {
	var customer customerdomain.Customer
	err := db.LockForUpdate(tx).WithContext(ctx).
		Where("company_id = ? AND id = ? AND is_deleted = ?", companyID, customerID, false).
		Limit(1).
		Find(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, customerdomain.ErrNotFound
	}
	return &customer, nil
}

func (s *Service) softDeleteItem(ctx context.Context, tx *gorm.DB, item *invoicedomain.InvoiceItem, now time.Time) error {
	return tx.WithContext(ctx).
		Model(&invoicedomain.InvoiceItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{"is_deleted": true, "updated_at": now}).Error
}

// nextInvoiceSeq allocates the next issuing sequence. The sequence is
// system wide because invoice numbers must stay unique across companies.
// Runs inside the caller's transaction so two concurrent issuances
// cannot observe the same maximum.
func (s *Service) nextInvoiceSeq(ctx context.Context, tx *gorm.DB) (int64, error) {
	var next int64
	err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(invoice_seq), 0) + 1 FROM invoices`,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (s *Service) emitAudit(ctx context.Context, invoice *invoicedomain.Invoice, action, actor string, extra map[string]any) {
	if s.auditSvc == nil || invoice == nil {
		return
	}
	metadata := map[string]any{
		"invoice_number": invoice.InvoiceNumber,
		"customer_id":    invoice.CustomerID.String(),
		"status":         string(invoice.Status),
		"grand_total":    invoice.GrandTotal.String(),
	}
	for key, value := range extra {
		if key == "" {
			continue
		}
		metadata[key] = value
	}
	_ = s.auditSvc.Record(ctx, invoice.CompanyID, actor, action, "invoice", invoice.ID.String(), metadata)
}

func (s *Service) recordTransition(status string) {
	if s.metrics != nil {
		s.metrics.RecordTransition(status)
	}
}

func (s *Service) recordGuardFailure(guard string) {
	if s.metrics != nil {
		s.metrics.RecordGuardFailure(guard)
	}
}

func (s *Service) recordItemMutation(op string) {
	if s.metrics != nil {
		s.metrics.RecordItemMutation(op)
	}
}

func (s *Service) paymentTermsDays() int {
	if s.billing != nil {
		return s.billing.Get().PaymentTermsDays
	}
	return defaultDueDays
}

func companyIDFromContext(ctx context.Context) (snowflake.ID, error) {
	companyID, ok := tenantctx.CompanyID(ctx)
	if !ok {
		return 0, companydomain.ErrInvalidID
	}
	return companyID, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, invoicedomain.ErrInvalidID
	}
	return id, nil
}
