package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/billwise/billwise/internal/clock"
	"github.com/billwise/billwise/internal/customer/domain"
	"github.com/billwise/billwise/internal/entity"
	"github.com/billwise/billwise/pkg/db"
	"github.com/billwise/billwise/pkg/repository"
	"github.com/billwise/billwise/pkg/tenantctx"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	customerrepo repository.Repository[domain.Customer]
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		clock: p.Clock,

		customerrepo: repository.ProvideStore[domain.Customer](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	companyID, ok := tenantctx.CompanyID(ctx)
	if !ok {
		return domain.Customer{}, domain.ErrInvalidID
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}
	if req.CreditLimit.IsNegative() {
		return domain.Customer{}, domain.ErrInvalidAmount
	}

	customerType := req.Type
	if customerType == "" {
		customerType = domain.CustomerTypeIndividual
	}

	now := s.clock.Now()
	customer := domain.Customer{
		ID:             s.genID.Generate(),
		CompanyID:      companyID,
		Name:           name,
		TaxNumber:      strings.TrimSpace(req.TaxNumber),
		IdentityNumber: strings.TrimSpace(req.IdentityNumber),
		Address:        strings.TrimSpace(req.Address),
		Phone:          strings.TrimSpace(req.Phone),
		Email:          strings.TrimSpace(req.Email),
		Type:           customerType,
		CreditLimit:    req.CreditLimit,
		CurrentDebt:    decimal.Zero,
		IsActive:       true,
		Meta:           entity.NewMeta(now, req.CreatedBy),
	}

	if err := s.customerrepo.Create(ctx, &customer); err != nil {
		return domain.Customer{}, err
	}
	return customer, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Customer, error) {
	customer, err := s.load(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Customer, error) {
	companyID, ok := tenantctx.CompanyID(ctx)
	if !ok {
		return nil, domain.ErrInvalidID
	}

	items, err := s.customerrepo.Find(ctx, &domain.Customer{CompanyID: companyID})
	if err != nil {
		return nil, err
	}
	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}
	return customers, nil
}

// AddDebt increases the customer's debt under a row lock so concurrent
// debt mutations serialize.
func (s *Service) AddDebt(ctx context.Context, id string, amount decimal.Decimal) (domain.Customer, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.Customer{}, domain.ErrInvalidAmount
	}
	return s.mutateLocked(ctx, id, func(customer *domain.Customer) error {
		customer.AddDebt(amount, s.clock.Now())
		return nil
	})
}

// PayDebt reduces the customer's debt. Paying more than is owed is
// rejected rather than clamped.
func (s *Service) PayDebt(ctx context.Context, id string, amount decimal.Decimal) (domain.Customer, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.Customer{}, domain.ErrInvalidAmount
	}
	return s.mutateLocked(ctx, id, func(customer *domain.Customer) error {
		if amount.GreaterThan(customer.CurrentDebt) {
			return domain.ErrAmountExceedsDebt
		}
		customer.PayDebt(amount, s.clock.Now())
		return nil
	})
}

func (s *Service) UpdateCreditLimit(ctx context.Context, id string, limit decimal.Decimal, by string) (domain.Customer, error) {
	if limit.IsNegative() {
		return domain.Customer{}, domain.ErrInvalidAmount
	}
	return s.mutateLocked(ctx, id, func(customer *domain.Customer) error {
		customer.UpdateCreditLimit(limit, s.clock.Now())
		entity.TouchBy(&customer.Meta, s.clock.Now(), by)
		return nil
	})
}

func (s *Service) Activate(ctx context.Context, id, by string) (domain.Customer, error) {
	return s.mutateLocked(ctx, id, func(customer *domain.Customer) error {
		customer.Activate(s.clock.Now())
		entity.TouchBy(&customer.Meta, s.clock.Now(), by)
		return nil
	})
}

func (s *Service) Deactivate(ctx context.Context, id, by string) (domain.Customer, error) {
	return s.mutateLocked(ctx, id, func(customer *domain.Customer) error {
		customer.Deactivate(s.clock.Now())
		entity.TouchBy(&customer.Meta, s.clock.Now(), by)
		return nil
	})
}

// Delete soft-deletes. A customer with outstanding debt keeps the debt
// on record; the row stays restorable.
func (s *Service) Delete(ctx context.Context, id, by string) error {
	_, err := s.mutateLocked(ctx, id, func(customer *domain.Customer) error {
		entity.MarkDeleted(&customer.Meta, s.clock.Now(), by)
		return nil
	})
	return err
}

func (s *Service) mutateLocked(ctx context.Context, id string, apply func(*domain.Customer) error) (domain.Customer, error) {
	companyID, ok := tenantctx.CompanyID(ctx)
	if !ok {
		return domain.Customer{}, domain.ErrInvalidID
	}
	customerID, err := parseID(id)
	if err != nil {
		return domain.Customer{}, err
	}

	var result domain.Customer
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer domain.Customer
		err := db.LockForUpdate(tx).
			Where("company_id = ? AND id = ? AND is_deleted = ?", companyID, customerID, false).
			Limit(1).
			Find(&customer).Error
		if err != nil {
			return err
		}
		if customer.ID == 0 {
			return domain.ErrNotFound
		}

		if err := apply(&customer); err != nil {
			return err
		}
		if err := s.customerrepo.WithTx(tx).Save(ctx, &customer); err != nil {
			return err
		}
		result = customer
		return nil
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return result, nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.Customer, error) {
	companyID, ok := tenantctx.CompanyID(ctx)
	if !ok {
		return nil, domain.ErrInvalidID
	}
	customerID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	customer, err := s.customerrepo.FindOne(ctx, &domain.Customer{ID: customerID, CompanyID: companyID})
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}
	return customer, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
