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
	"github.com/billwise/billwise/internal/entity"
	"github.com/billwise/billwise/internal/product/domain"
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

	productrepo repository.Repository[domain.Product]
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("product.service"),
		genID: p.GenID,
		clock: p.Clock,

		productrepo: repository.ProvideStore[domain.Product](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProductRequest) (domain.Product, error) {
	companyID, ok := tenantctx.CompanyID(ctx)
	if !ok {
		return domain.Product{}, domain.ErrInvalidID
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Product{}, domain.ErrInvalidName
	}
	if req.UnitPrice.IsNegative() || req.CostPrice.IsNegative() {
		return domain.Product{}, domain.ErrInvalidPrice
	}
	if req.IsStockTracked && req.StockQuantity.IsNegative() {
		return domain.Product{}, domain.ErrInvalidQuantity
	}

	productType := req.Type
	if productType == "" {
		productType = domain.ProductTypePhysical
	}
	unit := strings.TrimSpace(req.Unit)
	if unit == "" {
		unit = "pcs"
	}

	now := s.clock.Now()
	product := domain.Product{
		ID:             s.genID.Generate(),
		CompanyID:      companyID,
		Name:           name,
		Description:    strings.TrimSpace(req.Description),
		ProductCode:    strings.TrimSpace(req.ProductCode),
		UnitPrice:      req.UnitPrice,
		CostPrice:      req.CostPrice,
		TaxRate:        req.TaxRate,
		Unit:           unit,
		IsStockTracked: req.IsStockTracked,
		MinimumStock:   req.MinimumStock,
		MaximumStock:   req.MaximumStock,
		Type:           productType,
		IsActive:       true,
		IsForSale:      true,
		Meta:           entity.NewMeta(now, req.CreatedBy),
	}
	if req.IsStockTracked {
		product.StockQuantity = req.StockQuantity
	}

	if err := s.productrepo.Create(ctx, &product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Product, error) {
	companyID, ok := tenantctx.CompanyID(ctx)
	if !ok {
		return domain.Product{}, domain.ErrInvalidID
	}
	productID, err := parseID(id)
	if err != nil {
		return domain.Product{}, err
	}

	product, err := s.productrepo.FindOne(ctx, &domain.Product{ID: productID, CompanyID: companyID})
	if err != nil {
		return domain.Product{}, err
	}
	if product == nil {
		return domain.Product{}, domain.ErrNotFound
	}
	return *product, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	companyID, ok := tenantctx.CompanyID(ctx)
	if !ok {
		return nil, domain.ErrInvalidID
	}

	items, err := s.productrepo.Find(ctx, &domain.Product{CompanyID: companyID})
	if err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		products = append(products, *item)
	}
	return products, nil
}

// AddStock replenishes a tracked product under a row lock so concurrent
// stock mutations serialize.
func (s *Service) AddStock(ctx context.Context, id string, quantity decimal.Decimal) (domain.Product, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return domain.Product{}, domain.ErrInvalidQuantity
	}
	return s.mutateLocked(ctx, id, func(product *domain.Product) error {
		if !product.IsStockTracked {
			return domain.ErrStockUntracked
		}
		product.AddStock(quantity, s.clock.Now())
		return nil
	})
}

func (s *Service) UpdatePrice(ctx context.Context, id string, price decimal.Decimal, by string) (domain.Product, error) {
	if price.IsNegative() {
		return domain.Product{}, domain.ErrInvalidPrice
	}
	return s.mutateLocked(ctx, id, func(product *domain.Product) error {
		product.UpdatePrice(price, s.clock.Now())
		entity.TouchBy(&product.Meta, s.clock.Now(), by)
		return nil
	})
}

func (s *Service) Activate(ctx context.Context, id, by string) (domain.Product, error) {
	return s.mutateLocked(ctx, id, func(product *domain.Product) error {
		product.Activate(s.clock.Now())
		entity.TouchBy(&product.Meta, s.clock.Now(), by)
		return nil
	})
}

func (s *Service) Deactivate(ctx context.Context, id, by string) (domain.Product, error) {
	return s.mutateLocked(ctx, id, func(product *domain.Product) error {
		product.Deactivate(s.clock.Now())
		entity.TouchBy(&product.Meta, s.clock.Now(), by)
		return nil
	})
}

func (s *Service) Delete(ctx context.Context, id, by string) error {
	_, err := s.mutateLocked(ctx, id, func(product *domain.Product) error {
		entity.MarkDeleted(&product.Meta, s.clock.Now(), by)
		return nil
	})
	return err
}

func (s *Service) mutateLocked(ctx context.Context, id string, apply func(*domain.Product) error) (domain.Product, error) {
	companyID, ok := tenantctx.CompanyID(ctx)
	if !ok {
		return domain.Product{}, domain.ErrInvalidID
	}
	productID, err := parseID(id)
	if err != nil {
		return domain.Product{}, err
	}

	var result domain.Product
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product domain.Product
		err := db.LockForUpdate(tx).
			Where("company_id = ? AND id = ? AND is_deleted = ?", companyID, productID, false).
			Limit(1).
			Find(&product).Error
		if err != nil {
			return err
		}
		if product.ID == 0 {
			return domain.ErrNotFound
		}

		if err := apply(&product); err != nil {
			return err
		}
		if err := s.productrepo.WithTx(tx).Save(ctx, &product); err != nil {
			return err
		}
		result = product
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return result, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
