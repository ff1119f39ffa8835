package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/billwise/billwise/internal/clock"
	"github.com/billwise/billwise/internal/company/domain"
	customerdomain "github.com/billwise/billwise/internal/customer/domain"
	"github.com/billwise/billwise/internal/entity"
	invoicedomain "github.com/billwise/billwise/internal/invoice/domain"
	productdomain "github.com/billwise/billwise/internal/product/domain"
	userdomain "github.com/billwise/billwise/internal/user/domain"
	"github.com/billwise/billwise/pkg/db"
	"github.com/billwise/billwise/pkg/repository"
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

	companyrepo repository.Repository[domain.Company]
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("company.service"),
		genID: p.GenID,
		clock: p.Clock,

		companyrepo: repository.ProvideStore[domain.Company](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCompanyRequest) (domain.Company, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Company{}, domain.ErrInvalidName
	}
	taxNumber := strings.TrimSpace(req.TaxNumber)
	if taxNumber == "" {
		return domain.Company{}, domain.ErrInvalidTaxNumber
	}

	now := s.clock.Now()
	company := domain.Company{
		ID:        s.genID.Generate(),
		Name:      name,
		TaxNumber: taxNumber,
		Address:   strings.TrimSpace(req.Address),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		IsActive:  true,
		Meta:      entity.NewMeta(now, req.CreatedBy),
	}

	if err := s.companyrepo.Create(ctx, &company); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Company{}, domain.ErrTaxNumberTaken
		}
		return domain.Company{}, err
	}
	return company, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Company, error) {
	companyID, err := parseID(id)
	if err != nil {
		return domain.Company{}, err
	}
	company, err := s.load(ctx, companyID)
	if err != nil {
		return domain.Company{}, err
	}
	return *company, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Company, error) {
	items, err := s.companyrepo.Find(ctx, &domain.Company{})
	if err != nil {
		return nil, err
	}
	companies := make([]domain.Company, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		companies = append(companies, *item)
	}
	return companies, nil
}

// Update changes the mutable contact fields. The tax number is
// immutable once set.
func (s *Service) Update(ctx context.Context, req domain.UpdateCompanyRequest) (domain.Company, error) {
	companyID, err := parseID(req.ID)
	if err != nil {
		return domain.Company{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Company{}, domain.ErrInvalidName
	}

	company, err := s.load(ctx, companyID)
	if err != nil {
		return domain.Company{}, err
	}

	company.Name = name
	company.Address = strings.TrimSpace(req.Address)
	company.Phone = strings.TrimSpace(req.Phone)
	company.Email = strings.TrimSpace(req.Email)
	entity.TouchBy(&company.Meta, s.clock.Now(), req.UpdatedBy)

	if err := s.companyrepo.Save(ctx, company); err != nil {
		return domain.Company{}, err
	}
	return *company, nil
}

func (s *Service) Activate(ctx context.Context, id, by string) (domain.Company, error) {
	return s.setActive(ctx, id, by, true)
}

func (s *Service) Deactivate(ctx context.Context, id, by string) (domain.Company, error) {
	return s.setActive(ctx, id, by, false)
}

// Delete soft-deletes a company, refusing while it still owns any live
// customer, product, user or invoice.
func (s *Service) Delete(ctx context.Context, id, by string) error {
	companyID, err := parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		company, err := s.companyrepo.WithTx(tx).FindOne(ctx, &domain.Company{ID: companyID})
		if err != nil {
			return err
		}
		if company == nil {
			return domain.ErrNotFound
		}

		dependents, err := s.countDependents(ctx, tx, companyID)
		if err != nil {
			return err
		}
		if dependents > 0 {
			return domain.ErrHasDependents
		}

		entity.MarkDeleted(&company.Meta, s.clock.Now(), by)
		return s.companyrepo.WithTx(tx).Save(ctx, company)
	})
}

func (s *Service) Restore(ctx context.Context, id, by string) (domain.Company, error) {
	companyID, err := parseID(id)
	if err != nil {
		return domain.Company{}, err
	}

	company, err := s.companyrepo.FindOneDeleted(ctx, &domain.Company{ID: companyID})
	if err != nil {
		return domain.Company{}, err
	}
	if company == nil {
		return domain.Company{}, domain.ErrNotFound
	}

	entity.Restore(&company.Meta, s.clock.Now(), by)
	if err := s.companyrepo.Save(ctx, company); err != nil {
		return domain.Company{}, err
	}
	return *company, nil
}

func (s *Service) setActive(ctx context.Context, id, by string, active bool) (domain.Company, error) {
	companyID, err := parseID(id)
	if err != nil {
		return domain.Company{}, err
	}
	company, err := s.load(ctx, companyID)
	if err != nil {
		return domain.Company{}, err
	}

	now := s.clock.Now()
	if active {
		company.Activate(now, by)
	} else {
		company.Deactivate(now, by)
	}

	if err := s.companyrepo.Save(ctx, company); err != nil {
		return domain.Company{}, err
	}
	return *company, nil
}

func (s *Service) load(ctx context.Context, companyID snowflake.ID) (*domain.Company, error) {
	company, err := s.companyrepo.FindOne(ctx, &domain.Company{ID: companyID})
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	return company, nil
}

func (s *Service) countDependents(ctx context.Context, tx *gorm.DB, companyID snowflake.ID) (int64, error) {
	var total int64

	count, err := repository.ProvideStore[customerdomain.Customer](tx).
		Count(ctx, &customerdomain.Customer{CompanyID: companyID})
	if err != nil {
		return 0, err
	}
	total += count

	count, err = repository.ProvideStore[productdomain.Product](tx).
		Count(ctx, &productdomain.Product{CompanyID: companyID})
	if err != nil {
		return 0, err
	}
	total += count

	count, err = repository.ProvideStore[userdomain.User](tx).
		Count(ctx, &userdomain.User{CompanyID: companyID})
	if err != nil {
		return 0, err
	}
	total += count

	count, err = repository.ProvideStore[invoicedomain.Invoice](tx).
		Count(ctx, &invoicedomain.Invoice{CompanyID: companyID})
	if err != nil {
		return 0, err
	}
	total += count

	return total, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
