package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/billwise/billwise/internal/clock"
	"github.com/billwise/billwise/internal/entity"
	"github.com/billwise/billwise/internal/user/domain"
	"github.com/billwise/billwise/internal/user/password"
	"github.com/billwise/billwise/pkg/db"
	"github.com/billwise/billwise/pkg/repository"
	"github.com/billwise/billwise/pkg/tenantctx"
)

const minPasswordLen = 8

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

	userrepo repository.Repository[domain.User]
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("user.service"),
		genID: p.GenID,
		clock: p.Clock,

		userrepo: repository.ProvideStore[domain.User](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateUserRequest) (domain.User, error) {
	companyID, ok := tenantctx.CompanyID(ctx)
	if !ok {
		return domain.User{}, domain.ErrInvalidID
	}
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if firstName == "" || lastName == "" {
		return domain.User{}, domain.ErrInvalidName
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, domain.ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLen {
		return domain.User{}, domain.ErrInvalidPassword
	}

	role := req.Role
	if role == 0 {
		role = domain.RoleEmployee
	}
	if role < domain.RoleAdmin || role > domain.RoleEmployee {
		return domain.User{}, domain.ErrInvalidRole
	}

	existing, err := s.userrepo.FindOne(ctx, &domain.User{CompanyID: companyID, Email: email})
	if err != nil {
		return domain.User{}, err
	}
	if existing != nil {
		return domain.User{}, domain.ErrEmailTaken
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return domain.User{}, err
	}

	now := s.clock.Now()
	user := domain.User{
		ID:           s.genID.Generate(),
		CompanyID:    companyID,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(req.Phone),
		Role:         role,
		IsActive:     true,
		Meta:         entity.NewMeta(now, req.CreatedBy),
	}

	if err := s.userrepo.Create(ctx, &user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.User, error) {
	companyID, ok := tenantctx.CompanyID(ctx)
	if !ok {
		return domain.User{}, domain.ErrInvalidID
	}
	userID, err := parseID(id)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.userrepo.FindOne(ctx, &domain.User{ID: userID, CompanyID: companyID})
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrNotFound
	}
	return *user, nil
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	companyID, ok := tenantctx.CompanyID(ctx)
	if !ok {
		return nil, domain.ErrInvalidID
	}

	items, err := s.userrepo.Find(ctx, &domain.User{CompanyID: companyID})
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		users = append(users, *item)
	}
	return users, nil
}

// Authenticate verifies the credentials and records the login. The same
// error comes back for an unknown email and a wrong password.
func (s *Service) Authenticate(ctx context.Context, email, plaintext string) (domain.User, error) {
	companyID, ok := tenantctx.CompanyID(ctx)
	if !ok {
		return domain.User{}, domain.ErrInvalidID
	}
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userrepo.FindOne(ctx, &domain.User{CompanyID: companyID, Email: email})
	if err != nil {
		return domain.User{}, err
	}
	if user == nil || !user.CanLogin() || !password.Verify(plaintext, user.PasswordHash) {
		return domain.User{}, domain.ErrInvalidCredentials
	}

	user.RecordLogin(s.clock.Now())
	if err := s.userrepo.Save(ctx, user); err != nil {
		return domain.User{}, err
	}
	return *user, nil
}

func (s *Service) ChangeRole(ctx context.Context, id string, role domain.Role, by string) (domain.User, error) {
	if role < domain.RoleAdmin || role > domain.RoleEmployee {
		return domain.User{}, domain.ErrInvalidRole
	}
	return s.mutate(ctx, id, func(user *domain.User) {
		user.ChangeRole(role, s.clock.Now())
		entity.TouchBy(&user.Meta, s.clock.Now(), by)
	})
}

func (s *Service) Activate(ctx context.Context, id, by string) (domain.User, error) {
	return s.mutate(ctx, id, func(user *domain.User) {
		user.Activate(s.clock.Now())
		entity.TouchBy(&user.Meta, s.clock.Now(), by)
	})
}

func (s *Service) Deactivate(ctx context.Context, id, by string) (domain.User, error) {
	return s.mutate(ctx, id, func(user *domain.User) {
		user.Deactivate(s.clock.Now())
		entity.TouchBy(&user.Meta, s.clock.Now(), by)
	})
}

func (s *Service) Delete(ctx context.Context, id, by string) error {
	_, err := s.mutate(ctx, id, func(user *domain.User) {
		entity.MarkDeleted(&user.Meta, s.clock.Now(), by)
	})
	return err
}

func (s *Service) mutate(ctx context.Context, id string, apply func(*domain.User)) (domain.User, error) {
	companyID, ok := tenantctx.CompanyID(ctx)
	if !ok {
		return domain.User{}, domain.ErrInvalidID
	}
	userID, err := parseID(id)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.userrepo.FindOne(ctx, &domain.User{ID: userID, CompanyID: companyID})
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrNotFound
	}

	apply(user)
	if err := s.userrepo.Save(ctx, user); err != nil {
		return domain.User{}, err
	}
	return *user, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
