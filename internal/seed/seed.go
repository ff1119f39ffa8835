package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	companydomain "github.com/billwise/billwise/internal/company/domain"
	"github.com/billwise/billwise/internal/entity"
	userdomain "github.com/billwise/billwise/internal/user/domain"
	"github.com/billwise/billwise/internal/user/password"
)

const (
	defaultCompanyName = "Main"
	defaultTaxNumber   = "0000000000"
	defaultAdminEmail  = "admin@billwise.local"
	defaultAdminPass   = "changeme!"
	defaultAdminFirst  = "Billwise"
	defaultAdminLast   = "Admin"
)

// EnsureDefaultCompany seeds the default company for startup bootstrap.
func EnsureDefaultCompany(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := ensureDefaultCompanyTx(ctx, tx, node)
		return err
	})
}

// EnsureDefaultCompanyAndAdmin seeds the default company and an admin
// user so a fresh install is usable immediately.
func EnsureDefaultCompanyAndAdmin(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		company, err := ensureDefaultCompanyTx(ctx, tx, node)
		if err != nil {
			return err
		}

		var user userdomain.User
		err = tx.WithContext(ctx).
			Where("company_id = ? AND email = ?", company.ID, defaultAdminEmail).
			First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(defaultAdminPass)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		user = userdomain.User{
			ID:           node.Generate(),
			CompanyID:    company.ID,
			FirstName:    defaultAdminFirst,
			LastName:     defaultAdminLast,
			Email:        strings.ToLower(defaultAdminEmail),
			PasswordHash: hashed,
			Role:         userdomain.RoleAdmin,
			IsActive:     true,
			Meta:         entity.NewMeta(now, "seed"),
		}
		return tx.WithContext(ctx).Create(&user).Error
	})
}

func ensureDefaultCompanyTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (companydomain.Company, error) {
	var company companydomain.Company
	err := tx.WithContext(ctx).Where("tax_number = ?", defaultTaxNumber).First(&company).Error
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return company, err
	}

	now := time.Now().UTC()
	company = companydomain.Company{
		ID:        node.Generate(),
		Name:      defaultCompanyName,
		TaxNumber: defaultTaxNumber,
		IsActive:  true,
		Meta:      entity.NewMeta(now, "seed"),
	}
	if err := tx.WithContext(ctx).Create(&company).Error; err != nil {
		return company, err
	}
	return company, nil
}
