package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/billwise/billwise/internal/config"
	"github.com/billwise/billwise/internal/seed"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if !cfg.RunMigrations {
			return nil
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}

		if cfg.SeedDefaults {
			return seed.EnsureDefaultCompanyAndAdmin(conn)
		}
		return nil
	}),
)
