// Package scheduler runs the periodic overdue sweep: Sent invoices
// whose due date has passed without full payment are flipped to
// Overdue through the invoice service.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/billwise/billwise/internal/clock"
	invoicedomain "github.com/billwise/billwise/internal/invoice/domain"
	"github.com/billwise/billwise/pkg/tenantctx"
)

var ErrInvalidConfig = errors.New("scheduler requires db, log, invoice service and clock")

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	InvoiceSvc invoicedomain.Service
	Clock      clock.Clock
	Config     Config `optional:"true"`
}

type Scheduler struct {
	db         *gorm.DB
	log        *zap.Logger
	cfg        Config
	clock      clock.Clock
	invoiceSvc invoicedomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.InvoiceSvc == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:         p.DB,
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        p.Config.withDefaults(),
		clock:      p.Clock,
		invoiceSvc: p.InvoiceSvc,
	}, nil
}

// RunForever sweeps on the configured interval until ctx is cancelled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SweepOverdue(ctx); err != nil {
				s.log.Warn("overdue sweep failed", zap.Error(err))
			}
		}
	}
}

type overdueCandidate struct {
	ID        snowflake.ID
	CompanyID snowflake.ID
}

// SweepOverdue finds Sent invoices past due and polls each through the
// invoice service so the transition runs under the usual locking.
func (s *Scheduler) SweepOverdue(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.SweepTimeout)
	defer cancel()

	now := s.clock.Now()

	var candidates []overdueCandidate
	err := s.db.WithContext(ctx).
		Table("invoices").
		Select("id, company_id").
		Where("status = ? AND due_date < ? AND is_deleted = ?", invoicedomain.InvoiceStatusSent, now, false).
		Order("due_date asc").
		Limit(s.cfg.BatchSize).
		Scan(&candidates).Error
	if err != nil {
		return err
	}

	flipped := 0
	for _, candidate := range candidates {
		scoped := tenantctx.WithCompanyID(ctx, candidate.CompanyID)
		invoice, err := s.invoiceSvc.CheckOverdueStatus(scoped, candidate.ID.String())
		if err != nil {
			s.log.Warn("overdue check failed",
				zap.String("invoice_id", candidate.ID.String()),
				zap.Error(err))
			continue
		}
		if invoice.Status == invoicedomain.InvoiceStatusOverdue {
			flipped++
		}
	}

	if flipped > 0 {
		s.log.Info("overdue sweep finished",
			zap.Int("candidates", len(candidates)),
			zap.Int("flipped", flipped))
	}
	return nil
}
