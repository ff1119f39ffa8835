// Package uow is the transactional persistence boundary. A caller
// begins a scope, mutates aggregates through the scope's repositories,
// and either commits everything or nothing. Repositories are
// constructed eagerly when the scope opens, not lazily on first use.
package uow

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	companydomain "github.com/billwise/billwise/internal/company/domain"
	customerdomain "github.com/billwise/billwise/internal/customer/domain"
	invoicedomain "github.com/billwise/billwise/internal/invoice/domain"
	productdomain "github.com/billwise/billwise/internal/product/domain"
	userdomain "github.com/billwise/billwise/internal/user/domain"
	"github.com/billwise/billwise/pkg/repository"
)

var (
	// ErrScopeActive is returned by Begin while a previous scope on the
	// same unit of work has not committed or rolled back.
	ErrScopeActive = errors.New("transaction scope already active")

	// ErrScopeClosed is returned when Commit or Rollback is called on a
	// scope that already completed.
	ErrScopeClosed = errors.New("transaction scope already completed")
)

// UnitOfWork hands out transaction scopes over one gorm connection.
// At most one scope is active per UnitOfWork value at a time.
type UnitOfWork struct {
	db *gorm.DB

	mu     sync.Mutex
	active bool
}

func New(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Scope is one open transaction with every repository bound to it.
type Scope struct {
	owner *UnitOfWork
	tx    *gorm.DB
	done  bool

	Companies    repository.Repository[companydomain.Company]
	Customers    repository.Repository[customerdomain.Customer]
	Products     repository.Repository[productdomain.Product]
	Users        repository.Repository[userdomain.User]
	Invoices     repository.Repository[invoicedomain.Invoice]
	InvoiceItems repository.Repository[invoicedomain.InvoiceItem]
}

// Begin opens a transaction scope. It fails with ErrScopeActive while
// an earlier scope from this unit of work is still open.
func (u *UnitOfWork) Begin(ctx context.Context) (*Scope, error) {
	u.mu.Lock()
	if u.active {
		u.mu.Unlock()
		return nil, ErrScopeActive
	}
	u.active = true
	u.mu.Unlock()

	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		u.release()
		return nil, tx.Error
	}

	return &Scope{
		owner: u,
		tx:    tx,

		Companies:    repository.ProvideStore[companydomain.Company](tx),
		Customers:    repository.ProvideStore[customerdomain.Customer](tx),
		Products:     repository.ProvideStore[productdomain.Product](tx),
		Users:        repository.ProvideStore[userdomain.User](tx),
		Invoices:     repository.ProvideStore[invoicedomain.Invoice](tx),
		InvoiceItems: repository.ProvideStore[invoicedomain.InvoiceItem](tx),
	}, nil
}

// Tx exposes the raw transaction for row locks and raw statements.
func (s *Scope) Tx() *gorm.DB { return s.tx }

// Commit persists every change made through the scope. A failed commit
// rolls the transaction back before the failure is reported.
func (s *Scope) Commit() error {
	if s.done {
		return ErrScopeClosed
	}
	s.done = true
	defer s.owner.release()

	if err := s.tx.Commit().Error; err != nil {
		s.tx.Rollback()
		return err
	}
	return nil
}

// Rollback discards every change made through the scope.
func (s *Scope) Rollback() error {
	if s.done {
		return ErrScopeClosed
	}
	s.done = true
	defer s.owner.release()

	return s.tx.Rollback().Error
}

func (u *UnitOfWork) release() {
	u.mu.Lock()
	u.active = false
	u.mu.Unlock()
}
