package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Record appends an audit entry. Failures are the caller's to
	// swallow: auditing must never fail a business transaction.
	Record(ctx context.Context, companyID snowflake.ID, actor, action, targetType, targetID string, metadata map[string]any) error
	List(ctx context.Context, companyID snowflake.ID) ([]AuditLog, error)
}

var (
	ErrInvalidAction  = errors.New("invalid_action")
	ErrInvalidCompany = errors.New("invalid_company")
)
