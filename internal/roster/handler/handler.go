package handler

import (
	"context"

	"github.com/samtime/samtime-backend/internal/roster/domain"
	"github.com/samtime/samtime-backend/internal/roster/service"
)

// Service is the roster behaviour the HTTP layer drives
type Service interface {
	NextID(ctx context.Context, companyID int64) (string, error)
	List(ctx context.Context, companyID int64) ([]*domain.Employee, error)
	Get(ctx context.Context, companyID int64, id string) (*domain.Employee, error)
	Register(ctx context.Context, in service.RegisterInput) (*domain.Employee, error)
	RegisterAuto(ctx context.Context, in service.RegisterInput) (*domain.Employee, error)
	UpdateSignature(ctx context.Context, companyID int64, id string, value bool) error
	Delete(ctx context.Context, companyID int64, id string) error
}

var _ Service = (*service.RosterService)(nil)
