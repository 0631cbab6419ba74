package repository

import (
	"context"
	"time"

	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

// DataSourceRepository fuentes de datos.
type DataSourceRepository interface {
	Create(ctx context.Context, ds *entity.DataSource) error
	GetByID(ctx context.Context, tenantID, id int64) (*entity.DataSource, error)
	GetByCode(ctx context.Context, tenantID int64, code string) (*entity.DataSource, error)
	List(ctx context.Context, tenantID int64, f ListFilter) ([]*entity.DataSource, int, error)
	Update(ctx context.Context, ds *entity.DataSource) error
	SoftDelete(ctx context.Context, tenantID, id int64) error
	UpdateConnection(ctx context.Context, tenantID, id int64, connected bool, at time.Time, lastError string) error
}

// DatasetRepository datasets.
type DatasetRepository interface {
	Create(ctx context.Context, d *entity.Dataset) error
	GetByID(ctx context.Context, tenantID, id int64) (*entity.Dataset, error)
	GetByCode(ctx context.Context, tenantID int64, code string) (*entity.Dataset, error)
	List(ctx context.Context, tenantID int64, f ListFilter) ([]*entity.Dataset, int, error)
	ListByDataSource(ctx context.Context, tenantID, dataSourceID int64) ([]*entity.Dataset, error)
	Update(ctx context.Context, d *entity.Dataset) error
	SoftDelete(ctx context.Context, tenantID, id int64) error
	UpdateExecution(ctx context.Context, tenantID, id int64, at time.Time, lastError string) error
	SetShare(ctx context.Context, tenantID, id int64, share entity.Share) error
	// GetByShareToken busca en todos los tenants (acceso público por token).
	GetByShareToken(ctx context.Context, token string) (*entity.Dataset, error)
}

// ReportRepository informes basados en datasets.
type ReportRepository interface {
	Create(ctx context.Context, r *entity.Report) error
	GetByID(ctx context.Context, tenantID, id int64) (*entity.Report, error)
	GetByCode(ctx context.Context, tenantID int64, code string) (*entity.Report, error)
	List(ctx context.Context, tenantID int64, f ListFilter) ([]*entity.Report, int, error)
	SoftDelete(ctx context.Context, tenantID, id int64) error
	SetShare(ctx context.Context, tenantID, id int64, share entity.Share) error
	GetByShareToken(ctx context.Context, token string) (*entity.Report, error)
}
