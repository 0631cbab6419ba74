package apptest

import (
	"context"
	"time"

	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

type dataSourceRepo struct{ s *Store }

func (r dataSourceRepo) Create(_ context.Context, ds *entity.DataSource) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.dataSources {
		if x.DeletedAt == nil && x.TenantID == ds.TenantID && x.Code == ds.Code {
			return duplicate("data_source", ds.Code)
		}
	}
	r.s.stamp(&ds.ID, &ds.UUID, &ds.CreatedAt, &ds.UpdatedAt)
	r.s.dataSources = append(r.s.dataSources, clone(ds))
	return nil
}

func (r dataSourceRepo) find(tenantID int64, pred func(*entity.DataSource) bool) *entity.DataSource {
	for _, x := range r.s.dataSources {
		if x.DeletedAt == nil && x.TenantID == tenantID && pred(x) {
			return x
		}
	}
	return nil
}

func (r dataSourceRepo) GetByID(_ context.Context, tenantID, id int64) (*entity.DataSource, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return clone(r.find(tenantID, func(x *entity.DataSource) bool { return x.ID == id })), nil
}

func (r dataSourceRepo) GetByCode(_ context.Context, tenantID int64, code string) (*entity.DataSource, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return clone(r.find(tenantID, func(x *entity.DataSource) bool { return x.Code == code })), nil
}

func (r dataSourceRepo) List(_ context.Context, tenantID int64, f repository.ListFilter) ([]*entity.DataSource, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.DataSource
	for _, x := range r.s.dataSources {
		if x.DeletedAt == nil && x.TenantID == tenantID && matches(f.Keyword, x.Code, x.Name) {
			out = append(out, x)
		}
	}
	items, total := page(out, f)
	return items, total, nil
}

func (r dataSourceRepo) Update(_ context.Context, ds *entity.DataSource) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, x := range r.s.dataSources {
		if x.DeletedAt == nil && x.TenantID == ds.TenantID && x.ID == ds.ID {
			ds.UpdatedAt = r.s.Now()
			r.s.dataSources[i] = clone(ds)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r dataSourceRepo) SoftDelete(_ context.Context, tenantID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if x := r.find(tenantID, func(x *entity.DataSource) bool { return x.ID == id }); x != nil {
		now := r.s.Now()
		x.DeletedAt = &now
		return nil
	}
	return domain.ErrNotFound
}

func (r dataSourceRepo) UpdateConnection(_ context.Context, tenantID, id int64, connected bool, at time.Time, lastError string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x := r.find(tenantID, func(x *entity.DataSource) bool { return x.ID == id })
	if x == nil {
		return domain.ErrNotFound
	}
	x.IsConnected = connected
	x.LastError = lastError
	if connected {
		x.LastConnectedAt = &at
	}
	return nil
}

type datasetRepo struct{ s *Store }

func (r datasetRepo) Create(_ context.Context, d *entity.Dataset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.datasets {
		if x.DeletedAt == nil && x.TenantID == d.TenantID && x.Code == d.Code {
			return duplicate("dataset", d.Code)
		}
	}
	r.s.stamp(&d.ID, &d.UUID, &d.CreatedAt, &d.UpdatedAt)
	r.s.datasets = append(r.s.datasets, clone(d))
	return nil
}

func (r datasetRepo) find(tenantID int64, pred func(*entity.Dataset) bool) *entity.Dataset {
	for _, x := range r.s.datasets {
		if x.DeletedAt == nil && x.TenantID == tenantID && pred(x) {
			return x
		}
	}
	return nil
}

func (r datasetRepo) GetByID(_ context.Context, tenantID, id int64) (*entity.Dataset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return clone(r.find(tenantID, func(x *entity.Dataset) bool { return x.ID == id })), nil
}

func (r datasetRepo) GetByCode(_ context.Context, tenantID int64, code string) (*entity.Dataset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return clone(r.find(tenantID, func(x *entity.Dataset) bool { return x.Code == code })), nil
}

func (r datasetRepo) List(_ context.Context, tenantID int64, f repository.ListFilter) ([]*entity.Dataset, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Dataset
	for _, x := range r.s.datasets {
		if x.DeletedAt == nil && x.TenantID == tenantID && matches(f.Keyword, x.Code, x.Name) {
			out = append(out, x)
		}
	}
	items, total := page(out, f)
	return items, total, nil
}

func (r datasetRepo) ListByDataSource(_ context.Context, tenantID, dataSourceID int64) ([]*entity.Dataset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Dataset
	for _, x := range r.s.datasets {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.DataSourceID == dataSourceID {
			out = append(out, clone(x))
		}
	}
	return out, nil
}

func (r datasetRepo) Update(_ context.Context, d *entity.Dataset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, x := range r.s.datasets {
		if x.DeletedAt == nil && x.TenantID == d.TenantID && x.ID == d.ID {
			d.UpdatedAt = r.s.Now()
			r.s.datasets[i] = clone(d)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r datasetRepo) SoftDelete(_ context.Context, tenantID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if x := r.find(tenantID, func(x *entity.Dataset) bool { return x.ID == id }); x != nil {
		now := r.s.Now()
		x.DeletedAt = &now
		return nil
	}
	return domain.ErrNotFound
}

func (r datasetRepo) UpdateExecution(_ context.Context, tenantID, id int64, at time.Time, lastError string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x := r.find(tenantID, func(x *entity.Dataset) bool { return x.ID == id })
	if x == nil {
		return domain.ErrNotFound
	}
	x.LastExecutedAt = &at
	x.LastError = lastError
	return nil
}

func (r datasetRepo) SetShare(_ context.Context, tenantID, id int64, share entity.Share) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x := r.find(tenantID, func(x *entity.Dataset) bool { return x.ID == id })
	if x == nil {
		return domain.ErrNotFound
	}
	x.Share = share
	return nil
}

func (r datasetRepo) GetByShareToken(_ context.Context, token string) (*entity.Dataset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.datasets {
		if x.DeletedAt == nil && token != "" && x.Token == token {
			return clone(x), nil
		}
	}
	return nil, nil
}

type reportRepo struct{ s *Store }

func (r reportRepo) Create(_ context.Context, rep *entity.Report) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.reports {
		if x.DeletedAt == nil && x.TenantID == rep.TenantID && x.Code == rep.Code {
			return duplicate("report", rep.Code)
		}
	}
	r.s.stamp(&rep.ID, &rep.UUID, &rep.CreatedAt, &rep.UpdatedAt)
	r.s.reports = append(r.s.reports, clone(rep))
	return nil
}

func (r reportRepo) find(tenantID int64, pred func(*entity.Report) bool) *entity.Report {
	for _, x := range r.s.reports {
		if x.DeletedAt == nil && x.TenantID == tenantID && pred(x) {
			return x
		}
	}
	return nil
}

func (r reportRepo) GetByID(_ context.Context, tenantID, id int64) (*entity.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return clone(r.find(tenantID, func(x *entity.Report) bool { return x.ID == id })), nil
}

func (r reportRepo) GetByCode(_ context.Context, tenantID int64, code string) (*entity.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return clone(r.find(tenantID, func(x *entity.Report) bool { return x.Code == code })), nil
}

func (r reportRepo) List(_ context.Context, tenantID int64, f repository.ListFilter) ([]*entity.Report, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Report
	for _, x := range r.s.reports {
		if x.DeletedAt == nil && x.TenantID == tenantID && matches(f.Keyword, x.Code, x.Name) {
			out = append(out, x)
		}
	}
	items, total := page(out, f)
	return items, total, nil
}

func (r reportRepo) SoftDelete(_ context.Context, tenantID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if x := r.find(tenantID, func(x *entity.Report) bool { return x.ID == id }); x != nil {
		now := r.s.Now()
		x.DeletedAt = &now
		return nil
	}
	return domain.ErrNotFound
}

func (r reportRepo) SetShare(_ context.Context, tenantID, id int64, share entity.Share) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	x := r.find(tenantID, func(x *entity.Report) bool { return x.ID == id })
	if x == nil {
		return domain.ErrNotFound
	}
	x.Share = share
	return nil
}

func (r reportRepo) GetByShareToken(_ context.Context, token string) (*entity.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.reports {
		if x.DeletedAt == nil && token != "" && x.Token == token {
			return clone(x), nil
		}
	}
	return nil, nil
}
