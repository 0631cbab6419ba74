package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

// ---------------------------------------------------------------------------
// Fuentes de datos
// ---------------------------------------------------------------------------

type dataSourceRepo struct{ q Querier }

const dataSourceColumns = `id, uuid, tenant_id, code, name, description, type, config, is_active, is_connected,
	last_connected_at, last_error, created_at, updated_at`

func scanDataSource(row pgx.Row) (*entity.DataSource, error) {
	var d entity.DataSource
	err := row.Scan(&d.ID, &d.UUID, &d.TenantID, &d.Code, &d.Name, &d.Description, &d.Type, &d.Config,
		&d.IsActive, &d.IsConnected, &d.LastConnectedAt, &d.LastError, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r dataSourceRepo) Create(ctx context.Context, d *entity.DataSource) error {
	d.UUID = newUUID(d.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO data_sources (uuid, tenant_id, code, name, description, type, config, is_active, is_connected,
			last_connected_at, last_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`,
		d.UUID, d.TenantID, d.Code, d.Name, d.Description, d.Type, orEmpty(d.Config), d.IsActive, d.IsConnected,
		d.LastConnectedAt, d.LastError,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	return writeErr("insert data source", d.Code, err)
}

func (r dataSourceRepo) GetByID(ctx context.Context, tenantID, id int64) (*entity.DataSource, error) {
	return queryOne(ctx, r.q, "get data source", scanDataSource,
		`SELECT `+dataSourceColumns+` FROM data_sources WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

func (r dataSourceRepo) GetByCode(ctx context.Context, tenantID int64, code string) (*entity.DataSource, error) {
	return queryOne(ctx, r.q, "get data source by code", scanDataSource,
		`SELECT `+dataSourceColumns+` FROM data_sources WHERE tenant_id = $1 AND code = $2 AND deleted_at IS NULL`, tenantID, code)
}

func (r dataSourceRepo) List(ctx context.Context, tenantID int64, f repository.ListFilter) ([]*entity.DataSource, int, error) {
	const where = ` FROM data_sources WHERE tenant_id = $1 AND deleted_at IS NULL AND ($2 = '' OR code ILIKE $2 OR name ILIKE $2)`
	kw := like(f.Keyword)
	total, err := count(ctx, r.q, "count data sources", `SELECT COUNT(*)`+where, tenantID, kw)
	if err != nil {
		return nil, 0, err
	}
	limit, offset := pageArgs(f)
	list, err := queryAll(ctx, r.q, "list data sources", scanDataSource,
		`SELECT `+dataSourceColumns+where+` ORDER BY id LIMIT $3 OFFSET $4`, tenantID, kw, limit, offset)
	return list, total, err
}

func (r dataSourceRepo) Update(ctx context.Context, d *entity.DataSource) error {
	err := r.q.QueryRow(ctx, `
		UPDATE data_sources SET code = $3, name = $4, description = $5, type = $6, config = $7, is_active = $8,
			updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING updated_at`,
		d.TenantID, d.ID, d.Code, d.Name, d.Description, d.Type, orEmpty(d.Config), d.IsActive,
	).Scan(&d.UpdatedAt)
	return updateErr("update data source", d.Code, err)
}

func (r dataSourceRepo) SoftDelete(ctx context.Context, tenantID, id int64) error {
	return execOne(ctx, r.q, "delete data source", fmt.Sprint(id),
		`UPDATE data_sources SET deleted_at = NOW() WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

// UpdateConnection last_connected_at solo avanza en una prueba exitosa.
func (r dataSourceRepo) UpdateConnection(ctx context.Context, tenantID, id int64, connected bool, at time.Time, lastError string) error {
	return execOne(ctx, r.q, "update data source connection", fmt.Sprint(id), `
		UPDATE data_sources SET is_connected = $3, last_error = $5,
			last_connected_at = CASE WHEN $3 THEN $4 ELSE last_connected_at END,
			updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id, connected, at, lastError)
}

// ---------------------------------------------------------------------------
// Datasets
// ---------------------------------------------------------------------------

type datasetRepo struct{ q Querier }

const datasetColumns = `id, uuid, tenant_id, code, name, description, query_type, query_config, data_source_id,
	is_active, last_executed_at, last_error, share_token, share_expires_at, created_at, updated_at`

func scanDataset(row pgx.Row) (*entity.Dataset, error) {
	var d entity.Dataset
	var token *string
	err := row.Scan(&d.ID, &d.UUID, &d.TenantID, &d.Code, &d.Name, &d.Description, &d.QueryType,
		&d.QueryConfig, &d.DataSourceID, &d.IsActive, &d.LastExecutedAt, &d.LastError, &token,
		&d.ExpiresAt, &d.CreatedAt, &d.UpdatedAt)
	d.Token = textOf(token)
	return &d, err
}

func (r datasetRepo) Create(ctx context.Context, d *entity.Dataset) error {
	d.UUID = newUUID(d.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO datasets (uuid, tenant_id, code, name, description, query_type, query_config, data_source_id,
			is_active, last_executed_at, last_error, share_token, share_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`,
		d.UUID, d.TenantID, d.Code, d.Name, d.Description, d.QueryType, orEmpty(d.QueryConfig), d.DataSourceID,
		d.IsActive, d.LastExecutedAt, d.LastError, nullText(d.Token), d.ExpiresAt,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	return writeErr("insert dataset", d.Code, err)
}

func (r datasetRepo) GetByID(ctx context.Context, tenantID, id int64) (*entity.Dataset, error) {
	return queryOne(ctx, r.q, "get dataset", scanDataset,
		`SELECT `+datasetColumns+` FROM datasets WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

func (r datasetRepo) GetByCode(ctx context.Context, tenantID int64, code string) (*entity.Dataset, error) {
	return queryOne(ctx, r.q, "get dataset by code", scanDataset,
		`SELECT `+datasetColumns+` FROM datasets WHERE tenant_id = $1 AND code = $2 AND deleted_at IS NULL`, tenantID, code)
}

func (r datasetRepo) List(ctx context.Context, tenantID int64, f repository.ListFilter) ([]*entity.Dataset, int, error) {
	const where = ` FROM datasets WHERE tenant_id = $1 AND deleted_at IS NULL AND ($2 = '' OR code ILIKE $2 OR name ILIKE $2)`
	kw := like(f.Keyword)
	total, err := count(ctx, r.q, "count datasets", `SELECT COUNT(*)`+where, tenantID, kw)
	if err != nil {
		return nil, 0, err
	}
	limit, offset := pageArgs(f)
	list, err := queryAll(ctx, r.q, "list datasets", scanDataset,
		`SELECT `+datasetColumns+where+` ORDER BY id LIMIT $3 OFFSET $4`, tenantID, kw, limit, offset)
	return list, total, err
}

func (r datasetRepo) ListByDataSource(ctx context.Context, tenantID, dataSourceID int64) ([]*entity.Dataset, error) {
	return queryAll(ctx, r.q, "list datasets by data source", scanDataset, `
		SELECT `+datasetColumns+` FROM datasets
		WHERE tenant_id = $1 AND data_source_id = $2 AND deleted_at IS NULL ORDER BY id`, tenantID, dataSourceID)
}

func (r datasetRepo) Update(ctx context.Context, d *entity.Dataset) error {
	err := r.q.QueryRow(ctx, `
		UPDATE datasets SET code = $3, name = $4, description = $5, query_type = $6, query_config = $7,
			data_source_id = $8, is_active = $9, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING updated_at`,
		d.TenantID, d.ID, d.Code, d.Name, d.Description, d.QueryType, orEmpty(d.QueryConfig), d.DataSourceID, d.IsActive,
	).Scan(&d.UpdatedAt)
	return updateErr("update dataset", d.Code, err)
}

func (r datasetRepo) SoftDelete(ctx context.Context, tenantID, id int64) error {
	return execOne(ctx, r.q, "delete dataset", fmt.Sprint(id),
		`UPDATE datasets SET deleted_at = NOW(), share_token = NULL WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

func (r datasetRepo) UpdateExecution(ctx context.Context, tenantID, id int64, at time.Time, lastError string) error {
	return execOne(ctx, r.q, "update dataset execution", fmt.Sprint(id), `
		UPDATE datasets SET last_executed_at = $3, last_error = $4
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id, at, lastError)
}

func (r datasetRepo) SetShare(ctx context.Context, tenantID, id int64, share entity.Share) error {
	return execOne(ctx, r.q, "share dataset", fmt.Sprint(id), `
		UPDATE datasets SET share_token = $3, share_expires_at = $4, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id, nullText(share.Token), share.ExpiresAt)
}

func (r datasetRepo) GetByShareToken(ctx context.Context, token string) (*entity.Dataset, error) {
	if token == "" {
		return nil, nil
	}
	return queryOne(ctx, r.q, "get dataset by share token", scanDataset,
		`SELECT `+datasetColumns+` FROM datasets WHERE share_token = $1 AND deleted_at IS NULL`, token)
}

// ---------------------------------------------------------------------------
// Informes
// ---------------------------------------------------------------------------

type reportRepo struct{ q Querier }

const reportColumns = `id, uuid, tenant_id, code, name, description, dataset_id, config, share_token,
	share_expires_at, created_at, updated_at`

func scanReport(row pgx.Row) (*entity.Report, error) {
	var x entity.Report
	var token *string
	err := row.Scan(&x.ID, &x.UUID, &x.TenantID, &x.Code, &x.Name, &x.Description, &x.DatasetID, &x.Config,
		&token, &x.ExpiresAt, &x.CreatedAt, &x.UpdatedAt)
	x.Token = textOf(token)
	return &x, err
}

func (r reportRepo) Create(ctx context.Context, x *entity.Report) error {
	x.UUID = newUUID(x.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO reports (uuid, tenant_id, code, name, description, dataset_id, config, share_token, share_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		x.UUID, x.TenantID, x.Code, x.Name, x.Description, x.DatasetID, orEmpty(x.Config),
		nullText(x.Token), x.ExpiresAt,
	).Scan(&x.ID, &x.CreatedAt, &x.UpdatedAt)
	return writeErr("insert report", x.Code, err)
}

func (r reportRepo) GetByID(ctx context.Context, tenantID, id int64) (*entity.Report, error) {
	return queryOne(ctx, r.q, "get report", scanReport,
		`SELECT `+reportColumns+` FROM reports WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

func (r reportRepo) GetByCode(ctx context.Context, tenantID int64, code string) (*entity.Report, error) {
	return queryOne(ctx, r.q, "get report by code", scanReport,
		`SELECT `+reportColumns+` FROM reports WHERE tenant_id = $1 AND code = $2 AND deleted_at IS NULL`, tenantID, code)
}

func (r reportRepo) List(ctx context.Context, tenantID int64, f repository.ListFilter) ([]*entity.Report, int, error) {
	const where = ` FROM reports WHERE tenant_id = $1 AND deleted_at IS NULL AND ($2 = '' OR code ILIKE $2 OR name ILIKE $2)`
	kw := like(f.Keyword)
	total, err := count(ctx, r.q, "count reports", `SELECT COUNT(*)`+where, tenantID, kw)
	if err != nil {
		return nil, 0, err
	}
	limit, offset := pageArgs(f)
	list, err := queryAll(ctx, r.q, "list reports", scanReport,
		`SELECT `+reportColumns+where+` ORDER BY id LIMIT $3 OFFSET $4`, tenantID, kw, limit, offset)
	return list, total, err
}

func (r reportRepo) SoftDelete(ctx context.Context, tenantID, id int64) error {
	return execOne(ctx, r.q, "delete report", fmt.Sprint(id),
		`UPDATE reports SET deleted_at = NOW(), share_token = NULL WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

func (r reportRepo) SetShare(ctx context.Context, tenantID, id int64, share entity.Share) error {
	return execOne(ctx, r.q, "share report", fmt.Sprint(id), `
		UPDATE reports SET share_token = $3, share_expires_at = $4, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id, nullText(share.Token), share.ExpiresAt)
}

func (r reportRepo) GetByShareToken(ctx context.Context, token string) (*entity.Report, error) {
	if token == "" {
		return nil, nil
	}
	return queryOne(ctx, r.q, "get report by share token", scanReport,
		`SELECT `+reportColumns+` FROM reports WHERE share_token = $1 AND deleted_at IS NULL`, token)
}
