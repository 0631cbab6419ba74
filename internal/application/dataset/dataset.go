package dataset

import (
	"context"
	"errors"
	"strings"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

func validateQuery(queryType string, cfg map[string]any) error {
	switch queryType {
	case entity.QuerySQL:
		q, _ := cfg["sql"].(string)
		if strings.TrimSpace(q) == "" {
			return domain.Validation("SQL 语句不能为空")
		}
		if !isSelect(q) {
			return domain.Validation("仅支持 SELECT 查询，禁止执行 DDL、DML 语句")
		}
	case entity.QueryAPI:
	default:
		return domain.Validation("不支持的查询类型: %s", queryType)
	}
	return nil
}

// CreateDataset alta de dataset sobre una fuente existente del mismo tenant.
func (uc *DatasetUseCase) CreateDataset(ctx context.Context, tenantID int64, in dto.CreateDatasetRequest) (*entity.Dataset, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" || strings.TrimSpace(in.Name) == "" {
		return nil, domain.Validation("数据集编码和名称不能为空")
	}
	if in.QueryType == "" {
		in.QueryType = entity.QuerySQL
	}
	if err := validateQuery(in.QueryType, in.QueryConfig); err != nil {
		return nil, err
	}
	if _, err := uc.dataSource(ctx, tenantID, in.DataSourceID); err != nil {
		return nil, err
	}
	existing, err := uc.store.Datasets().GetByCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Validation("数据集编码 %s 已存在", code)
	}
	d := &entity.Dataset{
		TenantID:     tenantID,
		Code:         code,
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		QueryType:    in.QueryType,
		QueryConfig:  in.QueryConfig,
		DataSourceID: in.DataSourceID,
		IsActive:     in.IsActive == nil || *in.IsActive,
	}
	if err := uc.store.Datasets().Create(ctx, d); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.Validation("数据集编码 %s 已存在", code)
		}
		uc.log.Warn().Int64("tenant_id", tenantID).Str("code", code).Err(err).Msg("alta de dataset fallida")
		return nil, err
	}
	return d, nil
}

func (uc *DatasetUseCase) dataset(ctx context.Context, tenantID, id int64) (*entity.Dataset, error) {
	d, err := uc.store.Datasets().GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.NotFound("数据集", id)
	}
	return d, nil
}

// cachedDataset definición del dataset, cacheada hasta su próxima escritura.
func (uc *DatasetUseCase) cachedDataset(ctx context.Context, tenantID, id int64) (*entity.Dataset, error) {
	key := definitionKey(tenantID, id)
	if uc.cache != nil {
		var d entity.Dataset
		if found, err := uc.cache.Get(ctx, key, &d); err == nil && found {
			return &d, nil
		}
	}
	d, err := uc.dataset(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, d, uc.opts.CacheTTL); err != nil {
			uc.log.Warn().Int64("tenant_id", tenantID).Str("code", d.Code).Err(err).Msg("no se pudo cachear el dataset")
		}
	}
	return d, nil
}

// GetDataset dataset por id.
func (uc *DatasetUseCase) GetDataset(ctx context.Context, tenantID, id int64) (*entity.Dataset, error) {
	return uc.dataset(ctx, tenantID, id)
}

// ListDatasets listado paginado, opcionalmente por fuente.
func (uc *DatasetUseCase) ListDatasets(ctx context.Context, tenantID int64, in dto.DatasetListRequest) (dto.ListResponse[*entity.Dataset], error) {
	if in.DataSourceID > 0 {
		items, err := uc.store.Datasets().ListByDataSource(ctx, tenantID, in.DataSourceID)
		if err != nil {
			return dto.ListResponse[*entity.Dataset]{}, err
		}
		return dto.NewListResponse(items, in.PageRequest, len(items)), nil
	}
	items, total, err := uc.store.Datasets().List(ctx, tenantID, in.Filter())
	if err != nil {
		return dto.ListResponse[*entity.Dataset]{}, err
	}
	return dto.NewListResponse(items, in.PageRequest, total), nil
}

// UpdateDataset cambios parciales; invalida la definición cacheada.
func (uc *DatasetUseCase) UpdateDataset(ctx context.Context, tenantID, id int64, in dto.UpdateDatasetRequest) (*entity.Dataset, error) {
	d, err := uc.dataset(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, domain.Validation("数据集名称不能为空")
		}
		d.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		d.Description = *in.Description
	}
	if in.QueryType != nil {
		d.QueryType = *in.QueryType
	}
	if in.QueryConfig != nil {
		d.QueryConfig = in.QueryConfig
	}
	if in.QueryType != nil || in.QueryConfig != nil {
		if err := validateQuery(d.QueryType, d.QueryConfig); err != nil {
			return nil, err
		}
	}
	if in.DataSourceID != nil {
		if _, err := uc.dataSource(ctx, tenantID, *in.DataSourceID); err != nil {
			return nil, err
		}
		d.DataSourceID = *in.DataSourceID
	}
	if in.IsActive != nil {
		d.IsActive = *in.IsActive
	}
	if err := uc.store.Datasets().Update(ctx, d); err != nil {
		uc.log.Warn().Int64("tenant_id", tenantID).Str("code", d.Code).Err(err).Msg("actualización de dataset fallida")
		return nil, err
	}
	uc.invalidate(ctx, tenantID, id)
	return d, nil
}

// DeleteDataset borrado lógico.
func (uc *DatasetUseCase) DeleteDataset(ctx context.Context, tenantID, id int64) error {
	if err := uc.store.Datasets().SoftDelete(ctx, tenantID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("数据集", id)
		}
		return err
	}
	uc.invalidate(ctx, tenantID, id)
	return nil
}

// CreateReport alta de informe sobre un dataset del tenant.
func (uc *DatasetUseCase) CreateReport(ctx context.Context, tenantID int64, in dto.CreateReportRequest) (*entity.Report, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" || strings.TrimSpace(in.Name) == "" {
		return nil, domain.Validation("报表编码和名称不能为空")
	}
	if _, err := uc.dataset(ctx, tenantID, in.DatasetID); err != nil {
		return nil, err
	}
	r := &entity.Report{
		TenantID:    tenantID,
		Code:        code,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		DatasetID:   in.DatasetID,
		Config:      in.Config,
	}
	if err := uc.store.Reports().Create(ctx, r); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.Validation("报表编码 %s 已存在", code)
		}
		return nil, err
	}
	return r, nil
}

func (uc *DatasetUseCase) report(ctx context.Context, tenantID, id int64) (*entity.Report, error) {
	r, err := uc.store.Reports().GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.NotFound("报表", id)
	}
	return r, nil
}

// GetReport informe por id.
func (uc *DatasetUseCase) GetReport(ctx context.Context, tenantID, id int64) (*entity.Report, error) {
	return uc.report(ctx, tenantID, id)
}

// ListReports listado paginado.
func (uc *DatasetUseCase) ListReports(ctx context.Context, tenantID int64, p dto.PageRequest) (dto.ListResponse[*entity.Report], error) {
	items, total, err := uc.store.Reports().List(ctx, tenantID, p.Filter())
	if err != nil {
		return dto.ListResponse[*entity.Report]{}, err
	}
	return dto.NewListResponse(items, p, total), nil
}

// DeleteReport borrado lógico.
func (uc *DatasetUseCase) DeleteReport(ctx context.Context, tenantID, id int64) error {
	if err := uc.store.Reports().SoftDelete(ctx, tenantID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("报表", id)
		}
		return err
	}
	return nil
}

// ExecuteReport ejecuta el dataset del informe.
func (uc *DatasetUseCase) ExecuteReport(ctx context.Context, tenantID, id int64, in dto.ExecuteQueryRequest) (*dto.ExecuteQueryResponse, error) {
	r, err := uc.report(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return uc.Execute(ctx, tenantID, r.DatasetID, in)
}
