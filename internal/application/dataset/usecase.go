// Package dataset fuentes de datos, datasets, informes y tokens de acceso compartido.
package dataset

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/ports"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
	"github.com/riveredge/platform-kernel/pkg/logger"
)

const (
	cacheScope      = "dataset"
	cacheKeyType    = "definition"
	notifyTimeout   = 30 * time.Second
	defaultShareTTL = 7 * 24 * time.Hour
)

// Options parámetros de ejecución.
type Options struct {
	QueryTimeout time.Duration
	CacheTTL     time.Duration
}

// DatasetUseCase casos de uso de fuentes de datos, datasets e informes.
type DatasetUseCase struct {
	store  repository.Store
	conn   ports.DataSourceConnector
	cache  ports.Cache
	events ports.EventPublisher
	log    *logger.Logger
	opts   Options
	now    func() time.Time
	token  func() (string, error)

	wg sync.WaitGroup
}

// NewDatasetUseCase construye el caso de uso. cache y events pueden ser nil.
func NewDatasetUseCase(store repository.Store, conn ports.DataSourceConnector, cache ports.Cache, events ports.EventPublisher, log *logger.Logger, opts Options) *DatasetUseCase {
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 30 * time.Second
	}
	if events == nil {
		events = ports.NopPublisher{}
	}
	return &DatasetUseCase{
		store:  store,
		conn:   conn,
		cache:  cache,
		events: events,
		log:    logger.OrNop(log).Component("dataset"),
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC() },
		token:  newShareToken,
	}
}

// Wait espera a que terminen las notificaciones asíncronas pendientes.
func (uc *DatasetUseCase) Wait() { uc.wg.Wait() }

func validateDataSource(typ string, cfg map[string]any) error {
	switch typ {
	case entity.DataSourcePostgreSQL, entity.DataSourceMySQL, entity.DataSourceMongoDB:
		c, err := ports.DecodeSQLConfig(cfg)
		if err != nil {
			return domain.Validation("数据源配置无效: %v", err)
		}
		if c.Host == "" || c.Database == "" {
			return domain.Validation("数据源配置缺少 host 或 database")
		}
	case entity.DataSourceAPI:
		c, err := ports.DecodeAPIConfig(cfg)
		if err != nil {
			return domain.Validation("数据源配置无效: %v", err)
		}
		if c.BaseURL == "" {
			return domain.Validation("API 数据源缺少 base_url")
		}
		switch c.AuthType {
		case "", "none":
		case "bearer":
			if c.Token == "" {
				return domain.Validation("bearer 认证需要 token")
			}
		default:
			return domain.Validation("不支持的认证类型: %s", c.AuthType)
		}
	default:
		return domain.Validation("不支持的数据源类型: %s", typ)
	}
	return nil
}

// CreateDataSource alta con código único por tenant.
func (uc *DatasetUseCase) CreateDataSource(ctx context.Context, tenantID int64, in dto.CreateDataSourceRequest) (*entity.DataSource, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" || strings.TrimSpace(in.Name) == "" {
		return nil, domain.Validation("数据源编码和名称不能为空")
	}
	if err := validateDataSource(in.Type, in.Config); err != nil {
		return nil, err
	}
	existing, err := uc.store.DataSources().GetByCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Validation("数据源编码 %s 已存在", code)
	}
	ds := &entity.DataSource{
		TenantID:    tenantID,
		Code:        code,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Type:        in.Type,
		Config:      in.Config,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if err := uc.store.DataSources().Create(ctx, ds); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.Validation("数据源编码 %s 已存在", code)
		}
		uc.log.Warn().Int64("tenant_id", tenantID).Str("code", code).Err(err).Msg("alta de fuente de datos fallida")
		return nil, err
	}
	return ds, nil
}

func (uc *DatasetUseCase) dataSource(ctx context.Context, tenantID, id int64) (*entity.DataSource, error) {
	ds, err := uc.store.DataSources().GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, domain.NotFound("数据源", id)
	}
	return ds, nil
}

// GetDataSource fuente por id.
func (uc *DatasetUseCase) GetDataSource(ctx context.Context, tenantID, id int64) (*entity.DataSource, error) {
	return uc.dataSource(ctx, tenantID, id)
}

// ListDataSources listado paginado.
func (uc *DatasetUseCase) ListDataSources(ctx context.Context, tenantID int64, p dto.PageRequest) (dto.ListResponse[*entity.DataSource], error) {
	items, total, err := uc.store.DataSources().List(ctx, tenantID, p.Filter())
	if err != nil {
		return dto.ListResponse[*entity.DataSource]{}, err
	}
	return dto.NewListResponse(items, p, total), nil
}

// UpdateDataSource aplica cambios parciales. Un cambio de is_active o config
// notifica de forma asíncrona a los datasets vinculados.
func (uc *DatasetUseCase) UpdateDataSource(ctx context.Context, tenantID, id int64, in dto.UpdateDataSourceRequest) (*entity.DataSource, error) {
	ds, err := uc.dataSource(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	var activeChanged, configChanged bool
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, domain.Validation("数据源名称不能为空")
		}
		ds.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		ds.Description = *in.Description
	}
	if in.Config != nil {
		if err := validateDataSource(ds.Type, in.Config); err != nil {
			return nil, err
		}
		ds.Config = in.Config
		ds.IsConnected = false
		configChanged = true
	}
	if in.IsActive != nil && *in.IsActive != ds.IsActive {
		ds.IsActive = *in.IsActive
		activeChanged = true
	}
	if err := uc.store.DataSources().Update(ctx, ds); err != nil {
		uc.log.Warn().Int64("tenant_id", tenantID).Str("code", ds.Code).Err(err).Msg("actualización de fuente de datos fallida")
		return nil, err
	}
	if activeChanged || configChanged {
		uc.notifyDatasets(tenantID, ds.ID, ds.Code, ds.IsActive, false)
	}
	return ds, nil
}

// DeleteDataSource borrado lógico; los datasets vinculados quedan marcados.
func (uc *DatasetUseCase) DeleteDataSource(ctx context.Context, tenantID, id int64) error {
	ds, err := uc.dataSource(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := uc.store.DataSources().SoftDelete(ctx, tenantID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("数据源", id)
		}
		return err
	}
	uc.notifyDatasets(tenantID, ds.ID, ds.Code, false, true)
	return nil
}

// TestConnection prueba la fuente y registra is_connected/last_error. Un fallo de
// conexión no es un error: se devuelve success=false con el mensaje.
func (uc *DatasetUseCase) TestConnection(ctx context.Context, tenantID, id int64) (*dto.TestConnectionResult, error) {
	ds, err := uc.dataSource(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	testErr := uc.conn.TestConnection(ctx, ds)
	res := &dto.TestConnectionResult{Success: testErr == nil, Message: "连接成功", ElapsedTime: elapsed(start)}
	lastError := ""
	if testErr != nil {
		lastError = testErr.Error()
		res.Message = "连接失败: " + lastError
		uc.log.Warn().Int64("tenant_id", tenantID).Str("code", ds.Code).Err(testErr).Msg("prueba de conexión fallida")
	}
	if err := uc.store.DataSources().UpdateConnection(ctx, tenantID, id, testErr == nil, uc.now(), lastError); err != nil {
		uc.log.Warn().Int64("tenant_id", tenantID).Str("code", ds.Code).Err(err).Msg("no se pudo registrar el estado de conexión")
	}
	return res, nil
}

func definitionKey(tenantID, datasetID int64) string {
	return ports.CacheKey(cacheScope, tenantID, cacheKeyType, strconv.FormatInt(datasetID, 10))
}

func (uc *DatasetUseCase) invalidate(ctx context.Context, tenantID, datasetID int64) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(ctx, definitionKey(tenantID, datasetID)); err != nil {
		uc.log.Warn().Int64("tenant_id", tenantID).Int64("dataset_id", datasetID).Err(err).Msg("invalidación de caché fallida")
	}
}

// notifyDatasets descarta las definiciones cacheadas de los datasets vinculados,
// marca last_error cuando la fuente queda inactiva o borrada y publica el cambio.
// Los errores se registran y nunca llegan al llamador.
func (uc *DatasetUseCase) notifyDatasets(tenantID, dataSourceID int64, code string, active, deleted bool) {
	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		datasets, err := uc.store.Datasets().ListByDataSource(ctx, tenantID, dataSourceID)
		if err != nil {
			uc.log.Warn().Int64("tenant_id", tenantID).Str("code", code).Err(err).Msg("notificación a datasets fallida")
			return
		}
		for _, d := range datasets {
			uc.invalidate(ctx, tenantID, d.ID)
			if deleted || !active {
				d.LastError = "数据连接已禁用，无法执行查询"
				if deleted {
					d.LastError = "数据连接已删除，无法执行查询"
				}
				if err := uc.store.Datasets().Update(ctx, d); err != nil {
					uc.log.Warn().Int64("tenant_id", tenantID).Str("code", d.Code).Err(err).Msg("no se pudo marcar el dataset")
				}
			}
		}
		uc.events.PublishToTenant(tenantID, ports.ChannelDatasets, map[string]any{
			"event":            "data_source_changed",
			"data_source_code": code,
			"is_active":        active,
			"is_deleted":       deleted,
			"datasets":         len(datasets),
		})
		uc.log.Info().Int64("tenant_id", tenantID).Str("code", code).Int("datasets", len(datasets)).Msg("datasets notificados")
	}()
}

func elapsed(start time.Time) float64 {
	ms := time.Since(start).Milliseconds()
	return float64(ms) / 1000
}
