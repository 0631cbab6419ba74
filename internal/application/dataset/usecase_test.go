package dataset

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveredge/platform-kernel/internal/application/apptest"
	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/ports"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/infrastructure/cache"
)

const tenantID int64 = 7

type fakeConnector struct {
	testErr   error
	queryErr  error
	result    *ports.QueryResult
	apiBody   any
	lastQuery string
	lastArgs  map[string]any
	lastReq   ports.APIRequest
}

func (f *fakeConnector) TestConnection(context.Context, *entity.DataSource) error { return f.testErr }

func (f *fakeConnector) QuerySQL(_ context.Context, _ *entity.DataSource, q string, params map[string]any) (*ports.QueryResult, error) {
	f.lastQuery, f.lastArgs = q, params
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.result, nil
}

func (f *fakeConnector) CallAPI(_ context.Context, _ *entity.DataSource, req ports.APIRequest) (any, error) {
	f.lastReq = req
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.apiBody, nil
}

type recorder struct {
	events []map[string]any
}

func (r *recorder) PublishToTenant(_ int64, _ string, data any) {
	r.events = append(r.events, data.(map[string]any))
}
func (r *recorder) PublishToUser(int64, int64, string, any) {}

type fixture struct {
	uc     *DatasetUseCase
	store  *apptest.Store
	conn   *fakeConnector
	events *recorder
	now    time.Time
	seq    int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  apptest.NewStore(),
		conn:   &fakeConnector{result: &ports.QueryResult{Columns: []string{"code"}, Rows: []map[string]any{{"code": "A"}}}},
		events: &recorder{},
		now:    time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	f.uc = NewDatasetUseCase(f.store, f.conn, cache.NewLocal(time.Minute), f.events, nil, Options{QueryTimeout: time.Second})
	f.uc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) sqlSource(t *testing.T) *entity.DataSource {
	t.Helper()
	ds, err := f.uc.CreateDataSource(context.Background(), tenantID, dto.CreateDataSourceRequest{
		Code: "erp", Name: "ERP", Type: entity.DataSourcePostgreSQL,
		Config: map[string]any{"host": "db", "port": "5432", "database": "erp", "username": "u", "password": "p"},
	})
	require.NoError(t, err)
	return ds
}

func (f *fixture) connected(t *testing.T, ds *entity.DataSource) {
	t.Helper()
	res, err := f.uc.TestConnection(context.Background(), tenantID, ds.ID)
	require.NoError(t, err)
	require.True(t, res.Success)
}

func (f *fixture) sqlDataset(t *testing.T, ds *entity.DataSource, q string) *entity.Dataset {
	t.Helper()
	f.seq++
	d, err := f.uc.CreateDataset(context.Background(), tenantID, dto.CreateDatasetRequest{
		Code: fmt.Sprintf("ds_%d", f.seq), Name: "consulta", QueryType: entity.QuerySQL,
		QueryConfig: map[string]any{"sql": q}, DataSourceID: ds.ID,
	})
	require.NoError(t, err)
	return d
}

// ---------------------------------------------------------------------------
// Fuentes de datos
// ---------------------------------------------------------------------------

func TestCreateDataSource_CodigoDuplicado(t *testing.T) {
	f := newFixture(t)
	f.sqlSource(t)

	_, err := f.uc.CreateDataSource(context.Background(), tenantID, dto.CreateDataSourceRequest{
		Code: "erp", Name: "otra", Type: entity.DataSourceAPI, Config: map[string]any{"base_url": "http://x"},
	})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	// otro tenant puede reutilizar el código
	_, err = f.uc.CreateDataSource(context.Background(), tenantID+1, dto.CreateDataSourceRequest{
		Code: "erp", Name: "otra", Type: entity.DataSourceAPI, Config: map[string]any{"base_url": "http://x"},
	})
	assert.NoError(t, err)
}

func TestCreateDataSource_ConfigInvalida(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.CreateDataSource(ctx, tenantID, dto.CreateDataSourceRequest{Code: "a", Name: "a", Type: "oracle"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = f.uc.CreateDataSource(ctx, tenantID, dto.CreateDataSourceRequest{
		Code: "b", Name: "b", Type: entity.DataSourceAPI,
		Config: map[string]any{"base_url": "http://x", "auth_type": "bearer"},
	})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestTestConnection_RegistraEstado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ds := f.sqlSource(t)

	f.conn.testErr = errors.New("dial tcp: refused")
	res, err := f.uc.TestConnection(ctx, tenantID, ds.ID)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "refused")

	got, err := f.uc.GetDataSource(ctx, tenantID, ds.ID)
	require.NoError(t, err)
	assert.False(t, got.IsConnected)
	assert.Equal(t, "dial tcp: refused", got.LastError)

	f.conn.testErr = nil
	f.connected(t, ds)
	got, _ = f.uc.GetDataSource(ctx, tenantID, ds.ID)
	assert.True(t, got.IsConnected)
	assert.Empty(t, got.LastError)
	require.NotNil(t, got.LastConnectedAt)
}

func TestUpdateDataSource_NotificaDatasets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ds := f.sqlSource(t)
	d := f.sqlDataset(t, ds, "SELECT code FROM items")

	inactive := false
	_, err := f.uc.UpdateDataSource(ctx, tenantID, ds.ID, dto.UpdateDataSourceRequest{IsActive: &inactive})
	require.NoError(t, err)
	f.uc.Wait()

	got, err := f.uc.GetDataset(ctx, tenantID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "数据连接已禁用，无法执行查询", got.LastError)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, "erp", f.events.events[0]["data_source_code"])
	assert.Equal(t, 1, f.events.events[0]["datasets"])
}

func TestUpdateDataSource_SinCambiosNoNotifica(t *testing.T) {
	f := newFixture(t)
	ds := f.sqlSource(t)
	name := "ERP nuevo"

	_, err := f.uc.UpdateDataSource(context.Background(), tenantID, ds.ID, dto.UpdateDataSourceRequest{Name: &name})
	require.NoError(t, err)
	f.uc.Wait()
	assert.Empty(t, f.events.events)
}

// ---------------------------------------------------------------------------
// Ejecución
// ---------------------------------------------------------------------------

func TestCreateDataset_SoloSelect(t *testing.T) {
	f := newFixture(t)
	ds := f.sqlSource(t)

	_, err := f.uc.CreateDataset(context.Background(), tenantID, dto.CreateDatasetRequest{
		Code: "x", Name: "x", QueryType: entity.QuerySQL,
		QueryConfig: map[string]any{"sql": "DELETE FROM items"}, DataSourceID: ds.ID,
	})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestExecute_FuenteNoConectada(t *testing.T) {
	f := newFixture(t)
	ds := f.sqlSource(t)
	d := f.sqlDataset(t, ds, "SELECT code FROM items")

	res, err := f.uc.Execute(context.Background(), tenantID, d.ID, dto.ExecuteQueryRequest{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "数据源未连接，请先测试连接", res.Error)
	assert.Empty(t, f.conn.lastQuery)
}

func TestExecute_SQLAislamientoEnvuelveConsulta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ds := f.sqlSource(t)
	f.connected(t, ds)
	d, err := f.uc.CreateDataset(ctx, tenantID, dto.CreateDatasetRequest{
		Code: "aislado", Name: "aislado", QueryType: entity.QuerySQL, DataSourceID: ds.ID,
		QueryConfig: map[string]any{"sql": "SELECT code FROM items WHERE qty > :min ORDER BY code", "tenant_isolation": true},
	})
	require.NoError(t, err)

	res, err := f.uc.Execute(ctx, tenantID, d.ID, dto.ExecuteQueryRequest{
		Parameters: map[string]any{"min": 3, "tenant_id": 999}, Limit: 10, Offset: 20,
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, []string{"code"}, res.Columns)
	assert.Equal(t, "SELECT * FROM (SELECT code FROM items WHERE qty > :min ORDER BY code) _q WHERE _q.tenant_id = :tenant_id LIMIT 10 OFFSET 20", f.conn.lastQuery)
	assert.Equal(t, tenantID, f.conn.lastArgs["tenant_id"])
	assert.Equal(t, 3, f.conn.lastArgs["min"])

	got, _ := f.uc.GetDataset(ctx, tenantID, d.ID)
	require.NotNil(t, got.LastExecutedAt)
	assert.Empty(t, got.LastError)
}

func TestExecute_SQLSinAislamientoNoTocaConsulta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ds := f.sqlSource(t)
	f.connected(t, ds)
	d := f.sqlDataset(t, ds, "SELECT code FROM items WHERE qty > :min")

	res, err := f.uc.Execute(ctx, tenantID, d.ID, dto.ExecuteQueryRequest{
		Parameters: map[string]any{"min": 3}, Limit: 10,
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "SELECT code FROM items WHERE qty > :min LIMIT 10 OFFSET 0", f.conn.lastQuery)
	assert.NotContains(t, f.conn.lastArgs, "tenant_id")
}

func TestExecute_FalloRegistraLastError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ds := f.sqlSource(t)
	f.connected(t, ds)
	d := f.sqlDataset(t, ds, "SELECT code FROM items")

	f.conn.queryErr = errors.New("relation \"items\" does not exist")
	res, err := f.uc.Execute(ctx, tenantID, d.ID, dto.ExecuteQueryRequest{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "SQL 查询执行失败: ")

	got, _ := f.uc.GetDataset(ctx, tenantID, d.ID)
	assert.Contains(t, got.LastError, "does not exist")
	require.NotNil(t, got.LastExecutedAt)
}

func TestExecute_APIDesenvuelveData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ds, err := f.uc.CreateDataSource(ctx, tenantID, dto.CreateDataSourceRequest{
		Code: "crm", Name: "CRM", Type: entity.DataSourceAPI, Config: map[string]any{"base_url": "http://crm"},
	})
	require.NoError(t, err)
	f.connected(t, ds)
	d, err := f.uc.CreateDataset(ctx, tenantID, dto.CreateDatasetRequest{
		Code: "clientes", Name: "clientes", QueryType: entity.QueryAPI, DataSourceID: ds.ID,
		QueryConfig: map[string]any{"endpoint": "/customers", "method": "post", "params": map[string]any{"region": "N"}},
	})
	require.NoError(t, err)
	f.conn.apiBody = map[string]any{"data": []any{
		map[string]any{"id": 1.0, "name": "a"},
		map[string]any{"id": 2.0, "name": "b"},
		map[string]any{"id": 3.0, "name": "c"},
	}}

	res, err := f.uc.Execute(ctx, tenantID, d.ID, dto.ExecuteQueryRequest{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "b", res.Data[0]["name"])
	assert.Equal(t, []string{"id", "name"}, res.Columns)
	assert.Equal(t, "POST", f.conn.lastReq.Method)
	assert.Equal(t, "/customers", f.conn.lastReq.Endpoint)
	assert.Equal(t, "N", f.conn.lastReq.Params["region"])
	assert.Equal(t, 2, f.conn.lastReq.Params["limit"])
}

func TestUnwrapRows(t *testing.T) {
	assert.Len(t, unwrapRows([]any{map[string]any{"a": 1}}), 1)
	assert.Len(t, unwrapRows(map[string]any{"items": []any{map[string]any{"a": 1}, map[string]any{"a": 2}}}), 2)
	assert.Equal(t, []map[string]any{{"a": 1}}, unwrapRows(map[string]any{"data": map[string]any{"a": 1}}))
	assert.Equal(t, []map[string]any{{"a": 1}}, unwrapRows(map[string]any{"a": 1}))
	assert.Empty(t, unwrapRows(nil))
}

func TestWrapTenantFilter(t *testing.T) {
	cases := map[string]string{
		"SELECT * FROM t":  "SELECT * FROM (SELECT * FROM t) _q WHERE _q.tenant_id = :tenant_id",
		"SELECT * FROM t;": "SELECT * FROM (SELECT * FROM t) _q WHERE _q.tenant_id = :tenant_id",
		"SELECT a, count(*) AS n, tenant_id FROM t GROUP BY a, tenant_id": "SELECT * FROM (SELECT a, count(*) AS n, tenant_id FROM t GROUP BY a, tenant_id) _q WHERE _q.tenant_id = :tenant_id",
	}
	for in, want := range cases {
		assert.Equal(t, want, wrapTenantFilter(in), in)
	}
}

func TestBuildSQL_PredicadoOrNoEscapaDelTenant(t *testing.T) {
	q, args, err := buildSQL(tenantID, map[string]any{
		"sql":              "SELECT * FROM orders WHERE status = 'a' OR status = 'b'",
		"tenant_isolation": true,
	}, nil, 50, 0)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT * FROM (SELECT * FROM orders WHERE status = 'a' OR status = 'b') _q WHERE _q.tenant_id = :tenant_id LIMIT 50 OFFSET 0", q)
	assert.Equal(t, tenantID, args["tenant_id"])
}

func TestBuildSQL_SubconsultaYLimitQuedanDentro(t *testing.T) {
	q, _, err := buildSQL(tenantID, map[string]any{
		"sql":              "SELECT o.* FROM orders o WHERE o.id IN (SELECT order_id FROM lines WHERE sku = :sku) LIMIT 5",
		"tenant_isolation": true,
	}, map[string]any{"sku": "A1"}, 100, 10)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT * FROM (SELECT o.* FROM orders o WHERE o.id IN (SELECT order_id FROM lines WHERE sku = :sku) LIMIT 5) _q WHERE _q.tenant_id = :tenant_id LIMIT 100 OFFSET 10", q)
}

func TestBuildSQL_SinAislamientoRespetaLimit(t *testing.T) {
	q, args, err := buildSQL(tenantID, map[string]any{
		"sql": "SELECT * FROM t LIMIT 5", "tenant_isolation": false, "parameters": map[string]any{"x": 1},
	}, nil, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t LIMIT 5", q)
	assert.Equal(t, map[string]any{"x": 1}, args)
}

// ---------------------------------------------------------------------------
// Compartir
// ---------------------------------------------------------------------------

func TestShareDataset_CicloCompleto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ds := f.sqlSource(t)
	f.connected(t, ds)
	d := f.sqlDataset(t, ds, "SELECT code FROM items")

	_, err := f.uc.SharedDataset(ctx, "desconocido")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	share, err := f.uc.ShareDataset(ctx, tenantID, d.ID, dto.ShareRequest{ExpiresInHours: 1})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(share.ShareToken), 32)
	assert.Equal(t, f.now.Add(time.Hour), share.ExpiresAt)

	got, err := f.uc.SharedDataset(ctx, share.ShareToken)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)

	res, err := f.uc.ExecuteSharedDataset(ctx, share.ShareToken, dto.ExecuteQueryRequest{})
	require.NoError(t, err)
	assert.True(t, res.Success)

	// expirado
	f.now = f.now.Add(2 * time.Hour)
	_, err = f.uc.SharedDataset(ctx, share.ShareToken)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	// revocado
	f.now = f.now.Add(-2 * time.Hour)
	require.NoError(t, f.uc.UnshareDataset(ctx, tenantID, d.ID))
	_, err = f.uc.SharedDataset(ctx, share.ShareToken)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestShareDataset_ReintentaColision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ds := f.sqlSource(t)
	a := f.sqlDataset(t, ds, "SELECT a FROM x")
	b := f.sqlDataset(t, ds, "SELECT b FROM x")

	tokens := []string{"tok-a-0123456789abcdef0123456789ab", "tok-a-0123456789abcdef0123456789ab", "tok-b-0123456789abcdef0123456789ab"}
	f.uc.token = func() (string, error) {
		tok := tokens[0]
		tokens = tokens[1:]
		return tok, nil
	}
	first, err := f.uc.ShareDataset(ctx, tenantID, a.ID, dto.ShareRequest{})
	require.NoError(t, err)
	second, err := f.uc.ShareDataset(ctx, tenantID, b.ID, dto.ShareRequest{})
	require.NoError(t, err)
	assert.NotEqual(t, first.ShareToken, second.ShareToken)
	assert.Equal(t, f.now.Add(defaultShareTTL), first.ExpiresAt)
}

func TestShareReport_EjecutaDataset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ds := f.sqlSource(t)
	f.connected(t, ds)
	d := f.sqlDataset(t, ds, "SELECT code FROM items")
	r, err := f.uc.CreateReport(ctx, tenantID, dto.CreateReportRequest{Code: "r1", Name: "ventas", DatasetID: d.ID})
	require.NoError(t, err)

	share, err := f.uc.ShareReport(ctx, tenantID, r.ID, dto.ShareRequest{})
	require.NoError(t, err)
	res, err := f.uc.ExecuteSharedReport(ctx, share.ShareToken, dto.ExecuteQueryRequest{})
	require.NoError(t, err)
	assert.True(t, res.Success)

	require.NoError(t, f.uc.UnshareReport(ctx, tenantID, r.ID))
	_, err = f.uc.SharedReport(ctx, share.ShareToken)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDeleteDataset_DosVeces(t *testing.T) {
	f := newFixture(t)
	ds := f.sqlSource(t)
	d := f.sqlDataset(t, ds, "SELECT code FROM items")

	require.NoError(t, f.uc.DeleteDataset(context.Background(), tenantID, d.ID))
	err := f.uc.DeleteDataset(context.Background(), tenantID, d.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
