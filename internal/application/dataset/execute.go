package dataset

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/ports"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

var limitRe = regexp.MustCompile(`(?i)\bLIMIT\b`)

const tenantAlias = "_q"

func isSelect(q string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(q)), "SELECT")
}

func trimStatement(q string) string {
	return strings.TrimRight(strings.TrimSpace(q), "; \t\n")
}

// wrapTenantFilter envuelve la consulta completa como subconsulta y filtra
// por tenant fuera de ella. Los OR, subconsultas y CTE del usuario quedan
// dentro del paréntesis y no pueden saltarse el filtro.
func wrapTenantFilter(q string) string {
	return "SELECT * FROM (" + trimStatement(q) + ") " + tenantAlias +
		" WHERE " + tenantAlias + ".tenant_id = :tenant_id"
}

// buildSQL prepara la consulta: sólo SELECT, parámetros de query_config
// mezclados con los del llamador y LIMIT/OFFSET si la consulta no trae LIMIT.
// El filtro de tenant sólo se aplica con tenant_isolation=true y entonces la
// paginación va siempre por fuera de la subconsulta.
func buildSQL(tenantID int64, cfg map[string]any, params map[string]any, limit, offset int) (string, map[string]any, error) {
	q, _ := cfg["sql"].(string)
	if strings.TrimSpace(q) == "" {
		return "", nil, errors.New("SQL 语句不能为空")
	}
	if !isSelect(q) {
		return "", nil, errors.New("仅支持 SELECT 查询，禁止执行 DDL、DML 语句")
	}
	isolation, _ := cfg["tenant_isolation"].(bool)
	paginate := !limitRe.MatchString(q)
	if isolation {
		q = wrapTenantFilter(q)
		paginate = true
	}
	args := map[string]any{}
	if base, ok := cfg["parameters"].(map[string]any); ok {
		for k, v := range base {
			args[k] = v
		}
	}
	for k, v := range params {
		args[k] = v
	}
	if isolation {
		args["tenant_id"] = tenantID
	}
	if paginate {
		q = fmt.Sprintf("%s LIMIT %d OFFSET %d", trimStatement(q), limit, offset)
	}
	return q, args, nil
}

// Execute ejecuta el dataset. Los fallos de ejecución se devuelven como
// success=false y quedan registrados en last_error/last_executed_at.
func (uc *DatasetUseCase) Execute(ctx context.Context, tenantID, id int64, in dto.ExecuteQueryRequest) (*dto.ExecuteQueryResponse, error) {
	d, err := uc.cachedDataset(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return uc.execute(ctx, d, in)
}

func failed(msg string) *dto.ExecuteQueryResponse {
	return &dto.ExecuteQueryResponse{Success: false, Data: []map[string]any{}, Columns: []string{}, Error: msg}
}

func (uc *DatasetUseCase) execute(ctx context.Context, d *entity.Dataset, in dto.ExecuteQueryRequest) (*dto.ExecuteQueryResponse, error) {
	in.Normalize()
	if !d.IsActive {
		return failed("数据集已禁用"), nil
	}
	ds, err := uc.dataSource(ctx, d.TenantID, d.DataSourceID)
	if err != nil {
		return nil, err
	}
	if !ds.IsActive {
		return failed("数据连接已禁用，无法执行查询"), nil
	}
	if !ds.IsConnected {
		return failed("数据源未连接，请先测试连接"), nil
	}

	qctx, cancel := context.WithTimeout(ctx, uc.opts.QueryTimeout)
	defer cancel()
	start := time.Now()

	var res *dto.ExecuteQueryResponse
	switch d.QueryType {
	case entity.QueryAPI:
		res = uc.executeAPI(qctx, ds, d, in)
	default:
		res = uc.executeSQL(qctx, ds, d, in)
	}
	res.ElapsedTime = math.Round(time.Since(start).Seconds()*1000) / 1000

	if !res.Success {
		uc.log.Warn().Int64("tenant_id", d.TenantID).Str("code", d.Code).Str("error", res.Error).Msg("ejecución de dataset fallida")
	}
	if err := uc.store.Datasets().UpdateExecution(ctx, d.TenantID, d.ID, uc.now(), res.Error); err != nil {
		uc.log.Warn().Int64("tenant_id", d.TenantID).Str("code", d.Code).Err(err).Msg("no se pudo registrar la ejecución")
	}
	return res, nil
}

func (uc *DatasetUseCase) executeSQL(ctx context.Context, ds *entity.DataSource, d *entity.Dataset, in dto.ExecuteQueryRequest) *dto.ExecuteQueryResponse {
	q, args, err := buildSQL(d.TenantID, d.QueryConfig, in.Parameters, in.Limit, in.Offset)
	if err != nil {
		return failed(err.Error())
	}
	out, err := uc.conn.QuerySQL(ctx, ds, q, args)
	if err != nil {
		return failed("SQL 查询执行失败: " + err.Error())
	}
	rows := out.Rows
	if rows == nil {
		rows = []map[string]any{}
	}
	cols := out.Columns
	if len(cols) == 0 {
		cols = columnsOf(rows)
	}
	return &dto.ExecuteQueryResponse{Success: true, Data: rows, Total: len(rows), Columns: cols}
}

func (uc *DatasetUseCase) executeAPI(ctx context.Context, ds *entity.DataSource, d *entity.Dataset, in dto.ExecuteQueryRequest) *dto.ExecuteQueryResponse {
	req := ports.APIRequest{Method: http.MethodGet, Params: map[string]any{}}
	if m, ok := d.QueryConfig["method"].(string); ok && m != "" {
		req.Method = strings.ToUpper(m)
	}
	req.Endpoint, _ = d.QueryConfig["endpoint"].(string)
	if p, ok := d.QueryConfig["params"].(map[string]any); ok {
		for k, v := range p {
			req.Params[k] = v
		}
	}
	for k, v := range in.Parameters {
		req.Params[k] = v
	}
	req.Params["limit"] = in.Limit
	req.Params["offset"] = in.Offset
	if b, ok := d.QueryConfig["body"].(map[string]any); ok {
		req.Body = b
	}

	body, err := uc.conn.CallAPI(ctx, ds, req)
	if err != nil {
		return failed("API 查询执行失败: " + err.Error())
	}
	rows := unwrapRows(body)
	total := len(rows)
	rows = slice(rows, in.Offset, in.Limit)
	return &dto.ExecuteQueryResponse{Success: true, Data: rows, Total: total, Columns: columnsOf(rows)}
}

// unwrapRows acepta una lista, {"data": …}, {"items": …} o un objeto suelto.
func unwrapRows(body any) []map[string]any {
	switch v := body.(type) {
	case []any:
		return toRows(v)
	case map[string]any:
		if data, ok := v["data"]; ok {
			if list, ok := data.([]any); ok {
				return toRows(list)
			}
			return toRows([]any{data})
		}
		if items, ok := v["items"].([]any); ok {
			return toRows(items)
		}
		return []map[string]any{v}
	case nil:
		return []map[string]any{}
	default:
		return []map[string]any{{"value": v}}
	}
}

func toRows(list []any) []map[string]any {
	rows := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			rows = append(rows, m)
			continue
		}
		rows = append(rows, map[string]any{"value": item})
	}
	return rows
}

func slice(rows []map[string]any, offset, limit int) []map[string]any {
	if offset >= len(rows) {
		return []map[string]any{}
	}
	rows = rows[offset:]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// columnsOf claves de la primera fila, ordenadas.
func columnsOf(rows []map[string]any) []string {
	if len(rows) == 0 {
		return []string{}
	}
	cols := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
