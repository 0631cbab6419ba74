// Package datasource conecta con las fuentes de datos externas registradas por
// los tenants: bases SQL vía database/sql y APIs HTTP vía resty.
package datasource

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/riveredge/platform-kernel/internal/application/ports"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/pkg/logger"
)

// APITimeout tiempo máximo de una llamada a una fuente api.
const APITimeout = 10 * time.Second

// OpenFunc abre una conexión database/sql; sustituible en tests.
type OpenFunc func(driver, dsn string) (*sql.DB, error)

// Connector implementa ports.DataSourceConnector.
type Connector struct {
	open OpenFunc
	http *resty.Client
	log  *logger.Logger
}

// Option configura el Connector.
type Option func(*Connector)

// WithOpener reemplaza sql.Open.
func WithOpener(open OpenFunc) Option {
	return func(c *Connector) { c.open = open }
}

// WithHTTPClient reemplaza el cliente resty.
func WithHTTPClient(client *resty.Client) Option {
	return func(c *Connector) { c.http = client }
}

// NewConnector crea el conector con sql.Open y un cliente resty de 10 s.
func NewConnector(log *logger.Logger, opts ...Option) *Connector {
	c := &Connector{
		open: sql.Open,
		http: resty.New().
			SetTimeout(APITimeout).
			SetHeader("Accept", "application/json"),
		log: logger.OrNop(log).Component("datasource"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

var _ ports.DataSourceConnector = (*Connector)(nil)

func unsupported(ds *entity.DataSource) error {
	return domain.Business("暂不支持的数据源类型: %s", ds.Type)
}

// driverDSN traduce la configuración a (driver, dsn, dialecto).
func driverDSN(ds *entity.DataSource) (string, string, string, error) {
	cfg, err := ports.DecodeSQLConfig(ds.Config)
	if err != nil {
		return "", "", "", domain.Validation("数据源配置无效: %v", err)
	}
	switch ds.Type {
	case entity.DataSourcePostgreSQL:
		port := cfg.Port
		if port == 0 {
			port = 5432
		}
		ssl := cfg.SSLMode
		if ssl == "" {
			ssl = "disable"
		}
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=10",
			quoteValue(cfg.Host), port, quoteValue(cfg.Login()), quoteValue(cfg.Password), quoteValue(cfg.Database), ssl)
		return "postgres", dsn, dialectPostgres, nil
	case entity.DataSourceMySQL:
		port := cfg.Port
		if port == 0 {
			port = 3306
		}
		mc := mysql.NewConfig()
		mc.User = cfg.Login()
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
		mc.DBName = cfg.Database
		mc.ParseTime = true
		mc.Timeout = 10 * time.Second
		return "mysql", mc.FormatDSN(), dialectMySQL, nil
	}
	return "", "", "", unsupported(ds)
}

// quoteValue escapa un valor para el formato clave=valor de lib/pq.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func (c *Connector) connect(ds *entity.DataSource) (*sql.DB, string, error) {
	driver, dsn, dialect, err := driverDSN(ds)
	if err != nil {
		return nil, "", err
	}
	db, err := c.open(driver, dsn)
	if err != nil {
		return nil, "", err
	}
	db.SetMaxOpenConns(1)
	return db, dialect, nil
}

// TestConnection SELECT 1 sobre una conexión efímera o GET base_url.
func (c *Connector) TestConnection(ctx context.Context, ds *entity.DataSource) error {
	switch ds.Type {
	case entity.DataSourceAPI:
		_, err := c.CallAPI(ctx, ds, ports.APIRequest{Method: "GET"})
		return err
	case entity.DataSourceMongoDB:
		return unsupported(ds)
	}
	db, _, err := c.connect(ds)
	if err != nil {
		return err
	}
	defer db.Close()
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		c.log.Warn().Str("code", ds.Code).Err(err).Msg("prueba de conexión fallida")
		return err
	}
	return nil
}

// QuerySQL ejecuta la consulta con marcadores :name enlazados al dialecto.
func (c *Connector) QuerySQL(ctx context.Context, ds *entity.DataSource, query string, params map[string]any) (*ports.QueryResult, error) {
	db, dialect, err := c.connect(ds)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	q, args, err := bindNamed(query, params, dialect)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func scanRows(rows *sql.Rows) (*ports.QueryResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := &ports.QueryResult{Columns: cols, Rows: []map[string]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = vals[i]
		}
		out.Rows = append(out.Rows, row)
	}
	return out, rows.Err()
}

// CallAPI llama a base_url+endpoint y decodifica el cuerpo JSON. Un estado >= 400
// es un error.
func (c *Connector) CallAPI(ctx context.Context, ds *entity.DataSource, req ports.APIRequest) (any, error) {
	if ds.Type != entity.DataSourceAPI {
		return nil, unsupported(ds)
	}
	cfg, err := ports.DecodeAPIConfig(ds.Config)
	if err != nil {
		return nil, domain.Validation("数据源配置无效: %v", err)
	}
	r := c.http.R().SetContext(ctx).SetHeaders(cfg.Headers)
	if strings.EqualFold(cfg.AuthType, "bearer") || (cfg.AuthType == "" && cfg.Token != "") {
		r.SetAuthToken(cfg.Token)
	}
	for k, v := range req.Params {
		r.SetQueryParam(k, fmt.Sprint(v))
	}
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = resty.MethodGet
	}
	if req.Body != nil && method != resty.MethodGet {
		r.SetBody(req.Body)
	}
	url := strings.TrimRight(cfg.BaseURL, "/")
	if req.Endpoint != "" {
		url += "/" + strings.TrimLeft(req.Endpoint, "/")
	}
	resp, err := r.Execute(method, url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("API 请求失败，状态码: %d", resp.StatusCode())
	}
	if len(resp.Body()) == 0 {
		return nil, nil
	}
	var body any
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("API 响应不是有效的 JSON: %w", err)
	}
	return body, nil
}
