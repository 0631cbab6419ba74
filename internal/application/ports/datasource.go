package ports

import (
	"context"

	"github.com/mitchellh/mapstructure"

	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

// QueryResult filas de una consulta con el orden de columnas original.
type QueryResult struct {
	Columns []string
	Rows    []map[string]any
}

// APIRequest llamada a una fuente de datos tipo api.
type APIRequest struct {
	Method   string
	Endpoint string
	Params   map[string]any
	Body     map[string]any
}

// DataSourceConnector acceso a sistemas externos registrados como DataSource.
type DataSourceConnector interface {
	// TestConnection SELECT 1 para SQL, GET base_url para api.
	TestConnection(ctx context.Context, ds *entity.DataSource) error
	// QuerySQL ejecuta una consulta con parámetros nombrados (:name).
	QuerySQL(ctx context.Context, ds *entity.DataSource, query string, params map[string]any) (*QueryResult, error)
	// CallAPI devuelve el cuerpo JSON decodificado.
	CallAPI(ctx context.Context, ds *entity.DataSource, req APIRequest) (any, error)
}

// SQLConfig configuración de postgresql/mysql (y mongodb, con AuthSource).
type SQLConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Database   string `mapstructure:"database"`
	Username   string `mapstructure:"username"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	SSLMode    string `mapstructure:"sslmode"`
	AuthSource string `mapstructure:"auth_source"`
}

// Login devuelve username o, en configuraciones antiguas, user.
func (c SQLConfig) Login() string {
	if c.Username != "" {
		return c.Username
	}
	return c.User
}

// APIConfig configuración de una fuente tipo api.
type APIConfig struct {
	BaseURL  string            `mapstructure:"base_url"`
	AuthType string            `mapstructure:"auth_type"`
	Token    string            `mapstructure:"token"`
	Headers  map[string]string `mapstructure:"headers"`
}

// DecodeSQLConfig interpreta config con conversión débil de tipos ("5432" -> 5432).
func DecodeSQLConfig(raw map[string]any) (SQLConfig, error) {
	var c SQLConfig
	err := decodeConfig(raw, &c)
	return c, err
}

// DecodeAPIConfig interpreta config de una fuente api.
func DecodeAPIConfig(raw map[string]any) (APIConfig, error) {
	var c APIConfig
	err := decodeConfig(raw, &c)
	return c, err
}

func decodeConfig(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
