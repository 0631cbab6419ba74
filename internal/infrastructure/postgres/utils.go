package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// writeErr traduce violaciones de unicidad a domain.ErrDuplicate.
func writeErr(op, what string, err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%s %s: %w", op, what, domain.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// oneRow convierte pgx.ErrNoRows en (nil, nil).
func oneRow[T any](v *T, err error, op string) (*T, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

// scanFunc escanea una fila (pgx.Row o pgx.Rows) en una entidad.
type scanFunc[T any] func(row pgx.Row) (*T, error)

// queryAll ejecuta la consulta y escanea todas las filas.
func queryAll[T any](ctx context.Context, q Querier, op string, scan scanFunc[T], sql string, args ...any) ([]*T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	list := []*T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}
		list = append(list, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// queryOne ejecuta una consulta de una fila; (nil, nil) si no existe.
func queryOne[T any](ctx context.Context, q Querier, op string, scan scanFunc[T], sql string, args ...any) (*T, error) {
	v, err := scan(q.QueryRow(ctx, sql, args...))
	return oneRow(v, err, op)
}

// count ejecuta un SELECT COUNT(*).
func count(ctx context.Context, q Querier, op, sql string, args ...any) (int, error) {
	var n int
	if err := q.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// execOne exige que la sentencia afecte al menos una fila.
func execOne(ctx context.Context, q Querier, op, what, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return writeErr(op, what, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", op, what, domain.ErrNotFound)
	}
	return nil
}

// newUUID genera el uuid cuando la entidad no trae uno.
func newUUID(s string) string {
	if s == "" {
		return uuid.NewString()
	}
	return s
}

// nullText guarda "" como NULL (columnas con índice único parcial).
func nullText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func textOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// pageArgs LIMIT/OFFSET; LIMIT NULL equivale a sin límite.
func pageArgs(f repository.ListFilter) (limit *int, offset int) {
	if f.Limit > 0 {
		limit = &f.Limit
	}
	if f.Offset > 0 {
		offset = f.Offset
	}
	return limit, offset
}

// like patrón ILIKE de contención; "" desactiva el filtro.
func like(keyword string) string {
	if keyword == "" {
		return ""
	}
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(keyword) + "%"
}

// updateErr para UPDATE ... RETURNING: sin filas es domain.ErrNotFound.
func updateErr(op, what string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", op, what, domain.ErrNotFound)
	}
	return writeErr(op, what, err)
}

// prefixed antepone el alias de tabla a una lista de columnas.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, c := range parts {
		parts[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}
