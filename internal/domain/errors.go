package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas). Cada uno es además un "kind"
// que la capa HTTP traduce a un código de estado.
var (
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrValidation    = errors.New("datos inválidos")
	ErrBusinessLogic = errors.New("operación no permitida en el estado actual")
	ErrUnauthorized  = errors.New("no autenticado")
	ErrForbidden     = errors.New("acceso denegado")
	ErrConflict      = errors.New("conflicto con el estado actual")
	ErrDuplicate     = errors.New("recurso duplicado")
	ErrIntegration   = errors.New("fallo de integración externa")
	ErrInvalidInput  = ErrValidation
)

// Error lleva un kind, un mensaje legible y datos estructurados opcionales.
type Error struct {
	Kind    error
	Message string
	Details map[string]any
}

func (e *Error) Error() string { return e.Message }

// Is permite errors.Is(err, domain.ErrValidation).
func (e *Error) Is(target error) bool { return e.Kind == target }

// Unwrap devuelve el kind.
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation regla de negocio o esquema violado antes del commit.
func Validation(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

// NotFound búsqueda por tenant+id sin fila viva.
func NotFound(entity string, key any) error {
	return newError(ErrNotFound, "%s no encontrado: %v", entity, key)
}

// Business violación de la máquina de estados.
func Business(format string, args ...any) error {
	return newError(ErrBusinessLogic, format, args...)
}

// Forbidden autenticado pero sin permiso.
func Forbidden(format string, args ...any) error {
	return newError(ErrForbidden, format, args...)
}

// Unauthorized credenciales o token inválidos.
func Unauthorized(format string, args ...any) error {
	return newError(ErrUnauthorized, format, args...)
}

// Conflict conflicto con payload estructurado.
func Conflict(code, message string, details map[string]any) error {
	d := map[string]any{"error": code}
	for k, v := range details {
		d[k] = v
	}
	return &Error{Kind: ErrConflict, Message: message, Details: d}
}

// Integration fallo de conexión con un sistema externo.
func Integration(format string, args ...any) error {
	return newError(ErrIntegration, format, args...)
}

// TenantExists dominio de organización ya registrado.
func TenantExists(tenantID int64, tenantName string) error {
	return Conflict("tenant_exists", fmt.Sprintf("组织 %s 已存在", tenantName), map[string]any{
		"tenant_id":   tenantID,
		"tenant_name": tenantName,
	})
}

// DetailsOf devuelve los datos estructurados del error, si los hay.
func DetailsOf(err error) map[string]any {
	var de *Error
	if errors.As(err, &de) {
		return de.Details
	}
	return nil
}
