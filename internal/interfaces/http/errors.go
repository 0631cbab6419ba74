package http

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/pkg/logger"
)

// errorStatus traduce el kind de un error de dominio a código HTTP y código de respuesta.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrBusinessLogic):
		return fiber.StatusBadRequest, "BUSINESS_RULE"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrIntegration):
		return fiber.StatusBadGateway, "INTEGRATION"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

// respondError escribe dto.ErrorResponse. Los errores internos no exponen el detalle.
func respondError(c *fiber.Ctx, err error) error {
	status, code := errorStatus(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "服务器内部错误"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg, Details: domain.DetailsOf(err)})
}

// ErrorHandler manejador global de Fiber: registra los 5xx y responde con dto.ErrorResponse.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	log = logger.OrNop(log).Component("http")
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_" + strconv.Itoa(fe.Code), Message: fe.Message})
		}
		status, _ := errorStatus(err)
		if status >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
		}
		return respondError(c, err)
	}
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "请求体格式错误"})
}

// paramID lee un parámetro de ruta numérico positivo.
func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation("参数 %s 无效", name)
	}
	return id, nil
}

// pageQuery lee ?skip=&limit=&keyword=&status=.
func pageQuery(c *fiber.Ctx) dto.PageRequest {
	var p dto.PageRequest
	_ = c.QueryParser(&p)
	p.DefaultPage()
	return p
}

func ok(c *fiber.Ctx, message string) error {
	return c.JSON(dto.MessageResponse{Success: true, Message: message})
}

// deleteByID borra el recurso :id del tenant actual y responde 204.
func deleteByID(c *fiber.Ctx, fn func(ctx context.Context, tenantID, id int64) error) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := fn(c.UserContext(), GetTenantID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
