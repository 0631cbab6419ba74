package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/org"
	"github.com/riveredge/platform-kernel/internal/application/permsync"
	"github.com/riveredge/platform-kernel/internal/application/tenant"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

// TenantHandler registro público de organizaciones y administración de plataforma.
type TenantHandler struct {
	uc   *tenant.TenantUseCase
	org  *org.OrgUseCase
	sync *permsync.Syncer
}

// NewTenantHandler construye el handler.
func NewTenantHandler(uc *tenant.TenantUseCase, o *org.OrgUseCase, s *permsync.Syncer) *TenantHandler {
	return &TenantHandler{uc: uc, org: o, sync: s}
}

// CheckDomain godoc
// @Summary      Comprobar disponibilidad de dominio
// @Tags         register
// @Produce      json
// @Param        domain  query  string  true  "dominio"
// @Success      200     {object}  dto.DomainCheckResponse
// @Router       /api/v1/register/check-domain [get]
func (h *TenantHandler) CheckDomain(c *fiber.Ctx) error {
	out, err := h.uc.CheckDomain(c.UserContext(), c.Query("domain"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// RegisterOrganization godoc
// @Summary      Registrar organización (queda inactiva hasta aprobación)
// @Tags         register
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterOrganizationRequest  true  "organización y administrador"
// @Success      201   {object}  dto.RegisterResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/v1/register/organization [post]
func (h *TenantHandler) RegisterOrganization(c *fiber.Ctx) error {
	var in dto.RegisterOrganizationRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.RegisterOrganization(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RegisterPersonal godoc
// @Summary      Registro personal (tenant por defecto o por código de invitación)
// @Tags         register
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterPersonalRequest  true  "usuario"
// @Success      201   {object}  dto.RegisterResponse
// @Router       /api/v1/register/personal [post]
func (h *TenantHandler) RegisterPersonal(c *fiber.Ctx) error {
	var in dto.RegisterPersonalRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.RegisterPersonal(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// JoinTenant godoc
// @Summary      Solicitar unirse a una organización (usuario inactivo)
// @Tags         register
// @Accept       json
// @Produce      json
// @Param        body  body  dto.JoinTenantRequest  true  "usuario y tenant"
// @Success      201   {object}  dto.RegisterResponse
// @Router       /api/v1/register/join [post]
func (h *TenantHandler) JoinTenant(c *fiber.Ctx) error {
	var in dto.JoinTenantRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.JoinTenant(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar organizaciones
// @Tags         superadmin
// @Security     Bearer
// @Produce      json
// @Param        skip     query  int     false  "desplazamiento"
// @Param        limit    query  int     false  "límite (1..1000)"
// @Param        status   query  string  false  "estado"
// @Param        keyword  query  string  false  "nombre o dominio"
// @Success      200  {object}  dto.ListResponse[entity.Tenant]
// @Router       /api/v1/superadmin/tenants [get]
func (h *TenantHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), pageQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Get detalle de organización.
func (h *TenantHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Approve godoc
// @Summary      Aprobar organización (inactive → active)
// @Tags         superadmin
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la organización"
// @Success      200  {object}  entity.Tenant
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/v1/superadmin/tenants/{id}/approve [post]
func (h *TenantHandler) Approve(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Approve)
}

// Reject rechaza una organización pendiente.
func (h *TenantHandler) Reject(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.RejectTenantRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	out, err := h.uc.Reject(c.UserContext(), id, in.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Activate reactiva una organización.
func (h *TenantHandler) Activate(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Activate)
}

// Deactivate suspende una organización.
func (h *TenantHandler) Deactivate(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Deactivate)
}

func (h *TenantHandler) transition(c *fiber.Ctx, fn func(ctx context.Context, id int64) (*entity.Tenant, error)) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := fn(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Initialize siembra los datos por defecto de la organización.
func (h *TenantHandler) Initialize(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.InitializeTenantData(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// SyncPermissions fuerza la sincronización de permisos de una organización.
func (h *TenantHandler) SyncPermissions(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.sync.Sync(c.UserContext(), id, true)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListUsers usuarios de la plataforma; ?tenant_id= filtra por organización.
func (h *TenantHandler) ListUsers(c *fiber.Ctx) error {
	var tenantID *int64
	if v := int64(c.QueryInt("tenant_id", 0)); v > 0 {
		tenantID = &v
	}
	out, err := h.org.ListAllUsers(c.UserContext(), tenantID, pageQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CreateTemplate alta de plantilla de industria.
func (h *TenantHandler) CreateTemplate(c *fiber.Ctx) error {
	var in dto.CreateIndustryTemplateRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateIndustryTemplate(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListTemplates plantillas de industria.
func (h *TenantHandler) ListTemplates(c *fiber.Ctx) error {
	out, err := h.uc.ListIndustryTemplates(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ApplyTemplate aplica una plantilla a una organización.
func (h *TenantHandler) ApplyTemplate(c *fiber.Ctx) error {
	templateID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	tenantID, err := paramID(c, "tenantId")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.ApplyIndustryTemplate(c.UserContext(), tenantID, templateID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
