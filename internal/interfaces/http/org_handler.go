package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/org"
)

// OrgHandler departamentos, puestos, menús, aplicaciones y diccionarios.
type OrgHandler struct {
	uc *org.OrgUseCase
}

// NewOrgHandler construye el handler.
func NewOrgHandler(uc *org.OrgUseCase) *OrgHandler {
	return &OrgHandler{uc: uc}
}

// CreateDepartment godoc
// @Summary      Crear departamento
// @Tags         departments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDepartmentRequest  true  "departamento"
// @Success      201   {object}  entity.Department
// @Router       /api/v1/departments [post]
func (h *OrgHandler) CreateDepartment(c *fiber.Ctx) error {
	var in dto.CreateDepartmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateDepartment(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// DepartmentTree godoc
// @Summary      Árbol de departamentos
// @Tags         departments
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  entity.Department
// @Router       /api/v1/departments/tree [get]
func (h *OrgHandler) DepartmentTree(c *fiber.Ctx) error {
	out, err := h.uc.DepartmentTree(c.UserContext(), GetTenantID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *OrgHandler) DeleteDepartment(c *fiber.Ctx) error {
	return deleteByID(c, h.uc.DeleteDepartment)
}

func (h *OrgHandler) CreatePosition(c *fiber.Ctx) error {
	var in dto.CreatePositionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreatePosition(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *OrgHandler) ListPositions(c *fiber.Ctx) error {
	out, err := h.uc.ListPositions(c.UserContext(), GetTenantID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *OrgHandler) DeletePosition(c *fiber.Ctx) error {
	return deleteByID(c, h.uc.DeletePosition)
}

// ---------------------------------------------------------------------------
// Menús (cada cambio dispara una sincronización forzada de permisos)
// ---------------------------------------------------------------------------

func (h *OrgHandler) CreateMenu(c *fiber.Ctx) error {
	var in dto.MenuRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateMenu(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *OrgHandler) UpdateMenu(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.MenuRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateMenu(c.UserContext(), GetTenantID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *OrgHandler) ListMenus(c *fiber.Ctx) error {
	out, err := h.uc.ListMenus(c.UserContext(), GetTenantID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *OrgHandler) DeleteMenu(c *fiber.Ctx) error {
	return deleteByID(c, h.uc.DeleteMenu)
}

// ---------------------------------------------------------------------------
// Aplicaciones
// ---------------------------------------------------------------------------

// InstallApplication instala (o reinstala) una aplicación con su manifiesto.
func (h *OrgHandler) InstallApplication(c *fiber.Ctx) error {
	var in dto.InstallApplicationRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.InstallApplication(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *OrgHandler) UninstallApplication(c *fiber.Ctx) error {
	if err := h.uc.UninstallApplication(c.UserContext(), GetTenantID(c), c.Params("code")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *OrgHandler) ListApplications(c *fiber.Ctx) error {
	out, err := h.uc.ListApplications(c.UserContext(), GetTenantID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ---------------------------------------------------------------------------
// Diccionarios
// ---------------------------------------------------------------------------

func (h *OrgHandler) CreateDictionary(c *fiber.Ctx) error {
	var in dto.CreateDictionaryRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateDictionary(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *OrgHandler) ListDictionaries(c *fiber.Ctx) error {
	out, err := h.uc.ListDictionaries(c.UserContext(), GetTenantID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetDictionary diccionario con sus items (servido desde caché).
func (h *OrgHandler) GetDictionary(c *fiber.Ctx) error {
	out, err := h.uc.GetDictionary(c.UserContext(), GetTenantID(c), c.Params("code"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *OrgHandler) AddDictionaryItem(c *fiber.Ctx) error {
	var in dto.DictionaryItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AddDictionaryItem(c.UserContext(), GetTenantID(c), c.Params("code"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
