package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/riveredge/platform-kernel/internal/application/codegen"
	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/material"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

// CodeRuleHandler reglas de codificación y generación de códigos.
type CodeRuleHandler struct {
	uc *codegen.CodeRuleUseCase
}

// NewCodeRuleHandler construye el handler.
func NewCodeRuleHandler(uc *codegen.CodeRuleUseCase) *CodeRuleHandler {
	return &CodeRuleHandler{uc: uc}
}

// CreateMain godoc
// @Summary      Crear regla principal de codificación (versión 1, inactiva)
// @Tags         code-rules
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCodeRuleRequest  true  "plantilla y secuencia"
// @Success      201   {object}  entity.CodeRuleMain
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/v1/code-rules [post]
func (h *CodeRuleHandler) CreateMain(c *fiber.Ctx) error {
	var in dto.CreateCodeRuleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateMain(c.UserContext(), GetTenantID(c), userPtr(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *CodeRuleHandler) ListMain(c *fiber.Ctx) error {
	out, err := h.uc.ListMain(c.UserContext(), GetTenantID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *CodeRuleHandler) GetMain(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.GetMain(c.UserContext(), GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UpdateMain toda edición incrementa la versión y queda en el historial.
func (h *CodeRuleHandler) UpdateMain(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.UpdateCodeRuleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateMain(c.UserContext(), GetTenantID(c), id, userPtr(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ActivateMain activa la regla y desactiva las demás del tenant.
func (h *CodeRuleHandler) ActivateMain(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.ActivateMain(c.UserContext(), GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// History historial de versiones; ?rule_type=main|alias (main por defecto).
func (h *CodeRuleHandler) History(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.History(c.UserContext(), GetTenantID(c), c.Query("rule_type", entity.RuleTypeMain), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *CodeRuleHandler) TypeConfigs(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.TypeConfigs(c.UserContext(), GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *CodeRuleHandler) CreateAlias(c *fiber.Ctx) error {
	var in dto.CreateAliasRuleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateAlias(c.UserContext(), GetTenantID(c), userPtr(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *CodeRuleHandler) UpdateAlias(c *fiber.Ctx) error {
	var in dto.UpdateAliasRuleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateAlias(c.UserContext(), GetTenantID(c), c.Params("codeType"), userPtr(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *CodeRuleHandler) ListAlias(c *fiber.Ctx) error {
	out, err := h.uc.ListAlias(c.UserContext(), GetTenantID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Preview godoc
// @Summary      Previsualizar el próximo código sin consumir la secuencia
// @Tags         code-rules
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.GenerateCodeRequest  true  "contexto"
// @Success      200   {object}  dto.GeneratedCode
// @Router       /api/v1/code-rules/preview [post]
func (h *CodeRuleHandler) Preview(c *fiber.Ctx) error {
	var in dto.GenerateCodeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Preview(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Generate consume la secuencia y devuelve el código asignado.
func (h *CodeRuleHandler) Generate(c *fiber.Ctx) error {
	var in dto.GenerateCodeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Generate(c.UserContext(), GetTenantID(c), in, nil)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// MaterialHandler maestro de materiales, alias, BOM y duplicados.
type MaterialHandler struct {
	uc *material.MaterialUseCase
}

// NewMaterialHandler construye el handler.
func NewMaterialHandler(uc *material.MaterialUseCase) *MaterialHandler {
	return &MaterialHandler{uc: uc}
}

// Create godoc
// @Summary      Crear material (main_code vacío = generado por la regla activa)
// @Tags         materials
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateMaterialRequest  true  "material"
// @Success      201   {object}  dto.MaterialDetail
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/v1/materials [post]
func (h *MaterialHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateMaterialRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetTenantID(c), userPtr(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar materiales
// @Tags         materials
// @Security     Bearer
// @Produce      json
// @Param        material_type  query  string  false  "tipo"
// @Param        keyword        query  string  false  "código, nombre o especificación"
// @Success      200  {object}  dto.ListResponse[entity.Material]
// @Router       /api/v1/materials [get]
func (h *MaterialHandler) List(c *fiber.Ctx) error {
	var in dto.MaterialListRequest
	_ = c.QueryParser(&in)
	in.DefaultPage()
	out, err := h.uc.List(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *MaterialHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Get(c.UserContext(), GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByCode busca por código principal o por cualquier alias.
func (h *MaterialHandler) GetByCode(c *fiber.Ctx) error {
	out, err := h.uc.GetByCode(c.UserContext(), GetTenantID(c), c.Params("code"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *MaterialHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.UpdateMaterialRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), GetTenantID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *MaterialHandler) Delete(c *fiber.Ctx) error {
	return deleteByID(c, h.uc.Delete)
}

func (h *MaterialHandler) AddAlias(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.CreateAliasRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AddAlias(c.UserContext(), GetTenantID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *MaterialHandler) ListAliases(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.ListAliases(c.UserContext(), GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *MaterialHandler) DeleteAlias(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	aliasID, err := paramID(c, "aliasId")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.uc.DeleteAlias(c.UserContext(), GetTenantID(c), id, aliasID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *MaterialHandler) AddBOMLine(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.AddBOMLineRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AddBOMLine(c.UserContext(), GetTenantID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *MaterialHandler) ListBOM(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.ListBOM(c.UserContext(), GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ApproveBOM aprueba las líneas en borrador del material.
func (h *MaterialHandler) ApproveBOM(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	n, err := h.uc.ApproveBOM(c.UserContext(), GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"approved": n})
}

// FindDuplicates godoc
// @Summary      Candidatos a duplicado por nombre, especificación y unidad
// @Tags         materials
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DuplicateCheckRequest  true  "datos a comparar"
// @Success      200   {array}  dto.DuplicateCandidate
// @Router       /api/v1/materials/duplicates [post]
func (h *MaterialHandler) FindDuplicates(c *fiber.Ctx) error {
	var in dto.DuplicateCheckRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.FindDuplicates(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Merge fusiona source en target (source queda eliminado).
func (h *MaterialHandler) Merge(c *fiber.Ctx) error {
	var in dto.MergeMaterialsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Merge(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *MaterialHandler) ChangeSource(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.ChangeSourceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	m, check, err := h.uc.ChangeSource(c.UserContext(), GetTenantID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"material": m, "check": check})
}

func (h *MaterialHandler) CheckSource(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.CheckSource(c.UserContext(), GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *MaterialHandler) SuggestSource(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.SuggestSource(c.UserContext(), GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
