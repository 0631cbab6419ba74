package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/riveredge/platform-kernel/internal/application/approval"
	"github.com/riveredge/platform-kernel/internal/application/document"
	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	docstate "github.com/riveredge/platform-kernel/internal/domain/document"
	"github.com/riveredge/platform-kernel/internal/domain/permission"
)

// DocumentHandler documentos genéricos por tipo, relaciones, push/pull y compensación.
type DocumentHandler struct {
	uc    *document.DocumentUseCase
	perms PermissionChecker
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(uc *document.DocumentUseCase, perms PermissionChecker) *DocumentHandler {
	return &DocumentHandler{uc: uc, perms: perms}
}

// actionPermission permiso adicional que exige una acción concreta.
var actionPermission = map[string]string{
	docstate.ActionApprove:   permission.DocumentApprove,
	docstate.ActionReject:    permission.DocumentApprove,
	docstate.ActionUnapprove: permission.DocumentApprove,
	docstate.ActionDelete:    permission.DocumentDelete,
}

func (h *DocumentHandler) actor(c *fiber.Ctx) document.Actor {
	return document.Actor{UserID: GetUserID(c), IsAdmin: IsTenantAdmin(c)}
}

// Create godoc
// @Summary      Crear documento (code vacío = numeración automática)
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        type  path  string                     true  "tipo de documento"
// @Param        body  body  dto.CreateDocumentRequest  true  "cabecera y líneas"
// @Success      201   {object}  dto.DocumentDetail
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/v1/documents/{type} [post]
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetTenantID(c), userPtr(c), c.Params("type"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar documentos de un tipo
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        type     path   string  true   "tipo de documento"
// @Param        status   query  string  false  "estado"
// @Param        keyword  query  string  false  "código o contraparte"
// @Success      200  {object}  dto.ListResponse[entity.Document]
// @Router       /api/v1/documents/{type} [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetTenantID(c), c.Params("type"), pageQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Get(c.UserContext(), GetTenantID(c), c.Params("type"), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Update solo documentos en borrador.
func (h *DocumentHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.UpdateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), GetTenantID(c), userPtr(c), c.Params("type"), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Action godoc
// @Summary      Ejecutar una acción de ciclo de vida
// @Description  submit, submit_approval, approve, reject, unapprove, withdraw, cancel_approval, confirm, close, delete, ship, receive
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        type  path  string                     true  "tipo de documento"
// @Param        id    path  int                        true  "ID del documento"
// @Param        body  body  dto.DocumentActionRequest  true  "acción"
// @Success      200   {object}  dto.DocumentDetail
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/v1/documents/{type}/{id}/actions [post]
func (h *DocumentHandler) Action(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.DocumentActionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if code, ok := actionPermission[in.Action]; ok && !IsTenantAdmin(c) {
		allowed, err := h.perms.HasPermission(c.UserContext(), GetTenantID(c), GetUserID(c), code)
		if err != nil {
			return respondError(c, err)
		}
		if !allowed {
			return respondError(c, domain.Forbidden("缺少权限: %s", code))
		}
	}
	out, err := h.uc.Action(c.UserContext(), GetTenantID(c), h.actor(c), c.Params("type"), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Relations documentos origen y destino vinculados.
func (h *DocumentHandler) Relations(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Relations(c.UserContext(), GetTenantID(c), c.Params("type"), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Push godoc
// @Summary      Generar documento destino a partir de este documento
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        type    path  string           true  "tipo origen"
// @Param        id      path  int              true  "ID origen"
// @Param        target  path  string           true  "tipo destino"
// @Param        body    body  dto.PushRequest  false "cantidades por línea"
// @Success      201     {object}  dto.PushResult
// @Router       /api/v1/documents/{type}/{id}/push/{target} [post]
func (h *DocumentHandler) Push(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	in, err := pushBody(c)
	if err != nil {
		return badBody(c)
	}
	out, err := h.uc.Push(c.UserContext(), GetTenantID(c), GetUserID(c), c.Params("type"), id, c.Params("target"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Pull crea un documento :type tirando del documento :source/:sourceId.
func (h *DocumentHandler) Pull(c *fiber.Ctx) error {
	sourceID, err := paramID(c, "sourceId")
	if err != nil {
		return respondError(c, err)
	}
	in, err := pushBody(c)
	if err != nil {
		return badBody(c)
	}
	out, err := h.uc.Pull(c.UserContext(), GetTenantID(c), GetUserID(c), c.Params("type"), c.Params("source"), sourceID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func pushBody(c *fiber.Ctx) (dto.PushRequest, error) {
	var in dto.PushRequest
	if len(c.Body()) == 0 {
		return in, nil
	}
	err := c.BodyParser(&in)
	return in, err
}

// Compensate godoc
// @Summary      Compensación de movimientos entre instantánea e inicio de operación
// @Tags         compensation
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CompensationRequest  true  "snapshot_time, launch_date"
// @Success      200   {object}  dto.CompensationResult
// @Router       /api/v1/compensation [post]
func (h *DocumentHandler) Compensate(c *fiber.Ctx) error {
	var in dto.CompensationRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Compensate(c.UserContext(), GetTenantID(c), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ApprovalHandler procesos e instancias de aprobación.
type ApprovalHandler struct {
	uc *approval.ApprovalUseCase
}

// NewApprovalHandler construye el handler.
func NewApprovalHandler(uc *approval.ApprovalUseCase) *ApprovalHandler {
	return &ApprovalHandler{uc: uc}
}

func (h *ApprovalHandler) CreateProcess(c *fiber.Ctx) error {
	var in dto.CreateApprovalProcessRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateProcess(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *ApprovalHandler) ListProcesses(c *fiber.Ctx) error {
	out, err := h.uc.ListProcesses(c.UserContext(), GetTenantID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *ApprovalHandler) GetProcess(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.GetProcess(c.UserContext(), GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Pending instancias pendientes del usuario actual.
func (h *ApprovalHandler) Pending(c *fiber.Ctx) error {
	out, err := h.uc.Pending(c.UserContext(), GetTenantID(c), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *ApprovalHandler) GetInstance(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.GetInstance(c.UserContext(), GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Act approve, reject, cancel, withdraw o transfer sobre una instancia.
func (h *ApprovalHandler) Act(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.ApprovalActionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Act(c.UserContext(), GetTenantID(c), id, GetUserID(c), IsTenantAdmin(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
