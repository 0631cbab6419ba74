package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/onboarding"
	"github.com/riveredge/platform-kernel/internal/application/quality"
	"github.com/riveredge/platform-kernel/internal/application/suggestion"
	"github.com/riveredge/platform-kernel/internal/domain"
)

// Formatos de exportación del informe de calidad (?format=).
const (
	formatJSON = "json"
	formatPDF  = "pdf"
	formatXLSX = "xlsx"
)

const (
	mimePDF  = "application/pdf"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// QualityHandler validación previa a la importación e informes de calidad.
type QualityHandler struct {
	svc *quality.QualityService
}

// NewQualityHandler construye el handler.
func NewQualityHandler(svc *quality.QualityService) *QualityHandler {
	return &QualityHandler{svc: svc}
}

// Validate godoc
// @Summary      Validar filas antes de importar
// @Tags         data-quality
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ValidateRequest  true  "cabeceras, filas y reglas"
// @Success      200   {object}  dto.ValidationReport
// @Router       /api/v1/data-quality/validate [post]
func (h *QualityHandler) Validate(c *fiber.Ctx) error {
	var in dto.ValidateRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.Validate(in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Suggestions sugerencias de limpieza.
func (h *QualityHandler) Suggestions(c *fiber.Ctx) error {
	var in dto.ValidateRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.Detect(in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Report godoc
// @Summary      Informe de calidad (json, pdf o xlsx)
// @Tags         data-quality
// @Security     Bearer
// @Accept       json
// @Produce      json,application/pdf,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        format  query  string               false  "json | pdf | xlsx"
// @Param        body    body   dto.ValidateRequest  true   "cabeceras, filas y reglas"
// @Success      200     {object}  dto.QualityReport
// @Router       /api/v1/data-quality/report [post]
func (h *QualityHandler) Report(c *fiber.Ctx) error {
	var in dto.ValidateRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	rep, err := h.svc.Report(GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return h.respond(c, in, rep)
}

// Upload valida un fichero .xlsx (campo file). Las reglas llegan como JSON en el campo rules.
func (h *QualityHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return respondError(c, domain.Validation("缺少上传文件 file"))
	}
	var opts dto.ValidateRequest
	if raw := c.FormValue("rules"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			return badBody(c)
		}
	}
	f, err := fh.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer f.Close()

	if c.Query("format", formatJSON) != formatXLSX {
		rep, err := h.svc.ReportXLSX(GetTenantID(c), f, opts)
		if err != nil {
			return respondError(c, err)
		}
		return h.respond(c, opts, rep)
	}
	headers, rows, err := quality.ParseXLSX(f)
	if err != nil {
		return respondError(c, err)
	}
	opts.Headers, opts.Rows = headers, rows
	rep, err := h.svc.Report(GetTenantID(c), opts)
	if err != nil {
		return respondError(c, err)
	}
	return h.respond(c, opts, rep)
}

func (h *QualityHandler) respond(c *fiber.Ctx, in dto.ValidateRequest, rep *dto.QualityReport) error {
	switch c.Query("format", formatJSON) {
	case formatPDF:
		out, err := h.svc.RenderPDF(c.Query("title"), rep)
		if err != nil {
			return respondError(c, err)
		}
		c.Set(fiber.HeaderContentType, mimePDF)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="quality_report.pdf"`)
		return c.Send(out)
	case formatXLSX:
		out, err := h.svc.ExportXLSX(in, rep)
		if err != nil {
			return respondError(c, err)
		}
		c.Set(fiber.HeaderContentType, mimeXLSX)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="quality_report.xlsx"`)
		return c.Send(out)
	default:
		return c.JSON(rep)
	}
}

// SuggestionHandler sugerencias por escena.
type SuggestionHandler struct {
	engine *suggestion.Engine
}

// NewSuggestionHandler construye el handler.
func NewSuggestionHandler(e *suggestion.Engine) *SuggestionHandler {
	return &SuggestionHandler{engine: e}
}

// Suggest godoc
// @Summary      Sugerencias basadas en reglas para una escena
// @Tags         suggestions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SuggestionRequest  true  "escena y contexto"
// @Success      200   {array}  dto.Suggestion
// @Router       /api/v1/suggestions [post]
func (h *SuggestionHandler) Suggest(c *fiber.Ctx) error {
	var in dto.SuggestionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	if in.Scene == "" {
		in.Scene = c.Query("scene")
	}
	out, err := h.engine.Suggest(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// OnboardingHandler escenarios por rol y checklist de puesta en marcha.
type OnboardingHandler struct {
	uc *onboarding.OnboardingUseCase
}

// NewOnboardingHandler construye el handler.
func NewOnboardingHandler(uc *onboarding.OnboardingUseCase) *OnboardingHandler {
	return &OnboardingHandler{uc: uc}
}

func roleQuery(c *fiber.Ctx) dto.RoleQuery {
	var q dto.RoleQuery
	_ = c.QueryParser(&q)
	return q
}

// RoleScenarios escenarios del rol (?role_id= o ?role_code=).
func (h *OnboardingHandler) RoleScenarios(c *fiber.Ctx) error {
	out, err := h.uc.RoleScenarios(c.UserContext(), GetTenantID(c), roleQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *OnboardingHandler) RoleDashboard(c *fiber.Ctx) error {
	out, err := h.uc.RoleDashboard(c.UserContext(), GetTenantID(c), roleQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *OnboardingHandler) RolePermissions(c *fiber.Ctx) error {
	out, err := h.uc.RolePermissions(c.UserContext(), GetTenantID(c), roleQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Checklist godoc
// @Summary      Checklist de puesta en marcha del tenant
// @Tags         onboarding
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.OnboardingChecklist
// @Router       /api/v1/onboarding/checklist [get]
func (h *OnboardingHandler) Checklist(c *fiber.Ctx) error {
	out, err := h.uc.Checklist(c.UserContext(), GetTenantID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CompleteInit marca la inicialización como terminada si no faltan pasos obligatorios.
func (h *OnboardingHandler) CompleteInit(c *fiber.Ctx) error {
	out, err := h.uc.CompleteInit(c.UserContext(), GetTenantID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
