package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/riveredge/platform-kernel/internal/application/dataset"
	"github.com/riveredge/platform-kernel/internal/application/dto"
)

// DatasetHandler fuentes de datos, datasets, informes y acceso por token compartido.
type DatasetHandler struct {
	uc *dataset.DatasetUseCase
}

// NewDatasetHandler construye el handler.
func NewDatasetHandler(uc *dataset.DatasetUseCase) *DatasetHandler {
	return &DatasetHandler{uc: uc}
}

// shareToken token de la query (?token=) o de la cabecera X-Share-Token.
func shareToken(c *fiber.Ctx) string {
	if t := c.Query("token"); t != "" {
		return t
	}
	return c.Get("X-Share-Token")
}

func executeBody(c *fiber.Ctx) (dto.ExecuteQueryRequest, error) {
	var in dto.ExecuteQueryRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return in, err
		}
	}
	in.Normalize()
	return in, nil
}

func shareBody(c *fiber.Ctx) (dto.ShareRequest, error) {
	var in dto.ShareRequest
	if len(c.Body()) == 0 {
		return in, nil
	}
	err := c.BodyParser(&in)
	return in, err
}

// ---------------------------------------------------------------------------
// Fuentes de datos
// ---------------------------------------------------------------------------

// CreateDataSource godoc
// @Summary      Registrar fuente de datos (postgresql, mysql o api)
// @Tags         data-sources
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDataSourceRequest  true  "fuente de datos"
// @Success      201   {object}  entity.DataSource
// @Router       /api/v1/data-sources [post]
func (h *DatasetHandler) CreateDataSource(c *fiber.Ctx) error {
	var in dto.CreateDataSourceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateDataSource(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *DatasetHandler) ListDataSources(c *fiber.Ctx) error {
	out, err := h.uc.ListDataSources(c.UserContext(), GetTenantID(c), pageQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *DatasetHandler) GetDataSource(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.GetDataSource(c.UserContext(), GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *DatasetHandler) UpdateDataSource(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.UpdateDataSourceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateDataSource(c.UserContext(), GetTenantID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *DatasetHandler) DeleteDataSource(c *fiber.Ctx) error {
	return deleteByID(c, h.uc.DeleteDataSource)
}

// TestConnection godoc
// @Summary      Probar conexión (un fallo de conexión es success=false, no un error HTTP)
// @Tags         data-sources
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la fuente"
// @Success      200  {object}  dto.TestConnectionResult
// @Router       /api/v1/data-sources/{id}/test [post]
func (h *DatasetHandler) TestConnection(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.TestConnection(c.UserContext(), GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ---------------------------------------------------------------------------
// Datasets
// ---------------------------------------------------------------------------

func (h *DatasetHandler) CreateDataset(c *fiber.Ctx) error {
	var in dto.CreateDatasetRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateDataset(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListDatasets ?data_source_id= filtra por fuente.
func (h *DatasetHandler) ListDatasets(c *fiber.Ctx) error {
	var in dto.DatasetListRequest
	_ = c.QueryParser(&in)
	in.DefaultPage()
	out, err := h.uc.ListDatasets(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *DatasetHandler) GetDataset(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.GetDataset(c.UserContext(), GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *DatasetHandler) UpdateDataset(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.UpdateDatasetRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateDataset(c.UserContext(), GetTenantID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *DatasetHandler) DeleteDataset(c *fiber.Ctx) error {
	return deleteByID(c, h.uc.DeleteDataset)
}

// Execute godoc
// @Summary      Ejecutar dataset con parámetros
// @Description  Los fallos de ejecución se devuelven como success=false con el mensaje; no son errores HTTP.
// @Tags         datasets
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                      true  "ID del dataset"
// @Param        body  body  dto.ExecuteQueryRequest  false "parameters, limit, offset"
// @Success      200   {object}  dto.ExecuteQueryResponse
// @Router       /api/v1/datasets/{id}/execute [post]
func (h *DatasetHandler) Execute(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	in, err := executeBody(c)
	if err != nil {
		return badBody(c)
	}
	out, err := h.uc.Execute(c.UserContext(), GetTenantID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ShareDataset emite un token de acceso público.
func (h *DatasetHandler) ShareDataset(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	in, err := shareBody(c)
	if err != nil {
		return badBody(c)
	}
	out, err := h.uc.ShareDataset(c.UserContext(), GetTenantID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *DatasetHandler) UnshareDataset(c *fiber.Ctx) error {
	return deleteByID(c, h.uc.UnshareDataset)
}

// SharedDataset godoc
// @Summary      Dataset compartido (sin autenticación)
// @Tags         shared
// @Produce      json
// @Param        token  query  string  true  "token compartido"
// @Success      200    {object}  entity.Dataset
// @Failure      404    {object}  dto.ErrorResponse
// @Router       /api/v1/datasets/shared [get]
func (h *DatasetHandler) SharedDataset(c *fiber.Ctx) error {
	out, err := h.uc.SharedDataset(c.UserContext(), shareToken(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *DatasetHandler) ExecuteSharedDataset(c *fiber.Ctx) error {
	in, err := executeBody(c)
	if err != nil {
		return badBody(c)
	}
	out, err := h.uc.ExecuteSharedDataset(c.UserContext(), shareToken(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ---------------------------------------------------------------------------
// Informes
// ---------------------------------------------------------------------------

func (h *DatasetHandler) CreateReport(c *fiber.Ctx) error {
	var in dto.CreateReportRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateReport(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *DatasetHandler) ListReports(c *fiber.Ctx) error {
	out, err := h.uc.ListReports(c.UserContext(), GetTenantID(c), pageQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *DatasetHandler) GetReport(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.GetReport(c.UserContext(), GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *DatasetHandler) DeleteReport(c *fiber.Ctx) error {
	return deleteByID(c, h.uc.DeleteReport)
}

func (h *DatasetHandler) ExecuteReport(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	in, err := executeBody(c)
	if err != nil {
		return badBody(c)
	}
	out, err := h.uc.ExecuteReport(c.UserContext(), GetTenantID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *DatasetHandler) ShareReport(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	in, err := shareBody(c)
	if err != nil {
		return badBody(c)
	}
	out, err := h.uc.ShareReport(c.UserContext(), GetTenantID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *DatasetHandler) UnshareReport(c *fiber.Ctx) error {
	return deleteByID(c, h.uc.UnshareReport)
}

func (h *DatasetHandler) SharedReport(c *fiber.Ctx) error {
	out, err := h.uc.SharedReport(c.UserContext(), shareToken(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *DatasetHandler) ExecuteSharedReport(c *fiber.Ctx) error {
	in, err := executeBody(c)
	if err != nil {
		return badBody(c)
	}
	out, err := h.uc.ExecuteSharedReport(c.UserContext(), shareToken(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
