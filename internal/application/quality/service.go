package quality

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/ports"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/pkg/logger"
)

// MaxImportRows filas máximas aceptadas en una validación.
const MaxImportRows = 50000

const issuesSheet = "问题清单"

// QualityService validación e informes de calidad, con E/S xlsx y PDF.
type QualityService struct {
	renderer ports.ReportRenderer
	log      *logger.Logger
	now      func() time.Time
}

// NewQualityService construye el servicio. renderer puede ser nil (sin PDF).
func NewQualityService(renderer ports.ReportRenderer, log *logger.Logger) *QualityService {
	return &QualityService{
		renderer: renderer,
		log:      logger.OrNop(log).Component("quality"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func checkSize(in dto.ValidateRequest) error {
	if len(in.Headers) == 0 {
		return domain.Validation("表头不能为空")
	}
	if len(in.Rows) > MaxImportRows {
		return domain.Validation("数据行数超过上限 %d", MaxImportRows)
	}
	return nil
}

// Validate validación previa a la importación.
func (s *QualityService) Validate(in dto.ValidateRequest) (*dto.ValidationReport, error) {
	if err := checkSize(in); err != nil {
		return nil, err
	}
	rep := Validate(in)
	return &rep, nil
}

// Detect sugerencias de limpieza.
func (s *QualityService) Detect(in dto.ValidateRequest) ([]dto.CleaningSuggestion, error) {
	if err := checkSize(in); err != nil {
		return nil, err
	}
	return DetectIssues(in.Headers, in.Rows, in.KeyFields), nil
}

// Report informe completo.
func (s *QualityService) Report(tenantID int64, in dto.ValidateRequest) (*dto.QualityReport, error) {
	if err := checkSize(in); err != nil {
		return nil, err
	}
	rep := BuildReport(in, s.now())
	s.log.Info().Int64("tenant_id", tenantID).Int("rows", rep.Validation.TotalRows).
		Float64("completeness", rep.Scores.Completeness).Msg("informe de calidad generado")
	return rep, nil
}

// ParseXLSX lee la primera hoja: la primera fila es la cabecera y el resto datos.
// Las filas cortas se completan hasta el ancho de la cabecera.
func ParseXLSX(r io.Reader) ([]string, [][]any, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, domain.Validation("无法读取 Excel 文件: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, domain.Validation("Excel 文件没有工作表")
	}
	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, domain.Validation("无法读取工作表 %s: %v", sheets[0], err)
	}
	if len(raw) == 0 {
		return nil, nil, domain.Validation("表头不能为空")
	}
	headers := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		headers[i] = strings.TrimSpace(h)
	}
	rows := make([][]any, 0, len(raw)-1)
	for _, r := range raw[1:] {
		row := make([]any, len(headers))
		for i := range row {
			if i < len(r) {
				row[i] = r[i]
			} else {
				row[i] = ""
			}
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

// ReportXLSX valida un fichero subido. Las reglas llegan en opts; Headers y Rows
// salen del fichero.
func (s *QualityService) ReportXLSX(tenantID int64, r io.Reader, opts dto.ValidateRequest) (*dto.QualityReport, error) {
	headers, rows, err := ParseXLSX(r)
	if err != nil {
		s.log.Warn().Int64("tenant_id", tenantID).Err(err).Msg("xlsx inválido")
		return nil, err
	}
	opts.Headers, opts.Rows = headers, rows
	return s.Report(tenantID, opts)
}

// ExportXLSX devuelve los datos originales con las celdas con incidencias
// resaltadas y una segunda hoja con la lista de incidencias.
func (s *QualityService) ExportXLSX(in dto.ValidateRequest, rep *dto.QualityReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("quality: header style: %w", err)
	}
	errorStyle, err := f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1}})
	if err != nil {
		return nil, fmt.Errorf("quality: error style: %w", err)
	}
	warnStyle, err := f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFEB9C"}, Pattern: 1}})
	if err != nil {
		return nil, fmt.Errorf("quality: warning style: %w", err)
	}

	for col, h := range in.Headers {
		if err := setCell(f, sheet, col+1, 1, h); err != nil {
			return nil, err
		}
	}
	if len(in.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(in.Headers), 1)
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return nil, fmt.Errorf("quality: %w", err)
		}
	}
	for i, row := range in.Rows {
		for col, v := range row {
			if err := setCell(f, sheet, col+1, i+firstDataRow, v); err != nil {
				return nil, err
			}
		}
	}

	idx := indexOf(in.Headers)
	for _, is := range rep.Validation.Issues {
		col, ok := idx[is.Field]
		if !ok || is.RowIndex < firstDataRow {
			continue
		}
		name, err := excelize.CoordinatesToCellName(col+1, is.RowIndex)
		if err != nil {
			return nil, fmt.Errorf("quality: %w", err)
		}
		style := errorStyle
		if is.Severity == dto.SeverityWarning {
			style = warnStyle
		}
		if err := f.SetCellStyle(sheet, name, name, style); err != nil {
			return nil, fmt.Errorf("quality: %w", err)
		}
	}

	if _, err := f.NewSheet(issuesSheet); err != nil {
		return nil, fmt.Errorf("quality: %w", err)
	}
	for col, h := range []string{"行号", "字段", "级别", "问题", "建议"} {
		if err := setCell(f, issuesSheet, col+1, 1, h); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(issuesSheet, "A1", "E1", headerStyle); err != nil {
		return nil, fmt.Errorf("quality: %w", err)
	}
	for i, is := range rep.Validation.Issues {
		for col, v := range []any{is.RowIndex, is.Field, is.Severity, is.Message, is.Suggested} {
			if err := setCell(f, issuesSheet, col+1, i+2, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("quality: write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("quality: %w", err)
	}
	if err := f.SetCellValue(sheet, name, value); err != nil {
		return fmt.Errorf("quality: set %s: %w", name, err)
	}
	return nil
}

// RenderPDF informe en PDF.
func (s *QualityService) RenderPDF(title string, rep *dto.QualityReport) ([]byte, error) {
	if s.renderer == nil {
		return nil, domain.Business("PDF 导出未启用")
	}
	if strings.TrimSpace(title) == "" {
		title = "数据质量报告"
	}
	out, err := s.renderer.RenderQualityReport(title, rep)
	if err != nil {
		s.log.Error().Err(err).Msg("render pdf fallido")
		return nil, err
	}
	return out, nil
}
