// Package pdf genera la representación PDF de los informes de calidad de datos.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título                   │  Fecha de generación    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PUNTUACIONES: Completitud | Exactitud | Consistencia        │
//	│  RESUMEN: Total / Válidas / Con error / Con aviso            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fila | Campo | Nivel | Mensaje                       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SUGERENCIAS DE LIMPIEZA                                     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strconv"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/johnfercher/maroto/v2/pkg/repository"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/ports"
)

// MaxIssueRows filas de incidencias impresas; el resto se resume.
const MaxIssueRows = 200

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorError   = &props.Color{Red: 192, Green: 0, Blue: 0}
	colorWarning = &props.Color{Red: 191, Green: 143, Blue: 0}
)

// ── Renderer ──────────────────────────────────────────────────────────────────

// QualityReportRenderer implementa ports.ReportRenderer usando Maroto v2.
type QualityReportRenderer struct {
	family string
	fonts  []*entity.CustomFont
}

var _ ports.ReportRenderer = (*QualityReportRenderer)(nil)

// NewQualityReportRenderer construye el generador. fontPath apunta a una fuente
// TTF con glifos CJK; vacío usa helvetica.
func NewQualityReportRenderer(fontPath string) (*QualityReportRenderer, error) {
	r := &QualityReportRenderer{family: "helvetica"}
	if fontPath == "" {
		return r, nil
	}
	const family = "report-cjk"
	fonts, err := repository.New().
		AddUTF8Font(family, fontstyle.Normal, fontPath).
		AddUTF8Font(family, fontstyle.Bold, fontPath).
		Load()
	if err != nil {
		return nil, fmt.Errorf("pdf: cargar fuente %s: %w", fontPath, err)
	}
	r.family, r.fonts = family, fonts
	return r, nil
}

// RenderQualityReport genera el PDF y devuelve sus bytes.
func (g *QualityReportRenderer) RenderQualityReport(title string, rep *dto.QualityReport) ([]byte, error) {
	if rep == nil {
		return nil, fmt.Errorf("pdf: informe vacío")
	}
	b := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: g.family, Size: 9}).
		WithTitle(title, true)
	if len(g.fonts) > 0 {
		b = b.WithCustomFonts(g.fonts)
	}
	m := maroto.New(b.Build())

	m.AddRows(headerRow(title, rep))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(scoresRow(rep.Scores))
	m.AddRows(summaryRow(rep.Validation))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(issueRows(rep.Validation.Issues)...)

	if len(rep.Suggestions) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
		m.AddRows(suggestionRows(rep.Suggestions)...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(title string, rep *dto.QualityReport) core.Row {
	return row.New(14).Add(
		col.New(8).Add(
			text.New(title, props.Text{Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 2}),
		),
		col.New(4).Add(
			text.New(rep.GeneratedAt.Format("2006-01-02 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 4, Color: colorGray,
			}),
		),
	)
}

func scoresRow(s dto.QualityScores) core.Row {
	cell := func(label string, v float64) core.Col {
		return col.New(4).Add(
			text.New(label, props.Text{Size: 8, Align: align.Center, Color: colorGray, Top: 1}),
			text.New(strconv.FormatFloat(v, 'f', 2, 64), props.Text{
				Style: fontstyle.Bold, Size: 14, Align: align.Center, Color: colorPrimary, Top: 6,
			}),
		)
	}
	return row.New(16).Add(
		cell("完整性 Completeness", s.Completeness),
		cell("准确性 Accuracy", s.Accuracy),
		cell("一致性 Consistency", s.Consistency),
	)
}

func summaryRow(v dto.ValidationReport) core.Row {
	status := "通过"
	if !v.IsValid {
		status = "未通过"
	}
	return row.New(8).Add(col.New(12).Add(
		text.New(fmt.Sprintf("总行数: %d   |   有效: %d   |   错误: %d   |   警告: %d   |   结果: %s",
			v.TotalRows, v.ValidRows, v.ErrorRows, v.WarningRows, status),
			props.Text{Size: 9, Top: 2}),
	))
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("行", 1, align.Center),
		h("字段", 2, align.Left),
		h("级别", 1, align.Center),
		h("问题", 8, align.Left),
	)
}

func issueRows(issues []dto.ValidationIssue) []core.Row {
	shown := issues
	if len(shown) > MaxIssueRows {
		shown = shown[:MaxIssueRows]
	}
	out := make([]core.Row, 0, len(shown)+1)
	for _, is := range shown {
		color := colorWarning
		if is.Severity == dto.SeverityError {
			color = colorError
		}
		out = append(out, row.New(6).Add(
			col.New(1).Add(text.New(strconv.Itoa(is.RowIndex), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(is.Field, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(is.Severity, props.Text{Size: 8, Align: align.Center, Top: 1, Color: color})),
			col.New(8).Add(text.New(is.Message, props.Text{Size: 8, Top: 1, Left: 1})),
		))
	}
	if rest := len(issues) - len(shown); rest > 0 {
		out = append(out, row.New(6).Add(col.New(12).Add(
			text.New(fmt.Sprintf("… 另有 %d 条问题未列出", rest), props.Text{Size: 8, Color: colorGray, Top: 1}),
		)))
	}
	return out
}

func suggestionRows(items []dto.CleaningSuggestion) []core.Row {
	out := []core.Row{
		row.New(7).Add(col.New(12).Add(
			text.New("清洗建议", props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 1}),
		)),
	}
	for _, s := range items {
		rows := make([]string, 0, len(s.AffectedRows))
		for _, r := range s.AffectedRows {
			rows = append(rows, strconv.Itoa(r))
		}
		out = append(out, row.New(10).Add(col.New(12).Add(
			text.New(fmt.Sprintf("[%s] %s", s.IssueType, s.Description), props.Text{Size: 8, Top: 1}),
			text.New(fmt.Sprintf("%s (行: %s)", s.Suggestion, strings.Join(rows, ", ")), props.Text{
				Size: 7, Top: 5, Left: 2, Color: colorGray,
			}),
		)))
	}
	return out
}
