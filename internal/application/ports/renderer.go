package ports

import "github.com/riveredge/platform-kernel/internal/application/dto"

// ReportRenderer genera el PDF de un informe de calidad de datos.
type ReportRenderer interface {
	RenderQualityReport(title string, report *dto.QualityReport) ([]byte, error)
}
