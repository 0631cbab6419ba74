package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveredge/platform-kernel/internal/application/dto"
)

func sampleReport(issues int) *dto.QualityReport {
	rep := &dto.QualityReport{
		GeneratedAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		Validation:  dto.ValidationReport{TotalRows: issues, ErrorRows: issues},
		Scores:      dto.QualityScores{Completeness: 25, Accuracy: 25, Consistency: 100},
		Suggestions: []dto.CleaningSuggestion{{IssueType: dto.IssueDuplicate, Description: "dup", AffectedRows: []int{3, 2}, Suggestion: "merge"}},
	}
	for i := 0; i < issues; i++ {
		rep.Validation.Issues = append(rep.Validation.Issues, dto.ValidationIssue{
			RowIndex: i + 2, Field: "qty", Severity: dto.SeverityError, Message: "invalid",
		})
	}
	return rep
}

func TestRenderQualityReport(t *testing.T) {
	r, err := NewQualityReportRenderer("")
	require.NoError(t, err)

	out, err := r.RenderQualityReport("Data quality", sampleReport(3))

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderQualityReport_Vacio(t *testing.T) {
	r, err := NewQualityReportRenderer("")
	require.NoError(t, err)

	_, err = r.RenderQualityReport("x", nil)
	assert.Error(t, err)
}

func TestIssueRows_Trunca(t *testing.T) {
	rows := issueRows(sampleReport(MaxIssueRows + 5).Validation.Issues)
	assert.Len(t, rows, MaxIssueRows+1)
}

func TestNewQualityReportRenderer_FuenteInexistente(t *testing.T) {
	_, err := NewQualityReportRenderer("/no/existe.ttf")
	assert.Error(t, err)
}
