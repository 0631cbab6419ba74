package quality

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/riveredge/platform-kernel/internal/application/dto"
)

func ptr[T any](v T) *T { return &v }

func importS5() dto.ValidateRequest {
	return dto.ValidateRequest{
		Headers:        []string{"code", "qty", "warehouse"},
		RequiredFields: []string{"code"},
		FieldRules:     map[string]dto.FieldRule{"qty": {Type: "number", Min: ptr(0.0)}},
		ReferenceData:  map[string][]string{"warehouse": {"W1", "W2"}},
		Rows: [][]any{
			{"A", 3, "W1"},
			{"", 1, "W1"},
			{"B", -1, "W1"},
			{"C", 2, "W9"},
		},
	}
}

func TestReport_ImportacionConErrores(t *testing.T) {
	rep := BuildReport(importS5(), time.Now())

	assert.Equal(t, 4, rep.Validation.TotalRows)
	assert.Equal(t, 1, rep.Validation.ValidRows)
	assert.Equal(t, 3, rep.Validation.ErrorRows)
	assert.False(t, rep.Validation.IsValid)
	assert.Equal(t, 25.0, rep.Scores.Completeness)
	assert.Equal(t, 25.0, rep.Scores.Accuracy)
	assert.Equal(t, 100.0, rep.Scores.Consistency)

	lines := map[int]string{}
	for _, is := range rep.Validation.Issues {
		lines[is.RowIndex] = is.Field
	}
	assert.Equal(t, map[int]string{3: "code", 4: "qty", 5: "warehouse"}, lines)
}

func TestValidate_CabeceraSinObligatorio(t *testing.T) {
	rep := Validate(dto.ValidateRequest{
		Headers:        []string{"name"},
		RequiredFields: []string{"code"},
		Rows:           [][]any{{"x"}},
	})

	require.NotEmpty(t, rep.Issues)
	assert.Equal(t, 0, rep.Issues[0].RowIndex)
	assert.Contains(t, rep.Issues[0].Message, "code")
	assert.Equal(t, 1, rep.ValidRows)
	assert.False(t, rep.IsValid)
}

func TestValidate_TiposYLongitudes(t *testing.T) {
	rep := Validate(dto.ValidateRequest{
		Headers: []string{"qty", "fecha", "activo", "nombre"},
		FieldRules: map[string]dto.FieldRule{
			"qty":    {Type: "number", Max: ptr(10.0)},
			"fecha":  {Type: "date"},
			"activo": {Type: "boolean"},
			"nombre": {Type: "text", MinLength: ptr(2), MaxLength: ptr(4)},
		},
		Rows: [][]any{
			{"5", "2024-01-31", "是", "螺丝"},
			{"abc", "2024-01-31", true, "螺丝"},
			{"11", "2024-01-31", "true", "螺丝"},
			{"1", "31.01.2024", "false", "螺丝"},
			{"1", "2024-01-31", "quizá", "螺"},
		},
	})

	assert.Equal(t, 1, rep.ValidRows)
	assert.Equal(t, 1, rep.WarningRows)
	assert.Equal(t, 3, rep.ErrorRows)
	var warn dto.ValidationIssue
	for _, is := range rep.Issues {
		if is.Severity == dto.SeverityWarning {
			warn = is
		}
	}
	assert.Equal(t, 5, warn.RowIndex)
	assert.Equal(t, "fecha", warn.Field)
}

func TestDetectIssues(t *testing.T) {
	headers := []string{"code", "name", "amount"}
	rows := [][]any{
		{"A", "x", 10},
		{"B", "", ""},
		{"A", "y", 2e9},
		{"C", "z", "-3"},
	}

	got := DetectIssues(headers, rows, []string{"code"})

	require.Len(t, got, 3)
	assert.Equal(t, dto.IssueDuplicate, got[0].IssueType)
	assert.Equal(t, []int{4, 2}, got[0].AffectedRows)
	assert.Equal(t, dto.IssueMissing, got[1].IssueType)
	assert.Equal(t, []int{3}, got[1].AffectedRows)
	assert.Equal(t, dto.IssueAnomaly, got[2].IssueType)
	assert.Equal(t, []int{4, 5}, got[2].AffectedRows)
}

func TestScores(t *testing.T) {
	assert.Equal(t, dto.QualityScores{}, Scores(dto.ValidationReport{}, nil))

	s := Scores(dto.ValidationReport{TotalRows: 3, ValidRows: 2, ErrorRows: 1}, []dto.CleaningSuggestion{{IssueType: dto.IssueDuplicate}})
	assert.Equal(t, 66.67, s.Completeness)
	assert.Equal(t, 66.67, s.Accuracy)
	assert.Equal(t, 90.0, s.Consistency)
}

// ---------------------------------------------------------------------------
// Excel y PDF
// ---------------------------------------------------------------------------

func buildXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestReportXLSX(t *testing.T) {
	s := NewQualityService(nil, nil)
	data := buildXLSX(t, [][]any{
		{"code", "qty", "warehouse"},
		{"A", 3, "W1"},
		{"", 1, "W1"},
		{"B", -1, "W1"},
		{"C", 2, "W9"},
	})
	opts := importS5()
	opts.Headers, opts.Rows = nil, nil

	rep, err := s.ReportXLSX(1, bytes.NewReader(data), opts)

	require.NoError(t, err)
	assert.Equal(t, 4, rep.Validation.TotalRows)
	assert.Equal(t, 1, rep.Validation.ValidRows)
	assert.Equal(t, 25.0, rep.Scores.Accuracy)
}

func TestExportXLSX_IncluyeHojaDeIncidencias(t *testing.T) {
	s := NewQualityService(nil, nil)
	in := importS5()
	rep := BuildReport(in, time.Now())

	out, err := s.ExportXLSX(in, rep)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(issuesSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1+len(rep.Validation.Issues))
	v, err := f.GetCellValue("Sheet1", "A2")
	require.NoError(t, err)
	assert.Equal(t, "A", v)
}

type fakeRenderer struct{ title string }

func (r *fakeRenderer) RenderQualityReport(title string, _ *dto.QualityReport) ([]byte, error) {
	r.title = title
	return []byte("%PDF"), nil
}

func TestRenderPDF(t *testing.T) {
	_, err := NewQualityService(nil, nil).RenderPDF("", &dto.QualityReport{})
	assert.Error(t, err)

	r := &fakeRenderer{}
	out, err := NewQualityService(r, nil).RenderPDF("", &dto.QualityReport{})
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), out)
	assert.Equal(t, "数据质量报告", r.title)
}
