package quality

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/riveredge/platform-kernel/internal/application/dto"
)

// AnomalyCeiling valor a partir del cual un número se considera anómalo.
const AnomalyCeiling = 1e9

var numericHints = []string{"数量", "金额", "价格", "amount", "price", "quantity", "qty"}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DetectIssues busca filas duplicadas por keyFields, filas con más de la mitad de
// celdas vacías y valores numéricos negativos o mayores que AnomalyCeiling en las
// columnas cuyo nombre sugiere cantidades o importes.
func DetectIssues(headers []string, rows [][]any, keyFields []string) []dto.CleaningSuggestion {
	out := []dto.CleaningSuggestion{}
	idx := indexOf(headers)

	if len(keyFields) > 0 {
		seen := map[string]int{}
		var dups []int
		marked := map[int]bool{}
		for i, row := range rows {
			line := i + firstDataRow
			parts := make([]string, 0, len(keyFields))
			for _, f := range keyFields {
				if j, ok := idx[f]; ok {
					parts = append(parts, toText(cell(row, j)))
				}
			}
			key := strings.Join(parts, "|")
			if first, ok := seen[key]; ok {
				dups = append(dups, line)
				if !marked[first] {
					dups = append(dups, first)
					marked[first] = true
				}
				continue
			}
			seen[key] = line
		}
		if len(dups) > 0 {
			out = append(out, dto.CleaningSuggestion{
				IssueType:    dto.IssueDuplicate,
				Description:  fmt.Sprintf("发现%d行重复数据（基于字段：%s）", len(dups), strings.Join(keyFields, ", ")),
				AffectedRows: dups,
				Suggestion:   "建议合并重复数据或删除重复行",
			})
		}
	}

	var missing []int
	for i, row := range rows {
		empty := 0
		for _, c := range row {
			if isEmpty(c) {
				empty++
			}
		}
		if float64(empty) > float64(len(row))*0.5 {
			missing = append(missing, i+firstDataRow)
		}
	}
	if len(missing) > 0 {
		out = append(out, dto.CleaningSuggestion{
			IssueType:    dto.IssueMissing,
			Description:  fmt.Sprintf("发现%d行数据缺失严重（超过50%%字段为空）", len(missing)),
			AffectedRows: missing,
			Suggestion:   "建议补充缺失数据或删除空行",
			AutoFixable:  true,
		})
	}

	var numeric []int
	for i, h := range headers {
		lh := strings.ToLower(h)
		for _, hint := range numericHints {
			if strings.Contains(lh, hint) {
				numeric = append(numeric, i)
				break
			}
		}
	}
	var anomalies []int
	for i, row := range rows {
		for _, j := range numeric {
			if n, ok := toNumber(cell(row, j)); ok && (n < 0 || n > AnomalyCeiling) {
				anomalies = append(anomalies, i+firstDataRow)
				break
			}
		}
	}
	if len(anomalies) > 0 {
		out = append(out, dto.CleaningSuggestion{
			IssueType:    dto.IssueAnomaly,
			Description:  fmt.Sprintf("发现%d行数据异常（数值为负数或过大）", len(anomalies)),
			AffectedRows: anomalies,
			Suggestion:   "建议检查并修正异常数值",
		})
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// Scores completitud = válidas/total, exactitud = 1 - tasa de error y
// consistencia = 100 - 10 por cada incidencia de duplicados (mínimo 0).
func Scores(v dto.ValidationReport, suggestions []dto.CleaningSuggestion) dto.QualityScores {
	if v.TotalRows == 0 {
		return dto.QualityScores{}
	}
	total := float64(v.TotalRows)
	dups := 0
	for _, s := range suggestions {
		if s.IssueType == dto.IssueDuplicate {
			dups++
		}
	}
	return dto.QualityScores{
		Completeness: round2(float64(v.ValidRows) / total * 100),
		Accuracy:     round2((1 - float64(v.ErrorRows)/total) * 100),
		Consistency:  round2(math.Max(0, 100-10*float64(dups))),
	}
}

// BuildReport compone validación, incidencias y puntuaciones.
func BuildReport(in dto.ValidateRequest, now time.Time) *dto.QualityReport {
	v := Validate(in)
	s := DetectIssues(in.Headers, in.Rows, in.KeyFields)
	return &dto.QualityReport{Validation: v, Suggestions: s, Scores: Scores(v, s), GeneratedAt: now}
}
