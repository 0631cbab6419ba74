// Package quality validación previa a importaciones, detección de incidencias y
// puntuación de calidad de datos tabulares.
package quality

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/riveredge/platform-kernel/internal/application/dto"
)

// firstDataRow línea de hoja de cálculo de la primera fila de datos.
const firstDataRow = 2

var dateLayouts = []string{"2006-01-02", "2006/01/02", "2006-01-02 15:04:05", time.RFC3339}

func indexOf(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, ok := idx[h]; !ok {
			idx[h] = i
		}
	}
	return idx
}

func cell(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

// toNumber acepta números y cadenas numéricas.
func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func isDate(v any) bool {
	switch t := v.(type) {
	case time.Time:
		return true
	case string:
		s := strings.TrimSpace(t)
		for _, l := range dateLayouts {
			if _, err := time.Parse(l, s); err == nil {
				return true
			}
		}
	}
	return false
}

func isBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "false", "1", "0", "yes", "no", "是", "否":
			return true
		}
	case float64:
		return t == 0 || t == 1
	}
	return false
}

type rowState struct {
	line     int
	issues   []dto.ValidationIssue
	hasError bool
	hasWarn  bool
}

func (r *rowState) add(severity, field string, value any, msg, suggestion string) {
	r.issues = append(r.issues, dto.ValidationIssue{
		RowIndex: r.line, Field: field, Value: value, Severity: severity,
		Message: fmt.Sprintf("第%d行：%s", r.line, msg), Suggested: suggestion,
	})
	if severity == dto.SeverityError {
		r.hasError = true
	} else {
		r.hasWarn = true
	}
}

// checkRule aplica la regla de un campo no vacío.
func checkRule(r *rowState, field string, value any, rule dto.FieldRule) {
	switch rule.Type {
	case "number":
		if _, ok := toNumber(value); !ok {
			r.add(dto.SeverityError, field, value, fmt.Sprintf("字段'%s'必须是数字", field), fmt.Sprintf("请将字段'%s'的值改为数字格式", field))
			return
		}
	case "date":
		if !isDate(value) {
			r.add(dto.SeverityWarning, field, value, fmt.Sprintf("字段'%s'日期格式可能不正确", field), fmt.Sprintf("请确保字段'%s'的日期格式正确（如：YYYY-MM-DD）", field))
		}
	case "boolean":
		if !isBool(value) {
			r.add(dto.SeverityError, field, value, fmt.Sprintf("字段'%s'必须是布尔值", field), "请填写 true/false 或 是/否")
		}
	}
	if n, ok := toNumber(value); ok && (rule.Type == "number" || rule.Type == "") {
		if rule.Min != nil && n < *rule.Min {
			r.add(dto.SeverityError, field, value, fmt.Sprintf("字段'%s'的值不能小于%v", field, *rule.Min), fmt.Sprintf("请将字段'%s'的值调整为大于等于%v", field, *rule.Min))
		}
		if rule.Max != nil && n > *rule.Max {
			r.add(dto.SeverityError, field, value, fmt.Sprintf("字段'%s'的值不能大于%v", field, *rule.Max), fmt.Sprintf("请将字段'%s'的值调整为小于等于%v", field, *rule.Max))
		}
	}
	if rule.MinLength != nil || rule.MaxLength != nil {
		n := utf8.RuneCountInString(toText(value))
		if rule.MinLength != nil && n < *rule.MinLength {
			r.add(dto.SeverityError, field, value, fmt.Sprintf("字段'%s'长度不能少于%d", field, *rule.MinLength), "")
		}
		if rule.MaxLength != nil && n > *rule.MaxLength {
			r.add(dto.SeverityError, field, value, fmt.Sprintf("字段'%s'长度不能超过%d", field, *rule.MaxLength), "")
		}
	}
}

// Validate revisa filas (sin cabecera) contra campos obligatorios, reglas por campo
// y listas de referencia. Una fila con algún error cuenta como errónea; sin errores
// pero con avisos, como aviso; en otro caso, válida.
func Validate(in dto.ValidateRequest) dto.ValidationReport {
	rep := dto.ValidationReport{TotalRows: len(in.Rows), Issues: []dto.ValidationIssue{}}
	idx := indexOf(in.Headers)

	var missing []string
	for _, f := range in.RequiredFields {
		if _, ok := idx[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		rep.Issues = append(rep.Issues, dto.ValidationIssue{
			RowIndex: 0, Field: "表头", Severity: dto.SeverityError,
			Message:   "缺少必填字段：" + strings.Join(missing, ", "),
			Suggested: "请确保表头包含所有必填字段",
		})
	}

	for i, row := range in.Rows {
		r := &rowState{line: i + firstDataRow}
		for _, f := range in.RequiredFields {
			j, ok := idx[f]
			if !ok {
				continue
			}
			if isEmpty(cell(row, j)) {
				r.add(dto.SeverityError, f, nil, fmt.Sprintf("字段'%s'不能为空", f), fmt.Sprintf("请填写字段'%s'的值", f))
			}
		}
		for _, f := range sortedKeys(in.FieldRules) {
			j, ok := idx[f]
			if !ok {
				continue
			}
			v := cell(row, j)
			if isEmpty(v) {
				continue
			}
			checkRule(r, f, v, in.FieldRules[f])
		}
		for _, f := range sortedKeys(in.ReferenceData) {
			refs := in.ReferenceData[f]
			j, ok := idx[f]
			if !ok || len(refs) == 0 {
				continue
			}
			v := cell(row, j)
			if isEmpty(v) {
				continue
			}
			if !contains(refs, toText(v)) {
				r.add(dto.SeverityError, f, v, fmt.Sprintf("字段'%s'的值'%s'不存在", f, toText(v)), fmt.Sprintf("请检查字段'%s'的值，确保在系统中存在", f))
			}
		}
		rep.Issues = append(rep.Issues, r.issues...)
		switch {
		case r.hasError:
			rep.ErrorRows++
		case r.hasWarn:
			rep.WarningRows++
		default:
			rep.ValidRows++
		}
	}
	rep.IsValid = rep.ErrorRows == 0 && len(missing) == 0
	return rep
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
