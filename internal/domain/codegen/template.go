// Package codegen compila plantillas de códigos de negocio y las expande.
package codegen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

// Marcadores soportados.
const (
	Prefix   = "PREFIX"
	Type     = "TYPE"
	Sequence = "SEQUENCE"
	Date     = "DATE"
	Year     = "YEAR"
	Month    = "MONTH"
	Day      = "DAY"
	Org      = "ORG"
	Dept     = "DEPT"
)

var supported = map[string]bool{
	Prefix: true, Type: true, Sequence: true, Date: true, Year: true,
	Month: true, Day: true, Org: true, Dept: true,
}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_]+)\}`)

// MaxAttempts intentos de asignación ante colisión de código.
const MaxAttempts = 10

// Context valores disponibles al expandir una plantilla.
type Context struct {
	MaterialType string
	Org          string
	Dept         string
	Now          time.Time
}

type segment struct {
	literal     string
	placeholder string
}

// Template plantilla compilada.
type Template struct {
	raw          string
	segments     []segment
	placeholders []string
}

// Compile valida y compila una plantilla: al menos un marcador y todos soportados.
func Compile(raw string) (*Template, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, domain.Validation("模板不能为空")
	}
	t := &Template{raw: raw}
	matches := placeholderRe.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		return nil, domain.Validation("模板 %q 至少需要一个占位符", raw)
	}
	last := 0
	for _, m := range matches {
		name := raw[m[2]:m[3]]
		if !supported[name] {
			return nil, domain.Validation("不支持的占位符 {%s}", name)
		}
		if m[0] > last {
			t.segments = append(t.segments, segment{literal: raw[last:m[0]]})
		}
		t.segments = append(t.segments, segment{placeholder: name})
		t.placeholders = append(t.placeholders, name)
		last = m[1]
	}
	if last < len(raw) {
		t.segments = append(t.segments, segment{literal: raw[last:]})
	}
	return t, nil
}

// Raw devuelve el texto original.
func (t *Template) Raw() string { return t.raw }

// HasSequence indica si la plantilla consume un número de secuencia.
func (t *Template) HasSequence() bool {
	for _, p := range t.placeholders {
		if p == Sequence {
			return true
		}
	}
	return false
}

// ScopeFields campos que definen el contador: scope_fields explícitos, ["TYPE"] si
// independent_by_type, o vacío (global por regla).
func ScopeFields(cfg entity.SequenceConfig) ([]string, error) {
	if len(cfg.ScopeFields) > 0 {
		out := make([]string, 0, len(cfg.ScopeFields))
		for _, f := range cfg.ScopeFields {
			f = strings.ToUpper(strings.TrimSpace(f))
			if f == Sequence || !supported[f] {
				return nil, domain.Validation("不支持的序号范围字段 %s", f)
			}
			out = append(out, f)
		}
		return out, nil
	}
	if cfg.IndependentByType {
		return []string{Type}, nil
	}
	return nil, nil
}

// ScopeKey une los valores de los campos de alcance. nil = contador global de la regla.
func ScopeKey(fields []string, prefix string, ctx Context) *string {
	if len(fields) == 0 {
		return nil
	}
	values := make([]string, 0, len(fields))
	for _, f := range fields {
		values = append(values, value(f, prefix, ctx))
	}
	key := strings.Join(values, "|")
	return &key
}

// Render expande la plantilla con el número asignado.
func (t *Template) Render(prefix string, seq int64, cfg entity.SequenceConfig, ctx Context) string {
	cfg = cfg.Normalized()
	var b strings.Builder
	for _, s := range t.segments {
		if s.placeholder == "" {
			b.WriteString(s.literal)
			continue
		}
		if s.placeholder == Sequence {
			b.WriteString(Pad(seq, cfg))
			continue
		}
		b.WriteString(value(s.placeholder, prefix, ctx))
	}
	return b.String()
}

func value(name, prefix string, ctx Context) string {
	now := ctx.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	switch name {
	case Prefix:
		return prefix
	case Type:
		return ctx.MaterialType
	case Date:
		return now.Format("20060102")
	case Year:
		return now.Format("2006")
	case Month:
		return now.Format("01")
	case Day:
		return now.Format("02")
	case Org:
		return ctx.Org
	case Dept:
		return ctx.Dept
	}
	return ""
}

// Pad rellena el número hasta Length con Padding.Char. Nunca trunca.
func Pad(n int64, cfg entity.SequenceConfig) string {
	cfg = cfg.Normalized()
	s := strconv.FormatInt(n, 10)
	if len(s) >= cfg.Length {
		return s
	}
	fill := strings.Repeat(string([]rune(cfg.Padding.Char)[0]), cfg.Length-len(s))
	if cfg.Padding.Direction == "right" {
		return s + fill
	}
	return fill + s
}

// DefaultMaterialCode formato de respaldo MAT-{TYPE}-{NNNN}.
func DefaultMaterialCode(materialType string, seq int64) string {
	return fmt.Sprintf("MAT-%s-%04d", materialType, seq)
}
