package dto

import "time"

// Severidades de una incidencia de validación.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Tipos de sugerencia de limpieza.
const (
	IssueDuplicate = "duplicate"
	IssueMissing   = "missing"
	IssueAnomaly   = "anomaly"
)

// FieldRule regla de un campo. Los punteros nil significan "sin restricción".
type FieldRule struct {
	Type      string   `json:"type" mapstructure:"type"`
	Min       *float64 `json:"min,omitempty" mapstructure:"min"`
	Max       *float64 `json:"max,omitempty" mapstructure:"max"`
	MinLength *int     `json:"min_length,omitempty" mapstructure:"min_length"`
	MaxLength *int     `json:"max_length,omitempty" mapstructure:"max_length"`
}

// ValidateRequest datos a importar. Rows no incluye la fila de cabecera.
type ValidateRequest struct {
	Headers        []string             `json:"headers"`
	Rows           [][]any              `json:"rows"`
	FieldRules     map[string]FieldRule `json:"field_rules"`
	RequiredFields []string             `json:"required_fields"`
	ReferenceData  map[string][]string  `json:"reference_data"`
	KeyFields      []string             `json:"key_fields"`
}

// ValidationIssue incidencia de una fila. RowIndex es la línea de hoja de cálculo
// (la cabecera es la línea 1); 0 indica un problema de cabecera.
type ValidationIssue struct {
	RowIndex  int    `json:"row_index"`
	Field     string `json:"field"`
	Value     any    `json:"value,omitempty"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	Suggested string `json:"suggestion,omitempty"`
}

// ValidationReport resultado de la validación previa a una importación.
type ValidationReport struct {
	TotalRows   int               `json:"total_rows"`
	ValidRows   int               `json:"valid_rows"`
	ErrorRows   int               `json:"error_rows"`
	WarningRows int               `json:"warning_rows"`
	Issues      []ValidationIssue `json:"issues"`
	IsValid     bool              `json:"is_valid"`
}

// CleaningSuggestion problema detectado sobre el conjunto de filas.
type CleaningSuggestion struct {
	IssueType    string `json:"issue_type"`
	Description  string `json:"description"`
	AffectedRows []int  `json:"affected_rows"`
	Suggestion   string `json:"suggestion"`
	AutoFixable  bool   `json:"auto_fixable"`
}

// QualityScores puntuaciones 0..100 redondeadas a dos decimales.
type QualityScores struct {
	Completeness float64 `json:"completeness"`
	Accuracy     float64 `json:"accuracy"`
	Consistency  float64 `json:"consistency"`
}

// QualityReport validación, incidencias y puntuaciones.
type QualityReport struct {
	Validation  ValidationReport     `json:"validation"`
	Suggestions []CleaningSuggestion `json:"suggestions"`
	Scores      QualityScores        `json:"scores"`
	GeneratedAt time.Time            `json:"generated_at"`
}
