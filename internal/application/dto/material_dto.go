package dto

import (
	"github.com/shopspring/decimal"

	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

// CreateMaterialRequest alta de material. MainCode vacío = asignado por la regla activa.
type CreateMaterialRequest struct {
	MainCode          string               `json:"main_code"`
	Name              string               `json:"name"`
	MaterialType      string               `json:"material_type"`
	Specification     string               `json:"specification"`
	BaseUnit          string               `json:"base_unit"`
	Description       string               `json:"description"`
	Brand             string               `json:"brand"`
	Model             string               `json:"model"`
	SourceType        string               `json:"source_type"`
	SourceConfig      map[string]any       `json:"source_config"`
	ProcessRouteID    *int64               `json:"process_route_id"`
	VariantAttributes map[string]any       `json:"variant_attributes"`
	Aliases           []CreateAliasRequest `json:"aliases"`
}

// UpdateMaterialRequest cambios de datos maestros (el código principal no cambia).
type UpdateMaterialRequest struct {
	Name              *string        `json:"name,omitempty"`
	Specification     *string        `json:"specification,omitempty"`
	BaseUnit          *string        `json:"base_unit,omitempty"`
	Description       *string        `json:"description,omitempty"`
	Brand             *string        `json:"brand,omitempty"`
	Model             *string        `json:"model,omitempty"`
	ProcessRouteID    *int64         `json:"process_route_id,omitempty"`
	VariantAttributes map[string]any `json:"variant_attributes,omitempty"`
	IsActive          *bool          `json:"is_active,omitempty"`
}

// MaterialListRequest listado con filtro por tipo.
type MaterialListRequest struct {
	PageRequest
	MaterialType string `query:"material_type"`
}

// CreateAliasRequest código alterno de un material.
type CreateAliasRequest struct {
	CodeType           string `json:"code_type"`
	Code               string `json:"code"`
	ExternalEntityType string `json:"external_entity_type"`
	ExternalEntityID   *int64 `json:"external_entity_id"`
	Department         string `json:"department"`
	Description        string `json:"description"`
	IsPrimary          bool   `json:"is_primary"`
}

// MaterialDetail material con sus códigos alternos.
type MaterialDetail struct {
	*entity.Material
	Aliases []*entity.MaterialCodeAlias `json:"aliases"`
	// MatchedBy "main_code" o "alias:{code_type}" cuando se buscó por código.
	MatchedBy string `json:"matched_by,omitempty"`
}

// DuplicateCheckRequest datos a comparar contra materiales existentes.
type DuplicateCheckRequest struct {
	Name          string `json:"name"`
	Specification string `json:"specification"`
	BaseUnit      string `json:"base_unit"`
	ExcludeID     int64  `json:"exclude_id"`
}

// DuplicateCandidate posible duplicado con puntuación y motivos.
type DuplicateCandidate struct {
	Material   *entity.Material `json:"material"`
	Score      int              `json:"score"`
	Confidence string           `json:"confidence"`
	Reasons    []string         `json:"reasons"`
}

// MergeMaterialsRequest fusión destructiva: source se elimina y sus alias pasan a target.
type MergeMaterialsRequest struct {
	SourceID int64 `json:"source_id"`
	TargetID int64 `json:"target_id"`
}

// MergeResult resumen de la fusión.
type MergeResult struct {
	Target         *entity.Material `json:"target"`
	MovedAliases   int              `json:"moved_aliases"`
	SkippedAliases int              `json:"skipped_aliases"`
	FilledFields   []string         `json:"filled_fields"`
}

// ChangeSourceRequest cambio de tipo de origen.
type ChangeSourceRequest struct {
	SourceType   string         `json:"source_type"`
	SourceConfig map[string]any `json:"source_config"`
}

// SourceCheck completitud de la configuración de origen.
type SourceCheck struct {
	IsComplete     bool     `json:"is_complete"`
	MissingConfigs []string `json:"missing_configs"`
	Warnings       []string `json:"warnings"`
}

// SourceSuggestion tipo de origen sugerido.
type SourceSuggestion struct {
	SuggestedType string   `json:"suggested_type,omitempty"`
	Confidence    float64  `json:"confidence"`
	Reasons       []string `json:"reasons"`
}

// AddBOMLineRequest línea de BOM.
type AddBOMLineRequest struct {
	ComponentID   int64           `json:"component_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	WasteRate     decimal.Decimal `json:"waste_rate"`
	IsAlternative bool            `json:"is_alternative"`
	Version       string          `json:"version"`
	BOMCode       string          `json:"bom_code"`
}
