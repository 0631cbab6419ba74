package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de origen de un material.
const (
	SourceMake      = "Make"
	SourceBuy       = "Buy"
	SourcePhantom   = "Phantom"
	SourceOutsource = "Outsource"
	SourceConfigure = "Configure"
)

// Tipos de material con código corto.
var MaterialTypes = map[string]string{
	"FIN":  "成品",
	"SEMI": "半成品",
	"RAW":  "原材料",
	"PACK": "包装材料",
	"AUX":  "辅料",
}

// NormalizeMaterialType devuelve el tipo en mayúsculas, RAW si no se reconoce.
func NormalizeMaterialType(t string) string {
	for code := range MaterialTypes {
		if strings.EqualFold(code, strings.TrimSpace(t)) {
			return code
		}
	}
	return "RAW"
}

// Material maestro de materiales. MainCode es único por tenant entre filas vivas.
type Material struct {
	ID                int64          `json:"id"`
	UUID              string         `json:"uuid"`
	TenantID          int64          `json:"tenant_id"`
	MainCode          string         `json:"main_code"`
	Name              string         `json:"name"`
	MaterialType      string         `json:"material_type"`
	Specification     string         `json:"specification,omitempty"`
	BaseUnit          string         `json:"base_unit,omitempty"`
	Description       string         `json:"description,omitempty"`
	Brand             string         `json:"brand,omitempty"`
	Model             string         `json:"model,omitempty"`
	SourceType        string         `json:"source_type"`
	SourceConfig      map[string]any `json:"source_config,omitempty"`
	ProcessRouteID    *int64         `json:"process_route_id,omitempty"`
	VariantAttributes map[string]any `json:"variant_attributes,omitempty"`
	IsActive          bool           `json:"is_active"`
	CreatedBy         *int64         `json:"created_by,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         *time.Time     `json:"-"`
}

// MaterialCodeAlias código alterno (departamental o de un socio) de un material.
type MaterialCodeAlias struct {
	ID                 int64      `json:"id"`
	UUID               string     `json:"uuid"`
	TenantID           int64      `json:"tenant_id"`
	MaterialID         int64      `json:"material_id"`
	CodeType           string     `json:"code_type"`
	Code               string     `json:"code"`
	ExternalEntityType string     `json:"external_entity_type,omitempty"`
	ExternalEntityID   *int64     `json:"external_entity_id,omitempty"`
	Department         string     `json:"department,omitempty"`
	Description        string     `json:"description,omitempty"`
	IsPrimary          bool       `json:"is_primary"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	DeletedAt          *time.Time `json:"-"`
}

// AliasKey clave de unicidad de un código alterno vivo. ExternalEntityID 0 = sin entidad.
type AliasKey struct {
	TenantID           int64
	CodeType           string
	Code               string
	ExternalEntityType string
	ExternalEntityID   int64
}

// Key devuelve la clave de unicidad del alias.
func (a *MaterialCodeAlias) Key() AliasKey {
	k := AliasKey{TenantID: a.TenantID, CodeType: a.CodeType, Code: a.Code, ExternalEntityType: a.ExternalEntityType}
	if a.ExternalEntityID != nil {
		k.ExternalEntityID = *a.ExternalEntityID
	}
	return k
}

// BOMLine componente de la lista de materiales.
type BOMLine struct {
	ID             int64           `json:"id"`
	UUID           string          `json:"uuid"`
	TenantID       int64           `json:"tenant_id"`
	MaterialID     int64           `json:"material_id"`
	ComponentID    int64           `json:"component_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	WasteRate      decimal.Decimal `json:"waste_rate"`
	IsAlternative  bool            `json:"is_alternative"`
	ApprovalStatus string          `json:"approval_status"`
	Version        string          `json:"version"`
	BOMCode        string          `json:"bom_code"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      *time.Time      `json:"-"`
}
