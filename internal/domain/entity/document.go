package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de relación y modos.
const (
	RelationSource    = "source"
	RelationReference = "reference"

	RelationModePush   = "push"
	RelationModePull   = "pull"
	RelationModeManual = "manual"
)

// Estados de revisión y de aprobación de un documento.
const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"

	ApprovalPending   = "pending"
	ApprovalApproved  = "approved"
	ApprovalRejected  = "rejected"
	ApprovalCancelled = "cancelled"
)

// Claves de Document.Extra.
const (
	ExtraSalesOrderID   = "sales_order_id"
	ExtraSalesOrderCode = "sales_order_code"
	ExtraCompensation   = "compensation"
)

// Document cabecera genérica de un documento de negocio (pedido, entrega, recepción...).
// DocType discrimina el tipo; Code es único por (tenant, doc_type) entre filas vivas.
type Document struct {
	ID                 int64           `json:"id"`
	UUID               string          `json:"uuid"`
	TenantID           int64           `json:"tenant_id"`
	DocType            string          `json:"doc_type"`
	Code               string          `json:"code"`
	Status             string          `json:"status"`
	ReviewStatus       string          `json:"review_status,omitempty"`
	ApprovalInstanceID *int64          `json:"approval_instance_id,omitempty"`
	ApprovalStatus     string          `json:"approval_status,omitempty"`
	Confirmed          bool            `json:"confirmed"`
	PartyID            *int64          `json:"party_id,omitempty"`
	PartyName          string          `json:"party_name,omitempty"`
	WarehouseID        *int64          `json:"warehouse_id,omitempty"`
	BusinessDate       time.Time       `json:"business_date"`
	Remarks            string          `json:"remarks,omitempty"`
	Extra              map[string]any  `json:"extra,omitempty"`
	CreatedBy          *int64          `json:"created_by,omitempty"`
	UpdatedBy          *int64          `json:"updated_by,omitempty"`
	ReviewedBy         *int64          `json:"reviewed_by,omitempty"`
	ReviewedAt         *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	DeletedAt          *time.Time      `json:"-"`
	Items              []*DocumentItem `json:"items,omitempty"`
}

// SetExtra asigna una clave en Extra creando el mapa si hace falta.
func (d *Document) SetExtra(key string, value any) {
	if d.Extra == nil {
		d.Extra = map[string]any{}
	}
	d.Extra[key] = value
}

// DocumentItem línea de un documento con snapshot del material.
type DocumentItem struct {
	ID           int64           `json:"id"`
	UUID         string          `json:"uuid"`
	TenantID     int64           `json:"tenant_id"`
	DocumentID   int64           `json:"document_id"`
	LineNo       int             `json:"line_no"`
	MaterialID   int64           `json:"material_id"`
	MaterialCode string          `json:"material_code"`
	MaterialName string          `json:"material_name"`
	MaterialSpec string          `json:"material_spec,omitempty"`
	MaterialUnit string          `json:"material_unit,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	DoneQuantity decimal.Decimal `json:"done_quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	WarehouseID  *int64          `json:"warehouse_id,omitempty"`
	SourceItemID *int64          `json:"source_item_id,omitempty"`
	Remarks      string          `json:"remarks,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    *time.Time      `json:"-"`
}

// Outstanding cantidad pendiente (Quantity - DoneQuantity).
func (i *DocumentItem) Outstanding() decimal.Decimal {
	return i.Quantity.Sub(i.DoneQuantity)
}

// DocumentRelation arista origen → destino para trazabilidad.
type DocumentRelation struct {
	ID           int64     `json:"id"`
	UUID         string    `json:"uuid"`
	TenantID     int64     `json:"tenant_id"`
	SourceType   string    `json:"source_type"`
	SourceID     int64     `json:"source_id"`
	SourceCode   string    `json:"source_code"`
	TargetType   string    `json:"target_type"`
	TargetID     int64     `json:"target_id"`
	TargetCode   string    `json:"target_code"`
	RelationType string    `json:"relation_type"`
	RelationMode string    `json:"relation_mode"`
	RelationDesc string    `json:"relation_desc,omitempty"`
	CreatedBy    *int64    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// StockMovementLine línea de recepción/entrega para compensación de datos.
type StockMovementLine struct {
	DocumentID  int64
	DocType     string
	MaterialID  int64
	WarehouseID int64
	Quantity    decimal.Decimal
}
