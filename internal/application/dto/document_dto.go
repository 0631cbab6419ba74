package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

// DocumentItemRequest línea de documento; los datos del material se copian del maestro.
type DocumentItemRequest struct {
	MaterialID  int64           `json:"material_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	WarehouseID *int64          `json:"warehouse_id,omitempty"`
	Remarks     string          `json:"remarks,omitempty"`
}

// CreateDocumentRequest alta de documento. Code vacío = numeración automática.
type CreateDocumentRequest struct {
	Code         string                `json:"code"`
	PartyID      *int64                `json:"party_id,omitempty"`
	PartyName    string                `json:"party_name"`
	WarehouseID  *int64                `json:"warehouse_id,omitempty"`
	BusinessDate *time.Time            `json:"business_date,omitempty"`
	Remarks      string                `json:"remarks"`
	Extra        map[string]any        `json:"extra,omitempty"`
	Items        []DocumentItemRequest `json:"items"`
}

// UpdateDocumentRequest cambios de cabecera (solo en el estado inicial).
type UpdateDocumentRequest struct {
	PartyName    *string    `json:"party_name,omitempty"`
	WarehouseID  *int64     `json:"warehouse_id,omitempty"`
	BusinessDate *time.Time `json:"business_date,omitempty"`
	Remarks      *string    `json:"remarks,omitempty"`
}

// DocumentActionRequest acción de ciclo de vida. ProcessCode aplica a submit_approval.
type DocumentActionRequest struct {
	Action      string `json:"action"`
	ProcessCode string `json:"process_code,omitempty"`
	Comment     string `json:"comment,omitempty"`
}

// DocumentDetail documento con líneas y acciones disponibles.
type DocumentDetail struct {
	*entity.Document
	AllowedActions []string `json:"allowed_actions"`
}

// PushRequest cantidades por id de línea origen; sin entrada = pendiente completo.
type PushRequest struct {
	Quantities map[int64]decimal.Decimal `json:"quantities,omitempty"`
	Remarks    string                    `json:"remarks,omitempty"`
}

// PushResult documento generado y la relación creada.
type PushResult struct {
	Source   *entity.Document         `json:"source"`
	Target   *entity.Document         `json:"target"`
	Relation *entity.DocumentRelation `json:"relation"`
}

// DocumentRelations relaciones aguas arriba y abajo de un documento.
type DocumentRelations struct {
	Upstream   []*entity.DocumentRelation `json:"upstream"`
	Downstream []*entity.DocumentRelation `json:"downstream"`
}

// CompensationRequest intervalo [snapshot_time, launch_date).
type CompensationRequest struct {
	SnapshotTime time.Time `json:"snapshot_time"`
	LaunchDate   time.Time `json:"launch_date"`
}

// CompensationSection resultado de una parte de la compensación.
type CompensationSection struct {
	SuccessCount int              `json:"success_count"`
	FailureCount int              `json:"failure_count"`
	Errors       []map[string]any `json:"errors"`
}

// CompensationResult resultado agregado.
type CompensationResult struct {
	Inventory              CompensationSection `json:"inventory_compensation"`
	WIP                    CompensationSection `json:"wip_compensation"`
	ReceivablesPayables    CompensationSection `json:"receivables_payables_compensation"`
	TotalCompensationCount int                 `json:"total_compensation_count"`
	Documents              []string            `json:"documents"`
}
