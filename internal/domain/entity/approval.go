package entity

import "time"

// Estados de una instancia de aprobación.
const (
	InstancePending   = "pending"
	InstanceApproved  = "approved"
	InstanceRejected  = "rejected"
	InstanceCancelled = "cancelled"
)

// Acciones registradas en el historial.
const (
	ActionSubmit   = "submit"
	ActionApprove  = "approve"
	ActionReject   = "reject"
	ActionCancel   = "cancel"
	ActionWithdraw = "withdraw"
	ActionTransfer = "transfer"
)

// ApprovalNode nodo ordenado de un proceso.
type ApprovalNode struct {
	Key        string `json:"key" mapstructure:"key"`
	Name       string `json:"name" mapstructure:"name"`
	ApproverID int64  `json:"approver_id" mapstructure:"approver_id"`
}

// ApprovalProcess plantilla de proceso de aprobación.
type ApprovalProcess struct {
	ID           int64          `json:"id"`
	UUID         string         `json:"uuid"`
	TenantID     int64          `json:"tenant_id"`
	Code         string         `json:"code"`
	Name         string         `json:"name"`
	BusinessType string         `json:"business_type,omitempty"`
	Nodes        []ApprovalNode `json:"nodes"`
	IsActive     bool           `json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    *time.Time     `json:"-"`
}

// ApprovalInstance ejecución de un proceso sobre un documento.
type ApprovalInstance struct {
	ID                int64          `json:"id"`
	UUID              string         `json:"uuid"`
	TenantID          int64          `json:"tenant_id"`
	ProcessID         int64          `json:"process_id"`
	Nodes             []ApprovalNode `json:"nodes"`
	BusinessType      string         `json:"business_type"`
	BusinessID        int64          `json:"business_id"`
	BusinessCode      string         `json:"business_code"`
	Title             string         `json:"title"`
	Status            string         `json:"status"`
	CurrentNode       string         `json:"current_node,omitempty"`
	CurrentApproverID *int64         `json:"current_approver_id,omitempty"`
	SubmitterID       int64          `json:"submitter_id"`
	SubmittedAt       time.Time      `json:"submitted_at"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// ApprovalHistory fila del historial de una instancia.
type ApprovalHistory struct {
	ID         int64     `json:"id"`
	TenantID   int64     `json:"tenant_id"`
	InstanceID int64     `json:"instance_id"`
	Action     string    `json:"action"`
	ActionBy   int64     `json:"action_by"`
	ActionAt   time.Time `json:"action_at"`
	Comment    string    `json:"comment,omitempty"`
	FromNode   string    `json:"from_node,omitempty"`
	ToNode     string    `json:"to_node,omitempty"`
}
