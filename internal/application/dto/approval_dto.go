package dto

import "github.com/riveredge/platform-kernel/internal/domain/entity"

// CreateApprovalProcessRequest plantilla de proceso con nodos ordenados.
type CreateApprovalProcessRequest struct {
	Code         string                `json:"code"`
	Name         string                `json:"name"`
	BusinessType string                `json:"business_type"`
	Nodes        []entity.ApprovalNode `json:"nodes"`
}

// StartApprovalRequest arranque de una instancia sobre un registro de negocio.
// Sin ProcessCode se usa el proceso activo del BusinessType.
type StartApprovalRequest struct {
	ProcessCode  string
	BusinessType string
	BusinessID   int64
	BusinessCode string
	Title        string
	SubmitterID  int64
}

// ApprovalActionRequest approve | reject | cancel | withdraw | transfer.
type ApprovalActionRequest struct {
	Action     string `json:"action"`
	Comment    string `json:"comment"`
	TransferTo *int64 `json:"transfer_to,omitempty"`
}

// ApprovalInstanceDetail instancia con su historial.
type ApprovalInstanceDetail struct {
	*entity.ApprovalInstance
	History []*entity.ApprovalHistory `json:"history"`
}
