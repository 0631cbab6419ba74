package document

import (
	"context"
	"strings"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/document"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

// Actor quién ejecuta la acción.
type Actor struct {
	UserID  int64
	IsAdmin bool
}

// approvalAction traduce acciones de documento que, con una instancia pendiente,
// se resuelven en el motor de aprobación.
var approvalAction = map[string]string{
	document.ActionApprove:        entity.ActionApprove,
	document.ActionReject:         entity.ActionReject,
	document.ActionWithdraw:       entity.ActionWithdraw,
	document.ActionCancelApproval: entity.ActionCancel,
}

// Action ejecuta una acción de ciclo de vida sobre el documento.
func (uc *DocumentUseCase) Action(ctx context.Context, tenantID int64, actor Actor, docType string, id int64, in dto.DocumentActionRequest) (*dto.DocumentDetail, error) {
	action := strings.TrimSpace(in.Action)
	if action == "" {
		return nil, domain.Validation("操作不能为空")
	}
	var out *entity.Document
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		d, err := uc.load(ctx, s, tenantID, docType, id, true)
		if err != nil {
			return err
		}
		switch {
		case action == document.ActionSubmitApproval:
			out, err = uc.submitApproval(ctx, s, actor, d, in)
			return err
		case action == document.ActionDelete:
			if err := document.Apply(d, action); err != nil {
				return err
			}
			out = d
			return s.Documents().SoftDelete(ctx, tenantID, d.ID)
		case d.ApprovalInstanceID != nil && d.ApprovalStatus == entity.ApprovalPending && approvalAction[action] != "":
			if _, err := uc.approvals.ActIn(ctx, s, tenantID, *d.ApprovalInstanceID, actor.UserID, actor.IsAdmin,
				dto.ApprovalActionRequest{Action: approvalAction[action], Comment: in.Comment}); err != nil {
				return err
			}
			// el listener ya actualizó el documento si la instancia terminó
			out, err = uc.load(ctx, s, tenantID, docType, id, false)
			return err
		}
		if err := document.Apply(d, action); err != nil {
			return err
		}
		if action == document.ActionApprove || action == document.ActionReject {
			now := uc.now()
			d.ReviewedBy = &actor.UserID
			d.ReviewedAt = &now
		}
		d.UpdatedBy = &actor.UserID
		if err := s.Documents().Update(ctx, d); err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		uc.log.Warn().Int64("tenant_id", tenantID).Int64("document_id", id).Str("action", action).Err(err).Msg("acción de documento rechazada")
		return nil, err
	}
	uc.publish(out, action)
	return &dto.DocumentDetail{Document: out, AllowedActions: document.Allowed(out)}, nil
}

func (uc *DocumentUseCase) submitApproval(ctx context.Context, s repository.Store, actor Actor, d *entity.Document, in dto.DocumentActionRequest) (*entity.Document, error) {
	if d.ApprovalInstanceID != nil && d.ApprovalStatus == entity.ApprovalPending {
		return nil, domain.Business("单据 %s 已在审批中", d.Code)
	}
	if err := document.Apply(d, document.ActionSubmitApproval); err != nil {
		return nil, err
	}
	inst, err := uc.approvals.StartIn(ctx, s, d.TenantID, dto.StartApprovalRequest{
		ProcessCode:  in.ProcessCode,
		BusinessType: d.DocType,
		BusinessID:   d.ID,
		BusinessCode: d.Code,
		Title:        d.Code,
		SubmitterID:  actor.UserID,
	})
	if err != nil {
		return nil, err
	}
	d.ApprovalInstanceID = &inst.ID
	d.UpdatedBy = &actor.UserID
	if err := s.Documents().Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// OnApprovalFinished refleja en el documento el resultado final de su instancia.
func (uc *DocumentUseCase) OnApprovalFinished(ctx context.Context, s repository.Store, inst *entity.ApprovalInstance, action string, actorID int64) error {
	d, err := uc.load(ctx, s, inst.TenantID, inst.BusinessType, inst.BusinessID, true)
	if err != nil {
		return err
	}
	var docAction string
	switch inst.Status {
	case entity.InstanceApproved:
		docAction = document.ActionApprove
	case entity.InstanceRejected:
		docAction = document.ActionReject
	case entity.InstanceCancelled:
		docAction = document.ActionCancelApproval
		if action == entity.ActionWithdraw {
			docAction = document.ActionWithdraw
		}
	default:
		return nil
	}
	if err := document.Apply(d, docAction); err != nil {
		return err
	}
	if docAction == document.ActionApprove || docAction == document.ActionReject {
		now := uc.now()
		d.ReviewedBy = &actorID
		d.ReviewedAt = &now
	}
	d.UpdatedBy = &actorID
	if err := s.Documents().Update(ctx, d); err != nil {
		return err
	}
	uc.log.Info().Int64("tenant_id", d.TenantID).Str("code", d.Code).Str("status", d.Status).Msg("documento actualizado por aprobación")
	return nil
}

// ApprovalTypes tipos de documento que pasan por aprobación.
func ApprovalTypes() []string {
	var out []string
	for _, t := range document.Types() {
		if t.Kind == document.KindOrder {
			out = append(out, t.Code)
		}
	}
	return out
}
