// Package approval implementa la máquina de estados de una instancia de aprobación.
package approval

import (
	"time"

	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

// Start crea una instancia pendiente en el primer nodo del proceso y la fila
// de historial "submit".
func Start(p *entity.ApprovalProcess, submitterID int64, now time.Time) (*entity.ApprovalInstance, *entity.ApprovalHistory, error) {
	if p == nil || len(p.Nodes) == 0 {
		return nil, nil, domain.Validation("审批流程没有节点")
	}
	if !p.IsActive {
		return nil, nil, domain.Business("审批流程 %s 未启用", p.Code)
	}
	nodes := make([]entity.ApprovalNode, len(p.Nodes))
	copy(nodes, p.Nodes)
	first := nodes[0]
	approver := first.ApproverID
	inst := &entity.ApprovalInstance{
		TenantID:          p.TenantID,
		ProcessID:         p.ID,
		Nodes:             nodes,
		BusinessType:      p.BusinessType,
		Status:            entity.InstancePending,
		CurrentNode:       first.Key,
		CurrentApproverID: &approver,
		SubmitterID:       submitterID,
		SubmittedAt:       now,
	}
	h := &entity.ApprovalHistory{
		TenantID: p.TenantID,
		Action:   entity.ActionSubmit,
		ActionBy: submitterID,
		ActionAt: now,
		ToNode:   first.Key,
	}
	return inst, h, nil
}

// Input parámetros de una acción.
type Input struct {
	Action     string
	ActorID    int64
	Comment    string
	TransferTo *int64
	// IsAdmin permite actuar en nombre del aprobador o del solicitante.
	IsAdmin bool
	Now     time.Time
}

// Apply ejecuta la acción sobre la instancia y devuelve la fila de historial.
func Apply(inst *entity.ApprovalInstance, in Input) (*entity.ApprovalHistory, error) {
	if inst.Status != entity.InstancePending {
		return nil, domain.Business("审批实例已结束（%s）", inst.Status)
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	h := &entity.ApprovalHistory{
		TenantID:   inst.TenantID,
		InstanceID: inst.ID,
		Action:     in.Action,
		ActionBy:   in.ActorID,
		ActionAt:   now,
		Comment:    in.Comment,
		FromNode:   inst.CurrentNode,
	}
	idx := nodeIndex(inst)

	switch in.Action {
	case entity.ActionApprove, entity.ActionReject, entity.ActionTransfer:
		if !in.IsAdmin && (inst.CurrentApproverID == nil || *inst.CurrentApproverID != in.ActorID) {
			return nil, domain.Forbidden("当前用户不是该节点的审批人")
		}
	case entity.ActionCancel, entity.ActionWithdraw:
		if !in.IsAdmin && inst.SubmitterID != in.ActorID {
			return nil, domain.Forbidden("只有提交人可以撤回或取消审批")
		}
	default:
		return nil, domain.Validation("不支持的审批操作 %s", in.Action)
	}

	switch in.Action {
	case entity.ActionApprove:
		if idx < 0 || idx == len(inst.Nodes)-1 {
			finish(inst, entity.InstanceApproved, now)
		} else {
			next := inst.Nodes[idx+1]
			approver := next.ApproverID
			inst.CurrentNode = next.Key
			inst.CurrentApproverID = &approver
		}
	case entity.ActionReject:
		finish(inst, entity.InstanceRejected, now)
	case entity.ActionCancel, entity.ActionWithdraw:
		finish(inst, entity.InstanceCancelled, now)
	case entity.ActionTransfer:
		if in.TransferTo == nil || *in.TransferTo <= 0 {
			return nil, domain.Validation("转交需要指定审批人")
		}
		if inst.CurrentApproverID != nil && *inst.CurrentApproverID == *in.TransferTo {
			return nil, domain.Validation("不能转交给当前审批人")
		}
		to := *in.TransferTo
		inst.CurrentApproverID = &to
		if idx >= 0 {
			inst.Nodes[idx].ApproverID = to
		}
	}
	inst.UpdatedAt = now
	h.ToNode = inst.CurrentNode
	return h, nil
}

func finish(inst *entity.ApprovalInstance, status string, now time.Time) {
	inst.Status = status
	inst.CurrentNode = ""
	inst.CurrentApproverID = nil
	inst.CompletedAt = &now
}

func nodeIndex(inst *entity.ApprovalInstance) int {
	for i, n := range inst.Nodes {
		if n.Key == inst.CurrentNode {
			return i
		}
	}
	return -1
}
