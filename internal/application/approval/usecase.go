// Package approval procesos de aprobación, instancias y su historial.
package approval

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/ports"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/approval"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
	"github.com/riveredge/platform-kernel/pkg/logger"
)

// Listener recibe las instancias que terminan (aprobada, rechazada, cancelada)
// dentro de la misma transacción que la acción.
type Listener interface {
	OnApprovalFinished(ctx context.Context, s repository.Store, inst *entity.ApprovalInstance, action string, actorID int64) error
}

// ApprovalUseCase casos de uso de aprobación.
type ApprovalUseCase struct {
	store  repository.Store
	tx     ports.TxRunner
	events ports.EventPublisher
	log    *logger.Logger
	now    func() time.Time

	mu        sync.RWMutex
	listeners map[string]Listener
}

// NewApprovalUseCase construye el caso de uso. events puede ser nil.
func NewApprovalUseCase(store repository.Store, tx ports.TxRunner, events ports.EventPublisher, log *logger.Logger) *ApprovalUseCase {
	if events == nil {
		events = ports.NopPublisher{}
	}
	return &ApprovalUseCase{
		store:     store,
		tx:        tx,
		events:    events,
		log:       logger.OrNop(log).Component("approval"),
		now:       func() time.Time { return time.Now().UTC() },
		listeners: map[string]Listener{},
	}
}

// RegisterListener asocia un listener a un business_type.
func (uc *ApprovalUseCase) RegisterListener(businessType string, l Listener) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.listeners[businessType] = l
}

func (uc *ApprovalUseCase) listener(businessType string) Listener {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.listeners[businessType]
}

// CreateProcess alta de proceso. Los nodos necesitan clave única y aprobador.
func (uc *ApprovalUseCase) CreateProcess(ctx context.Context, tenantID int64, in dto.CreateApprovalProcessRequest) (*entity.ApprovalProcess, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" || strings.TrimSpace(in.Name) == "" {
		return nil, domain.Validation("流程编码和名称不能为空")
	}
	if len(in.Nodes) == 0 {
		return nil, domain.Validation("审批流程至少需要一个节点")
	}
	keys := map[string]bool{}
	for _, n := range in.Nodes {
		if n.Key == "" || keys[n.Key] {
			return nil, domain.Validation("节点标识为空或重复: %q", n.Key)
		}
		if n.ApproverID <= 0 {
			return nil, domain.Validation("节点 %s 未指定审批人", n.Key)
		}
		keys[n.Key] = true
	}
	p := &entity.ApprovalProcess{
		TenantID:     tenantID,
		Code:         code,
		Name:         in.Name,
		BusinessType: in.BusinessType,
		Nodes:        in.Nodes,
		IsActive:     true,
	}
	if err := uc.store.Approvals().CreateProcess(ctx, p); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.Validation("流程编码 %s 已存在", code)
		}
		return nil, err
	}
	return p, nil
}

// ListProcesses procesos del tenant.
func (uc *ApprovalUseCase) ListProcesses(ctx context.Context, tenantID int64) ([]*entity.ApprovalProcess, error) {
	return uc.store.Approvals().ListProcesses(ctx, tenantID)
}

// GetProcess proceso por id.
func (uc *ApprovalUseCase) GetProcess(ctx context.Context, tenantID, id int64) (*entity.ApprovalProcess, error) {
	p, err := uc.store.Approvals().GetProcess(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NotFound("审批流程", id)
	}
	return p, nil
}

func (uc *ApprovalUseCase) resolveProcess(ctx context.Context, s repository.Store, tenantID int64, in dto.StartApprovalRequest) (*entity.ApprovalProcess, error) {
	if in.ProcessCode != "" {
		p, err := s.Approvals().GetProcessByCode(ctx, tenantID, in.ProcessCode)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.NotFound("审批流程", in.ProcessCode)
		}
		return p, nil
	}
	all, err := s.Approvals().ListProcesses(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.IsActive && p.BusinessType == in.BusinessType {
			return p, nil
		}
	}
	return nil, domain.Business("业务类型 %s 未配置审批流程", in.BusinessType)
}

// StartIn crea una instancia dentro de la transacción del llamador.
func (uc *ApprovalUseCase) StartIn(ctx context.Context, s repository.Store, tenantID int64, in dto.StartApprovalRequest) (*entity.ApprovalInstance, error) {
	p, err := uc.resolveProcess(ctx, s, tenantID, in)
	if err != nil {
		return nil, err
	}
	inst, h, err := approval.Start(p, in.SubmitterID, uc.now())
	if err != nil {
		return nil, err
	}
	if in.BusinessType != "" {
		inst.BusinessType = in.BusinessType
	}
	inst.BusinessID = in.BusinessID
	inst.BusinessCode = in.BusinessCode
	inst.Title = in.Title
	if err := s.Approvals().CreateInstance(ctx, inst); err != nil {
		return nil, err
	}
	h.InstanceID = inst.ID
	if err := s.Approvals().AddHistory(ctx, h); err != nil {
		return nil, err
	}
	uc.notify(inst, entity.ActionSubmit)
	return inst, nil
}

// Act ejecuta una acción en su propia transacción.
func (uc *ApprovalUseCase) Act(ctx context.Context, tenantID, instanceID, actorID int64, isAdmin bool, in dto.ApprovalActionRequest) (*entity.ApprovalInstance, error) {
	var out *entity.ApprovalInstance
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		var err error
		out, err = uc.ActIn(ctx, s, tenantID, instanceID, actorID, isAdmin, in)
		return err
	})
	if err != nil {
		uc.log.Warn().Int64("tenant_id", tenantID).Int64("instance_id", instanceID).Str("action", in.Action).Err(err).Msg("acción de aprobación rechazada")
		return nil, err
	}
	return out, nil
}

// ActIn ejecuta una acción dentro de la transacción del llamador. Si la instancia
// termina se invoca el listener de su business_type.
func (uc *ApprovalUseCase) ActIn(ctx context.Context, s repository.Store, tenantID, instanceID, actorID int64, isAdmin bool, in dto.ApprovalActionRequest) (*entity.ApprovalInstance, error) {
	inst, err := s.Approvals().GetInstanceForUpdate(ctx, tenantID, instanceID)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, domain.NotFound("审批实例", instanceID)
	}
	h, err := approval.Apply(inst, approval.Input{
		Action:     in.Action,
		ActorID:    actorID,
		Comment:    in.Comment,
		TransferTo: in.TransferTo,
		IsAdmin:    isAdmin,
		Now:        uc.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Approvals().UpdateInstance(ctx, inst); err != nil {
		return nil, err
	}
	if err := s.Approvals().AddHistory(ctx, h); err != nil {
		return nil, err
	}
	if inst.Status != entity.InstancePending {
		if l := uc.listener(inst.BusinessType); l != nil {
			if err := l.OnApprovalFinished(ctx, s, inst, in.Action, actorID); err != nil {
				return nil, err
			}
		}
	}
	uc.notify(inst, in.Action)
	return inst, nil
}

func (uc *ApprovalUseCase) notify(inst *entity.ApprovalInstance, action string) {
	payload := map[string]any{
		"event":         "approval." + action,
		"instance_id":   inst.ID,
		"business_type": inst.BusinessType,
		"business_id":   inst.BusinessID,
		"business_code": inst.BusinessCode,
		"status":        inst.Status,
	}
	uc.events.PublishToTenant(inst.TenantID, ports.ChannelApprovals, payload)
	if inst.CurrentApproverID != nil {
		uc.events.PublishToUser(inst.TenantID, *inst.CurrentApproverID, ports.ChannelApprovals, payload)
	}
}

// GetInstance instancia con historial.
func (uc *ApprovalUseCase) GetInstance(ctx context.Context, tenantID, id int64) (*dto.ApprovalInstanceDetail, error) {
	inst, err := uc.store.Approvals().GetInstance(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, domain.NotFound("审批实例", id)
	}
	hist, err := uc.store.Approvals().ListHistory(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if hist == nil {
		hist = []*entity.ApprovalHistory{}
	}
	return &dto.ApprovalInstanceDetail{ApprovalInstance: inst, History: hist}, nil
}

// Pending instancias pendientes del aprobador.
func (uc *ApprovalUseCase) Pending(ctx context.Context, tenantID, approverID int64) ([]*entity.ApprovalInstance, error) {
	return uc.store.Approvals().ListPendingForApprover(ctx, tenantID, approverID)
}
