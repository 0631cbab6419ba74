package approval

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveredge/platform-kernel/internal/application/apptest"
	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

const tenantID int64 = 5

type recorder struct {
	mu     sync.Mutex
	tenant []map[string]any
	users  map[int64]int
}

func (r *recorder) PublishToTenant(_ int64, _ string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenant = append(r.tenant, data.(map[string]any))
}

func (r *recorder) PublishToUser(_, userID int64, _ string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.users == nil {
		r.users = map[int64]int{}
	}
	r.users[userID]++
}

type listenerFunc func(inst *entity.ApprovalInstance, action string) error

func (f listenerFunc) OnApprovalFinished(_ context.Context, _ repository.Store, inst *entity.ApprovalInstance, action string, _ int64) error {
	return f(inst, action)
}

func newTestUseCase(t *testing.T) (*ApprovalUseCase, *apptest.Store, *recorder) {
	t.Helper()
	store := apptest.NewStore()
	rec := &recorder{}
	uc := NewApprovalUseCase(store, apptest.NewTxRunner(store), rec, nil)
	_, err := uc.CreateProcess(context.Background(), tenantID, dto.CreateApprovalProcessRequest{
		Code: "SO-APPROVAL", Name: "销售订单审批", BusinessType: "sales_order",
		Nodes: []entity.ApprovalNode{{Key: "mgr", Name: "经理", ApproverID: 10}, {Key: "dir", Name: "总监", ApproverID: 20}},
	})
	require.NoError(t, err)
	return uc, store, rec
}

func start(t *testing.T, uc *ApprovalUseCase, store *apptest.Store) *entity.ApprovalInstance {
	t.Helper()
	inst, err := uc.StartIn(context.Background(), store, tenantID, dto.StartApprovalRequest{
		BusinessType: "sales_order", BusinessID: 99, BusinessCode: "SO1", Title: "SO1", SubmitterID: 1,
	})
	require.NoError(t, err)
	return inst
}

func TestCreateProcess_Validaciones(t *testing.T) {
	uc, _, _ := newTestUseCase(t)
	ctx := context.Background()

	cases := []dto.CreateApprovalProcessRequest{
		{Code: "", Name: "x", Nodes: []entity.ApprovalNode{{Key: "a", ApproverID: 1}}},
		{Code: "A", Name: "x"},
		{Code: "A", Name: "x", Nodes: []entity.ApprovalNode{{Key: "a", ApproverID: 1}, {Key: "a", ApproverID: 2}}},
		{Code: "A", Name: "x", Nodes: []entity.ApprovalNode{{Key: "a"}}},
		{Code: "SO-APPROVAL", Name: "dup", Nodes: []entity.ApprovalNode{{Key: "a", ApproverID: 1}}},
	}
	for i, c := range cases {
		_, err := uc.CreateProcess(ctx, tenantID, c)
		assert.True(t, errors.Is(err, domain.ErrValidation), "caso %d", i)
	}
}

func TestAprobacionCompleta_AvanzaNodosYNotificaListener(t *testing.T) {
	uc, store, rec := newTestUseCase(t)
	ctx := context.Background()
	var finished []string
	uc.RegisterListener("sales_order", listenerFunc(func(inst *entity.ApprovalInstance, action string) error {
		finished = append(finished, inst.Status+"/"+action)
		return nil
	}))

	inst := start(t, uc, store)
	assert.Equal(t, "mgr", inst.CurrentNode)

	_, err := uc.Act(ctx, tenantID, inst.ID, 20, false, dto.ApprovalActionRequest{Action: entity.ActionApprove})
	assert.True(t, errors.Is(err, domain.ErrForbidden), "no es el aprobador actual")

	inst, err = uc.Act(ctx, tenantID, inst.ID, 10, false, dto.ApprovalActionRequest{Action: entity.ActionApprove, Comment: "ok"})
	require.NoError(t, err)
	assert.Equal(t, "dir", inst.CurrentNode)
	assert.Empty(t, finished)

	inst, err = uc.Act(ctx, tenantID, inst.ID, 20, false, dto.ApprovalActionRequest{Action: entity.ActionApprove})
	require.NoError(t, err)
	assert.Equal(t, entity.InstanceApproved, inst.Status)
	assert.Equal(t, []string{"approved/approve"}, finished)

	detail, err := uc.GetInstance(ctx, tenantID, inst.ID)
	require.NoError(t, err)
	require.Len(t, detail.History, 3)
	assert.Equal(t, entity.ActionSubmit, detail.History[0].Action)
	assert.Equal(t, "mgr", detail.History[1].FromNode)
	assert.Equal(t, "dir", detail.History[1].ToNode)

	_, err = uc.Act(ctx, tenantID, inst.ID, 20, false, dto.ApprovalActionRequest{Action: entity.ActionApprove})
	assert.True(t, errors.Is(err, domain.ErrBusinessLogic))

	assert.Len(t, rec.tenant, 3)
	assert.Equal(t, 1, rec.users[10])
	assert.Equal(t, 1, rec.users[20])
}

func TestTransferYPendientes(t *testing.T) {
	uc, store, _ := newTestUseCase(t)
	ctx := context.Background()
	inst := start(t, uc, store)

	pending, err := uc.Pending(ctx, tenantID, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	to := int64(30)
	inst, err = uc.Act(ctx, tenantID, inst.ID, 10, false, dto.ApprovalActionRequest{Action: entity.ActionTransfer, TransferTo: &to})
	require.NoError(t, err)
	assert.Equal(t, int64(30), *inst.CurrentApproverID)
	assert.Equal(t, entity.InstancePending, inst.Status)

	pending, err = uc.Pending(ctx, tenantID, 30)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	inst, err = uc.Act(ctx, tenantID, inst.ID, 30, false, dto.ApprovalActionRequest{Action: entity.ActionReject, Comment: "no"})
	require.NoError(t, err)
	assert.Equal(t, entity.InstanceRejected, inst.Status)
}

func TestCancelar_SoloSolicitante(t *testing.T) {
	uc, store, _ := newTestUseCase(t)
	ctx := context.Background()
	inst := start(t, uc, store)

	_, err := uc.Act(ctx, tenantID, inst.ID, 10, false, dto.ApprovalActionRequest{Action: entity.ActionCancel})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	inst, err = uc.Act(ctx, tenantID, inst.ID, 1, false, dto.ApprovalActionRequest{Action: entity.ActionCancel})
	require.NoError(t, err)
	assert.Equal(t, entity.InstanceCancelled, inst.Status)
}

func TestListenerConError_PropagaYNoCambia(t *testing.T) {
	uc, store, _ := newTestUseCase(t)
	ctx := context.Background()
	uc.RegisterListener("sales_order", listenerFunc(func(*entity.ApprovalInstance, string) error {
		return domain.Business("documento bloqueado")
	}))
	inst := start(t, uc, store)

	_, err := uc.Act(ctx, tenantID, inst.ID, 10, true, dto.ApprovalActionRequest{Action: entity.ActionReject})
	assert.True(t, errors.Is(err, domain.ErrBusinessLogic))
}

func TestStart_SinProceso(t *testing.T) {
	uc, store, _ := newTestUseCase(t)
	_, err := uc.StartIn(context.Background(), store, tenantID, dto.StartApprovalRequest{BusinessType: "sample_trial", SubmitterID: 1})
	assert.True(t, errors.Is(err, domain.ErrBusinessLogic))
	_, err = uc.StartIn(context.Background(), store, tenantID, dto.StartApprovalRequest{ProcessCode: "NOPE", SubmitterID: 1})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = uc.GetInstance(context.Background(), tenantID, 12345)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
