package approval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

var now = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func process() *entity.ApprovalProcess {
	return &entity.ApprovalProcess{
		ID: 1, TenantID: 9, Code: "SO_APPROVAL", IsActive: true, BusinessType: "sales_order",
		Nodes: []entity.ApprovalNode{
			{Key: "manager", Name: "经理", ApproverID: 20},
			{Key: "director", Name: "总监", ApproverID: 30},
		},
	}
}

func TestStart_PrimerNodo(t *testing.T) {
	inst, h, err := Start(process(), 10, now)
	require.NoError(t, err)
	assert.Equal(t, entity.InstancePending, inst.Status)
	assert.Equal(t, "manager", inst.CurrentNode)
	assert.Equal(t, int64(20), *inst.CurrentApproverID)
	assert.Equal(t, entity.ActionSubmit, h.Action)
	assert.Equal(t, "manager", h.ToNode)

	_, _, err = Start(&entity.ApprovalProcess{IsActive: true}, 10, now)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestApply_AprobacionCompleta(t *testing.T) {
	inst, _, err := Start(process(), 10, now)
	require.NoError(t, err)

	h, err := Apply(inst, Input{Action: entity.ActionApprove, ActorID: 20, Now: now})
	require.NoError(t, err)
	assert.Equal(t, "manager", h.FromNode)
	assert.Equal(t, "director", h.ToNode)
	assert.Equal(t, entity.InstancePending, inst.Status)

	h, err = Apply(inst, Input{Action: entity.ActionApprove, ActorID: 30, Now: now})
	require.NoError(t, err)
	assert.Equal(t, "director", h.FromNode)
	assert.Empty(t, h.ToNode)
	assert.Equal(t, entity.InstanceApproved, inst.Status)
	assert.Nil(t, inst.CurrentApproverID)
	require.NotNil(t, inst.CompletedAt)

	_, err = Apply(inst, Input{Action: entity.ActionApprove, ActorID: 30})
	assert.ErrorIs(t, err, domain.ErrBusinessLogic)
}

func TestApply_AprobadorIncorrecto(t *testing.T) {
	inst, _, _ := Start(process(), 10, now)
	_, err := Apply(inst, Input{Action: entity.ActionApprove, ActorID: 99})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = Apply(inst, Input{Action: entity.ActionApprove, ActorID: 99, IsAdmin: true})
	assert.NoError(t, err)
}

func TestApply_RechazoYCancelacion(t *testing.T) {
	inst, _, _ := Start(process(), 10, now)
	_, err := Apply(inst, Input{Action: entity.ActionReject, ActorID: 20, Comment: "no"})
	require.NoError(t, err)
	assert.Equal(t, entity.InstanceRejected, inst.Status)

	inst2, _, _ := Start(process(), 10, now)
	_, err = Apply(inst2, Input{Action: entity.ActionCancel, ActorID: 20})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = Apply(inst2, Input{Action: entity.ActionWithdraw, ActorID: 10})
	require.NoError(t, err)
	assert.Equal(t, entity.InstanceCancelled, inst2.Status)
}

func TestApply_Transferencia(t *testing.T) {
	inst, _, _ := Start(process(), 10, now)
	_, err := Apply(inst, Input{Action: entity.ActionTransfer, ActorID: 20})
	assert.ErrorIs(t, err, domain.ErrValidation)

	to := int64(21)
	h, err := Apply(inst, Input{Action: entity.ActionTransfer, ActorID: 20, TransferTo: &to})
	require.NoError(t, err)
	assert.Equal(t, "manager", h.ToNode)
	assert.Equal(t, int64(21), *inst.CurrentApproverID)
	assert.Equal(t, int64(21), inst.Nodes[0].ApproverID)
	assert.Equal(t, int64(20), process().Nodes[0].ApproverID)

	_, err = Apply(inst, Input{Action: entity.ActionApprove, ActorID: 21})
	assert.NoError(t, err)
}
