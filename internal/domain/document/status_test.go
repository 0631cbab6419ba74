package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

func order(status string) *entity.Document {
	return &entity.Document{DocType: TypeSalesOrder, Code: "SO1", Status: status}
}

func TestApply_FlujoCompletoDePedido(t *testing.T) {
	d := order(StatusDraft)
	require.NoError(t, Apply(d, ActionSubmit))
	assert.Equal(t, StatusSubmitted, d.Status)
	assert.Equal(t, entity.ReviewPending, d.ReviewStatus)

	require.NoError(t, Apply(d, ActionApprove))
	assert.Equal(t, StatusReviewed, d.Status)
	assert.Equal(t, entity.ReviewApproved, d.ReviewStatus)
	assert.False(t, CanPush(d), "aprobado sin confirmar no admite push")

	require.NoError(t, Apply(d, ActionConfirm))
	assert.Equal(t, StatusInProgress, d.Status)
	assert.True(t, d.Confirmed)
	assert.True(t, CanPush(d))
}

func TestCanPush_RequiereConfirmado(t *testing.T) {
	d := order(StatusReviewed)
	assert.False(t, CanPush(d))
	d.Confirmed = true
	assert.True(t, CanPush(d))

	closed := order(StatusClosed)
	closed.Confirmed = true
	assert.False(t, CanPush(closed))
}

func TestApply_SubmitConRevisionExistente(t *testing.T) {
	d := order(StatusDraft)
	d.ReviewStatus = entity.ReviewRejected
	err := Apply(d, ActionSubmit)
	assert.ErrorIs(t, err, domain.ErrBusinessLogic)
	assert.Equal(t, StatusDraft, d.Status)
}

func TestApply_DeleteSoloEnBorrador(t *testing.T) {
	assert.NoError(t, Apply(order(StatusDraft), ActionDelete))
	assert.ErrorIs(t, Apply(order(StatusReviewed), ActionDelete), domain.ErrBusinessLogic)
}

func TestApply_UnapproveYWithdraw(t *testing.T) {
	d := order(StatusRejected)
	require.NoError(t, Apply(d, ActionUnapprove))
	assert.Equal(t, StatusPendingReview, d.Status)
	require.NoError(t, Apply(d, ActionWithdraw))
	assert.Equal(t, StatusDraft, d.Status)
	assert.Empty(t, d.ReviewStatus)
}

func TestApply_CancelApprovalRequierePendiente(t *testing.T) {
	d := order(StatusDraft)
	require.NoError(t, Apply(d, ActionSubmitApproval))
	assert.Equal(t, StatusPendingApprove, d.Status)
	require.NoError(t, Apply(d, ActionCancelApproval))
	assert.Equal(t, StatusClosed, d.Status)
	assert.Equal(t, entity.ApprovalCancelled, d.ApprovalStatus)

	d2 := order(StatusPendingApprove)
	d2.ApprovalStatus = entity.ApprovalApproved
	assert.ErrorIs(t, Apply(d2, ActionCancelApproval), domain.ErrBusinessLogic)
}

func TestApply_AccionNoAplicaAlTipo(t *testing.T) {
	d := &entity.Document{DocType: TypeSalesDelivery, Status: StatusPendingOut}
	assert.ErrorIs(t, Apply(d, ActionSubmit), domain.ErrBusinessLogic)
	require.NoError(t, Apply(d, ActionShip))
	assert.Equal(t, StatusShipped, d.Status)

	assert.ErrorIs(t, Apply(d, "fly"), domain.ErrValidation)
	_, err := Lookup("unknown")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAllowed(t *testing.T) {
	assert.ElementsMatch(t, []string{ActionSubmit, ActionSubmitApproval, ActionDelete}, Allowed(order(StatusDraft)))
	assert.Equal(t, []string{ActionReceive}, Allowed(&entity.Document{DocType: TypeOtherReceipt, Status: StatusPendingIn}))
}
