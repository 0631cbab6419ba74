package document

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveredge/platform-kernel/internal/application/approval"
	"github.com/riveredge/platform-kernel/internal/application/apptest"
	"github.com/riveredge/platform-kernel/internal/application/codegen"
	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/document"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

const tenantID int64 = 11

var (
	owner    = Actor{UserID: 1}
	reviewer = Actor{UserID: 10}
)

type fixture struct {
	uc        *DocumentUseCase
	approvals *approval.ApprovalUseCase
	store     *apptest.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := apptest.NewStore()
	tx := apptest.NewTxRunner(store)
	codes := codegen.NewCodeRuleUseCase(store, tx, time.UTC, nil)
	approvals := approval.NewApprovalUseCase(store, tx, nil, nil)
	uc := NewDocumentUseCase(Deps{Store: store, Tx: tx, Numbers: codes, Approvals: approvals})
	for _, bt := range ApprovalTypes() {
		approvals.RegisterListener(bt, uc)
	}
	return fixture{uc: uc, approvals: approvals, store: store}
}

func (f fixture) material(t *testing.T, code string) *entity.Material {
	t.Helper()
	m := &entity.Material{TenantID: tenantID, MainCode: code, Name: "物料" + code, Specification: "10x20", BaseUnit: "件"}
	require.NoError(t, f.store.Materials().Create(context.Background(), m))
	return m
}

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func (f fixture) create(t *testing.T, docType string, lines ...dto.DocumentItemRequest) *dto.DocumentDetail {
	t.Helper()
	uid := owner.UserID
	d, err := f.uc.Create(context.Background(), tenantID, &uid, docType, dto.CreateDocumentRequest{PartyName: "客户A", Items: lines})
	require.NoError(t, err)
	return d
}

func (f fixture) act(t *testing.T, actor Actor, d *entity.Document, action string) *dto.DocumentDetail {
	t.Helper()
	out, err := f.uc.Action(context.Background(), tenantID, actor, d.DocType, d.ID, dto.DocumentActionRequest{Action: action})
	require.NoError(t, err)
	return out
}

// reviewedOrder pedido aprobado sin flujo de aprobación, todavía sin confirmar.
func (f fixture) reviewedOrder(t *testing.T, m *entity.Material, q int64) *entity.Document {
	t.Helper()
	d := f.create(t, document.TypeSalesOrder, dto.DocumentItemRequest{MaterialID: m.ID, Quantity: qty(q), UnitPrice: qty(3)})
	f.act(t, owner, d.Document, document.ActionSubmit)
	out := f.act(t, reviewer, d.Document, document.ActionApprove)
	return out.Document
}

func TestCreate_NumeraYCopiaMaterial(t *testing.T) {
	f := newFixture(t)
	m := f.material(t, "MAT-RAW-0001")

	d := f.create(t, document.TypeSalesOrder, dto.DocumentItemRequest{MaterialID: m.ID, Quantity: qty(5)})

	assert.Regexp(t, `^SO\d{8}0001$`, d.Code)
	assert.Equal(t, document.StatusDraft, d.Status)
	assert.Contains(t, d.AllowedActions, document.ActionSubmit)
	require.Len(t, d.Items, 1)
	assert.Equal(t, "MAT-RAW-0001", d.Items[0].MaterialCode)
	assert.Equal(t, "件", d.Items[0].MaterialUnit)
	assert.Equal(t, 1, d.Items[0].LineNo)

	second := f.create(t, document.TypeSalesOrder, dto.DocumentItemRequest{MaterialID: m.ID, Quantity: qty(1)})
	assert.Regexp(t, `^SO\d{8}0002$`, second.Code)

	delivery := f.create(t, document.TypeSalesDelivery, dto.DocumentItemRequest{MaterialID: m.ID, Quantity: qty(1)})
	assert.Equal(t, document.StatusPendingOut, delivery.Status)
	assert.Regexp(t, `^SD\d{8}0001$`, delivery.Code)
}

func TestCreate_Validaciones(t *testing.T) {
	f := newFixture(t)
	m := f.material(t, "M1")
	ctx := context.Background()

	_, err := f.uc.Create(ctx, tenantID, nil, "purchase_order", dto.CreateDocumentRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.Create(ctx, tenantID, nil, document.TypeSalesOrder, dto.CreateDocumentRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.Create(ctx, tenantID, nil, document.TypeSalesOrder, dto.CreateDocumentRequest{
		Items: []dto.DocumentItemRequest{{MaterialID: m.ID, Quantity: qty(0)}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.Create(ctx, tenantID, nil, document.TypeSalesOrder, dto.CreateDocumentRequest{
		Items: []dto.DocumentItemRequest{{MaterialID: 999, Quantity: qty(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.Create(ctx, tenantID, nil, document.TypeSalesOrder, dto.CreateDocumentRequest{
		Code: "SO-X", Items: []dto.DocumentItemRequest{{MaterialID: m.ID, Quantity: qty(1)}},
	})
	require.NoError(t, err)
	_, err = f.uc.Create(ctx, tenantID, nil, document.TypeSalesOrder, dto.CreateDocumentRequest{
		Code: "SO-X", Items: []dto.DocumentItemRequest{{MaterialID: m.ID, Quantity: qty(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAction_TransicionesYBorrado(t *testing.T) {
	f := newFixture(t)
	m := f.material(t, "M1")
	ctx := context.Background()
	d := f.create(t, document.TypeSalesOrder, dto.DocumentItemRequest{MaterialID: m.ID, Quantity: qty(2)})

	_, err := f.uc.Action(ctx, tenantID, owner, d.DocType, d.ID, dto.DocumentActionRequest{Action: document.ActionConfirm})
	assert.ErrorIs(t, err, domain.ErrBusinessLogic)

	sub := f.act(t, owner, d.Document, document.ActionSubmit)
	assert.Equal(t, document.StatusSubmitted, sub.Status)
	assert.Equal(t, entity.ReviewPending, sub.ReviewStatus)

	_, err = f.uc.Update(ctx, tenantID, nil, d.DocType, d.ID, dto.UpdateDocumentRequest{})
	assert.ErrorIs(t, err, domain.ErrBusinessLogic)

	_, err = f.uc.Action(ctx, tenantID, owner, d.DocType, d.ID, dto.DocumentActionRequest{Action: document.ActionDelete})
	assert.ErrorIs(t, err, domain.ErrBusinessLogic)

	ok := f.act(t, reviewer, d.Document, document.ActionApprove)
	assert.Equal(t, document.StatusReviewed, ok.Status)
	require.NotNil(t, ok.ReviewedBy)
	assert.Equal(t, reviewer.UserID, *ok.ReviewedBy)

	back := f.act(t, reviewer, d.Document, document.ActionUnapprove)
	assert.Equal(t, document.StatusPendingReview, back.Status)

	draft := f.create(t, document.TypeSalesOrder, dto.DocumentItemRequest{MaterialID: m.ID, Quantity: qty(1)})
	f.act(t, owner, draft.Document, document.ActionDelete)
	_, err = f.uc.Get(ctx, tenantID, draft.DocType, draft.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_TipoIncorrectoEsNotFound(t *testing.T) {
	f := newFixture(t)
	m := f.material(t, "M1")
	d := f.create(t, document.TypeSalesOrder, dto.DocumentItemRequest{MaterialID: m.ID, Quantity: qty(2)})

	_, err := f.uc.Get(context.Background(), tenantID, document.TypeSalesDelivery, d.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.uc.Get(context.Background(), tenantID+1, document.TypeSalesOrder, d.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPush_PedidoAEntrega(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.material(t, "M10")
	so := f.reviewedOrder(t, m, 5)
	f.act(t, owner, so, document.ActionConfirm)

	res, err := f.uc.Push(ctx, tenantID, owner.UserID, so.DocType, so.ID, document.TypeSalesDelivery, dto.PushRequest{})
	require.NoError(t, err)

	assert.Equal(t, document.StatusPendingOut, res.Target.Status)
	require.Len(t, res.Target.Items, 1)
	assert.True(t, res.Target.Items[0].Quantity.Equal(qty(5)))
	assert.Equal(t, m.ID, res.Target.Items[0].MaterialID)
	assert.Equal(t, so.Code, res.Target.Extra[entity.ExtraSalesOrderCode])
	assert.Equal(t, entity.RelationSource, res.Relation.RelationType)
	assert.Equal(t, entity.RelationModePush, res.Relation.RelationMode)

	rels, err := f.uc.Relations(ctx, tenantID, so.DocType, so.ID)
	require.NoError(t, err)
	assert.Len(t, rels.Downstream, 1)
	assert.Empty(t, rels.Upstream)
	up, err := f.uc.Relations(ctx, tenantID, res.Target.DocType, res.Target.ID)
	require.NoError(t, err)
	require.Len(t, up.Upstream, 1)
	assert.Equal(t, so.Code, up.Upstream[0].SourceCode)

	items, err := f.store.Documents().ListItems(ctx, tenantID, so.ID)
	require.NoError(t, err)
	assert.True(t, items[0].DoneQuantity.Equal(qty(5)))

	_, err = f.uc.Push(ctx, tenantID, owner.UserID, so.DocType, so.ID, document.TypeSalesDelivery, dto.PushRequest{})
	assert.ErrorIs(t, err, domain.ErrBusinessLogic)
}

func TestPush_ReglasDeCantidad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.material(t, "M10")
	so := f.reviewedOrder(t, m, 5)
	f.act(t, owner, so, document.ActionConfirm)
	items, err := f.store.Documents().ListItems(ctx, tenantID, so.ID)
	require.NoError(t, err)
	line := items[0].ID

	push := func(q map[int64]decimal.Decimal) (*dto.PushResult, error) {
		return f.uc.Push(ctx, tenantID, owner.UserID, so.DocType, so.ID, document.TypeSalesDelivery, dto.PushRequest{Quantities: q})
	}

	_, err = push(map[int64]decimal.Decimal{line: qty(6)})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = push(map[int64]decimal.Decimal{line: qty(0)})
	assert.ErrorIs(t, err, domain.ErrBusinessLogic)
	_, err = push(map[int64]decimal.Decimal{line + 100: qty(1)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	first, err := push(map[int64]decimal.Decimal{line: qty(2)})
	require.NoError(t, err)
	assert.True(t, first.Target.Items[0].Quantity.Equal(qty(2)))

	// 1:1 solo cuenta destinos vivos
	require.NoError(t, f.store.Documents().SoftDelete(ctx, tenantID, first.Target.ID))
	second, err := push(nil)
	require.NoError(t, err)
	assert.True(t, second.Target.Items[0].Quantity.Equal(qty(3)))

	_, err = f.uc.Push(ctx, tenantID, owner.UserID, so.DocType, so.ID, document.TypeOtherDelivery, dto.PushRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// relationFailStore rechaza el alta de relaciones para forzar un fallo a mitad del push.
type relationFailStore struct{ *apptest.Store }

type failingRelations struct{ repository.RelationRepository }

func (failingRelations) Create(context.Context, *entity.DocumentRelation) error {
	return errors.New("relación rechazada")
}

func (s relationFailStore) Relations() repository.RelationRepository {
	return failingRelations{s.Store.Relations()}
}

type storeTx struct {
	inner *apptest.TxRunner
	s     repository.Store
}

func (w storeTx) Run(ctx context.Context, fn func(repository.Store) error) error {
	return w.inner.Run(ctx, func(repository.Store) error { return fn(w.s) })
}

func TestPush_FalloDeRelacionNoPersisteNada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.material(t, "M10")
	so := f.reviewedOrder(t, m, 5)
	f.act(t, owner, so, document.ActionConfirm)

	faulty := relationFailStore{f.store}
	tx := storeTx{inner: apptest.NewTxRunner(f.store), s: faulty}
	uc := NewDocumentUseCase(Deps{Store: faulty, Tx: tx, Numbers: codegen.NewCodeRuleUseCase(faulty, tx, time.UTC, nil)})

	_, err := uc.Push(ctx, tenantID, owner.UserID, so.DocType, so.ID, document.TypeSalesDelivery, dto.PushRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relación rechazada")

	deliveries, total, err := f.store.Documents().List(ctx, tenantID, repository.DocumentFilter{DocType: document.TypeSalesDelivery})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, deliveries)
	rels, err := f.store.Relations().ListBySource(ctx, tenantID, so.DocType, so.ID)
	require.NoError(t, err)
	assert.Empty(t, rels)
	items, err := f.store.Documents().ListItems(ctx, tenantID, so.ID)
	require.NoError(t, err)
	assert.True(t, items[0].DoneQuantity.IsZero())

	// tras el rollback el push normal sigue disponible
	res, err := f.uc.Push(ctx, tenantID, owner.UserID, so.DocType, so.ID, document.TypeSalesDelivery, dto.PushRequest{})
	require.NoError(t, err)
	assert.Regexp(t, `^SD\d{8}0001$`, res.Target.Code)
}

func TestPush_RequiereEstadoAprobado(t *testing.T) {
	f := newFixture(t)
	m := f.material(t, "M1")
	d := f.create(t, document.TypeSalesOrder, dto.DocumentItemRequest{MaterialID: m.ID, Quantity: qty(1)})

	_, err := f.uc.Push(context.Background(), tenantID, owner.UserID, d.DocType, d.ID, document.TypeSalesDelivery, dto.PushRequest{})
	assert.ErrorIs(t, err, domain.ErrBusinessLogic)

	// aprobado pero sin confirmar tampoco admite push
	reviewed := f.reviewedOrder(t, m, 1)
	_, err = f.uc.Push(context.Background(), tenantID, owner.UserID, reviewed.DocType, reviewed.ID, document.TypeSalesDelivery, dto.PushRequest{})
	assert.ErrorIs(t, err, domain.ErrBusinessLogic)
}

func TestPull_MuestraAPedido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.material(t, "M1")
	trial := f.create(t, document.TypeSampleTrial, dto.DocumentItemRequest{MaterialID: m.ID, Quantity: qty(4)})
	f.act(t, owner, trial.Document, document.ActionSubmit)
	f.act(t, reviewer, trial.Document, document.ActionApprove)
	f.act(t, owner, trial.Document, document.ActionConfirm)

	res, err := f.uc.Pull(ctx, tenantID, owner.UserID, document.TypeSalesOrder, document.TypeSampleTrial, trial.ID, dto.PushRequest{})
	require.NoError(t, err)

	assert.Equal(t, entity.RelationModePull, res.Relation.RelationMode)
	assert.Equal(t, document.StatusDraft, res.Target.Status)
	got, err := f.uc.Get(ctx, tenantID, document.TypeSampleTrial, trial.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusConverted, got.Status)
	assert.Equal(t, res.Target.Code, got.Extra[entity.ExtraSalesOrderCode])

	_, err = f.uc.Push(ctx, tenantID, owner.UserID, document.TypeSampleTrial, trial.ID, document.TypeSalesOrder, dto.PushRequest{})
	assert.ErrorIs(t, err, domain.ErrBusinessLogic)
}

func TestSubmitApproval_FlujoCompleto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.approvals.CreateProcess(ctx, tenantID, dto.CreateApprovalProcessRequest{
		Code: "SO", Name: "销售订单审批", BusinessType: document.TypeSalesOrder,
		Nodes: []entity.ApprovalNode{{Key: "mgr", Name: "经理", ApproverID: reviewer.UserID}},
	})
	require.NoError(t, err)
	m := f.material(t, "M1")
	d := f.create(t, document.TypeSalesOrder, dto.DocumentItemRequest{MaterialID: m.ID, Quantity: qty(1)})

	sub := f.act(t, owner, d.Document, document.ActionSubmitApproval)
	assert.Equal(t, document.StatusPendingApprove, sub.Status)
	assert.Equal(t, entity.ApprovalPending, sub.ApprovalStatus)
	require.NotNil(t, sub.ApprovalInstanceID)

	_, err = f.uc.Action(ctx, tenantID, Actor{UserID: 99}, d.DocType, d.ID, dto.DocumentActionRequest{Action: document.ActionApprove})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	done := f.act(t, reviewer, d.Document, document.ActionApprove)
	assert.Equal(t, document.StatusReviewed, done.Status)
	assert.Equal(t, entity.ApprovalApproved, done.ApprovalStatus)
	assert.Equal(t, entity.ReviewApproved, done.ReviewStatus)

	inst, err := f.approvals.GetInstance(ctx, tenantID, *sub.ApprovalInstanceID)
	require.NoError(t, err)
	assert.Equal(t, entity.InstanceApproved, inst.Status)
}

func TestSubmitApproval_RetirarYCancelar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.approvals.CreateProcess(ctx, tenantID, dto.CreateApprovalProcessRequest{
		Code: "SO", Name: "销售订单审批", BusinessType: document.TypeSalesOrder,
		Nodes: []entity.ApprovalNode{{Key: "mgr", Name: "经理", ApproverID: reviewer.UserID}},
	})
	require.NoError(t, err)
	m := f.material(t, "M1")

	a := f.create(t, document.TypeSalesOrder, dto.DocumentItemRequest{MaterialID: m.ID, Quantity: qty(1)})
	f.act(t, owner, a.Document, document.ActionSubmitApproval)
	back := f.act(t, owner, a.Document, document.ActionWithdraw)
	assert.Equal(t, document.StatusDraft, back.Status)
	assert.Equal(t, entity.ApprovalCancelled, back.ApprovalStatus)

	b := f.create(t, document.TypeSalesOrder, dto.DocumentItemRequest{MaterialID: m.ID, Quantity: qty(1)})
	f.act(t, owner, b.Document, document.ActionSubmitApproval)
	closed := f.act(t, owner, b.Document, document.ActionCancelApproval)
	assert.Equal(t, document.StatusClosed, closed.Status)
	assert.Equal(t, entity.ApprovalCancelled, closed.ApprovalStatus)

	_, err = f.uc.Action(ctx, tenantID, owner, b.DocType, b.ID, dto.DocumentActionRequest{Action: document.ActionCancelApproval})
	assert.ErrorIs(t, err, domain.ErrBusinessLogic)
}

func TestSubmitApproval_SinProceso(t *testing.T) {
	f := newFixture(t)
	m := f.material(t, "M1")
	d := f.create(t, document.TypeSalesOrder, dto.DocumentItemRequest{MaterialID: m.ID, Quantity: qty(1)})

	_, err := f.uc.Action(context.Background(), tenantID, owner, d.DocType, d.ID, dto.DocumentActionRequest{Action: document.ActionSubmitApproval})
	assert.ErrorIs(t, err, domain.ErrBusinessLogic)
}

func TestCompensate_NetoPorMaterialYAlmacen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	snapshot := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	launch := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	wh := int64(7)
	a, b, c := f.material(t, "A"), f.material(t, "B"), f.material(t, "C")

	stock := func(docType, action string, at time.Time, m *entity.Material, q int64) {
		t.Helper()
		d, err := f.uc.Create(ctx, tenantID, nil, docType, dto.CreateDocumentRequest{
			WarehouseID: &wh, BusinessDate: &at,
			Items: []dto.DocumentItemRequest{{MaterialID: m.ID, Quantity: qty(q)}},
		})
		require.NoError(t, err)
		f.act(t, owner, d.Document, action)
	}
	in := snapshot.Add(24 * time.Hour)
	stock(document.TypePurchaseReceipt, document.ActionReceive, in, a, 10)
	stock(document.TypeSalesDelivery, document.ActionShip, in, a, 4)
	stock(document.TypeSalesDelivery, document.ActionShip, in, b, 3)
	stock(document.TypeFinishedGoodsReceipt, document.ActionReceive, in, c, 2)
	stock(document.TypeSalesDelivery, document.ActionShip, in, c, 2)
	stock(document.TypePurchaseReceipt, document.ActionReceive, launch, a, 100)

	res, err := f.uc.Compensate(ctx, tenantID, owner.UserID, dto.CompensationRequest{SnapshotTime: snapshot, LaunchDate: launch})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Inventory.SuccessCount)
	assert.Equal(t, 0, res.Inventory.FailureCount)
	assert.Equal(t, 2, res.TotalCompensationCount)
	assert.Equal(t, 0, res.WIP.SuccessCount)
	require.Len(t, res.Documents, 2)
	assert.Regexp(t, `^COMP-INV\d{8}0001$`, res.Documents[0])
	assert.Regexp(t, `^COMP-OUT\d{8}0001$`, res.Documents[1])

	inv, err := f.store.Documents().GetByCode(ctx, tenantID, document.TypeOtherReceipt, res.Documents[0])
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, document.StatusReceived, inv.Status)
	invItems, err := f.store.Documents().ListItems(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	assert.True(t, invItems[0].Quantity.Equal(qty(6)))

	out, err := f.store.Documents().GetByCode(ctx, tenantID, document.TypeOtherDelivery, res.Documents[1])
	require.NoError(t, err)
	require.NotNil(t, out)
	outItems, err := f.store.Documents().ListItems(ctx, tenantID, out.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, outItems[0].MaterialID)
	assert.True(t, outItems[0].Quantity.Equal(qty(3)))
}

func TestCompensate_ValidaIntervalo(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := f.uc.Compensate(context.Background(), tenantID, 1, dto.CompensationRequest{SnapshotTime: now, LaunchDate: now})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
