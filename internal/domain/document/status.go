// Package document define los tipos de documento, sus estados y la tabla de
// transiciones permitidas.
package document

import (
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

// Tipos de documento.
const (
	TypeSalesOrder           = "sales_order"
	TypeSalesDelivery        = "sales_delivery"
	TypeSampleTrial          = "sample_trial"
	TypePurchaseReceipt      = "purchase_receipt"
	TypeFinishedGoodsReceipt = "finished_goods_receipt"
	TypeOtherReceipt         = "other_receipt"
	TypeOtherDelivery        = "other_delivery"
)

// Estados de negocio.
const (
	StatusDraft          = "草稿"
	StatusSubmitted      = "已提交"
	StatusPendingApprove = "待审批"
	StatusPendingReview  = "待审核"
	StatusReviewed       = "已审核"
	StatusRejected       = "已驳回"
	StatusConfirmed      = "已确认"
	StatusInProgress     = "进行中"
	StatusClosed         = "已关闭"
	StatusCompleted      = "已完成"
	StatusPendingOut     = "待出库"
	StatusShipped        = "已出库"
	StatusPendingIn      = "待入库"
	StatusReceived       = "已入库"
	StatusConverted      = "已转订单"
)

// Acciones de ciclo de vida.
const (
	ActionSubmit         = "submit"
	ActionSubmitApproval = "submit_approval"
	ActionApprove        = "approve"
	ActionReject         = "reject"
	ActionUnapprove      = "unapprove"
	ActionWithdraw       = "withdraw"
	ActionCancelApproval = "cancel_approval"
	ActionConfirm        = "confirm"
	ActionClose          = "close"
	ActionDelete         = "delete"
	ActionShip           = "ship"
	ActionReceive        = "receive"
)

// Kind familia de documento: pedidos con revisión o movimientos de almacén.
type Kind int

const (
	KindOrder Kind = iota
	KindOutbound
	KindInbound
)

// TypeInfo metadatos de un tipo de documento.
type TypeInfo struct {
	Code          string
	Name          string
	Kind          Kind
	Prefix        string
	InitialStatus string
}

var types = map[string]TypeInfo{
	TypeSalesOrder:           {TypeSalesOrder, "销售订单", KindOrder, "SO", StatusDraft},
	TypeSampleTrial:          {TypeSampleTrial, "样品试用", KindOrder, "ST", StatusDraft},
	TypeSalesDelivery:        {TypeSalesDelivery, "销售出库单", KindOutbound, "SD", StatusPendingOut},
	TypeOtherDelivery:        {TypeOtherDelivery, "其他出库单", KindOutbound, "OD", StatusPendingOut},
	TypePurchaseReceipt:      {TypePurchaseReceipt, "采购入库单", KindInbound, "PR", StatusPendingIn},
	TypeFinishedGoodsReceipt: {TypeFinishedGoodsReceipt, "成品入库单", KindInbound, "FG", StatusPendingIn},
	TypeOtherReceipt:         {TypeOtherReceipt, "其他入库单", KindInbound, "OR", StatusPendingIn},
}

// Lookup devuelve la info del tipo o ValidationError si no existe.
func Lookup(docType string) (TypeInfo, error) {
	info, ok := types[docType]
	if !ok {
		return TypeInfo{}, domain.Validation("不支持的单据类型 %s", docType)
	}
	return info, nil
}

// Types devuelve todos los tipos registrados.
func Types() []TypeInfo {
	out := make([]TypeInfo, 0, len(types))
	for _, t := range []string{TypeSalesOrder, TypeSampleTrial, TypeSalesDelivery, TypeOtherDelivery,
		TypePurchaseReceipt, TypeFinishedGoodsReceipt, TypeOtherReceipt} {
		out = append(out, types[t])
	}
	return out
}

type transition struct {
	kinds []Kind
	from  []string
	to    string
}

var table = map[string]transition{
	ActionSubmit:         {[]Kind{KindOrder}, []string{StatusDraft}, StatusSubmitted},
	ActionSubmitApproval: {[]Kind{KindOrder}, []string{StatusDraft, StatusSubmitted}, StatusPendingApprove},
	ActionApprove:        {[]Kind{KindOrder}, []string{StatusSubmitted, StatusPendingReview, StatusPendingApprove}, StatusReviewed},
	ActionReject:         {[]Kind{KindOrder}, []string{StatusSubmitted, StatusPendingReview, StatusPendingApprove}, StatusRejected},
	ActionUnapprove:      {[]Kind{KindOrder}, []string{StatusReviewed, StatusRejected}, StatusPendingReview},
	ActionWithdraw:       {[]Kind{KindOrder}, []string{StatusPendingReview, StatusPendingApprove}, StatusDraft},
	ActionCancelApproval: {[]Kind{KindOrder}, []string{StatusPendingApprove}, StatusClosed},
	ActionConfirm:        {[]Kind{KindOrder}, []string{StatusReviewed}, StatusInProgress},
	ActionClose:          {[]Kind{KindOrder}, []string{StatusReviewed, StatusConfirmed, StatusInProgress}, StatusClosed},
	ActionDelete:         {[]Kind{KindOrder, KindOutbound, KindInbound}, []string{StatusDraft}, ""},
	ActionShip:           {[]Kind{KindOutbound}, []string{StatusPendingOut}, StatusShipped},
	ActionReceive:        {[]Kind{KindInbound}, []string{StatusPendingIn}, StatusReceived},
}

// Apply valida la acción contra el estado actual y actualiza status, review_status
// y confirmed. delete no cambia el estado: sólo valida.
func Apply(doc *entity.Document, action string) error {
	info, err := Lookup(doc.DocType)
	if err != nil {
		return err
	}
	tr, ok := table[action]
	if !ok {
		return domain.Validation("不支持的操作 %s", action)
	}
	if !containsKind(tr.kinds, info.Kind) {
		return domain.Business("%s 不支持操作 %s", info.Name, action)
	}
	if !contains(tr.from, doc.Status) {
		return domain.Business("%s %s 当前状态为 %s，不能执行 %s", info.Name, doc.Code, doc.Status, action)
	}
	switch action {
	case ActionSubmit:
		if doc.ReviewStatus != "" {
			return domain.Business("单据 %s 已进入审核流程，不能重复提交", doc.Code)
		}
		doc.ReviewStatus = entity.ReviewPending
	case ActionSubmitApproval:
		doc.ApprovalStatus = entity.ApprovalPending
		doc.ReviewStatus = entity.ReviewPending
	case ActionApprove:
		doc.ReviewStatus = entity.ReviewApproved
		if doc.ApprovalStatus == entity.ApprovalPending {
			doc.ApprovalStatus = entity.ApprovalApproved
		}
	case ActionReject:
		doc.ReviewStatus = entity.ReviewRejected
		if doc.ApprovalStatus == entity.ApprovalPending {
			doc.ApprovalStatus = entity.ApprovalRejected
		}
	case ActionUnapprove:
		doc.ReviewStatus = entity.ReviewPending
		doc.Confirmed = false
	case ActionWithdraw:
		doc.ReviewStatus = ""
		if doc.ApprovalStatus == entity.ApprovalPending {
			doc.ApprovalStatus = entity.ApprovalCancelled
		}
	case ActionCancelApproval:
		if doc.ApprovalStatus != entity.ApprovalPending {
			return domain.Business("审批已结束，不能取消")
		}
		doc.ApprovalStatus = entity.ApprovalCancelled
	case ActionConfirm:
		doc.Confirmed = true
	}
	if tr.to != "" {
		doc.Status = tr.to
	}
	return nil
}

// CanPush indica si el documento admite generar documentos aguas abajo: sólo
// tras confirm (confirmed=true) y mientras siga abierto.
func CanPush(doc *entity.Document) bool {
	if !doc.Confirmed {
		return false
	}
	switch doc.Status {
	case StatusReviewed, StatusConfirmed, StatusInProgress:
		return true
	}
	return false
}

// Allowed lista las acciones válidas para el documento en su estado actual.
func Allowed(doc *entity.Document) []string {
	info, err := Lookup(doc.DocType)
	if err != nil {
		return nil
	}
	var out []string
	for _, a := range []string{ActionSubmit, ActionSubmitApproval, ActionApprove, ActionReject,
		ActionUnapprove, ActionWithdraw, ActionCancelApproval, ActionConfirm, ActionClose,
		ActionDelete, ActionShip, ActionReceive} {
		tr := table[a]
		if containsKind(tr.kinds, info.Kind) && contains(tr.from, doc.Status) {
			out = append(out, a)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsKind(list []Kind, k Kind) bool {
	for _, v := range list {
		if v == k {
			return true
		}
	}
	return false
}
