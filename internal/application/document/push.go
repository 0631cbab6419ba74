package document

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/document"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

type pair struct{ from, to string }

// scenario regla de generación source→target.
type scenario struct {
	oneToOne bool
	desc     string
	// link ajusta origen y destino una vez creado el destino.
	link func(src, dst *entity.Document)
}

func (uc *DocumentUseCase) registerDefaults() {
	uc.scenarios[pair{document.TypeSalesOrder, document.TypeSalesDelivery}] = scenario{
		oneToOne: true,
		desc:     "销售订单下推销售出库",
		link: func(src, dst *entity.Document) {
			dst.SetExtra(entity.ExtraSalesOrderID, src.ID)
			dst.SetExtra(entity.ExtraSalesOrderCode, src.Code)
		},
	}
	uc.scenarios[pair{document.TypeSampleTrial, document.TypeSalesOrder}] = scenario{
		oneToOne: true,
		desc:     "样品试用转销售订单",
		link: func(src, dst *entity.Document) {
			src.Status = document.StatusConverted
			src.SetExtra(entity.ExtraSalesOrderID, dst.ID)
			src.SetExtra(entity.ExtraSalesOrderCode, dst.Code)
		},
	}
}

// Push genera un documento targetType a partir del documento origen.
func (uc *DocumentUseCase) Push(ctx context.Context, tenantID, userID int64, sourceType string, sourceID int64, targetType string, in dto.PushRequest) (*dto.PushResult, error) {
	return uc.generate(ctx, tenantID, userID, sourceType, sourceID, targetType, entity.RelationModePush, in)
}

// Pull igual que Push pero iniciado desde el tipo destino.
func (uc *DocumentUseCase) Pull(ctx context.Context, tenantID, userID int64, targetType, sourceType string, sourceID int64, in dto.PushRequest) (*dto.PushResult, error) {
	return uc.generate(ctx, tenantID, userID, sourceType, sourceID, targetType, entity.RelationModePull, in)
}

func (uc *DocumentUseCase) generate(ctx context.Context, tenantID, userID int64, sourceType string, sourceID int64, targetType, mode string, in dto.PushRequest) (*dto.PushResult, error) {
	sc, ok := uc.scenarios[pair{sourceType, targetType}]
	if !ok {
		return nil, domain.Validation("不支持从 %s 生成 %s", sourceType, targetType)
	}
	info, err := document.Lookup(targetType)
	if err != nil {
		return nil, err
	}
	var res *dto.PushResult
	err = uc.tx.Run(ctx, func(s repository.Store) error {
		src, err := uc.load(ctx, s, tenantID, sourceType, sourceID, true)
		if err != nil {
			return err
		}
		if !document.CanPush(src) {
			return domain.Business("单据 %s 当前状态为 %s，不能下推", src.Code, src.Status)
		}
		if sc.oneToOne {
			if err := ensureNoLiveTarget(ctx, s, src, targetType); err != nil {
				return err
			}
		}
		srcItems, err := s.Documents().ListItems(ctx, tenantID, src.ID)
		if err != nil {
			return err
		}
		items, touched, err := pushItems(srcItems, in.Quantities)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return domain.Business("单据 %s 没有可下推的数量", src.Code)
		}
		dst := &entity.Document{
			TenantID:     tenantID,
			DocType:      targetType,
			Status:       info.InitialStatus,
			PartyID:      src.PartyID,
			PartyName:    src.PartyName,
			WarehouseID:  src.WarehouseID,
			BusinessDate: uc.now(),
			Remarks:      in.Remarks,
			CreatedBy:    &userID,
			UpdatedBy:    &userID,
		}
		if err := uc.insert(ctx, s, info, dst, items, ""); err != nil {
			return err
		}
		for _, it := range touched {
			if err := s.Documents().UpdateItem(ctx, it); err != nil {
				return err
			}
		}
		rel := &entity.DocumentRelation{
			TenantID:     tenantID,
			SourceType:   src.DocType,
			SourceID:     src.ID,
			SourceCode:   src.Code,
			TargetType:   dst.DocType,
			TargetID:     dst.ID,
			TargetCode:   dst.Code,
			RelationType: entity.RelationSource,
			RelationMode: mode,
			RelationDesc: sc.desc,
			CreatedBy:    &userID,
		}
		if err := s.Relations().Create(ctx, rel); err != nil {
			return err
		}
		if sc.link != nil {
			sc.link(src, dst)
			if err := s.Documents().Update(ctx, dst); err != nil {
				return err
			}
		}
		src.UpdatedBy = &userID
		if err := s.Documents().Update(ctx, src); err != nil {
			return err
		}
		res = &dto.PushResult{Source: src, Target: dst, Relation: rel}
		return nil
	})
	if err != nil {
		uc.log.Warn().Int64("tenant_id", tenantID).Int64("source_id", sourceID).
			Str("source_type", sourceType).Str("target_type", targetType).Err(err).Msg("generación de documento fallida")
		return nil, err
	}
	uc.publish(res.Target, "created")
	uc.publish(res.Source, mode)
	return res, nil
}

// ensureNoLiveTarget falla si el origen ya generó un destino de ese tipo que siga vivo.
func ensureNoLiveTarget(ctx context.Context, s repository.Store, src *entity.Document, targetType string) error {
	rels, err := s.Relations().ListBySource(ctx, src.TenantID, src.DocType, src.ID)
	if err != nil {
		return err
	}
	for _, r := range rels {
		if r.TargetType != targetType {
			continue
		}
		t, err := s.Documents().GetByID(ctx, src.TenantID, r.TargetID)
		if err != nil {
			return err
		}
		if t != nil {
			return domain.Business("单据 %s 已生成 %s", src.Code, r.TargetCode)
		}
	}
	return nil
}

// pushItems calcula las líneas destino. Sin override se toma el pendiente; cantidades
// <= 0 se omiten y un override mayor que el pendiente es error.
func pushItems(src []*entity.DocumentItem, overrides map[int64]decimal.Decimal) (items, touched []*entity.DocumentItem, err error) {
	for id := range overrides {
		if !hasItem(src, id) {
			return nil, nil, domain.Validation("源单据不存在明细 %d", id)
		}
	}
	for _, it := range src {
		outstanding := it.Outstanding()
		qty := outstanding
		if q, ok := overrides[it.ID]; ok {
			qty = q
		}
		if !qty.IsPositive() {
			continue
		}
		if qty.GreaterThan(outstanding) {
			return nil, nil, domain.Validation("第 %d 行下推数量 %s 超过未完成数量 %s", it.LineNo, qty.String(), outstanding.String())
		}
		srcID := it.ID
		items = append(items, &entity.DocumentItem{
			LineNo:       len(items) + 1,
			MaterialID:   it.MaterialID,
			MaterialCode: it.MaterialCode,
			MaterialName: it.MaterialName,
			MaterialSpec: it.MaterialSpec,
			MaterialUnit: it.MaterialUnit,
			Quantity:     qty,
			UnitPrice:    it.UnitPrice,
			WarehouseID:  it.WarehouseID,
			SourceItemID: &srcID,
			Remarks:      it.Remarks,
		})
		it.DoneQuantity = it.DoneQuantity.Add(qty)
		touched = append(touched, it)
	}
	return items, touched, nil
}

func hasItem(items []*entity.DocumentItem, id int64) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}
