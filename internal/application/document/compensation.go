package document

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/document"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

// Prefijos de los documentos de compensación; la fecha y la secuencia se añaden al numerar.
const (
	CompensationInPrefix  = "COMP-INV"
	CompensationOutPrefix = "COMP-OUT"
	compensationRemark    = "动态补偿"
)

type stockKey struct {
	materialID  int64
	warehouseID int64
}

// Compensate genera documentos de ajuste para los movimientos registrados entre la
// instantánea de inventario y la fecha de arranque. El neto positivo por
// (material, almacén) produce un other_receipt y el negativo un other_delivery.
func (uc *DocumentUseCase) Compensate(ctx context.Context, tenantID, userID int64, in dto.CompensationRequest) (*dto.CompensationResult, error) {
	if in.SnapshotTime.IsZero() || in.LaunchDate.IsZero() {
		return nil, domain.Validation("snapshot_time 和 launch_date 不能为空")
	}
	if !in.LaunchDate.After(in.SnapshotTime) {
		return nil, domain.Validation("上线日期必须晚于快照时间")
	}
	res := &dto.CompensationResult{
		Inventory:           emptySection(),
		WIP:                 emptySection(),
		ReceivablesPayables: emptySection(),
		Documents:           []string{},
	}
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		net, err := netMovements(ctx, s, tenantID, in)
		if err != nil {
			return err
		}
		keys := make([]stockKey, 0, len(net))
		for k, q := range net {
			if !q.IsZero() {
				keys = append(keys, k)
			}
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].materialID != keys[j].materialID {
				return keys[i].materialID < keys[j].materialID
			}
			return keys[i].warehouseID < keys[j].warehouseID
		})
		for _, k := range keys {
			code, err := uc.compensateOne(ctx, s, tenantID, userID, k, net[k])
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					res.Inventory.FailureCount++
					res.Inventory.Errors = append(res.Inventory.Errors, map[string]any{
						"material_id":  k.materialID,
						"warehouse_id": k.warehouseID,
						"error":        err.Error(),
					})
					continue
				}
				return err
			}
			res.Inventory.SuccessCount++
			res.Documents = append(res.Documents, code)
		}
		return nil
	})
	if err != nil {
		uc.log.Error().Int64("tenant_id", tenantID).Err(err).Msg("compensación fallida")
		return nil, err
	}
	res.TotalCompensationCount = res.Inventory.SuccessCount + res.WIP.SuccessCount + res.ReceivablesPayables.SuccessCount
	uc.log.Info().Int64("tenant_id", tenantID).Int("documents", len(res.Documents)).
		Int("failures", res.Inventory.FailureCount).Msg("compensación completada")
	return res, nil
}

func emptySection() dto.CompensationSection {
	return dto.CompensationSection{Errors: []map[string]any{}}
}

// netMovements entradas menos salidas por (material, almacén) en [snapshot, launch).
func netMovements(ctx context.Context, s repository.Store, tenantID int64, in dto.CompensationRequest) (map[stockKey]decimal.Decimal, error) {
	net := map[stockKey]decimal.Decimal{}
	receipts, err := s.Documents().ListMovementLines(ctx, tenantID,
		[]string{document.TypePurchaseReceipt, document.TypeFinishedGoodsReceipt},
		document.StatusReceived, in.SnapshotTime, in.LaunchDate)
	if err != nil {
		return nil, err
	}
	for _, l := range receipts {
		k := stockKey{l.MaterialID, l.WarehouseID}
		net[k] = net[k].Add(l.Quantity)
	}
	deliveries, err := s.Documents().ListMovementLines(ctx, tenantID,
		[]string{document.TypeSalesDelivery}, document.StatusShipped, in.SnapshotTime, in.LaunchDate)
	if err != nil {
		return nil, err
	}
	for _, l := range deliveries {
		k := stockKey{l.MaterialID, l.WarehouseID}
		net[k] = net[k].Sub(l.Quantity)
	}
	return net, nil
}

func (uc *DocumentUseCase) compensateOne(ctx context.Context, s repository.Store, tenantID, userID int64, k stockKey, qty decimal.Decimal) (string, error) {
	m, err := s.Materials().GetByID(ctx, tenantID, k.materialID)
	if err != nil {
		return "", err
	}
	if m == nil {
		return "", domain.NotFound("物料", k.materialID)
	}
	docType, status, prefix := document.TypeOtherReceipt, document.StatusReceived, CompensationInPrefix
	if qty.IsNegative() {
		docType, status, prefix = document.TypeOtherDelivery, document.StatusShipped, CompensationOutPrefix
	}
	info, err := document.Lookup(docType)
	if err != nil {
		return "", err
	}
	var wh *int64
	if k.warehouseID != 0 {
		id := k.warehouseID
		wh = &id
	}
	code, err := uc.numbers.GenerateDocumentCode(ctx, s, tenantID, prefix, prefix, func(code string) (bool, error) {
		d, err := s.Documents().GetByCode(ctx, tenantID, docType, code)
		return d != nil, err
	})
	if err != nil {
		return "", err
	}
	d := &entity.Document{
		TenantID:     tenantID,
		DocType:      docType,
		Code:         code,
		Status:       status,
		ReviewStatus: entity.ReviewApproved,
		WarehouseID:  wh,
		BusinessDate: uc.now(),
		Remarks:      compensationRemark,
		Extra:        map[string]any{entity.ExtraCompensation: true},
		CreatedBy:    &userID,
		UpdatedBy:    &userID,
	}
	items := []*entity.DocumentItem{{
		LineNo:       1,
		MaterialID:   m.ID,
		MaterialCode: m.MainCode,
		MaterialName: m.Name,
		MaterialSpec: m.Specification,
		MaterialUnit: m.BaseUnit,
		Quantity:     qty.Abs(),
		WarehouseID:  wh,
		Remarks:      compensationRemark,
	}}
	if err := uc.insert(ctx, s, info, d, items, ""); err != nil {
		return "", err
	}
	return d.Code, nil
}
