package material

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

// Estados de aprobación de líneas de BOM.
const (
	BOMDraft    = "draft"
	BOMApproved = "approved"
)

// AddBOMLine agrega un componente. Rechaza auto-referencias y ciclos.
func (uc *MaterialUseCase) AddBOMLine(ctx context.Context, tenantID, materialID int64, in dto.AddBOMLineRequest) (*entity.BOMLine, error) {
	if in.ComponentID == materialID {
		return nil, domain.Validation("物料不能作为自身的子件")
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.Validation("用量必须大于0")
	}
	if in.WasteRate.IsNegative() || in.WasteRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, domain.Validation("损耗率必须在 0 到 1 之间")
	}
	var out *entity.BOMLine
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		parent, err := uc.get(ctx, s, tenantID, materialID)
		if err != nil {
			return err
		}
		if _, err := uc.get(ctx, s, tenantID, in.ComponentID); err != nil {
			return err
		}
		cyclic, err := reaches(ctx, s, tenantID, in.ComponentID, materialID, map[int64]bool{})
		if err != nil {
			return err
		}
		if cyclic {
			return domain.Validation("BOM 存在循环引用")
		}
		l := &entity.BOMLine{
			TenantID:       tenantID,
			MaterialID:     materialID,
			ComponentID:    in.ComponentID,
			Quantity:       in.Quantity,
			WasteRate:      in.WasteRate,
			IsAlternative:  in.IsAlternative,
			ApprovalStatus: BOMDraft,
			Version:        strings.TrimSpace(in.Version),
			BOMCode:        strings.TrimSpace(in.BOMCode),
		}
		if l.Version == "" {
			l.Version = "1.0"
		}
		if l.BOMCode == "" {
			l.BOMCode = parent.MainCode + "-BOM"
		}
		if err := s.BOMs().Create(ctx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	return out, err
}

// reaches indica si target es alcanzable desde from siguiendo líneas de BOM.
func reaches(ctx context.Context, s repository.Store, tenantID, from, target int64, seen map[int64]bool) (bool, error) {
	if from == target {
		return true, nil
	}
	if seen[from] {
		return false, nil
	}
	seen[from] = true
	lines, err := s.BOMs().ListByMaterial(ctx, tenantID, from)
	if err != nil {
		return false, err
	}
	for _, l := range lines {
		ok, err := reaches(ctx, s, tenantID, l.ComponentID, target, seen)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// ListBOM líneas de BOM del material.
func (uc *MaterialUseCase) ListBOM(ctx context.Context, tenantID, materialID int64) ([]*entity.BOMLine, error) {
	if _, err := uc.get(ctx, uc.store, tenantID, materialID); err != nil {
		return nil, err
	}
	lines, err := uc.store.BOMs().ListByMaterial(ctx, tenantID, materialID)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []*entity.BOMLine{}
	}
	return lines, nil
}

// ApproveBOM aprueba las líneas en borrador del material.
func (uc *MaterialUseCase) ApproveBOM(ctx context.Context, tenantID, materialID int64) (int, error) {
	if _, err := uc.get(ctx, uc.store, tenantID, materialID); err != nil {
		return 0, err
	}
	n, err := uc.store.BOMs().SetStatus(ctx, tenantID, materialID, BOMDraft, BOMApproved)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, domain.Business("没有待审核的BOM行")
	}
	return n, nil
}
