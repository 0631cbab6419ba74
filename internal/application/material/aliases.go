package material

import (
	"context"
	"errors"
	"strings"

	"github.com/riveredge/platform-kernel/internal/application/codegen"
	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

// AddAlias registra un código alterno. La unicidad es por (tipo, código, entidad
// externa): el mismo código de cliente puede mapear materiales distintos para
// clientes distintos. Si la clave ya apunta al mismo material la operación es
// idempotente; si apunta a otro, se rechaza.
func (uc *MaterialUseCase) AddAlias(ctx context.Context, tenantID, materialID int64, in dto.CreateAliasRequest) (*entity.MaterialCodeAlias, error) {
	var out *entity.MaterialCodeAlias
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		if _, err := uc.get(ctx, s, tenantID, materialID); err != nil {
			return err
		}
		a, err := uc.addAlias(ctx, s, tenantID, materialID, in)
		out = a
		return err
	})
	return out, err
}

func (uc *MaterialUseCase) addAlias(ctx context.Context, s repository.Store, tenantID, materialID int64, in dto.CreateAliasRequest) (*entity.MaterialCodeAlias, error) {
	codeType := strings.ToUpper(strings.TrimSpace(in.CodeType))
	code := strings.TrimSpace(in.Code)
	if codeType == "" {
		return nil, domain.Validation("编码类型不能为空")
	}
	rule, err := s.CodeRules().GetAliasByType(ctx, tenantID, codeType)
	if err != nil {
		return nil, err
	}
	if err := codegen.ValidateAliasCode(rule, code); err != nil {
		return nil, err
	}
	a := &entity.MaterialCodeAlias{
		TenantID:           tenantID,
		MaterialID:         materialID,
		CodeType:           codeType,
		Code:               code,
		ExternalEntityType: strings.TrimSpace(in.ExternalEntityType),
		ExternalEntityID:   in.ExternalEntityID,
		Department:         in.Department,
		Description:        in.Description,
		IsPrimary:          in.IsPrimary,
	}
	existing, err := s.MaterialAliases().GetByCode(ctx, a.Key())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.MaterialID == materialID {
			return existing, nil
		}
		return nil, domain.Validation("编码 %s(%s) 已被其他物料使用", code, codeType)
	}
	if in.IsPrimary {
		if err := s.MaterialAliases().ClearPrimary(ctx, tenantID, materialID, codeType); err != nil {
			return nil, err
		}
	}
	if err := s.MaterialAliases().Create(ctx, a); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.Validation("编码 %s(%s) 已存在", code, codeType)
		}
		return nil, err
	}
	return a, nil
}

// ListAliases códigos alternos del material.
func (uc *MaterialUseCase) ListAliases(ctx context.Context, tenantID, materialID int64) ([]*entity.MaterialCodeAlias, error) {
	if _, err := uc.get(ctx, uc.store, tenantID, materialID); err != nil {
		return nil, err
	}
	return uc.store.MaterialAliases().ListByMaterial(ctx, tenantID, materialID)
}

// DeleteAlias baja lógica de un código alterno del material.
func (uc *MaterialUseCase) DeleteAlias(ctx context.Context, tenantID, materialID, aliasID int64) error {
	aliases, err := uc.ListAliases(ctx, tenantID, materialID)
	if err != nil {
		return err
	}
	for _, a := range aliases {
		if a.ID == aliasID {
			return uc.store.MaterialAliases().SoftDelete(ctx, tenantID, aliasID)
		}
	}
	return domain.NotFound("物料编码映射", aliasID)
}
