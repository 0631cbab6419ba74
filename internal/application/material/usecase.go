// Package material maestro de materiales: códigos principales y alternos, duplicados,
// fusión, tipo de origen y BOM.
package material

import (
	"context"
	"errors"
	"strings"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/ports"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
	"github.com/riveredge/platform-kernel/pkg/logger"
)

// CodeAllocator asigna códigos dentro de la transacción del llamador.
type CodeAllocator interface {
	GenerateIn(ctx context.Context, s repository.Store, tenantID int64, in dto.GenerateCodeRequest, exists func(code string) (bool, error)) (*dto.GeneratedCode, error)
}

// MaterialUseCase casos de uso del maestro de materiales.
type MaterialUseCase struct {
	store repository.Store
	tx    ports.TxRunner
	codes CodeAllocator
	log   *logger.Logger
}

// NewMaterialUseCase construye el caso de uso.
func NewMaterialUseCase(store repository.Store, tx ports.TxRunner, codes CodeAllocator, log *logger.Logger) *MaterialUseCase {
	return &MaterialUseCase{store: store, tx: tx, codes: codes, log: logger.OrNop(log).Component("material")}
}

// Create da de alta el material. Sin main_code se asigna con la regla activa
// (o MAT-{TYPE}-{NNNN}); los alias del request se crean en la misma transacción.
func (uc *MaterialUseCase) Create(ctx context.Context, tenantID int64, userID *int64, in dto.CreateMaterialRequest) (*dto.MaterialDetail, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.Validation("物料名称不能为空")
	}
	m := &entity.Material{
		TenantID:          tenantID,
		MainCode:          strings.TrimSpace(in.MainCode),
		Name:              strings.TrimSpace(in.Name),
		MaterialType:      entity.NormalizeMaterialType(in.MaterialType),
		Specification:     in.Specification,
		BaseUnit:          in.BaseUnit,
		Description:       in.Description,
		Brand:             in.Brand,
		Model:             in.Model,
		SourceType:        in.SourceType,
		SourceConfig:      in.SourceConfig,
		ProcessRouteID:    in.ProcessRouteID,
		VariantAttributes: in.VariantAttributes,
		IsActive:          true,
		CreatedBy:         userID,
	}
	if m.SourceType == "" {
		m.SourceType = defaultSourceType(m.MaterialType)
	}
	if _, err := DecodeSourceConfig(m.SourceType, m.SourceConfig); err != nil {
		return nil, err
	}

	var out *dto.MaterialDetail
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		exists := func(code string) (bool, error) {
			x, err := s.Materials().GetByMainCode(ctx, tenantID, code)
			return x != nil, err
		}
		if m.MainCode == "" {
			gen, err := uc.codes.GenerateIn(ctx, s, tenantID, dto.GenerateCodeRequest{MaterialType: m.MaterialType}, exists)
			if err != nil {
				return err
			}
			m.MainCode = gen.Code
		} else if taken, err := exists(m.MainCode); err != nil {
			return err
		} else if taken {
			return domain.Validation("物料编码 %s 已存在", m.MainCode)
		}
		if err := s.Materials().Create(ctx, m); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return domain.Validation("物料编码 %s 已存在", m.MainCode)
			}
			return err
		}
		aliases := make([]*entity.MaterialCodeAlias, 0, len(in.Aliases))
		for _, a := range in.Aliases {
			alias, err := uc.addAlias(ctx, s, tenantID, m.ID, a)
			if err != nil {
				return err
			}
			aliases = append(aliases, alias)
		}
		out = &dto.MaterialDetail{Material: m, Aliases: aliases}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("tenant_id", tenantID).Str("main_code", m.MainCode).Str("type", m.MaterialType).Msg("material creado")
	return out, nil
}

func (uc *MaterialUseCase) get(ctx context.Context, s repository.Store, tenantID, id int64) (*entity.Material, error) {
	m, err := s.Materials().GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.NotFound("物料", id)
	}
	return m, nil
}

func (uc *MaterialUseCase) detail(ctx context.Context, tenantID int64, m *entity.Material, matchedBy string) (*dto.MaterialDetail, error) {
	aliases, err := uc.store.MaterialAliases().ListByMaterial(ctx, tenantID, m.ID)
	if err != nil {
		return nil, err
	}
	if aliases == nil {
		aliases = []*entity.MaterialCodeAlias{}
	}
	return &dto.MaterialDetail{Material: m, Aliases: aliases, MatchedBy: matchedBy}, nil
}

// Get material por id con sus alias.
func (uc *MaterialUseCase) Get(ctx context.Context, tenantID, id int64) (*dto.MaterialDetail, error) {
	m, err := uc.get(ctx, uc.store, tenantID, id)
	if err != nil {
		return nil, err
	}
	return uc.detail(ctx, tenantID, m, "")
}

// GetByCode busca por código principal y, si no existe, por cualquier código alterno.
func (uc *MaterialUseCase) GetByCode(ctx context.Context, tenantID int64, code string) (*dto.MaterialDetail, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.Validation("编码不能为空")
	}
	m, err := uc.store.Materials().GetByMainCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	if m != nil {
		return uc.detail(ctx, tenantID, m, "main_code")
	}
	aliases, err := uc.store.MaterialAliases().FindByCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	for _, a := range aliases {
		m, err := uc.store.Materials().GetByID(ctx, tenantID, a.MaterialID)
		if err != nil {
			return nil, err
		}
		if m != nil {
			return uc.detail(ctx, tenantID, m, "alias:"+a.CodeType)
		}
	}
	return nil, domain.NotFound("物料", code)
}

// List materiales paginados; material_type se normaliza.
func (uc *MaterialUseCase) List(ctx context.Context, tenantID int64, in dto.MaterialListRequest) (dto.ListResponse[*entity.Material], error) {
	f := repository.MaterialFilter{ListFilter: in.Filter()}
	if in.MaterialType != "" {
		f.MaterialType = entity.NormalizeMaterialType(in.MaterialType)
	}
	items, total, err := uc.store.Materials().List(ctx, tenantID, f)
	if err != nil {
		return dto.ListResponse[*entity.Material]{}, err
	}
	return dto.NewListResponse(items, in.PageRequest, total), nil
}

// Update cambia los datos maestros.
func (uc *MaterialUseCase) Update(ctx context.Context, tenantID, id int64, in dto.UpdateMaterialRequest) (*entity.Material, error) {
	var out *entity.Material
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		m, err := uc.get(ctx, s, tenantID, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				return domain.Validation("物料名称不能为空")
			}
			m.Name = strings.TrimSpace(*in.Name)
		}
		setIf(&m.Specification, in.Specification)
		setIf(&m.BaseUnit, in.BaseUnit)
		setIf(&m.Description, in.Description)
		setIf(&m.Brand, in.Brand)
		setIf(&m.Model, in.Model)
		if in.ProcessRouteID != nil {
			m.ProcessRouteID = in.ProcessRouteID
		}
		if in.VariantAttributes != nil {
			m.VariantAttributes = in.VariantAttributes
		}
		if in.IsActive != nil {
			m.IsActive = *in.IsActive
		}
		if err := s.Materials().Update(ctx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

// Delete baja lógica.
func (uc *MaterialUseCase) Delete(ctx context.Context, tenantID, id int64) error {
	if _, err := uc.get(ctx, uc.store, tenantID, id); err != nil {
		return err
	}
	return uc.store.Materials().SoftDelete(ctx, tenantID, id)
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
