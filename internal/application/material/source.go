package material

import (
	"context"

	"github.com/mitchellh/mapstructure"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

// Modos de fabricación de un material Make.
const (
	ModeFabrication = "fabrication"
	ModeAssembly    = "assembly"
)

// MakeConfig source_config de materiales fabricados.
type MakeConfig struct {
	ManufacturingMode   string  `mapstructure:"manufacturing_mode"`
	ProductionLeadTime  int     `mapstructure:"production_lead_time"`
	MinProductionBatch  float64 `mapstructure:"min_production_batch"`
	ProductionWasteRate float64 `mapstructure:"production_waste_rate"`
}

// BuyConfig source_config de materiales comprados.
type BuyConfig struct {
	DefaultSupplierID   *int64  `mapstructure:"default_supplier_id"`
	DefaultSupplierName string  `mapstructure:"default_supplier_name"`
	PurchaseLeadTime    int     `mapstructure:"purchase_lead_time"`
	MinPurchaseBatch    float64 `mapstructure:"min_purchase_batch"`
	PurchasePrice       float64 `mapstructure:"purchase_price"`
}

// OutsourceConfig source_config de materiales subcontratados.
type OutsourceConfig struct {
	OutsourceSupplierID   *int64  `mapstructure:"outsource_supplier_id"`
	OutsourceSupplierName string  `mapstructure:"outsource_supplier_name"`
	OutsourceOperation    string  `mapstructure:"outsource_operation"`
	OutsourceLeadTime     int     `mapstructure:"outsource_lead_time"`
	OutsourcePrice        float64 `mapstructure:"outsource_price"`
	MaterialProvidedBy    string  `mapstructure:"material_provided_by"` // enterprise | supplier
}

// ConfigureConfig source_config de materiales configurables.
type ConfigureConfig struct {
	BOMVariants []map[string]any `mapstructure:"bom_variants"`
}

// PhantomConfig los fantasmas no admiten configuración.
type PhantomConfig struct{}

// DecodeSourceConfig valida raw contra el esquema del tipo de origen. Claves
// desconocidas o de tipo incorrecto son error de validación.
func DecodeSourceConfig(sourceType string, raw map[string]any) (any, error) {
	var out any
	switch sourceType {
	case entity.SourceMake:
		out = &MakeConfig{}
	case entity.SourceBuy:
		out = &BuyConfig{}
	case entity.SourceOutsource:
		out = &OutsourceConfig{}
	case entity.SourceConfigure:
		out = &ConfigureConfig{}
	case entity.SourcePhantom:
		out = &PhantomConfig{}
	default:
		return nil, domain.Validation("无效的物料来源类型: %s", sourceType)
	}
	if len(raw) > 0 {
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{ErrorUnused: true, Result: out})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(raw); err != nil {
			return nil, domain.Validation("来源配置无效(%s): %v", sourceType, err)
		}
	}
	switch c := out.(type) {
	case *MakeConfig:
		if c.ManufacturingMode != "" && c.ManufacturingMode != ModeFabrication && c.ManufacturingMode != ModeAssembly {
			return nil, domain.Validation("无效的制造模式: %s", c.ManufacturingMode)
		}
	case *OutsourceConfig:
		if c.MaterialProvidedBy == "" {
			c.MaterialProvidedBy = "enterprise"
		}
		if c.MaterialProvidedBy != "enterprise" && c.MaterialProvidedBy != "supplier" {
			return nil, domain.Validation("无效的供料方: %s", c.MaterialProvidedBy)
		}
	}
	return out, nil
}

func defaultSourceType(materialType string) string {
	switch materialType {
	case "FIN", "SEMI":
		return entity.SourceMake
	default:
		return entity.SourceBuy
	}
}

// ChangeSource cambia el tipo de origen. Si no se envía configuración y el tipo
// cambia, la anterior se descarta. Devuelve la completitud resultante.
func (uc *MaterialUseCase) ChangeSource(ctx context.Context, tenantID, id int64, in dto.ChangeSourceRequest) (*entity.Material, *dto.SourceCheck, error) {
	if _, err := DecodeSourceConfig(in.SourceType, in.SourceConfig); err != nil {
		return nil, nil, err
	}
	var (
		out   *entity.Material
		check *dto.SourceCheck
	)
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		m, err := uc.get(ctx, s, tenantID, id)
		if err != nil {
			return err
		}
		old := m.SourceType
		switch {
		case in.SourceConfig != nil:
			m.SourceConfig = in.SourceConfig
		case old != in.SourceType:
			m.SourceConfig = nil
		}
		m.SourceType = in.SourceType
		if err := s.Materials().Update(ctx, m); err != nil {
			return err
		}
		check, err = uc.check(ctx, s, m)
		if err != nil {
			return err
		}
		out = m
		uc.log.Info().Int64("tenant_id", tenantID).Str("main_code", m.MainCode).
			Str("from", old).Str("to", m.SourceType).Bool("complete", check.IsComplete).Msg("origen de material cambiado")
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, check, nil
}

// CheckSource completitud de la configuración de origen del material.
func (uc *MaterialUseCase) CheckSource(ctx context.Context, tenantID, id int64) (*dto.SourceCheck, error) {
	m, err := uc.get(ctx, uc.store, tenantID, id)
	if err != nil {
		return nil, err
	}
	return uc.check(ctx, uc.store, m)
}

func (uc *MaterialUseCase) approvedBOMCount(ctx context.Context, s repository.Store, m *entity.Material) (int, error) {
	lines, err := s.BOMs().ListByMaterial(ctx, m.TenantID, m.ID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, l := range lines {
		if l.ApprovalStatus == BOMApproved {
			n++
		}
	}
	return n, nil
}

func (uc *MaterialUseCase) check(ctx context.Context, s repository.Store, m *entity.Material) (*dto.SourceCheck, error) {
	res := &dto.SourceCheck{MissingConfigs: []string{}, Warnings: []string{}}
	cfg, err := DecodeSourceConfig(m.SourceType, m.SourceConfig)
	if err != nil {
		res.MissingConfigs = append(res.MissingConfigs, "物料来源类型")
		return res, nil
	}
	switch c := cfg.(type) {
	case *MakeConfig:
		boms, err := uc.approvedBOMCount(ctx, s, m)
		if err != nil {
			return nil, err
		}
		hasRoute := m.ProcessRouteID != nil
		switch c.ManufacturingMode {
		case ModeFabrication:
			if !hasRoute {
				res.MissingConfigs = append(res.MissingConfigs, "工艺路线配置")
			}
			if boms == 0 {
				res.Warnings = append(res.Warnings, "加工型建议配置BOM")
			}
		case ModeAssembly:
			if boms == 0 {
				res.MissingConfigs = append(res.MissingConfigs, "BOM配置")
			}
			if !hasRoute {
				res.Warnings = append(res.Warnings, "装配型建议配置工艺路线")
			}
		default:
			if boms == 0 {
				res.MissingConfigs = append(res.MissingConfigs, "BOM配置")
			}
			if !hasRoute {
				res.MissingConfigs = append(res.MissingConfigs, "工艺路线配置")
			}
		}
	case *BuyConfig:
		if c.DefaultSupplierID == nil {
			res.Warnings = append(res.Warnings, "建议配置默认供应商")
		}
	case *OutsourceConfig:
		if c.OutsourceSupplierID == nil {
			res.MissingConfigs = append(res.MissingConfigs, "委外供应商配置")
		}
		if c.OutsourceOperation == "" {
			res.MissingConfigs = append(res.MissingConfigs, "委外工序配置")
		}
	case *ConfigureConfig:
		if len(m.VariantAttributes) == 0 {
			res.MissingConfigs = append(res.MissingConfigs, "变体属性配置")
		}
		if len(c.BOMVariants) == 0 {
			res.MissingConfigs = append(res.MissingConfigs, "BOM变体配置")
		}
	}
	res.IsComplete = len(res.MissingConfigs) == 0
	return res, nil
}

type suggestion struct {
	sourceType string
	confidence float64
	reason     string
}

// SuggestSource sugiere el tipo de origen según tipo de material, BOM y ruta.
func (uc *MaterialUseCase) SuggestSource(ctx context.Context, tenantID, id int64) (*dto.SourceSuggestion, error) {
	m, err := uc.get(ctx, uc.store, tenantID, id)
	if err != nil {
		return nil, err
	}
	var all []suggestion
	switch m.MaterialType {
	case "FIN":
		all = append(all, suggestion{entity.SourceMake, 0.8, "成品通常需要自制"})
	case "RAW":
		all = append(all, suggestion{entity.SourceBuy, 0.9, "原材料通常需要采购"})
	case "SEMI":
		all = append(all,
			suggestion{entity.SourceMake, 0.6, "半成品通常自制，但也可以采购"},
			suggestion{entity.SourceBuy, 0.4, "半成品也可以采购"})
	}
	boms, err := uc.approvedBOMCount(ctx, uc.store, m)
	if err != nil {
		return nil, err
	}
	if boms > 0 {
		all = append(all, suggestion{entity.SourceMake, 0.9, "已配置BOM，建议设为自制件"})
	}
	if m.ProcessRouteID != nil {
		all = append(all, suggestion{entity.SourceMake, 0.8, "已配置工艺路线，建议设为自制件"})
	}
	if len(m.VariantAttributes) > 0 {
		all = append(all, suggestion{entity.SourceConfigure, 0.7, "已启用变体管理，建议设为配置件"})
	}
	if len(all) == 0 {
		return &dto.SourceSuggestion{Reasons: []string{"无法基于现有信息给出建议"}}, nil
	}
	best := all[0]
	for _, s := range all[1:] {
		if s.confidence > best.confidence {
			best = s
		}
	}
	out := &dto.SourceSuggestion{SuggestedType: best.sourceType, Confidence: best.confidence}
	for _, s := range all {
		if s.sourceType == best.sourceType {
			out.Reasons = append(out.Reasons, s.reason)
		}
	}
	return out, nil
}
