package codegen

import (
	"context"
	"slices"
	"strings"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/codegen"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

// ExistsFunc indica si un código ya está ocupado por una fila viva.
type ExistsFunc = func(code string) (bool, error)

// plan regla resuelta lista para asignar números. Las reglas departamentales usan
// rule_id negativo en los contadores para no compartirlos con las principales; 0 es
// el formato por defecto.
type plan struct {
	ruleType string
	ruleID   int64
	prefix   string
	cfg      entity.SequenceConfig
	tpl      *codegen.Template
	fields   []string
	fallback bool
}

// perType indica si el contador de la regla se separa por tipo de material.
func (p *plan) perType() bool {
	return slices.Contains(p.fields, codegen.Type)
}

func (uc *CodeRuleUseCase) resolve(ctx context.Context, s repository.Store, tenantID int64, in dto.GenerateCodeRequest) (*plan, error) {
	if in.RuleType == entity.RuleTypeAlias {
		codeType := strings.ToUpper(strings.TrimSpace(in.CodeType))
		r, err := s.CodeRules().GetAliasByType(ctx, tenantID, codeType)
		if err != nil {
			return nil, err
		}
		if r == nil || !r.IsActive {
			return nil, domain.NotFound("别名编码规则", codeType)
		}
		if r.Template == "" {
			return nil, domain.Validation("编码类型 %s 未配置生成模板", codeType)
		}
		tpl, err := uc.compiled(tenantID, entity.RuleTypeAlias, r.ID, r.Version, r.Template)
		if err != nil {
			return nil, err
		}
		fields, err := codegen.ScopeFields(r.SequenceConfig)
		if err != nil {
			return nil, err
		}
		return &plan{ruleType: entity.RuleTypeAlias, ruleID: -r.ID, prefix: r.Prefix, cfg: r.SequenceConfig.Normalized(), tpl: tpl, fields: fields}, nil
	}

	r, err := s.CodeRules().GetActiveMain(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return &plan{
			ruleType: entity.RuleTypeMain,
			cfg:      entity.SequenceConfig{}.Normalized(),
			fields:   []string{codegen.Type},
			fallback: true,
		}, nil
	}
	tpl, err := uc.compiled(tenantID, entity.RuleTypeMain, r.ID, r.Version, r.Template)
	if err != nil {
		return nil, err
	}
	fields, err := codegen.ScopeFields(r.SequenceConfig)
	if err != nil {
		return nil, err
	}
	return &plan{ruleType: entity.RuleTypeMain, ruleID: r.ID, prefix: r.Prefix, cfg: r.SequenceConfig.Normalized(), tpl: tpl, fields: fields}, nil
}

func (p *plan) render(seq int64, c codegen.Context) string {
	if p.fallback {
		return codegen.DefaultMaterialCode(c.MaterialType, seq)
	}
	return p.tpl.Render(p.prefix, seq, p.cfg, c)
}

func (uc *CodeRuleUseCase) genContext(in dto.GenerateCodeRequest) codegen.Context {
	return codegen.Context{
		MaterialType: in.MaterialType,
		Org:          in.Org,
		Dept:         in.Dept,
		Now:          uc.now().In(uc.loc),
	}
}

// Preview muestra el próximo código sin consumir el contador.
func (uc *CodeRuleUseCase) Preview(ctx context.Context, tenantID int64, in dto.GenerateCodeRequest) (*dto.GeneratedCode, error) {
	p, err := uc.resolve(ctx, uc.store, tenantID, in)
	if err != nil {
		return nil, err
	}
	c := uc.genContext(in)
	scope := codegen.ScopeKey(p.fields, p.prefix, c)
	cur, ok, err := uc.store.Sequences().Current(ctx, tenantID, p.ruleID, scope)
	if err != nil {
		return nil, err
	}
	next := p.cfg.StartValue
	if ok {
		next = cur + p.cfg.Step
	}
	return &dto.GeneratedCode{
		Code:     p.render(next, c),
		RuleType: p.ruleType,
		RuleID:   abs(p.ruleID),
		Sequence: next,
		ScopeKey: scope,
		Preview:  true,
	}, nil
}

// Generate asigna un código nuevo en su propia transacción.
func (uc *CodeRuleUseCase) Generate(ctx context.Context, tenantID int64, in dto.GenerateCodeRequest, exists ExistsFunc) (*dto.GeneratedCode, error) {
	var out *dto.GeneratedCode
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		var err error
		out, err = uc.GenerateIn(ctx, s, tenantID, in, exists)
		return err
	})
	return out, err
}

// GenerateIn asigna un código dentro de una transacción existente. Si exists informa
// una colisión se consume otro número, hasta MaxAttempts intentos.
func (uc *CodeRuleUseCase) GenerateIn(ctx context.Context, s repository.Store, tenantID int64, in dto.GenerateCodeRequest, exists ExistsFunc) (*dto.GeneratedCode, error) {
	p, err := uc.resolve(ctx, s, tenantID, in)
	if err != nil {
		return nil, err
	}
	c := uc.genContext(in)
	scope := codegen.ScopeKey(p.fields, p.prefix, c)
	for attempt := 0; attempt < codegen.MaxAttempts; attempt++ {
		seq, err := s.Sequences().Next(ctx, tenantID, p.ruleID, scope, p.cfg.StartValue, p.cfg.Step)
		if err != nil {
			return nil, err
		}
		code := p.render(seq, c)
		if exists != nil {
			taken, err := exists(code)
			if err != nil {
				return nil, err
			}
			if taken {
				uc.log.Debug().Int64("tenant_id", tenantID).Str("code", code).Msg("código ocupado, reintentando")
				continue
			}
		}
		if p.ruleType == entity.RuleTypeMain && !p.fallback && p.perType() && c.MaterialType != "" {
			if err := s.CodeRules().UpsertTypeConfig(ctx, &entity.MaterialTypeConfig{
				TenantID:            tenantID,
				RuleID:              p.ruleID,
				TypeCode:            c.MaterialType,
				TypeName:            entity.MaterialTypes[c.MaterialType],
				IndependentSequence: true,
				CurrentSequence:     seq,
			}); err != nil {
				return nil, err
			}
		}
		return &dto.GeneratedCode{
			Code:     code,
			RuleType: p.ruleType,
			RuleID:   abs(p.ruleID),
			Sequence: seq,
			ScopeKey: scope,
		}, nil
	}
	uc.log.Warn().Int64("tenant_id", tenantID).Int("attempts", codegen.MaxAttempts).Msg("no se pudo asignar un código único")
	return nil, domain.Business("编码生成失败: 连续 %d 次冲突", codegen.MaxAttempts)
}

// documentTemplate formato de número de documento sin regla departamental.
const documentTemplate = "{PREFIX}{DATE}{SEQUENCE}"

// GenerateDocumentCode número de documento para codeType (p. ej. SO, SD). Usa la regla
// departamental del tipo si tiene plantilla; si no, PREFIX+fecha+secuencia diaria.
func (uc *CodeRuleUseCase) GenerateDocumentCode(ctx context.Context, s repository.Store, tenantID int64, codeType, prefix string, exists ExistsFunc) (string, error) {
	codeType = strings.ToUpper(codeType)
	alias, err := s.CodeRules().GetAliasByType(ctx, tenantID, codeType)
	if err != nil {
		return "", err
	}
	if alias != nil && alias.IsActive && alias.Template != "" {
		out, err := uc.GenerateIn(ctx, s, tenantID, dto.GenerateCodeRequest{RuleType: entity.RuleTypeAlias, CodeType: codeType}, exists)
		if err != nil {
			return "", err
		}
		return out.Code, nil
	}

	tpl, err := uc.compiled(0, "document", 0, 0, documentTemplate)
	if err != nil {
		return "", err
	}
	cfg := entity.SequenceConfig{}.Normalized()
	c := codegen.Context{Now: uc.now().In(uc.loc)}
	scope := "DOC|" + codeType + "|" + c.Now.Format("20060102")
	for attempt := 0; attempt < codegen.MaxAttempts; attempt++ {
		seq, err := s.Sequences().Next(ctx, tenantID, 0, &scope, cfg.StartValue, cfg.Step)
		if err != nil {
			return "", err
		}
		code := tpl.Render(prefix, seq, cfg, c)
		if exists != nil {
			taken, err := exists(code)
			if err != nil {
				return "", err
			}
			if taken {
				continue
			}
		}
		return code, nil
	}
	return "", domain.Business("单据编号生成失败: 连续 %d 次冲突", codegen.MaxAttempts)
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
