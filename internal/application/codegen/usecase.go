// Package codegen administra las reglas de codificación y asigna números de negocio.
package codegen

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/ports"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/codegen"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
	"github.com/riveredge/platform-kernel/pkg/logger"
)

// CodeRuleUseCase reglas principales y departamentales, historial y generación.
type CodeRuleUseCase struct {
	store     repository.Store
	tx        ports.TxRunner
	log       *logger.Logger
	loc       *time.Location
	now       func() time.Time
	templates *gocache.Cache
}

// NewCodeRuleUseCase construye el caso de uso. loc determina los marcadores de fecha.
func NewCodeRuleUseCase(store repository.Store, tx ports.TxRunner, loc *time.Location, log *logger.Logger) *CodeRuleUseCase {
	if loc == nil {
		loc = time.UTC
	}
	return &CodeRuleUseCase{
		store:     store,
		tx:        tx,
		log:       logger.OrNop(log).Component("codegen"),
		loc:       loc,
		now:       func() time.Time { return time.Now().UTC() },
		templates: gocache.New(ports.MaxCacheTTL, 10*time.Minute),
	}
}

func templateKey(tenantID int64, ruleType string, ruleID int64, version int) string {
	return fmt.Sprintf("%d:%s:%d:%d", tenantID, ruleType, ruleID, version)
}

// compiled devuelve la plantilla compilada, cacheada por (regla, versión).
func (uc *CodeRuleUseCase) compiled(tenantID int64, ruleType string, ruleID int64, version int, raw string) (*codegen.Template, error) {
	key := templateKey(tenantID, ruleType, ruleID, version)
	if v, ok := uc.templates.Get(key); ok {
		if t, ok := v.(*codegen.Template); ok && t.Raw() == raw {
			return t, nil
		}
	}
	t, err := codegen.Compile(raw)
	if err != nil {
		return nil, err
	}
	uc.templates.SetDefault(key, t)
	return t, nil
}

func (uc *CodeRuleUseCase) invalidate(tenantID int64, ruleType string, ruleID int64, version int) {
	uc.templates.Delete(templateKey(tenantID, ruleType, ruleID, version))
}

func validateRule(template string, cfg entity.SequenceConfig) error {
	if _, err := codegen.Compile(template); err != nil {
		return err
	}
	_, err := codegen.ScopeFields(cfg)
	return err
}

// CreateMain alta de regla principal: inactiva, versión = máxima + 1.
func (uc *CodeRuleUseCase) CreateMain(ctx context.Context, tenantID int64, userID *int64, in dto.CreateCodeRuleRequest) (*entity.CodeRuleMain, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.Validation("规则名称不能为空")
	}
	if err := validateRule(in.Template, in.SequenceConfig); err != nil {
		return nil, err
	}
	var rule *entity.CodeRuleMain
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		version, err := s.CodeRules().MaxMainVersion(ctx, tenantID)
		if err != nil {
			return err
		}
		rule = &entity.CodeRuleMain{
			TenantID:       tenantID,
			Name:           in.Name,
			Template:       in.Template,
			Prefix:         in.Prefix,
			SequenceConfig: in.SequenceConfig,
			Version:        version + 1,
			Description:    in.Description,
			CreatedBy:      userID,
		}
		if err := s.CodeRules().CreateMain(ctx, rule); err != nil {
			return err
		}
		return addHistory(ctx, s, tenantID, entity.RuleTypeMain, rule.ID, rule.Version, rule, "创建规则", userID)
	})
	if err != nil {
		uc.log.Warn().Int64("tenant_id", tenantID).Str("template", in.Template).Err(err).Msg("alta de regla fallida")
		return nil, err
	}
	return rule, nil
}

func addHistory(ctx context.Context, s repository.Store, tenantID int64, ruleType string, ruleID int64, version int, rule any, desc string, userID *int64) error {
	return s.CodeRules().AddHistory(ctx, &entity.CodeRuleHistory{
		TenantID:          tenantID,
		RuleID:            ruleID,
		RuleType:          ruleType,
		Version:           version,
		RuleConfig:        codegen.Snapshot(rule),
		ChangeDescription: desc,
		ChangedBy:         userID,
	})
}

func (uc *CodeRuleUseCase) getMain(ctx context.Context, s repository.Store, tenantID, id int64) (*entity.CodeRuleMain, error) {
	r, err := s.CodeRules().GetMain(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.NotFound("编码规则", id)
	}
	return r, nil
}

// GetMain regla principal por id.
func (uc *CodeRuleUseCase) GetMain(ctx context.Context, tenantID, id int64) (*entity.CodeRuleMain, error) {
	return uc.getMain(ctx, uc.store, tenantID, id)
}

// ListMain reglas principales del tenant.
func (uc *CodeRuleUseCase) ListMain(ctx context.Context, tenantID int64) ([]*entity.CodeRuleMain, error) {
	return uc.store.CodeRules().ListMain(ctx, tenantID)
}

// UpdateMain aplica cambios, incrementa la versión y guarda el snapshot.
func (uc *CodeRuleUseCase) UpdateMain(ctx context.Context, tenantID, id int64, userID *int64, in dto.UpdateCodeRuleRequest) (*entity.CodeRuleMain, error) {
	var rule *entity.CodeRuleMain
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		r, err := uc.getMain(ctx, s, tenantID, id)
		if err != nil {
			return err
		}
		oldVersion := r.Version
		if in.Name != nil {
			r.Name = *in.Name
		}
		if in.Template != nil {
			r.Template = *in.Template
		}
		if in.Prefix != nil {
			r.Prefix = *in.Prefix
		}
		if in.SequenceConfig != nil {
			r.SequenceConfig = *in.SequenceConfig
		}
		if in.Description != nil {
			r.Description = *in.Description
		}
		if err := validateRule(r.Template, r.SequenceConfig); err != nil {
			return err
		}
		r.Version++
		if err := s.CodeRules().UpdateMain(ctx, r); err != nil {
			return err
		}
		desc := in.ChangeDescription
		if desc == "" {
			desc = "更新规则"
		}
		if err := addHistory(ctx, s, tenantID, entity.RuleTypeMain, r.ID, r.Version, r, desc, userID); err != nil {
			return err
		}
		uc.invalidate(tenantID, entity.RuleTypeMain, r.ID, oldVersion)
		rule = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rule, nil
}

// ActivateMain activa la regla y desactiva las demás del tenant.
func (uc *CodeRuleUseCase) ActivateMain(ctx context.Context, tenantID, id int64) (*entity.CodeRuleMain, error) {
	var rule *entity.CodeRuleMain
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		r, err := uc.getMain(ctx, s, tenantID, id)
		if err != nil {
			return err
		}
		if err := s.CodeRules().DeactivateOtherMain(ctx, tenantID, r.ID); err != nil {
			return err
		}
		r.IsActive = true
		if err := s.CodeRules().UpdateMain(ctx, r); err != nil {
			return err
		}
		rule = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("tenant_id", tenantID).Int64("rule_id", id).Msg("regla principal activada")
	return rule, nil
}

// History snapshots de una regla, del más reciente al más antiguo.
func (uc *CodeRuleUseCase) History(ctx context.Context, tenantID int64, ruleType string, ruleID int64) ([]*entity.CodeRuleHistory, error) {
	if ruleType != entity.RuleTypeMain && ruleType != entity.RuleTypeAlias {
		return nil, domain.Validation("规则类型无效: %s", ruleType)
	}
	return uc.store.CodeRules().ListHistory(ctx, tenantID, ruleType, ruleID)
}

// TypeConfigs contadores por tipo de material de una regla.
func (uc *CodeRuleUseCase) TypeConfigs(ctx context.Context, tenantID, ruleID int64) ([]*entity.MaterialTypeConfig, error) {
	return uc.store.CodeRules().ListTypeConfigs(ctx, tenantID, ruleID)
}

func validateAlias(template, pattern string, cfg entity.SequenceConfig) error {
	if template != "" {
		if err := validateRule(template, cfg); err != nil {
			return err
		}
	}
	if pattern != "" {
		if _, err := regexp.Compile(pattern); err != nil {
			return domain.Validation("校验规则不是有效的正则表达式: %v", err)
		}
	}
	return nil
}

// CreateAlias alta de regla departamental (activa). code_type es único por tenant.
func (uc *CodeRuleUseCase) CreateAlias(ctx context.Context, tenantID int64, userID *int64, in dto.CreateAliasRuleRequest) (*entity.CodeRuleAlias, error) {
	codeType := strings.ToUpper(strings.TrimSpace(in.CodeType))
	if codeType == "" || strings.TrimSpace(in.CodeName) == "" {
		return nil, domain.Validation("编码类型和名称不能为空")
	}
	if err := validateAlias(in.Template, in.ValidationPattern, in.SequenceConfig); err != nil {
		return nil, err
	}
	var rule *entity.CodeRuleAlias
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		existing, err := s.CodeRules().GetAliasByType(ctx, tenantID, codeType)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.Validation("编码类型 %s 已存在", codeType)
		}
		rule = &entity.CodeRuleAlias{
			TenantID:          tenantID,
			CodeType:          codeType,
			CodeName:          in.CodeName,
			Template:          in.Template,
			Prefix:            in.Prefix,
			SequenceConfig:    in.SequenceConfig,
			ValidationPattern: in.ValidationPattern,
			Departments:       in.Departments,
			Description:       in.Description,
			Version:           1,
			IsActive:          true,
		}
		if err := s.CodeRules().CreateAlias(ctx, rule); err != nil {
			return err
		}
		return addHistory(ctx, s, tenantID, entity.RuleTypeAlias, rule.ID, rule.Version, rule, "创建规则", userID)
	})
	if err != nil {
		return nil, err
	}
	return rule, nil
}

// UpdateAlias aplica cambios a una regla departamental con versión e historial.
func (uc *CodeRuleUseCase) UpdateAlias(ctx context.Context, tenantID int64, codeType string, userID *int64, in dto.UpdateAliasRuleRequest) (*entity.CodeRuleAlias, error) {
	var rule *entity.CodeRuleAlias
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		r, err := s.CodeRules().GetAliasByType(ctx, tenantID, strings.ToUpper(codeType))
		if err != nil {
			return err
		}
		if r == nil {
			return domain.NotFound("别名编码规则", codeType)
		}
		oldVersion := r.Version
		if in.CodeName != nil {
			r.CodeName = *in.CodeName
		}
		if in.Template != nil {
			r.Template = *in.Template
		}
		if in.Prefix != nil {
			r.Prefix = *in.Prefix
		}
		if in.SequenceConfig != nil {
			r.SequenceConfig = *in.SequenceConfig
		}
		if in.ValidationPattern != nil {
			r.ValidationPattern = *in.ValidationPattern
		}
		if in.Departments != nil {
			r.Departments = in.Departments
		}
		if in.IsActive != nil {
			r.IsActive = *in.IsActive
		}
		if err := validateAlias(r.Template, r.ValidationPattern, r.SequenceConfig); err != nil {
			return err
		}
		r.Version++
		if err := s.CodeRules().UpdateAlias(ctx, r); err != nil {
			return err
		}
		desc := in.ChangeDescription
		if desc == "" {
			desc = "更新规则"
		}
		if err := addHistory(ctx, s, tenantID, entity.RuleTypeAlias, r.ID, r.Version, r, desc, userID); err != nil {
			return err
		}
		uc.invalidate(tenantID, entity.RuleTypeAlias, r.ID, oldVersion)
		rule = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rule, nil
}

// ListAlias reglas departamentales.
func (uc *CodeRuleUseCase) ListAlias(ctx context.Context, tenantID int64) ([]*entity.CodeRuleAlias, error) {
	return uc.store.CodeRules().ListAlias(ctx, tenantID)
}

// ValidateAliasCode comprueba un código externo contra la regla del code_type. Sin
// regla o sin patrón cualquier código no vacío es válido.
func ValidateAliasCode(rule *entity.CodeRuleAlias, code string) error {
	if strings.TrimSpace(code) == "" {
		return domain.Validation("编码不能为空")
	}
	if rule == nil || rule.ValidationPattern == "" {
		return nil
	}
	re, err := regexp.Compile(rule.ValidationPattern)
	if err != nil {
		return domain.Validation("校验规则无效: %v", err)
	}
	if !re.MatchString(code) {
		return domain.Validation("编码 %s 不符合 %s 的格式要求", code, rule.CodeType)
	}
	return nil
}
