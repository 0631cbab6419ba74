package tenant

import (
	"context"
	"fmt"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/codegen"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/permission"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

// baselineCodes permisos base de toda organización: núcleo + alcances de datos derivados.
func baselineCodes() []string {
	codes := append([]string{}, permission.CoreCodes...)
	return append(codes, permission.DataScopeCodes(permission.CoreCodes)...)
}

// initializeTenantData siembra roles, permisos, departamentos, puestos y diccionarios.
// Es idempotente: lo que ya existe se conserva.
func initializeTenantData(ctx context.Context, s repository.Store, tenantID int64) (*dto.ApplyTemplateResult, error) {
	res := &dto.ApplyTemplateResult{}
	baseline := baselineCodes()
	permIDs, err := ensurePermissions(ctx, s, tenantID, baseline, "系统初始化权限")
	if err != nil {
		return nil, err
	}
	var readIDs, allIDs []int64
	for _, code := range baseline {
		allIDs = append(allIDs, permIDs[code])
		if permission.IsRead(code) {
			readIDs = append(readIDs, permIDs[code])
		}
	}
	for _, seed := range defaultRoles {
		var ids []int64
		switch seed.Code {
		case entity.RoleSystemAdmin, entity.RoleTenantAdmin:
			ids = allIDs
		case entity.RoleDeptAdmin:
			ids = readIDs
		default:
			for _, c := range seed.Permissions {
				if id, ok := permIDs[c]; ok {
					ids = append(ids, id)
				}
			}
		}
		created, err := ensureRole(ctx, s, tenantID, seed, ids, true)
		if err != nil {
			return nil, err
		}
		if created {
			res.Roles++
		}
	}
	if res.Departments, err = ensureDepartments(ctx, s, tenantID, defaultDepartments, true); err != nil {
		return nil, err
	}
	if res.Positions, err = ensurePositions(ctx, s, tenantID, defaultPositions); err != nil {
		return nil, err
	}
	if res.Dictionaries, err = ensureDictionaries(ctx, s, tenantID, systemDictionaries, true); err != nil {
		return nil, err
	}
	return res, nil
}

// applyTemplate agrega el contenido de una plantilla de industria.
func applyTemplate(ctx context.Context, s repository.Store, tenantID int64, tpl *entity.IndustryTemplate) (*dto.ApplyTemplateResult, error) {
	res := &dto.ApplyTemplateResult{TemplateCode: tpl.Code}
	cfg := tpl.Config
	for _, seed := range cfg.Roles {
		ids, err := ensurePermissions(ctx, s, tenantID, seed.Permissions, "行业模板权限: "+tpl.Code)
		if err != nil {
			return nil, err
		}
		list := make([]int64, 0, len(ids))
		for _, c := range seed.Permissions {
			list = append(list, ids[c])
		}
		created, err := ensureRole(ctx, s, tenantID, seed, list, false)
		if err != nil {
			return nil, err
		}
		if created {
			res.Roles++
		}
	}
	var err error
	if res.Departments, err = ensureDepartments(ctx, s, tenantID, cfg.Departments, false); err != nil {
		return nil, err
	}
	if res.Positions, err = ensurePositions(ctx, s, tenantID, cfg.Positions); err != nil {
		return nil, err
	}
	if res.Dictionaries, err = ensureDictionaries(ctx, s, tenantID, cfg.Dictionaries, false); err != nil {
		return nil, err
	}
	if cfg.CodeRule != nil {
		if res.CodeRule, err = ensureCodeRule(ctx, s, tenantID, *cfg.CodeRule, tpl.Code); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func ensurePermissions(ctx context.Context, s repository.Store, tenantID int64, codes []string, desc string) (map[string]int64, error) {
	if len(codes) == 0 {
		return map[string]int64{}, nil
	}
	perms := make([]*entity.Permission, 0, len(codes))
	for _, c := range codes {
		perms = append(perms, permission.Build(tenantID, c, desc, true))
	}
	if _, err := s.Permissions().BulkCreate(ctx, perms); err != nil {
		return nil, fmt.Errorf("seed permissions: %w", err)
	}
	existing, err := s.Permissions().GetByCodes(ctx, tenantID, codes)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(existing))
	for _, p := range existing {
		ids[p.Code] = p.ID
	}
	return ids, nil
}

func ensureRole(ctx context.Context, s repository.Store, tenantID int64, seed entity.RoleSeed, permIDs []int64, system bool) (bool, error) {
	role, err := s.Roles().GetByCode(ctx, tenantID, seed.Code)
	if err != nil {
		return false, err
	}
	created := false
	if role == nil {
		role = &entity.Role{TenantID: tenantID, Code: seed.Code, Name: seed.Name, IsSystem: system, IsActive: true}
		if err := s.Roles().Create(ctx, role); err != nil {
			return false, fmt.Errorf("seed role %s: %w", seed.Code, err)
		}
		created = true
	}
	if len(permIDs) > 0 {
		if err := s.Roles().AddPermissions(ctx, tenantID, role.ID, permIDs); err != nil {
			return false, err
		}
	}
	return created, nil
}

// ensureDepartments crea los departamentos faltantes. Con rootFirst el primero es la raíz
// y el resto cuelga de él.
func ensureDepartments(ctx context.Context, s repository.Store, tenantID int64, seeds []entity.NamedSeed, rootFirst bool) (int, error) {
	n := 0
	var rootID *int64
	for i, seed := range seeds {
		d, err := s.Departments().GetByCode(ctx, tenantID, seed.Code)
		if err != nil {
			return n, err
		}
		if d == nil {
			d = &entity.Department{TenantID: tenantID, Code: seed.Code, Name: seed.Name, SortOrder: i, IsActive: true}
			if rootFirst && i > 0 {
				d.ParentID = rootID
			}
			if err := s.Departments().Create(ctx, d); err != nil {
				return n, fmt.Errorf("seed department %s: %w", seed.Code, err)
			}
			n++
		}
		if rootFirst && i == 0 {
			id := d.ID
			rootID = &id
		}
	}
	return n, nil
}

func ensurePositions(ctx context.Context, s repository.Store, tenantID int64, seeds []entity.NamedSeed) (int, error) {
	n := 0
	for i, seed := range seeds {
		p, err := s.Positions().GetByCode(ctx, tenantID, seed.Code)
		if err != nil {
			return n, err
		}
		if p != nil {
			continue
		}
		p = &entity.Position{TenantID: tenantID, Code: seed.Code, Name: seed.Name, SortOrder: i, IsActive: true}
		if err := s.Positions().Create(ctx, p); err != nil {
			return n, fmt.Errorf("seed position %s: %w", seed.Code, err)
		}
		n++
	}
	return n, nil
}

func ensureDictionaries(ctx context.Context, s repository.Store, tenantID int64, seeds []entity.DictionarySeed, system bool) (int, error) {
	n := 0
	for _, seed := range seeds {
		d, err := s.Dictionaries().GetByCode(ctx, tenantID, seed.Code)
		if err != nil {
			return n, err
		}
		have := map[string]bool{}
		if d == nil {
			d = &entity.DataDictionary{TenantID: tenantID, Code: seed.Code, Name: seed.Name, IsSystem: system, IsActive: true}
			if err := s.Dictionaries().Create(ctx, d); err != nil {
				return n, fmt.Errorf("seed dictionary %s: %w", seed.Code, err)
			}
			n++
		} else {
			for _, it := range d.Items {
				have[it.Value] = true
			}
		}
		for i, item := range seed.Items {
			if have[item.Code] {
				continue
			}
			err := s.Dictionaries().AddItem(ctx, &entity.DictionaryItem{
				TenantID: tenantID, DictionaryID: d.ID, Label: item.Name, Value: item.Code,
				SortOrder: i, IsActive: true,
			})
			if err != nil {
				return n, fmt.Errorf("seed dictionary item %s.%s: %w", seed.Code, item.Code, err)
			}
		}
	}
	return n, nil
}

// ensureCodeRule crea y activa la regla principal si el tenant no tiene una activa.
func ensureCodeRule(ctx context.Context, s repository.Store, tenantID int64, seed entity.CodeRuleSeed, source string) (bool, error) {
	active, err := s.CodeRules().GetActiveMain(ctx, tenantID)
	if err != nil || active != nil {
		return false, err
	}
	if _, err := codegen.Compile(seed.Template); err != nil {
		return false, err
	}
	if _, err := codegen.ScopeFields(seed.Sequence); err != nil {
		return false, err
	}
	version, err := s.CodeRules().MaxMainVersion(ctx, tenantID)
	if err != nil {
		return false, err
	}
	name := seed.Name
	if name == "" {
		name = "默认编码规则"
	}
	rule := &entity.CodeRuleMain{
		TenantID: tenantID, Name: name, Template: seed.Template, Prefix: seed.Prefix,
		SequenceConfig: seed.Sequence, Version: version + 1, IsActive: true,
	}
	if err := s.CodeRules().CreateMain(ctx, rule); err != nil {
		return false, err
	}
	err = s.CodeRules().AddHistory(ctx, &entity.CodeRuleHistory{
		TenantID: tenantID, RuleID: rule.ID, RuleType: entity.RuleTypeMain, Version: rule.Version,
		RuleConfig: codegen.Snapshot(rule), ChangeDescription: "行业模板: " + source,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func validateTemplate(cfg entity.IndustryTemplateConfig) error {
	for _, r := range cfg.Roles {
		if r.Code == "" {
			return domain.Validation("模板角色编码不能为空")
		}
	}
	if cfg.CodeRule != nil {
		if _, err := codegen.Compile(cfg.CodeRule.Template); err != nil {
			return err
		}
	}
	return nil
}
