package apptest

import (
	"context"
	"fmt"
	"strings"

	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

type codeRuleRepo struct{ s *Store }

func (r codeRuleRepo) CreateMain(_ context.Context, rule *entity.CodeRuleMain) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stamp(&rule.ID, &rule.UUID, &rule.CreatedAt, &rule.UpdatedAt)
	r.s.mainRules = append(r.s.mainRules, clone(rule))
	return nil
}

func (r codeRuleRepo) GetMain(_ context.Context, tenantID, id int64) (*entity.CodeRuleMain, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.mainRules {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.ID == id {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r codeRuleRepo) GetActiveMain(_ context.Context, tenantID int64) (*entity.CodeRuleMain, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.mainRules {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.IsActive {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r codeRuleRepo) ListMain(_ context.Context, tenantID int64) ([]*entity.CodeRuleMain, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.CodeRuleMain
	for _, x := range r.s.mainRules {
		if x.DeletedAt == nil && x.TenantID == tenantID {
			out = append(out, clone(x))
		}
	}
	return out, nil
}

func (r codeRuleRepo) UpdateMain(_ context.Context, rule *entity.CodeRuleMain) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, x := range r.s.mainRules {
		if x.DeletedAt == nil && x.TenantID == rule.TenantID && x.ID == rule.ID {
			rule.UpdatedAt = r.s.Now()
			r.s.mainRules[i] = clone(rule)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r codeRuleRepo) MaxMainVersion(_ context.Context, tenantID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	top := 0
	for _, x := range r.s.mainRules {
		if x.TenantID == tenantID && x.Version > top {
			top = x.Version
		}
	}
	return top, nil
}

func (r codeRuleRepo) DeactivateOtherMain(_ context.Context, tenantID, keepID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.mainRules {
		if x.TenantID == tenantID && x.ID != keepID {
			x.IsActive = false
		}
	}
	return nil
}

func (r codeRuleRepo) CreateAlias(_ context.Context, rule *entity.CodeRuleAlias) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.aliasRules {
		if x.DeletedAt == nil && x.TenantID == rule.TenantID && x.CodeType == rule.CodeType {
			return duplicate("code_rule_alias", rule.CodeType)
		}
	}
	r.s.stamp(&rule.ID, &rule.UUID, &rule.CreatedAt, &rule.UpdatedAt)
	r.s.aliasRules = append(r.s.aliasRules, clone(rule))
	return nil
}

func (r codeRuleRepo) GetAliasByType(_ context.Context, tenantID int64, codeType string) (*entity.CodeRuleAlias, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.aliasRules {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.CodeType == codeType {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r codeRuleRepo) ListAlias(_ context.Context, tenantID int64) ([]*entity.CodeRuleAlias, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.CodeRuleAlias
	for _, x := range r.s.aliasRules {
		if x.DeletedAt == nil && x.TenantID == tenantID {
			out = append(out, clone(x))
		}
	}
	return out, nil
}

func (r codeRuleRepo) UpdateAlias(_ context.Context, rule *entity.CodeRuleAlias) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, x := range r.s.aliasRules {
		if x.DeletedAt == nil && x.TenantID == rule.TenantID && x.ID == rule.ID {
			rule.UpdatedAt = r.s.Now()
			r.s.aliasRules[i] = clone(rule)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r codeRuleRepo) AddHistory(_ context.Context, h *entity.CodeRuleHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h.ID = r.s.nextID()
	h.CreatedAt = r.s.Now()
	r.s.ruleHistory = append(r.s.ruleHistory, clone(h))
	return nil
}

func (r codeRuleRepo) ListHistory(_ context.Context, tenantID int64, ruleType string, ruleID int64) ([]*entity.CodeRuleHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.CodeRuleHistory
	for i := len(r.s.ruleHistory) - 1; i >= 0; i-- {
		x := r.s.ruleHistory[i]
		if x.TenantID == tenantID && x.RuleType == ruleType && x.RuleID == ruleID {
			out = append(out, clone(x))
		}
	}
	return out, nil
}

func (r codeRuleRepo) UpsertTypeConfig(_ context.Context, c *entity.MaterialTypeConfig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.Now()
	for i, x := range r.s.typeConfigs {
		if x.TenantID == c.TenantID && x.RuleID == c.RuleID && x.TypeCode == c.TypeCode {
			c.ID, c.CreatedAt, c.UpdatedAt = x.ID, x.CreatedAt, now
			r.s.typeConfigs[i] = clone(c)
			return nil
		}
	}
	c.ID = r.s.nextID()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.typeConfigs = append(r.s.typeConfigs, clone(c))
	return nil
}

func (r codeRuleRepo) ListTypeConfigs(_ context.Context, tenantID, ruleID int64) ([]*entity.MaterialTypeConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.MaterialTypeConfig
	for _, x := range r.s.typeConfigs {
		if x.TenantID == tenantID && x.RuleID == ruleID {
			out = append(out, clone(x))
		}
	}
	return out, nil
}

type sequenceRepo struct{ s *Store }

func counterKey(tenantID, ruleID int64, typeCode *string) string {
	if typeCode == nil {
		return fmt.Sprintf("%d/%d/<nil>", tenantID, ruleID)
	}
	return fmt.Sprintf("%d/%d/%s", tenantID, ruleID, *typeCode)
}

func (r sequenceRepo) Next(_ context.Context, tenantID, ruleID int64, typeCode *string, start, step int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := counterKey(tenantID, ruleID, typeCode)
	cur, ok := r.s.counters[key]
	if !ok {
		cur = start - step
	}
	cur += step
	r.s.counters[key] = cur
	return cur, nil
}

func (r sequenceRepo) Current(_ context.Context, tenantID, ruleID int64, typeCode *string) (int64, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.counters[counterKey(tenantID, ruleID, typeCode)]
	return v, ok, nil
}

type materialRepo struct{ s *Store }

func (r materialRepo) Create(_ context.Context, m *entity.Material) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.materials {
		if x.DeletedAt == nil && x.TenantID == m.TenantID && x.MainCode == m.MainCode {
			return duplicate("material", m.MainCode)
		}
	}
	r.s.stamp(&m.ID, &m.UUID, &m.CreatedAt, &m.UpdatedAt)
	r.s.materials = append(r.s.materials, clone(m))
	return nil
}

func (r materialRepo) GetByID(_ context.Context, tenantID, id int64) (*entity.Material, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.materials {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.ID == id {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r materialRepo) GetByMainCode(_ context.Context, tenantID int64, code string) (*entity.Material, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.materials {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.MainCode == code {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r materialRepo) List(_ context.Context, tenantID int64, f repository.MaterialFilter) ([]*entity.Material, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Material
	for _, x := range r.s.materials {
		if x.DeletedAt != nil || x.TenantID != tenantID {
			continue
		}
		if f.MaterialType != "" && x.MaterialType != f.MaterialType {
			continue
		}
		if matches(f.Keyword, x.MainCode, x.Name, x.Specification) {
			out = append(out, x)
		}
	}
	items, total := page(out, f.ListFilter)
	return items, total, nil
}

func (r materialRepo) SearchSimilar(_ context.Context, tenantID int64, name, spec string, excludeID int64, limit int) ([]*entity.Material, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Material
	for _, x := range r.s.materials {
		if x.DeletedAt != nil || x.TenantID != tenantID || x.ID == excludeID {
			continue
		}
		hit := name != "" && (strings.Contains(x.Name, name) || strings.Contains(name, x.Name))
		if !hit && spec != "" && x.Specification != "" {
			hit = strings.Contains(x.Specification, spec) || strings.Contains(spec, x.Specification)
		}
		if hit {
			out = append(out, clone(x))
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r materialRepo) Update(_ context.Context, m *entity.Material) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, x := range r.s.materials {
		if x.DeletedAt == nil && x.TenantID == m.TenantID && x.ID == m.ID {
			m.UpdatedAt = r.s.Now()
			r.s.materials[i] = clone(m)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r materialRepo) SoftDelete(_ context.Context, tenantID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.materials {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.ID == id {
			now := r.s.Now()
			x.DeletedAt = &now
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r materialRepo) Count(_ context.Context, tenantID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, x := range r.s.materials {
		if x.DeletedAt == nil && x.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

type aliasRepo struct{ s *Store }

func (r aliasRepo) Create(_ context.Context, a *entity.MaterialCodeAlias) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.aliases {
		if x.DeletedAt == nil && x.Key() == a.Key() {
			return duplicate("material_alias", a.Code)
		}
	}
	r.s.stamp(&a.ID, &a.UUID, &a.CreatedAt, &a.UpdatedAt)
	r.s.aliases = append(r.s.aliases, clone(a))
	return nil
}

func (r aliasRepo) GetByCode(_ context.Context, k entity.AliasKey) (*entity.MaterialCodeAlias, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.aliases {
		if x.DeletedAt == nil && x.Key() == k {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r aliasRepo) FindByCode(_ context.Context, tenantID int64, code string) ([]*entity.MaterialCodeAlias, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.MaterialCodeAlias
	for _, x := range r.s.aliases {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.Code == code {
			out = append(out, clone(x))
		}
	}
	return out, nil
}

func (r aliasRepo) ListByMaterial(_ context.Context, tenantID, materialID int64) ([]*entity.MaterialCodeAlias, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.MaterialCodeAlias
	for _, x := range r.s.aliases {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.MaterialID == materialID {
			out = append(out, clone(x))
		}
	}
	return out, nil
}

func (r aliasRepo) Update(_ context.Context, a *entity.MaterialCodeAlias) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, x := range r.s.aliases {
		if x.DeletedAt == nil && x.TenantID == a.TenantID && x.ID == a.ID {
			a.UpdatedAt = r.s.Now()
			r.s.aliases[i] = clone(a)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r aliasRepo) ClearPrimary(_ context.Context, tenantID, materialID int64, codeType string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.aliases {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.MaterialID == materialID && x.CodeType == codeType {
			x.IsPrimary = false
		}
	}
	return nil
}

func (r aliasRepo) SoftDelete(_ context.Context, tenantID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.aliases {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.ID == id {
			now := r.s.Now()
			x.DeletedAt = &now
			return nil
		}
	}
	return domain.ErrNotFound
}

type bomRepo struct{ s *Store }

func (r bomRepo) Create(_ context.Context, l *entity.BOMLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stamp(&l.ID, &l.UUID, &l.CreatedAt, &l.UpdatedAt)
	r.s.boms = append(r.s.boms, clone(l))
	return nil
}

func (r bomRepo) SetStatus(_ context.Context, tenantID, materialID int64, from, to string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, x := range r.s.boms {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.MaterialID == materialID && x.ApprovalStatus == from {
			x.ApprovalStatus = to
			x.UpdatedAt = r.s.Now()
			n++
		}
	}
	return n, nil
}

func (r bomRepo) ListByMaterial(_ context.Context, tenantID, materialID int64) ([]*entity.BOMLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.BOMLine
	for _, x := range r.s.boms {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.MaterialID == materialID {
			out = append(out, clone(x))
		}
	}
	return out, nil
}
