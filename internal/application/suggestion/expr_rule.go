package suggestion

import (
	"context"
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	gocache "github.com/patrickmn/go-cache"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
)

// ExprRuleConfig regla configurable: Condition es una expresión booleana sobre el
// contexto de la escena (más tenant_id). Content puede ser también una expresión
// si empieza por "=".
type ExprRuleConfig struct {
	ID          string `json:"id" mapstructure:"id"`
	Scene       string `json:"scene" mapstructure:"scene"`
	Condition   string `json:"condition" mapstructure:"condition"`
	Type        string `json:"type" mapstructure:"type"`
	Priority    string `json:"priority" mapstructure:"priority"`
	Title       string `json:"title" mapstructure:"title"`
	Content     string `json:"content" mapstructure:"content"`
	Action      string `json:"action" mapstructure:"action"`
	ActionLabel string `json:"action_label" mapstructure:"action_label"`
}

type programCache struct{ c *gocache.Cache }

func newProgramCache() *programCache {
	return &programCache{c: gocache.New(30*time.Minute, time.Hour)}
}

func (p *programCache) get(src string, asBool bool) (*vm.Program, error) {
	key := fmt.Sprintf("%t:%s", asBool, src)
	if v, ok := p.c.Get(key); ok {
		return v.(*vm.Program), nil
	}
	opts := []expr.Option{expr.AllowUndefinedVariables()}
	if asBool {
		opts = append(opts, expr.AsBool())
	}
	prog, err := expr.Compile(src, opts...)
	if err != nil {
		return nil, err
	}
	p.c.SetDefault(key, prog)
	return prog, nil
}

type exprRule struct {
	cfg     ExprRuleConfig
	cond    *vm.Program
	content *vm.Program
}

func (e *Engine) compile(cfg ExprRuleConfig) (*exprRule, error) {
	if cfg.Condition == "" || cfg.Title == "" {
		return nil, domain.Validation("规则 %s 缺少 condition 或 title", cfg.ID)
	}
	if _, ok := priorityRank[cfg.Priority]; !ok && cfg.Priority != "" {
		return nil, domain.Validation("规则 %s 优先级无效: %s", cfg.ID, cfg.Priority)
	}
	cond, err := e.exprs.get(cfg.Condition, true)
	if err != nil {
		return nil, domain.Validation("规则 %s 条件无效: %v", cfg.ID, err)
	}
	r := &exprRule{cfg: cfg, cond: cond}
	if len(cfg.Content) > 1 && cfg.Content[0] == '=' {
		if r.content, err = e.exprs.get(cfg.Content[1:], false); err != nil {
			return nil, domain.Validation("规则 %s 内容表达式无效: %v", cfg.ID, err)
		}
	}
	return r, nil
}

func (r *exprRule) Name() string { return "expr:" + r.cfg.ID }

func (r *exprRule) Check(_ context.Context, tenantID int64, sctx map[string]any) ([]dto.Suggestion, error) {
	env := make(map[string]any, len(sctx)+1)
	for k, v := range sctx {
		env[k] = v
	}
	env["tenant_id"] = tenantID

	out, err := expr.Run(r.cond, env)
	if err != nil {
		return nil, err
	}
	if ok, _ := out.(bool); !ok {
		return nil, nil
	}
	content := r.cfg.Content
	if r.content != nil {
		v, err := expr.Run(r.content, env)
		if err != nil {
			return nil, err
		}
		content = fmt.Sprint(v)
	}
	typ := r.cfg.Type
	if typ == "" {
		typ = dto.SuggestionInfo
	}
	return []dto.Suggestion{{
		Type:        typ,
		Priority:    r.cfg.Priority,
		Title:       r.cfg.Title,
		Content:     content,
		Action:      r.cfg.Action,
		ActionLabel: r.cfg.ActionLabel,
		Metadata:    map[string]any{"rule_id": r.cfg.ID},
	}}, nil
}
