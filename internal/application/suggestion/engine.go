// Package suggestion motor de sugerencias basado en reglas. Cada escena registra
// reglas; el motor concatena sus resultados y los ordena por prioridad.
package suggestion

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
	"github.com/riveredge/platform-kernel/pkg/logger"
)

// Escenas soportadas.
const (
	SceneInit       = "init"
	SceneWorkOrder  = "work_order"
	SceneReporting  = "reporting"
	SceneInventory  = "inventory"
	SceneProduction = "production"
)

var scenes = map[string]bool{
	SceneInit: true, SceneWorkOrder: true, SceneReporting: true, SceneInventory: true, SceneProduction: true,
}

var priorityRank = map[string]int{
	dto.PriorityUrgent: 4,
	dto.PriorityHigh:   3,
	dto.PriorityMedium: 2,
	dto.PriorityLow:    1,
}

// Rule regla de una escena. Recibe el contexto libre enviado por el cliente.
type Rule interface {
	Name() string
	Check(ctx context.Context, tenantID int64, sctx map[string]any) ([]dto.Suggestion, error)
}

// Engine registro de reglas por escena.
type Engine struct {
	store repository.Store
	log   *logger.Logger
	now   func() time.Time
	exprs *programCache

	mu    sync.RWMutex
	rules map[string][]Rule
}

// NewEngine motor con las reglas incorporadas de cada escena.
func NewEngine(store repository.Store, log *logger.Logger) *Engine {
	e := &Engine{
		store: store,
		log:   logger.OrNop(log).Component("suggestion"),
		now:   func() time.Time { return time.Now().UTC() },
		exprs: newProgramCache(),
		rules: map[string][]Rule{},
	}
	e.mustRegister(SceneInit, setupRule{store: store})
	e.mustRegister(SceneWorkOrder, delayedWorkOrderRule{})
	e.mustRegister(SceneWorkOrder, shortageRule{})
	e.mustRegister(SceneInventory, shortageRule{})
	e.mustRegister(SceneInventory, overstockRule{})
	e.mustRegister(SceneReporting, reportingRule{})
	e.mustRegister(SceneProduction, capacityRule{})
	return e
}

func (e *Engine) mustRegister(scene string, r Rule) {
	if err := e.Register(scene, r); err != nil {
		panic(err)
	}
}

// Register añade una regla a una escena conocida.
func (e *Engine) Register(scene string, r Rule) error {
	if !scenes[scene] {
		return domain.Validation("不支持的场景: %s", scene)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules[scene] = append(e.rules[scene], r)
	return nil
}

// RegisterExpr añade una regla configurable.
func (e *Engine) RegisterExpr(cfg ExprRuleConfig) error {
	r, err := e.compile(cfg)
	if err != nil {
		return err
	}
	return e.Register(cfg.Scene, r)
}

// Suggest ejecuta las reglas de la escena (incorporadas, registradas y las
// configuradas en el tenant) y ordena por prioridad descendente. Una regla que
// falla se registra y se omite.
func (e *Engine) Suggest(ctx context.Context, tenantID int64, in dto.SuggestionRequest) ([]dto.Suggestion, error) {
	if !scenes[in.Scene] {
		return nil, domain.Validation("不支持的场景: %s", in.Scene)
	}
	if in.Context == nil {
		in.Context = map[string]any{}
	}
	e.mu.RLock()
	rules := append([]Rule(nil), e.rules[in.Scene]...)
	e.mu.RUnlock()
	rules = append(rules, e.tenantRules(ctx, tenantID, in.Scene)...)

	out := []dto.Suggestion{}
	for _, r := range rules {
		items, err := r.Check(ctx, tenantID, in.Context)
		if err != nil {
			e.log.Warn().Int64("tenant_id", tenantID).Str("rule", r.Name()).Err(err).Msg("regla de sugerencia fallida")
			continue
		}
		for _, s := range items {
			if s.ID == "" {
				s.ID = uuid.NewString()
			}
			if s.CreatedAt.IsZero() {
				s.CreatedAt = e.now()
			}
			if s.Priority == "" {
				s.Priority = dto.PriorityMedium
			}
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return priorityRank[out[i].Priority] > priorityRank[out[j].Priority]
	})
	return out, nil
}

// tenantRules reglas expr guardadas en settings.suggestion_rules del tenant.
func (e *Engine) tenantRules(ctx context.Context, tenantID int64, scene string) []Rule {
	if e.store == nil {
		return nil
	}
	t, err := e.store.Tenants().GetByID(ctx, tenantID)
	if err != nil || t == nil {
		return nil
	}
	raw, ok := t.Settings[entity.SettingSuggestionRules]
	if !ok {
		return nil
	}
	var cfgs []ExprRuleConfig
	if err := decode(raw, &cfgs); err != nil {
		e.log.Warn().Int64("tenant_id", tenantID).Err(err).Msg("suggestion_rules inválidas")
		return nil
	}
	var out []Rule
	for _, c := range cfgs {
		if c.Scene != scene {
			continue
		}
		r, err := e.compile(c)
		if err != nil {
			e.log.Warn().Int64("tenant_id", tenantID).Str("code", c.ID).Err(err).Msg("regla expr inválida")
			continue
		}
		out = append(out, r)
	}
	return out
}

func decode(in, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: out, WeaklyTypedInput: true})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}
