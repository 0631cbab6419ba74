package codegen

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveredge/platform-kernel/internal/application/apptest"
	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

const tenantID int64 = 7

func newTestUseCase(t *testing.T) (*CodeRuleUseCase, *apptest.Store) {
	t.Helper()
	store := apptest.NewStore()
	uc := NewCodeRuleUseCase(store, apptest.NewTxRunner(store), time.UTC, nil)
	uc.now = func() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) }
	return uc, store
}

func activeRule(t *testing.T, uc *CodeRuleUseCase, template string, cfg entity.SequenceConfig) *entity.CodeRuleMain {
	t.Helper()
	ctx := context.Background()
	r, err := uc.CreateMain(ctx, tenantID, nil, dto.CreateCodeRuleRequest{Name: "物料", Template: template, Prefix: "P", SequenceConfig: cfg})
	require.NoError(t, err)
	r, err = uc.ActivateMain(ctx, tenantID, r.ID)
	require.NoError(t, err)
	return r
}

func TestCreateMain_InactivaYVersionIncremental(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()

	a, err := uc.CreateMain(ctx, tenantID, nil, dto.CreateCodeRuleRequest{Name: "A", Template: "MAT-{TYPE}-{SEQUENCE}"})
	require.NoError(t, err)
	b, err := uc.CreateMain(ctx, tenantID, nil, dto.CreateCodeRuleRequest{Name: "B", Template: "{PREFIX}{SEQUENCE}"})
	require.NoError(t, err)

	assert.False(t, a.IsActive)
	assert.Equal(t, 1, a.Version)
	assert.Equal(t, 2, b.Version)

	hist, err := store.CodeRules().ListHistory(ctx, tenantID, entity.RuleTypeMain, a.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "MAT-{TYPE}-{SEQUENCE}", hist[0].RuleConfig["template"])
}

func TestCreateMain_PlantillaInvalida(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	for _, tpl := range []string{"", "SIN-MARCADOR", "X-{FOO}"} {
		_, err := uc.CreateMain(ctx, tenantID, nil, dto.CreateCodeRuleRequest{Name: "A", Template: tpl})
		assert.True(t, errors.Is(err, domain.ErrValidation), tpl)
	}
	_, err := uc.CreateMain(ctx, tenantID, nil, dto.CreateCodeRuleRequest{
		Name: "A", Template: "{SEQUENCE}",
		SequenceConfig: entity.SequenceConfig{ScopeFields: []string{"SEQUENCE"}},
	})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestActivateMain_DesactivaLasDemas(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	first := activeRule(t, uc, "A{SEQUENCE}", entity.SequenceConfig{})
	second := activeRule(t, uc, "B{SEQUENCE}", entity.SequenceConfig{})

	got, err := uc.GetMain(ctx, tenantID, first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	got, err = uc.GetMain(ctx, tenantID, second.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestUpdateMain_IncrementaVersionEInvalidaPlantilla(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()
	rule := activeRule(t, uc, "A-{SEQUENCE}", entity.SequenceConfig{Length: 3})

	out, err := uc.Generate(ctx, tenantID, dto.GenerateCodeRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "A-001", out.Code)

	tpl := "B-{SEQUENCE}"
	updated, err := uc.UpdateMain(ctx, tenantID, rule.ID, nil, dto.UpdateCodeRuleRequest{Template: &tpl, ChangeDescription: "cambio"})
	require.NoError(t, err)
	assert.Equal(t, rule.Version+1, updated.Version)

	out, err = uc.Generate(ctx, tenantID, dto.GenerateCodeRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "B-002", out.Code)

	hist, err := uc.History(ctx, tenantID, entity.RuleTypeMain, rule.ID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "cambio", hist[0].ChangeDescription)

	_, err = uc.History(ctx, tenantID, "otro", rule.ID)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestGenerate_ContadorPorTipo(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()
	rule := activeRule(t, uc, "MAT-{TYPE}-{SEQUENCE}", entity.SequenceConfig{Length: 4, IndependentByType: true})

	codes := map[string][]string{}
	for _, typ := range []string{"RAW", "RAW", "FIN"} {
		out, err := uc.Generate(ctx, tenantID, dto.GenerateCodeRequest{MaterialType: typ}, nil)
		require.NoError(t, err)
		codes[typ] = append(codes[typ], out.Code)
	}
	assert.Equal(t, []string{"MAT-RAW-0001", "MAT-RAW-0002"}, codes["RAW"])
	assert.Equal(t, []string{"MAT-FIN-0001"}, codes["FIN"])

	cfgs, err := store.CodeRules().ListTypeConfigs(ctx, tenantID, rule.ID)
	require.NoError(t, err)
	require.Len(t, cfgs, 2)
	for _, c := range cfgs {
		if c.TypeCode == "RAW" {
			assert.Equal(t, int64(2), c.CurrentSequence)
		}
	}
}

func TestGenerate_ScopeFieldsConTipoRegistraConfigDeTipo(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()
	rule := activeRule(t, uc, "{TYPE}{YEAR}{SEQUENCE}", entity.SequenceConfig{Length: 3, ScopeFields: []string{"type", "YEAR"}})

	for _, typ := range []string{"SEMI", "SEMI"} {
		_, err := uc.Generate(ctx, tenantID, dto.GenerateCodeRequest{MaterialType: typ}, nil)
		require.NoError(t, err)
	}
	cfgs, err := store.CodeRules().ListTypeConfigs(ctx, tenantID, rule.ID)
	require.NoError(t, err)
	require.Len(t, cfgs, 1)
	assert.Equal(t, "SEMI", cfgs[0].TypeCode)
	assert.Equal(t, int64(2), cfgs[0].CurrentSequence)
	assert.True(t, cfgs[0].IndependentSequence)
}

func TestGenerate_ScopeFieldsSinTipoNoRegistraConfig(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()
	rule := activeRule(t, uc, "{YEAR}{SEQUENCE}", entity.SequenceConfig{ScopeFields: []string{"YEAR"}})

	_, err := uc.Generate(ctx, tenantID, dto.GenerateCodeRequest{MaterialType: "RAW"}, nil)
	require.NoError(t, err)
	cfgs, err := store.CodeRules().ListTypeConfigs(ctx, tenantID, rule.ID)
	require.NoError(t, err)
	assert.Empty(t, cfgs)
}

func TestGenerate_ConcurrenteSinRepetidos(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()
	activeRule(t, uc, "MAT-{TYPE}-{SEQUENCE}", entity.SequenceConfig{Length: 4, ScopeFields: []string{"TYPE"}})

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got = map[string]bool{}
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := uc.Generate(ctx, tenantID, dto.GenerateCodeRequest{MaterialType: "RAW"}, nil)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			got[out.Code] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, got, 20)
	assert.True(t, got["MAT-RAW-0001"])
	assert.True(t, got["MAT-RAW-0020"])
}

func TestGenerate_SinReglaUsaFormatoPorDefecto(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	out, err := uc.Generate(ctx, tenantID, dto.GenerateCodeRequest{MaterialType: "SEMI"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "MAT-SEMI-0001", out.Code)
	assert.Equal(t, int64(0), out.RuleID)
}

func TestGenerate_ReintentaAnteColision(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()
	activeRule(t, uc, "{PREFIX}{SEQUENCE}", entity.SequenceConfig{Length: 2})

	taken := map[string]bool{"P01": true, "P02": true}
	out, err := uc.Generate(ctx, tenantID, dto.GenerateCodeRequest{}, func(code string) (bool, error) {
		return taken[code], nil
	})
	require.NoError(t, err)
	assert.Equal(t, "P03", out.Code)

	_, err = uc.Generate(ctx, tenantID, dto.GenerateCodeRequest{}, func(string) (bool, error) { return true, nil })
	assert.True(t, errors.Is(err, domain.ErrBusinessLogic))
}

func TestPreview_NoConsumeContador(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()
	activeRule(t, uc, "{PREFIX}-{DATE}-{SEQUENCE}", entity.SequenceConfig{Length: 3, StartValue: 5, Step: 5})

	p1, err := uc.Preview(ctx, tenantID, dto.GenerateCodeRequest{})
	require.NoError(t, err)
	p2, err := uc.Preview(ctx, tenantID, dto.GenerateCodeRequest{})
	require.NoError(t, err)
	assert.Equal(t, "P-20240309-005", p1.Code)
	assert.Equal(t, p1.Code, p2.Code)
	assert.True(t, p1.Preview)

	out, err := uc.Generate(ctx, tenantID, dto.GenerateCodeRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, p1.Code, out.Code)

	p3, err := uc.Preview(ctx, tenantID, dto.GenerateCodeRequest{})
	require.NoError(t, err)
	assert.Equal(t, "P-20240309-010", p3.Code)
}

func TestCreateAlias_DuplicadoYPatron(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	a, err := uc.CreateAlias(ctx, tenantID, nil, dto.CreateAliasRuleRequest{CodeType: "sale", CodeName: "销售编码", ValidationPattern: `^S\d{3}$`})
	require.NoError(t, err)
	assert.True(t, a.IsActive)
	assert.Equal(t, "SALE", a.CodeType)

	_, err = uc.CreateAlias(ctx, tenantID, nil, dto.CreateAliasRuleRequest{CodeType: "SALE", CodeName: "otro"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = uc.CreateAlias(ctx, tenantID, nil, dto.CreateAliasRuleRequest{CodeType: "DES", CodeName: "设计", ValidationPattern: "(["})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	assert.NoError(t, ValidateAliasCode(a, "S123"))
	assert.True(t, errors.Is(ValidateAliasCode(a, "X1"), domain.ErrValidation))
	assert.NoError(t, ValidateAliasCode(nil, "cualquiera"))
	assert.True(t, errors.Is(ValidateAliasCode(nil, " "), domain.ErrValidation))
}

func TestGenerate_ReglaDepartamental(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()
	activeRule(t, uc, "{SEQUENCE}", entity.SequenceConfig{})

	_, err := uc.CreateAlias(ctx, tenantID, nil, dto.CreateAliasRuleRequest{CodeType: "SUP", CodeName: "供应商", Template: "SUP-{SEQUENCE}", SequenceConfig: entity.SequenceConfig{Length: 3}})
	require.NoError(t, err)
	_, err = uc.CreateAlias(ctx, tenantID, nil, dto.CreateAliasRuleRequest{CodeType: "DES", CodeName: "设计"})
	require.NoError(t, err)

	out, err := uc.Generate(ctx, tenantID, dto.GenerateCodeRequest{RuleType: entity.RuleTypeAlias, CodeType: "sup"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "SUP-001", out.Code)
	assert.Equal(t, entity.RuleTypeAlias, out.RuleType)

	// el contador principal es independiente
	main, err := uc.Generate(ctx, tenantID, dto.GenerateCodeRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "0001", main.Code)

	_, err = uc.Generate(ctx, tenantID, dto.GenerateCodeRequest{RuleType: entity.RuleTypeAlias, CodeType: "DES"}, nil)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	_, err = uc.Generate(ctx, tenantID, dto.GenerateCodeRequest{RuleType: entity.RuleTypeAlias, CodeType: "NONE"}, nil)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUpdateAlias_Desactivar(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()
	_, err := uc.CreateAlias(ctx, tenantID, nil, dto.CreateAliasRuleRequest{CodeType: "SUP", CodeName: "供应商", Template: "S{SEQUENCE}"})
	require.NoError(t, err)

	off := false
	r, err := uc.UpdateAlias(ctx, tenantID, "sup", nil, dto.UpdateAliasRuleRequest{IsActive: &off})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Version)

	_, err = uc.Generate(ctx, tenantID, dto.GenerateCodeRequest{RuleType: entity.RuleTypeAlias, CodeType: "SUP"}, nil)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	hist, err := uc.History(ctx, tenantID, entity.RuleTypeAlias, r.ID)
	require.NoError(t, err)
	assert.Len(t, hist, 2)
}

func TestGenerateDocumentCode_SecuenciaDiaria(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()

	a, err := uc.GenerateDocumentCode(ctx, store, tenantID, "so", "SO", nil)
	require.NoError(t, err)
	b, err := uc.GenerateDocumentCode(ctx, store, tenantID, "SO", "SO", nil)
	require.NoError(t, err)
	assert.Equal(t, "SO202403090001", a)
	assert.Equal(t, "SO202403090002", b)

	c, err := uc.GenerateDocumentCode(ctx, store, tenantID, "SD", "SD", nil)
	require.NoError(t, err)
	assert.Equal(t, "SD202403090001", c)

	uc.now = func() time.Time { return time.Date(2024, 3, 10, 1, 0, 0, 0, time.UTC) }
	d, err := uc.GenerateDocumentCode(ctx, store, tenantID, "SO", "SO", nil)
	require.NoError(t, err)
	assert.Equal(t, "SO202403100001", d)

	_, err = uc.CreateAlias(ctx, tenantID, nil, dto.CreateAliasRuleRequest{CodeType: "PO", CodeName: "采购", Template: "PO-{YEAR}-{SEQUENCE}"})
	require.NoError(t, err)
	e, err := uc.GenerateDocumentCode(ctx, store, tenantID, "PO", "PO", nil)
	require.NoError(t, err)
	assert.Equal(t, "PO-2024-0001", e)
}
