package material

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveredge/platform-kernel/internal/application/apptest"
	"github.com/riveredge/platform-kernel/internal/application/codegen"
	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

const tenantID int64 = 3

type fixture struct {
	uc    *MaterialUseCase
	codes *codegen.CodeRuleUseCase
	store *apptest.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := apptest.NewStore()
	tx := apptest.NewTxRunner(store)
	codes := codegen.NewCodeRuleUseCase(store, tx, time.UTC, nil)
	return fixture{uc: NewMaterialUseCase(store, tx, codes, nil), codes: codes, store: store}
}

func (f fixture) create(t *testing.T, in dto.CreateMaterialRequest) *dto.MaterialDetail {
	t.Helper()
	m, err := f.uc.Create(context.Background(), tenantID, nil, in)
	require.NoError(t, err)
	return m
}

func TestCreate_AsignaCodigoPorDefecto(t *testing.T) {
	f := newFixture(t)

	a := f.create(t, dto.CreateMaterialRequest{Name: "钢板", MaterialType: "raw"})
	b := f.create(t, dto.CreateMaterialRequest{Name: "钢管", MaterialType: "desconocido"})
	c := f.create(t, dto.CreateMaterialRequest{Name: "电机", MaterialType: "FIN"})

	assert.Equal(t, "MAT-RAW-0001", a.MainCode)
	assert.Equal(t, "MAT-RAW-0002", b.MainCode)
	assert.Equal(t, "RAW", b.MaterialType)
	assert.Equal(t, "MAT-FIN-0001", c.MainCode)
	assert.Equal(t, entity.SourceBuy, a.SourceType)
	assert.Equal(t, entity.SourceMake, c.SourceType)
}

func TestCreate_UsaReglaActivaYSaltaCodigosOcupados(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rule, err := f.codes.CreateMain(ctx, tenantID, nil, dto.CreateCodeRuleRequest{
		Name: "r", Template: "M{TYPE}{SEQUENCE}",
		SequenceConfig: entity.SequenceConfig{Length: 3, IndependentByType: true},
	})
	require.NoError(t, err)
	_, err = f.codes.ActivateMain(ctx, tenantID, rule.ID)
	require.NoError(t, err)

	f.create(t, dto.CreateMaterialRequest{Name: "manual", MainCode: "MRAW001"})
	m := f.create(t, dto.CreateMaterialRequest{Name: "auto", MaterialType: "RAW"})
	assert.Equal(t, "MRAW002", m.MainCode)

	_, err = f.uc.Create(ctx, tenantID, nil, dto.CreateMaterialRequest{Name: "dup", MainCode: "MRAW002"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCreate_ValidaSourceConfig(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Create(ctx, tenantID, nil, dto.CreateMaterialRequest{Name: "x", SourceType: "Steal"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = f.uc.Create(ctx, tenantID, nil, dto.CreateMaterialRequest{
		Name: "x", SourceType: entity.SourceBuy,
		SourceConfig: map[string]any{"default_supplier_id": float64(9), "color": "rojo"},
	})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = f.uc.Create(ctx, tenantID, nil, dto.CreateMaterialRequest{
		Name: "x", SourceType: entity.SourceMake,
		SourceConfig: map[string]any{"manufacturing_mode": "magia"},
	})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	m := f.create(t, dto.CreateMaterialRequest{
		Name: "ok", SourceType: entity.SourceBuy,
		SourceConfig: map[string]any{"default_supplier_id": float64(9), "purchase_lead_time": float64(5)},
	})
	assert.Equal(t, float64(9), m.SourceConfig["default_supplier_id"])
}

func TestDecodeSourceConfig_Tipado(t *testing.T) {
	cfg, err := DecodeSourceConfig(entity.SourceOutsource, map[string]any{
		"outsource_supplier_id": float64(4),
		"outsource_operation":   "电镀",
	})
	require.NoError(t, err)
	oc := cfg.(*OutsourceConfig)
	require.NotNil(t, oc.OutsourceSupplierID)
	assert.Equal(t, int64(4), *oc.OutsourceSupplierID)
	assert.Equal(t, "enterprise", oc.MaterialProvidedBy)

	_, err = DecodeSourceConfig(entity.SourcePhantom, map[string]any{"x": 1})
	assert.True(t, errors.Is(err, domain.ErrValidation))
	_, err = DecodeSourceConfig(entity.SourcePhantom, nil)
	assert.NoError(t, err)
}

func TestAlias_ValidacionIdempotenciaYConflicto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.codes.CreateAlias(ctx, tenantID, nil, dto.CreateAliasRuleRequest{CodeType: "SALE", CodeName: "销售", ValidationPattern: `^S-\d+$`})
	require.NoError(t, err)

	a := f.create(t, dto.CreateMaterialRequest{Name: "A"})
	b := f.create(t, dto.CreateMaterialRequest{Name: "B"})

	_, err = f.uc.AddAlias(ctx, tenantID, a.ID, dto.CreateAliasRequest{CodeType: "sale", Code: "X-1"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	first, err := f.uc.AddAlias(ctx, tenantID, a.ID, dto.CreateAliasRequest{CodeType: "sale", Code: "S-1"})
	require.NoError(t, err)
	again, err := f.uc.AddAlias(ctx, tenantID, a.ID, dto.CreateAliasRequest{CodeType: "SALE", Code: "S-1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	_, err = f.uc.AddAlias(ctx, tenantID, b.ID, dto.CreateAliasRequest{CodeType: "SALE", Code: "S-1"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	// sin regla: cualquier código no vacío
	_, err = f.uc.AddAlias(ctx, tenantID, b.ID, dto.CreateAliasRequest{CodeType: "CUST", Code: "abc"})
	require.NoError(t, err)
}

func TestAlias_MismoCodigoParaClientesDistintos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, dto.CreateMaterialRequest{Name: "A"})
	b := f.create(t, dto.CreateMaterialRequest{Name: "B"})
	customer1, customer2 := int64(1), int64(2)

	first, err := f.uc.AddAlias(ctx, tenantID, a.ID, dto.CreateAliasRequest{
		CodeType: "CUS", Code: "X001", ExternalEntityType: "customer", ExternalEntityID: &customer1,
	})
	require.NoError(t, err)
	second, err := f.uc.AddAlias(ctx, tenantID, b.ID, dto.CreateAliasRequest{
		CodeType: "CUS", Code: "X001", ExternalEntityType: "customer", ExternalEntityID: &customer2,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, b.ID, second.MaterialID)

	// misma clave completa sigue siendo única
	_, err = f.uc.AddAlias(ctx, tenantID, b.ID, dto.CreateAliasRequest{
		CodeType: "CUS", Code: "X001", ExternalEntityType: "customer", ExternalEntityID: &customer1,
	})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	// sin entidad externa es otra clave
	_, err = f.uc.AddAlias(ctx, tenantID, a.ID, dto.CreateAliasRequest{CodeType: "CUS", Code: "X001"})
	require.NoError(t, err)
}

func TestAlias_PrimarioExclusivo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.create(t, dto.CreateMaterialRequest{Name: "A"})

	_, err := f.uc.AddAlias(ctx, tenantID, m.ID, dto.CreateAliasRequest{CodeType: "SUP", Code: "1", IsPrimary: true})
	require.NoError(t, err)
	_, err = f.uc.AddAlias(ctx, tenantID, m.ID, dto.CreateAliasRequest{CodeType: "SUP", Code: "2", IsPrimary: true})
	require.NoError(t, err)

	aliases, err := f.uc.ListAliases(ctx, tenantID, m.ID)
	require.NoError(t, err)
	primaries := 0
	for _, a := range aliases {
		if a.IsPrimary {
			primaries++
			assert.Equal(t, "2", a.Code)
		}
	}
	assert.Equal(t, 1, primaries)
}

func TestGetByCode_PrincipalLuegoAlias(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.create(t, dto.CreateMaterialRequest{
		Name:    "A",
		Aliases: []dto.CreateAliasRequest{{CodeType: "DES", Code: "D-100"}},
	})

	got, err := f.uc.GetByCode(ctx, tenantID, m.MainCode)
	require.NoError(t, err)
	assert.Equal(t, "main_code", got.MatchedBy)
	assert.Len(t, got.Aliases, 1)

	got, err = f.uc.GetByCode(ctx, tenantID, "D-100")
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, "alias:DES", got.MatchedBy)

	_, err = f.uc.GetByCode(ctx, tenantID, "nada")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = f.uc.GetByCode(ctx, tenantID+1, "D-100")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestScore_Puntuacion(t *testing.T) {
	m := &entity.Material{Name: "不锈钢板", Specification: "2mm", BaseUnit: "张"}

	score, reasons := Score(m, "不锈钢板", "2mm", "张")
	assert.Equal(t, 100, score)
	assert.Len(t, reasons, 3)
	assert.Equal(t, "high", Confidence(score))

	score, _ = Score(m, "钢板", "2mm", "")
	assert.Equal(t, 50, score)
	assert.Equal(t, "low", Confidence(score))

	score, _ = Score(m, "不锈钢板", "2", "")
	assert.Equal(t, 60, score)
	assert.Equal(t, "medium", Confidence(score))
}

func TestFindDuplicates_UmbralYOrden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exact := f.create(t, dto.CreateMaterialRequest{Name: "螺栓", Specification: "M8", BaseUnit: "个"})
	f.create(t, dto.CreateMaterialRequest{Name: "螺栓", Specification: "M10"})
	f.create(t, dto.CreateMaterialRequest{Name: "螺栓套装", Specification: "X"})

	got, err := f.uc.FindDuplicates(ctx, tenantID, dto.DuplicateCheckRequest{Name: "螺栓", Specification: "M8", BaseUnit: "个"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, exact.ID, got[0].Material.ID)
	assert.Equal(t, 100, got[0].Score)
	assert.Equal(t, 50, got[1].Score)

	got, err = f.uc.FindDuplicates(ctx, tenantID, dto.DuplicateCheckRequest{Name: "螺栓", Specification: "M8", ExcludeID: exact.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = f.uc.FindDuplicates(ctx, tenantID, dto.DuplicateCheckRequest{})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestMerge_MueveAliasYCompletaCampos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	src := f.create(t, dto.CreateMaterialRequest{
		Name: "A", Specification: "spec", Brand: "ACME",
		Aliases: []dto.CreateAliasRequest{{CodeType: "SALE", Code: "S1", IsPrimary: true}, {CodeType: "DES", Code: "D1"}},
	})
	dst := f.create(t, dto.CreateMaterialRequest{
		Name: "A2", Brand: "Keep",
		Aliases: []dto.CreateAliasRequest{{CodeType: "SALE", Code: "S0", IsPrimary: true}},
	})
	res, err := f.uc.Merge(ctx, tenantID, dto.MergeMaterialsRequest{SourceID: src.ID, TargetID: dst.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, res.MovedAliases)
	assert.Equal(t, []string{"specification"}, res.FilledFields)
	assert.Equal(t, "Keep", res.Target.Brand)

	_, err = f.uc.Get(ctx, tenantID, src.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	got, err := f.uc.GetByCode(ctx, tenantID, "S1")
	require.NoError(t, err)
	assert.Equal(t, dst.ID, got.ID)
	primaries := 0
	for _, a := range got.Aliases {
		if a.CodeType == "SALE" && a.IsPrimary {
			primaries++
		}
	}
	assert.Equal(t, 1, primaries)

	_, err = f.uc.Merge(ctx, tenantID, dto.MergeMaterialsRequest{SourceID: dst.ID, TargetID: dst.ID})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestChangeSource_CompletitudYBOM(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent := f.create(t, dto.CreateMaterialRequest{Name: "总成", MaterialType: "FIN"})
	part := f.create(t, dto.CreateMaterialRequest{Name: "零件", MaterialType: "RAW", SourceConfig: map[string]any{"default_supplier_id": float64(1)}})

	m, check, err := f.uc.ChangeSource(ctx, tenantID, parent.ID, dto.ChangeSourceRequest{
		SourceType: entity.SourceMake, SourceConfig: map[string]any{"manufacturing_mode": ModeAssembly},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.SourceMake, m.SourceType)
	assert.False(t, check.IsComplete)
	assert.Contains(t, check.MissingConfigs, "BOM配置")

	_, err = f.uc.AddBOMLine(ctx, tenantID, parent.ID, dto.AddBOMLineRequest{ComponentID: part.ID, Quantity: decimal.NewFromInt(2)})
	require.NoError(t, err)
	n, err := f.uc.ApproveBOM(ctx, tenantID, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	check, err = f.uc.CheckSource(ctx, tenantID, parent.ID)
	require.NoError(t, err)
	assert.True(t, check.IsComplete)
	assert.Contains(t, check.Warnings, "装配型建议配置工艺路线")

	// cambiar de tipo sin configuración descarta la anterior
	m, check, err = f.uc.ChangeSource(ctx, tenantID, part.ID, dto.ChangeSourceRequest{SourceType: entity.SourceOutsource})
	require.NoError(t, err)
	assert.Nil(t, m.SourceConfig)
	assert.ElementsMatch(t, []string{"委外供应商配置", "委外工序配置"}, check.MissingConfigs)

	_, _, err = f.uc.ChangeSource(ctx, tenantID, part.ID, dto.ChangeSourceRequest{SourceType: "Nope"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestSuggestSource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	raw := f.create(t, dto.CreateMaterialRequest{Name: "料", MaterialType: "RAW"})
	pack := f.create(t, dto.CreateMaterialRequest{Name: "箱", MaterialType: "PACK"})

	s, err := f.uc.SuggestSource(ctx, tenantID, raw.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SourceBuy, s.SuggestedType)
	assert.Equal(t, 0.9, s.Confidence)

	s, err = f.uc.SuggestSource(ctx, tenantID, pack.ID)
	require.NoError(t, err)
	assert.Empty(t, s.SuggestedType)
	assert.Len(t, s.Reasons, 1)
}

func TestAddBOMLine_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, dto.CreateMaterialRequest{Name: "A", MaterialType: "FIN"})
	b := f.create(t, dto.CreateMaterialRequest{Name: "B", MaterialType: "SEMI"})
	one := decimal.NewFromInt(1)

	_, err := f.uc.AddBOMLine(ctx, tenantID, a.ID, dto.AddBOMLineRequest{ComponentID: a.ID, Quantity: one})
	assert.True(t, errors.Is(err, domain.ErrValidation))
	_, err = f.uc.AddBOMLine(ctx, tenantID, a.ID, dto.AddBOMLineRequest{ComponentID: b.ID})
	assert.True(t, errors.Is(err, domain.ErrValidation))
	_, err = f.uc.AddBOMLine(ctx, tenantID, a.ID, dto.AddBOMLineRequest{ComponentID: b.ID, Quantity: one, WasteRate: one})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	line, err := f.uc.AddBOMLine(ctx, tenantID, a.ID, dto.AddBOMLineRequest{ComponentID: b.ID, Quantity: one, WasteRate: decimal.RequireFromString("0.05")})
	require.NoError(t, err)
	assert.Equal(t, BOMDraft, line.ApprovalStatus)
	assert.Equal(t, a.MainCode+"-BOM", line.BOMCode)
	assert.Equal(t, "1.0", line.Version)

	_, err = f.uc.AddBOMLine(ctx, tenantID, b.ID, dto.AddBOMLineRequest{ComponentID: a.ID, Quantity: one})
	assert.True(t, errors.Is(err, domain.ErrValidation), "ciclo")

	lines, err := f.uc.ListBOM(ctx, tenantID, a.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	_, err = f.uc.AddBOMLine(ctx, tenantID, a.ID, dto.AddBOMLineRequest{ComponentID: 999, Quantity: one})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
