package material

import (
	"context"
	"sort"
	"strings"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

// Umbrales de puntuación de duplicados.
const (
	DuplicateThreshold = 50
	highConfidence     = 80
	mediumConfidence   = 60
	similarLimit       = 50
)

// Score puntúa la similitud de m con los datos dados y devuelve los motivos.
func Score(m *entity.Material, name, spec, unit string) (int, []string) {
	score := 0
	var reasons []string
	switch {
	case name != "" && m.Name == name:
		score += 50
		reasons = append(reasons, "名称相同")
	case contains(m.Name, name):
		score += 20
		reasons = append(reasons, "名称相似")
	}
	switch {
	case spec != "" && m.Specification == spec:
		score += 30
		reasons = append(reasons, "规格相同")
	case contains(m.Specification, spec):
		score += 10
		reasons = append(reasons, "规格相似")
	}
	if unit != "" && m.BaseUnit == unit {
		score += 20
		reasons = append(reasons, "单位相同")
	}
	return score, reasons
}

func contains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Confidence nivel de confianza de una puntuación.
func Confidence(score int) string {
	switch {
	case score >= highConfidence:
		return "high"
	case score >= mediumConfidence:
		return "medium"
	default:
		return "low"
	}
}

// FindDuplicates candidatos con puntuación >= 50, de mayor a menor.
func (uc *MaterialUseCase) FindDuplicates(ctx context.Context, tenantID int64, in dto.DuplicateCheckRequest) ([]dto.DuplicateCandidate, error) {
	name := strings.TrimSpace(in.Name)
	spec := strings.TrimSpace(in.Specification)
	if name == "" && spec == "" {
		return nil, domain.Validation("名称和规格不能同时为空")
	}
	similar, err := uc.store.Materials().SearchSimilar(ctx, tenantID, name, spec, in.ExcludeID, similarLimit)
	if err != nil {
		return nil, err
	}
	out := []dto.DuplicateCandidate{}
	for _, m := range similar {
		score, reasons := Score(m, name, spec, strings.TrimSpace(in.BaseUnit))
		if score < DuplicateThreshold {
			continue
		}
		out = append(out, dto.DuplicateCandidate{Material: m, Score: score, Confidence: Confidence(score), Reasons: reasons})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Material.ID < out[j].Material.ID
	})
	return out, nil
}

// Merge fusiona source en target: los alias pasan a target (los repetidos se
// descartan), los campos vacíos de target se completan y source se elimina.
func (uc *MaterialUseCase) Merge(ctx context.Context, tenantID int64, in dto.MergeMaterialsRequest) (*dto.MergeResult, error) {
	if in.SourceID == in.TargetID {
		return nil, domain.Validation("不能将物料合并到自身")
	}
	res := &dto.MergeResult{FilledFields: []string{}}
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		src, err := uc.get(ctx, s, tenantID, in.SourceID)
		if err != nil {
			return err
		}
		dst, err := uc.get(ctx, s, tenantID, in.TargetID)
		if err != nil {
			return err
		}
		targetAliases, err := s.MaterialAliases().ListByMaterial(ctx, tenantID, dst.ID)
		if err != nil {
			return err
		}
		have := map[entity.AliasKey]bool{}
		primary := map[string]bool{}
		for _, a := range targetAliases {
			have[a.Key()] = true
			if a.IsPrimary {
				primary[a.CodeType] = true
			}
		}
		sourceAliases, err := s.MaterialAliases().ListByMaterial(ctx, tenantID, src.ID)
		if err != nil {
			return err
		}
		for _, a := range sourceAliases {
			if have[a.Key()] {
				if err := s.MaterialAliases().SoftDelete(ctx, tenantID, a.ID); err != nil {
					return err
				}
				res.SkippedAliases++
				continue
			}
			a.MaterialID = dst.ID
			if primary[a.CodeType] {
				a.IsPrimary = false
			}
			if err := s.MaterialAliases().Update(ctx, a); err != nil {
				return err
			}
			have[a.Key()] = true
			res.MovedAliases++
		}

		res.FilledFields = fillEmpty(dst, src)
		if err := s.Materials().Update(ctx, dst); err != nil {
			return err
		}
		if err := s.Materials().SoftDelete(ctx, tenantID, src.ID); err != nil {
			return err
		}
		res.Target = dst
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("tenant_id", tenantID).Int64("source_id", in.SourceID).Int64("target_id", in.TargetID).
		Int("moved", res.MovedAliases).Int("skipped", res.SkippedAliases).Msg("materiales fusionados")
	return res, nil
}

func fillEmpty(dst, src *entity.Material) []string {
	filled := []string{}
	fill := func(field string, d *string, s string) {
		if *d == "" && s != "" {
			*d = s
			filled = append(filled, field)
		}
	}
	fill("specification", &dst.Specification, src.Specification)
	fill("base_unit", &dst.BaseUnit, src.BaseUnit)
	fill("description", &dst.Description, src.Description)
	fill("brand", &dst.Brand, src.Brand)
	fill("model", &dst.Model, src.Model)
	if dst.ProcessRouteID == nil && src.ProcessRouteID != nil {
		dst.ProcessRouteID = src.ProcessRouteID
		filled = append(filled, "process_route_id")
	}
	if len(dst.VariantAttributes) == 0 && len(src.VariantAttributes) > 0 {
		dst.VariantAttributes = src.VariantAttributes
		filled = append(filled, "variant_attributes")
	}
	return filled
}
