package org

import (
	"context"
	"strings"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/ports"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

func dictKey(tenantID int64, code string) string {
	return ports.CacheKey("dict", tenantID, "code", code)
}

// CreateDictionary alta de diccionario del tenant.
func (uc *OrgUseCase) CreateDictionary(ctx context.Context, tenantID int64, in dto.CreateDictionaryRequest) (*entity.DataDictionary, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" || strings.TrimSpace(in.Name) == "" {
		return nil, domain.Validation("字典编码和名称不能为空")
	}
	existing, err := uc.store.Dictionaries().GetByCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Validation("字典编码 %s 已存在", code)
	}
	d := &entity.DataDictionary{TenantID: tenantID, Code: code, Name: in.Name, Description: in.Description, IsActive: true}
	if err := uc.store.Dictionaries().Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetDictionary diccionario con items, servido desde caché.
func (uc *OrgUseCase) GetDictionary(ctx context.Context, tenantID int64, code string) (*entity.DataDictionary, error) {
	key := dictKey(tenantID, code)
	if uc.cache != nil {
		var d entity.DataDictionary
		if found, err := uc.cache.Get(ctx, key, &d); err == nil && found {
			return &d, nil
		}
	}
	d, err := uc.store.Dictionaries().GetByCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.NotFound("数据字典", code)
	}
	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, d, uc.ttl); err != nil {
			uc.log.Warn().Int64("tenant_id", tenantID).Str("code", code).Err(err).Msg("escritura de caché de diccionario fallida")
		}
	}
	return d, nil
}

// ListDictionaries diccionarios del tenant (sin items).
func (uc *OrgUseCase) ListDictionaries(ctx context.Context, tenantID int64) ([]*entity.DataDictionary, error) {
	return uc.store.Dictionaries().List(ctx, tenantID)
}

// AddDictionaryItem agrega un valor; el valor es único dentro del diccionario.
func (uc *OrgUseCase) AddDictionaryItem(ctx context.Context, tenantID int64, code string, in dto.DictionaryItemRequest) (*entity.DictionaryItem, error) {
	if strings.TrimSpace(in.Value) == "" || strings.TrimSpace(in.Label) == "" {
		return nil, domain.Validation("字典项的值和标签不能为空")
	}
	d, err := uc.store.Dictionaries().GetByCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.NotFound("数据字典", code)
	}
	for _, it := range d.Items {
		if it.Value == in.Value {
			return nil, domain.Validation("字典项 %s 已存在", in.Value)
		}
	}
	item := &entity.DictionaryItem{
		TenantID: tenantID, DictionaryID: d.ID, Label: in.Label, Value: in.Value,
		SortOrder: in.SortOrder, IsActive: true,
	}
	if err := uc.store.Dictionaries().AddItem(ctx, item); err != nil {
		return nil, err
	}
	if uc.cache != nil {
		if err := uc.cache.Delete(ctx, dictKey(tenantID, code)); err != nil {
			uc.log.Warn().Int64("tenant_id", tenantID).Str("code", code).Err(err).Msg("invalidación de diccionario fallida")
		}
	}
	return item, nil
}
