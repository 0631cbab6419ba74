// Package document ciclo de vida de documentos de negocio: alta, acciones,
// aprobación, push/pull entre tipos, relaciones y compensación de datos.
package document

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/ports"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/document"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
	"github.com/riveredge/platform-kernel/pkg/logger"
)

// Numberer asigna números de documento dentro de la transacción del llamador.
type Numberer interface {
	GenerateDocumentCode(ctx context.Context, s repository.Store, tenantID int64, codeType, prefix string, exists func(code string) (bool, error)) (string, error)
}

// Approvals arranque y acciones de aprobación dentro de una transacción.
type Approvals interface {
	StartIn(ctx context.Context, s repository.Store, tenantID int64, in dto.StartApprovalRequest) (*entity.ApprovalInstance, error)
	ActIn(ctx context.Context, s repository.Store, tenantID, instanceID, actorID int64, isAdmin bool, in dto.ApprovalActionRequest) (*entity.ApprovalInstance, error)
}

// Deps dependencias del caso de uso.
type Deps struct {
	Store     repository.Store
	Tx        ports.TxRunner
	Numbers   Numberer
	Approvals Approvals
	Events    ports.EventPublisher
	Log       *logger.Logger
	Location  *time.Location
}

// DocumentUseCase casos de uso de documentos.
type DocumentUseCase struct {
	store     repository.Store
	tx        ports.TxRunner
	numbers   Numberer
	approvals Approvals
	events    ports.EventPublisher
	log       *logger.Logger
	loc       *time.Location
	now       func() time.Time
	scenarios map[pair]scenario
}

// NewDocumentUseCase construye el caso de uso con los escenarios de push registrados.
func NewDocumentUseCase(d Deps) *DocumentUseCase {
	if d.Events == nil {
		d.Events = ports.NopPublisher{}
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	uc := &DocumentUseCase{
		store:     d.Store,
		tx:        d.Tx,
		numbers:   d.Numbers,
		approvals: d.Approvals,
		events:    d.Events,
		log:       logger.OrNop(d.Log).Component("document"),
		loc:       d.Location,
		now:       func() time.Time { return time.Now().UTC() },
		scenarios: map[pair]scenario{},
	}
	uc.registerDefaults()
	return uc
}

func (uc *DocumentUseCase) nextCode(ctx context.Context, s repository.Store, tenantID int64, info document.TypeInfo, prefix string) (string, error) {
	if prefix == "" {
		prefix = info.Prefix
	}
	return uc.numbers.GenerateDocumentCode(ctx, s, tenantID, info.Prefix, prefix, func(code string) (bool, error) {
		d, err := s.Documents().GetByCode(ctx, tenantID, info.Code, code)
		return d != nil, err
	})
}

// buildItems valida las líneas y copia los datos del material.
func buildItems(ctx context.Context, s repository.Store, tenantID int64, in []dto.DocumentItemRequest) ([]*entity.DocumentItem, error) {
	if len(in) == 0 {
		return nil, domain.Validation("单据明细不能为空")
	}
	items := make([]*entity.DocumentItem, 0, len(in))
	for i, it := range in {
		if !it.Quantity.IsPositive() {
			return nil, domain.Validation("第 %d 行数量必须大于0", i+1)
		}
		if it.UnitPrice.IsNegative() {
			return nil, domain.Validation("第 %d 行单价不能为负", i+1)
		}
		m, err := s.Materials().GetByID(ctx, tenantID, it.MaterialID)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, domain.NotFound("物料", it.MaterialID)
		}
		items = append(items, &entity.DocumentItem{
			TenantID:     tenantID,
			LineNo:       i + 1,
			MaterialID:   m.ID,
			MaterialCode: m.MainCode,
			MaterialName: m.Name,
			MaterialSpec: m.Specification,
			MaterialUnit: m.BaseUnit,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			WarehouseID:  it.WarehouseID,
			Remarks:      it.Remarks,
		})
	}
	return items, nil
}

// insert crea cabecera y líneas; asigna número si Code está vacío.
func (uc *DocumentUseCase) insert(ctx context.Context, s repository.Store, info document.TypeInfo, d *entity.Document, items []*entity.DocumentItem, prefix string) error {
	if d.Code == "" {
		code, err := uc.nextCode(ctx, s, d.TenantID, info, prefix)
		if err != nil {
			return err
		}
		d.Code = code
	}
	if err := s.Documents().Create(ctx, d); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return domain.Validation("单据编号 %s 已存在", d.Code)
		}
		return err
	}
	for _, it := range items {
		it.DocumentID = d.ID
		it.TenantID = d.TenantID
	}
	if err := s.Documents().CreateItems(ctx, items); err != nil {
		return err
	}
	d.Items = items
	return nil
}

// Create alta de un documento en el estado inicial de su tipo.
func (uc *DocumentUseCase) Create(ctx context.Context, tenantID int64, userID *int64, docType string, in dto.CreateDocumentRequest) (*dto.DocumentDetail, error) {
	info, err := document.Lookup(docType)
	if err != nil {
		return nil, err
	}
	date := uc.now()
	if in.BusinessDate != nil {
		date = in.BusinessDate.UTC()
	}
	d := &entity.Document{
		TenantID:     tenantID,
		DocType:      info.Code,
		Code:         strings.TrimSpace(in.Code),
		Status:       info.InitialStatus,
		PartyID:      in.PartyID,
		PartyName:    in.PartyName,
		WarehouseID:  in.WarehouseID,
		BusinessDate: date,
		Remarks:      in.Remarks,
		Extra:        in.Extra,
		CreatedBy:    userID,
		UpdatedBy:    userID,
	}
	err = uc.tx.Run(ctx, func(s repository.Store) error {
		items, err := buildItems(ctx, s, tenantID, in.Items)
		if err != nil {
			return err
		}
		return uc.insert(ctx, s, info, d, items, "")
	})
	if err != nil {
		uc.log.Warn().Int64("tenant_id", tenantID).Str("doc_type", docType).Str("code", d.Code).Err(err).Msg("alta de documento fallida")
		return nil, err
	}
	uc.publish(d, "created")
	return &dto.DocumentDetail{Document: d, AllowedActions: document.Allowed(d)}, nil
}

func (uc *DocumentUseCase) load(ctx context.Context, s repository.Store, tenantID int64, docType string, id int64, forUpdate bool) (*entity.Document, error) {
	var (
		d   *entity.Document
		err error
	)
	if forUpdate {
		d, err = s.Documents().GetByIDForUpdate(ctx, tenantID, id)
	} else {
		d, err = s.Documents().GetByID(ctx, tenantID, id)
	}
	if err != nil {
		return nil, err
	}
	if d == nil || (docType != "" && d.DocType != docType) {
		return nil, domain.NotFound("单据", id)
	}
	return d, nil
}

// Get documento con líneas.
func (uc *DocumentUseCase) Get(ctx context.Context, tenantID int64, docType string, id int64) (*dto.DocumentDetail, error) {
	d, err := uc.load(ctx, uc.store, tenantID, docType, id, false)
	if err != nil {
		return nil, err
	}
	items, err := uc.store.Documents().ListItems(ctx, tenantID, d.ID)
	if err != nil {
		return nil, err
	}
	d.Items = items
	return &dto.DocumentDetail{Document: d, AllowedActions: document.Allowed(d)}, nil
}

// List documentos de un tipo.
func (uc *DocumentUseCase) List(ctx context.Context, tenantID int64, docType string, p dto.PageRequest) (dto.ListResponse[*entity.Document], error) {
	if _, err := document.Lookup(docType); err != nil {
		return dto.ListResponse[*entity.Document]{}, err
	}
	items, total, err := uc.store.Documents().List(ctx, tenantID, repository.DocumentFilter{DocType: docType, ListFilter: p.Filter()})
	if err != nil {
		return dto.ListResponse[*entity.Document]{}, err
	}
	return dto.NewListResponse(items, p, total), nil
}

// Update cambia la cabecera; sólo en el estado inicial del tipo.
func (uc *DocumentUseCase) Update(ctx context.Context, tenantID int64, userID *int64, docType string, id int64, in dto.UpdateDocumentRequest) (*entity.Document, error) {
	info, err := document.Lookup(docType)
	if err != nil {
		return nil, err
	}
	var out *entity.Document
	err = uc.tx.Run(ctx, func(s repository.Store) error {
		d, err := uc.load(ctx, s, tenantID, docType, id, true)
		if err != nil {
			return err
		}
		if d.Status != info.InitialStatus {
			return domain.Business("单据 %s 当前状态为 %s，不能修改", d.Code, d.Status)
		}
		if in.PartyName != nil {
			d.PartyName = *in.PartyName
		}
		if in.WarehouseID != nil {
			d.WarehouseID = in.WarehouseID
		}
		if in.BusinessDate != nil {
			d.BusinessDate = in.BusinessDate.UTC()
		}
		if in.Remarks != nil {
			d.Remarks = *in.Remarks
		}
		d.UpdatedBy = userID
		if err := s.Documents().Update(ctx, d); err != nil {
			return err
		}
		out = d
		return nil
	})
	return out, err
}

// Relations relaciones aguas arriba (este documento como destino) y abajo.
func (uc *DocumentUseCase) Relations(ctx context.Context, tenantID int64, docType string, id int64) (*dto.DocumentRelations, error) {
	d, err := uc.load(ctx, uc.store, tenantID, docType, id, false)
	if err != nil {
		return nil, err
	}
	up, err := uc.store.Relations().ListByTarget(ctx, tenantID, d.DocType, d.ID)
	if err != nil {
		return nil, err
	}
	down, err := uc.store.Relations().ListBySource(ctx, tenantID, d.DocType, d.ID)
	if err != nil {
		return nil, err
	}
	if up == nil {
		up = []*entity.DocumentRelation{}
	}
	if down == nil {
		down = []*entity.DocumentRelation{}
	}
	return &dto.DocumentRelations{Upstream: up, Downstream: down}, nil
}

func (uc *DocumentUseCase) publish(d *entity.Document, event string) {
	uc.events.PublishToTenant(d.TenantID, ports.ChannelDocuments, map[string]any{
		"event":    "document." + event,
		"id":       d.ID,
		"doc_type": d.DocType,
		"code":     d.Code,
		"status":   d.Status,
	})
}
