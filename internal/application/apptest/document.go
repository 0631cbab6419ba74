package apptest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

type documentRepo struct{ s *Store }

func (r documentRepo) Create(_ context.Context, d *entity.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.docs {
		if x.DeletedAt == nil && x.TenantID == d.TenantID && x.DocType == d.DocType && x.Code == d.Code {
			return duplicate(d.DocType, d.Code)
		}
	}
	r.s.stamp(&d.ID, &d.UUID, &d.CreatedAt, &d.UpdatedAt)
	stored := clone(d)
	stored.Items = nil
	r.s.docs = append(r.s.docs, stored)
	return nil
}

func (r documentRepo) CreateItems(_ context.Context, items []*entity.DocumentItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, it := range items {
		r.s.stamp(&it.ID, &it.UUID, &it.CreatedAt, &it.UpdatedAt)
		r.s.docItems = append(r.s.docItems, clone(it))
	}
	return nil
}

func (r documentRepo) get(tenantID, id int64) *entity.Document {
	for _, x := range r.s.docs {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.ID == id {
			return clone(x)
		}
	}
	return nil
}

func (r documentRepo) GetByID(_ context.Context, tenantID, id int64) (*entity.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.get(tenantID, id), nil
}

func (r documentRepo) GetByIDForUpdate(_ context.Context, tenantID, id int64) (*entity.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.get(tenantID, id), nil
}

func (r documentRepo) GetByCode(_ context.Context, tenantID int64, docType, code string) (*entity.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.docs {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.DocType == docType && x.Code == code {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r documentRepo) List(_ context.Context, tenantID int64, f repository.DocumentFilter) ([]*entity.Document, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Document
	for _, x := range r.s.docs {
		if x.DeletedAt != nil || x.TenantID != tenantID || (f.DocType != "" && x.DocType != f.DocType) {
			continue
		}
		if (f.Status == "" || x.Status == f.Status) && matches(f.Keyword, x.Code, x.PartyName) {
			out = append(out, x)
		}
	}
	items, total := page(out, f.ListFilter)
	return items, total, nil
}

func (r documentRepo) Update(_ context.Context, d *entity.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, x := range r.s.docs {
		if x.DeletedAt == nil && x.TenantID == d.TenantID && x.ID == d.ID {
			d.UpdatedAt = r.s.Now()
			stored := clone(d)
			stored.Items = nil
			r.s.docs[i] = stored
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r documentRepo) SoftDelete(_ context.Context, tenantID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.docs {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.ID == id {
			now := r.s.Now()
			x.DeletedAt = &now
			for _, it := range r.s.docItems {
				if it.DocumentID == id && it.DeletedAt == nil {
					it.DeletedAt = &now
				}
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r documentRepo) ListItems(_ context.Context, tenantID, documentID int64) ([]*entity.DocumentItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.DocumentItem
	for _, x := range r.s.docItems {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.DocumentID == documentID {
			out = append(out, clone(x))
		}
	}
	return out, nil
}

func (r documentRepo) UpdateItem(_ context.Context, item *entity.DocumentItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, x := range r.s.docItems {
		if x.DeletedAt == nil && x.TenantID == item.TenantID && x.ID == item.ID {
			item.UpdatedAt = r.s.Now()
			r.s.docItems[i] = clone(item)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r documentRepo) ListMovementLines(_ context.Context, tenantID int64, docTypes []string, status string, from, to time.Time) ([]*entity.StockMovementLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	types := map[string]bool{}
	for _, t := range docTypes {
		types[t] = true
	}
	var out []*entity.StockMovementLine
	for _, d := range r.s.docs {
		if d.DeletedAt != nil || d.TenantID != tenantID || !types[d.DocType] || d.Status != status {
			continue
		}
		if d.BusinessDate.Before(from) || !d.BusinessDate.Before(to) {
			continue
		}
		for _, it := range r.s.docItems {
			if it.DeletedAt != nil || it.DocumentID != d.ID {
				continue
			}
			var wh int64
			if it.WarehouseID != nil {
				wh = *it.WarehouseID
			} else if d.WarehouseID != nil {
				wh = *d.WarehouseID
			}
			out = append(out, &entity.StockMovementLine{
				DocumentID: d.ID, DocType: d.DocType, MaterialID: it.MaterialID,
				WarehouseID: wh, Quantity: it.Quantity,
			})
		}
	}
	return out, nil
}

func (r documentRepo) CountByType(_ context.Context, tenantID int64, docType string, statuses []string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, d := range r.s.docs {
		if d.DeletedAt != nil || d.TenantID != tenantID || d.DocType != docType {
			continue
		}
		if len(statuses) == 0 {
			n++
			continue
		}
		for _, st := range statuses {
			if d.Status == st {
				n++
				break
			}
		}
	}
	return n, nil
}

type relationRepo struct{ s *Store }

func (r relationRepo) Create(_ context.Context, rel *entity.DocumentRelation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rel.ID = r.s.nextID()
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = r.s.Now()
	}
	if rel.UUID == "" {
		rel.UUID = uuid.New().String()
	}
	r.s.relations = append(r.s.relations, clone(rel))
	return nil
}

func (r relationRepo) ListBySource(_ context.Context, tenantID int64, sourceType string, sourceID int64) ([]*entity.DocumentRelation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.DocumentRelation
	for _, x := range r.s.relations {
		if x.TenantID == tenantID && x.SourceType == sourceType && x.SourceID == sourceID {
			out = append(out, clone(x))
		}
	}
	return out, nil
}

func (r relationRepo) ListByTarget(_ context.Context, tenantID int64, targetType string, targetID int64) ([]*entity.DocumentRelation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.DocumentRelation
	for _, x := range r.s.relations {
		if x.TenantID == tenantID && x.TargetType == targetType && x.TargetID == targetID {
			out = append(out, clone(x))
		}
	}
	return out, nil
}

type approvalRepo struct{ s *Store }

func (r approvalRepo) CreateProcess(_ context.Context, p *entity.ApprovalProcess) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.processes {
		if x.DeletedAt == nil && x.TenantID == p.TenantID && x.Code == p.Code {
			return duplicate("approval_process", p.Code)
		}
	}
	r.s.stamp(&p.ID, &p.UUID, &p.CreatedAt, &p.UpdatedAt)
	r.s.processes = append(r.s.processes, clone(p))
	return nil
}

func (r approvalRepo) GetProcess(_ context.Context, tenantID, id int64) (*entity.ApprovalProcess, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.processes {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.ID == id {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r approvalRepo) GetProcessByCode(_ context.Context, tenantID int64, code string) (*entity.ApprovalProcess, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.processes {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.Code == code {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r approvalRepo) ListProcesses(_ context.Context, tenantID int64) ([]*entity.ApprovalProcess, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ApprovalProcess
	for _, x := range r.s.processes {
		if x.DeletedAt == nil && x.TenantID == tenantID {
			out = append(out, clone(x))
		}
	}
	return out, nil
}

func cloneInstance(x *entity.ApprovalInstance) *entity.ApprovalInstance {
	c := clone(x)
	c.Nodes = append([]entity.ApprovalNode(nil), x.Nodes...)
	return c
}

func (r approvalRepo) CreateInstance(_ context.Context, i *entity.ApprovalInstance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stamp(&i.ID, &i.UUID, &i.CreatedAt, &i.UpdatedAt)
	r.s.instances = append(r.s.instances, cloneInstance(i))
	return nil
}

func (r approvalRepo) GetInstance(_ context.Context, tenantID, id int64) (*entity.ApprovalInstance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.instances {
		if x.TenantID == tenantID && x.ID == id {
			return cloneInstance(x), nil
		}
	}
	return nil, nil
}

func (r approvalRepo) GetInstanceForUpdate(ctx context.Context, tenantID, id int64) (*entity.ApprovalInstance, error) {
	return r.GetInstance(ctx, tenantID, id)
}

func (r approvalRepo) UpdateInstance(_ context.Context, i *entity.ApprovalInstance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, x := range r.s.instances {
		if x.TenantID == i.TenantID && x.ID == i.ID {
			i.UpdatedAt = r.s.Now()
			r.s.instances[k] = cloneInstance(i)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r approvalRepo) ListPendingForApprover(_ context.Context, tenantID, approverID int64) ([]*entity.ApprovalInstance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ApprovalInstance
	for _, x := range r.s.instances {
		if x.TenantID == tenantID && x.Status == entity.InstancePending &&
			x.CurrentApproverID != nil && *x.CurrentApproverID == approverID {
			out = append(out, cloneInstance(x))
		}
	}
	return out, nil
}

func (r approvalRepo) AddHistory(_ context.Context, h *entity.ApprovalHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h.ID = r.s.nextID()
	if h.ActionAt.IsZero() {
		h.ActionAt = r.s.Now()
	}
	r.s.apprHistory = append(r.s.apprHistory, clone(h))
	return nil
}

func (r approvalRepo) ListHistory(_ context.Context, tenantID, instanceID int64) ([]*entity.ApprovalHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ApprovalHistory
	for _, x := range r.s.apprHistory {
		if x.TenantID == tenantID && x.InstanceID == instanceID {
			out = append(out, clone(x))
		}
	}
	return out, nil
}
