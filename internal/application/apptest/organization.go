package apptest

import (
	"context"

	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

type departmentRepo struct{ s *Store }

func (r departmentRepo) Create(_ context.Context, d *entity.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.depts {
		if x.DeletedAt == nil && x.TenantID == d.TenantID && x.Code == d.Code {
			return duplicate("department", d.Code)
		}
	}
	r.s.stamp(&d.ID, &d.UUID, &d.CreatedAt, &d.UpdatedAt)
	r.s.depts = append(r.s.depts, clone(d))
	return nil
}

func (r departmentRepo) GetByID(_ context.Context, tenantID, id int64) (*entity.Department, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.depts {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.ID == id {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r departmentRepo) GetByCode(_ context.Context, tenantID int64, code string) (*entity.Department, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.depts {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.Code == code {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r departmentRepo) List(_ context.Context, tenantID int64) ([]*entity.Department, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Department
	for _, x := range r.s.depts {
		if x.DeletedAt == nil && x.TenantID == tenantID {
			out = append(out, clone(x))
		}
	}
	return out, nil
}

func (r departmentRepo) SoftDelete(_ context.Context, tenantID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.depts {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.ID == id {
			now := r.s.Now()
			x.DeletedAt = &now
			return nil
		}
	}
	return domain.ErrNotFound
}

type positionRepo struct{ s *Store }

func (r positionRepo) Create(_ context.Context, p *entity.Position) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.positions {
		if x.DeletedAt == nil && x.TenantID == p.TenantID && x.Code == p.Code {
			return duplicate("position", p.Code)
		}
	}
	r.s.stamp(&p.ID, &p.UUID, &p.CreatedAt, &p.UpdatedAt)
	r.s.positions = append(r.s.positions, clone(p))
	return nil
}

func (r positionRepo) GetByCode(_ context.Context, tenantID int64, code string) (*entity.Position, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.positions {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.Code == code {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r positionRepo) List(_ context.Context, tenantID int64) ([]*entity.Position, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Position
	for _, x := range r.s.positions {
		if x.DeletedAt == nil && x.TenantID == tenantID {
			out = append(out, clone(x))
		}
	}
	return out, nil
}

func (r positionRepo) SoftDelete(_ context.Context, tenantID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.positions {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.ID == id {
			now := r.s.Now()
			x.DeletedAt = &now
			return nil
		}
	}
	return domain.ErrNotFound
}

type menuRepo struct{ s *Store }

func (r menuRepo) Create(_ context.Context, m *entity.Menu) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stamp(&m.ID, &m.UUID, &m.CreatedAt, &m.UpdatedAt)
	r.s.menus = append(r.s.menus, clone(m))
	return nil
}

func (r menuRepo) GetByID(_ context.Context, tenantID, id int64) (*entity.Menu, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.menus {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.ID == id {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r menuRepo) List(_ context.Context, tenantID int64) ([]*entity.Menu, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Menu
	for _, x := range r.s.menus {
		if x.DeletedAt == nil && x.TenantID == tenantID {
			out = append(out, clone(x))
		}
	}
	return out, nil
}

func (r menuRepo) Update(_ context.Context, m *entity.Menu) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, x := range r.s.menus {
		if x.DeletedAt == nil && x.TenantID == m.TenantID && x.ID == m.ID {
			m.UpdatedAt = r.s.Now()
			r.s.menus[i] = clone(m)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r menuRepo) UpdatePermissionCode(_ context.Context, tenantID, id int64, code string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.menus {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.ID == id {
			x.PermissionCode = code
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r menuRepo) SoftDelete(_ context.Context, tenantID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.menus {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.ID == id {
			now := r.s.Now()
			x.DeletedAt = &now
			return nil
		}
	}
	return domain.ErrNotFound
}

type applicationRepo struct{ s *Store }

func (r applicationRepo) Create(_ context.Context, a *entity.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.apps {
		if x.DeletedAt == nil && x.TenantID == a.TenantID && x.Code == a.Code {
			return duplicate("application", a.Code)
		}
	}
	r.s.stamp(&a.ID, &a.UUID, &a.CreatedAt, &a.UpdatedAt)
	r.s.apps = append(r.s.apps, clone(a))
	return nil
}

func (r applicationRepo) GetByCode(_ context.Context, tenantID int64, code string) (*entity.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.apps {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.Code == code {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r applicationRepo) List(_ context.Context, tenantID int64) ([]*entity.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Application
	for _, x := range r.s.apps {
		if x.DeletedAt == nil && x.TenantID == tenantID {
			out = append(out, clone(x))
		}
	}
	return out, nil
}

func (r applicationRepo) Update(_ context.Context, a *entity.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, x := range r.s.apps {
		if x.DeletedAt == nil && x.TenantID == a.TenantID && x.ID == a.ID {
			a.UpdatedAt = r.s.Now()
			r.s.apps[i] = clone(a)
			return nil
		}
	}
	return domain.ErrNotFound
}

type dictionaryRepo struct{ s *Store }

func (r dictionaryRepo) Create(_ context.Context, d *entity.DataDictionary) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.dicts {
		if x.DeletedAt == nil && x.TenantID == d.TenantID && x.Code == d.Code {
			return duplicate("dictionary", d.Code)
		}
	}
	r.s.stamp(&d.ID, &d.UUID, &d.CreatedAt, &d.UpdatedAt)
	stored := clone(d)
	stored.Items = nil
	r.s.dicts = append(r.s.dicts, stored)
	return nil
}

func (r dictionaryRepo) GetByCode(_ context.Context, tenantID int64, code string) (*entity.DataDictionary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.dicts {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.Code == code {
			d := clone(x)
			for _, it := range r.s.dictItems {
				if it.DeletedAt == nil && it.DictionaryID == d.ID {
					d.Items = append(d.Items, clone(it))
				}
			}
			return d, nil
		}
	}
	return nil, nil
}

func (r dictionaryRepo) List(_ context.Context, tenantID int64) ([]*entity.DataDictionary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.DataDictionary
	for _, x := range r.s.dicts {
		if x.DeletedAt == nil && x.TenantID == tenantID {
			out = append(out, clone(x))
		}
	}
	return out, nil
}

func (r dictionaryRepo) AddItem(_ context.Context, item *entity.DictionaryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.dictItems {
		if x.DeletedAt == nil && x.DictionaryID == item.DictionaryID && x.Value == item.Value {
			return duplicate("dictionary_item", item.Value)
		}
	}
	r.s.stamp(&item.ID, &item.UUID, &item.CreatedAt, &item.UpdatedAt)
	r.s.dictItems = append(r.s.dictItems, clone(item))
	return nil
}
