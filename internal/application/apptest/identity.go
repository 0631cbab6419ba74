package apptest

import (
	"context"
	"sort"

	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

type tenantRepo struct{ s *Store }

func (r tenantRepo) Create(_ context.Context, t *entity.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.tenants {
		if x.Domain == t.Domain {
			return duplicate("tenant", t.Domain)
		}
	}
	r.s.stamp(&t.ID, &t.UUID, &t.CreatedAt, &t.UpdatedAt)
	r.s.tenants = append(r.s.tenants, clone(t))
	return nil
}

func (r tenantRepo) GetByID(_ context.Context, id int64) (*entity.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.tenants {
		if x.ID == id {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r tenantRepo) GetByDomain(_ context.Context, d string) (*entity.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.tenants {
		if x.Domain == d {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r tenantRepo) Update(_ context.Context, t *entity.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, x := range r.s.tenants {
		if x.ID == t.ID {
			t.UpdatedAt = r.s.Now()
			r.s.tenants[i] = clone(t)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r tenantRepo) List(_ context.Context, f repository.ListFilter) ([]*entity.Tenant, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Tenant
	for _, x := range r.s.tenants {
		if (f.Status == "" || x.Status == f.Status) && matches(f.Keyword, x.Name, x.Domain) {
			out = append(out, x)
		}
	}
	items, total := page(out, f)
	return items, total, nil
}

func (r tenantRepo) ListActiveIDs(_ context.Context) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []int64
	for _, x := range r.s.tenants {
		if x.Status == entity.TenantActive {
			ids = append(ids, x.ID)
		}
	}
	return ids, nil
}

type templateRepo struct{ s *Store }

func (r templateRepo) Create(_ context.Context, t *entity.IndustryTemplate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.templates {
		if x.Code == t.Code {
			return duplicate("industry_template", t.Code)
		}
	}
	r.s.stamp(&t.ID, &t.UUID, &t.CreatedAt, &t.UpdatedAt)
	r.s.templates = append(r.s.templates, clone(t))
	return nil
}

func (r templateRepo) GetByID(_ context.Context, id int64) (*entity.IndustryTemplate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.templates {
		if x.ID == id {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r templateRepo) GetByCode(_ context.Context, code string) (*entity.IndustryTemplate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.templates {
		if x.Code == code {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r templateRepo) List(_ context.Context) ([]*entity.IndustryTemplate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return cloneAll(r.s.templates), nil
}

type superAdminRepo struct{ s *Store }

func (r superAdminRepo) Create(_ context.Context, a *entity.SuperAdmin) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.superAdmins {
		if x.Username == a.Username {
			return duplicate("superadmin", a.Username)
		}
	}
	r.s.stamp(&a.ID, &a.UUID, &a.CreatedAt, &a.UpdatedAt)
	r.s.superAdmins = append(r.s.superAdmins, clone(a))
	return nil
}

func (r superAdminRepo) GetByID(_ context.Context, id int64) (*entity.SuperAdmin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.superAdmins {
		if x.ID == id {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r superAdminRepo) GetByUsername(_ context.Context, username string) (*entity.SuperAdmin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.superAdmins {
		if x.Username == username {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r superAdminRepo) Update(_ context.Context, a *entity.SuperAdmin) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, x := range r.s.superAdmins {
		if x.ID == a.ID {
			a.UpdatedAt = r.s.Now()
			r.s.superAdmins[i] = clone(a)
			return nil
		}
	}
	return domain.ErrNotFound
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.users {
		if x.DeletedAt == nil && x.TenantID == u.TenantID && x.Username == u.Username {
			return duplicate("user", u.Username)
		}
	}
	r.s.stamp(&u.ID, &u.UUID, &u.CreatedAt, &u.UpdatedAt)
	r.s.users = append(r.s.users, clone(u))
	return nil
}

func (r userRepo) GetByID(_ context.Context, tenantID, id int64) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.users {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.ID == id {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r userRepo) GetByUsername(_ context.Context, tenantID int64, username string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.users {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.Username == username {
			return clone(x), nil
		}
	}
	return nil, nil
}

func (r userRepo) FindByUsername(_ context.Context, username string) ([]*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.User
	for _, x := range r.s.users {
		if x.DeletedAt == nil && x.Username == username {
			out = append(out, clone(x))
		}
	}
	return out, nil
}

func (r userRepo) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, x := range r.s.users {
		if x.DeletedAt == nil && x.TenantID == u.TenantID && x.ID == u.ID {
			u.UpdatedAt = r.s.Now()
			r.s.users[i] = clone(u)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r userRepo) List(_ context.Context, f repository.UserFilter) ([]*entity.User, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.User
	for _, x := range r.s.users {
		if x.DeletedAt != nil || (f.TenantID != nil && x.TenantID != *f.TenantID) {
			continue
		}
		if f.IsActive != nil && x.IsActive != *f.IsActive {
			continue
		}
		if matches(f.Keyword, x.Username, x.FullName, x.Email) {
			out = append(out, x)
		}
	}
	items, total := page(out, f.ListFilter)
	return items, total, nil
}

func (r userRepo) SoftDelete(_ context.Context, tenantID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.users {
		if x.DeletedAt == nil && x.TenantID == tenantID && x.ID == id {
			now := r.s.Now()
			x.DeletedAt = &now
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r userRepo) Count(_ context.Context, tenantID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, x := range r.s.users {
		if x.DeletedAt == nil && x.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

type roleRepo struct{ s *Store }

func (r roleRepo) Create(_ context.Context, role *entity.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.roles {
		if x.DeletedAt == nil && x.TenantID == role.TenantID && x.Code == role.Code {
			return duplicate("role", role.Code)
		}
	}
	r.s.stamp(&role.ID, &role.UUID, &role.CreatedAt, &role.UpdatedAt)
	r.s.roles = append(r.s.roles, clone(role))
	return nil
}

func (r roleRepo) find(tenantID int64, pred func(*entity.Role) bool) *entity.Role {
	for _, x := range r.s.roles {
		if x.DeletedAt == nil && x.TenantID == tenantID && pred(x) {
			return x
		}
	}
	return nil
}

func (r roleRepo) GetByID(_ context.Context, tenantID, id int64) (*entity.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return clone(r.find(tenantID, func(x *entity.Role) bool { return x.ID == id })), nil
}

func (r roleRepo) GetByCode(_ context.Context, tenantID int64, code string) (*entity.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return clone(r.find(tenantID, func(x *entity.Role) bool { return x.Code == code })), nil
}

func (r roleRepo) List(_ context.Context, tenantID int64) ([]*entity.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Role
	for _, x := range r.s.roles {
		if x.DeletedAt == nil && x.TenantID == tenantID {
			out = append(out, clone(x))
		}
	}
	return out, nil
}

func (r roleRepo) Update(_ context.Context, role *entity.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, x := range r.s.roles {
		if x.DeletedAt == nil && x.TenantID == role.TenantID && x.ID == role.ID {
			role.UpdatedAt = r.s.Now()
			r.s.roles[i] = clone(role)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r roleRepo) SoftDelete(_ context.Context, tenantID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if x := r.find(tenantID, func(x *entity.Role) bool { return x.ID == id }); x != nil {
		now := r.s.Now()
		x.DeletedAt = &now
		return nil
	}
	return domain.ErrNotFound
}

func (r roleRepo) SetPermissions(_ context.Context, tenantID, roleID int64, ids []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := map[int64]bool{}
	for _, id := range ids {
		set[id] = true
	}
	r.s.rolePerms[roleID] = set
	return nil
}

func (r roleRepo) AddPermissions(_ context.Context, tenantID, roleID int64, ids []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := r.s.rolePerms[roleID]
	if set == nil {
		set = map[int64]bool{}
		r.s.rolePerms[roleID] = set
	}
	for _, id := range ids {
		set[id] = true
	}
	return nil
}

func (r roleRepo) ListPermissions(_ context.Context, tenantID, roleID int64) ([]*entity.Permission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Permission
	for _, p := range r.s.perms {
		if p.DeletedAt == nil && p.TenantID == tenantID && r.s.rolePerms[roleID][p.ID] {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

func (r roleRepo) SetUserRoles(_ context.Context, tenantID, userID int64, roleIDs []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.userRoles[userID] = append([]int64(nil), roleIDs...)
	return nil
}

func (r roleRepo) ListUserRoles(_ context.Context, tenantID, userID int64) ([]*entity.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Role
	for _, id := range r.s.userRoles[userID] {
		role := r.find(tenantID, func(x *entity.Role) bool { return x.ID == id })
		if role != nil && role.IsActive {
			out = append(out, clone(role))
		}
	}
	return out, nil
}

type permissionRepo struct{ s *Store }

func (r permissionRepo) List(_ context.Context, tenantID int64, permissionType string) ([]*entity.Permission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Permission
	for _, p := range r.s.perms {
		if p.DeletedAt == nil && p.TenantID == tenantID && (permissionType == "" || p.PermissionType == permissionType) {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

func (r permissionRepo) GetByCodes(_ context.Context, tenantID int64, codes []string) ([]*entity.Permission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := map[string]bool{}
	for _, c := range codes {
		want[c] = true
	}
	var out []*entity.Permission
	for _, p := range r.s.perms {
		if p.DeletedAt == nil && p.TenantID == tenantID && want[p.Code] {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

func (r permissionRepo) BulkCreate(_ context.Context, perms []*entity.Permission) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	created := 0
	for _, p := range perms {
		exists := false
		for _, x := range r.s.perms {
			if x.DeletedAt == nil && x.TenantID == p.TenantID && x.Code == p.Code {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		r.s.stamp(&p.ID, &p.UUID, &p.CreatedAt, &p.UpdatedAt)
		r.s.perms = append(r.s.perms, clone(p))
		created++
	}
	return created, nil
}

func (r permissionRepo) ListCodesForUser(_ context.Context, tenantID, userID int64) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := map[string]bool{}
	for _, roleID := range r.s.userRoles[userID] {
		var role *entity.Role
		for _, x := range r.s.roles {
			if x.ID == roleID && x.TenantID == tenantID && x.DeletedAt == nil && x.IsActive {
				role = x
			}
		}
		if role == nil {
			continue
		}
		for _, p := range r.s.perms {
			if p.DeletedAt == nil && p.TenantID == tenantID && r.s.rolePerms[roleID][p.ID] {
				set[p.Code] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}
