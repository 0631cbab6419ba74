// Package permsync reconcilia los puntos de permiso declarados (núcleo, menús y
// manifiestos de aplicaciones) con la tabla de permisos de cada tenant.
package permsync

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/ports"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/permission"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
	"github.com/riveredge/platform-kernel/pkg/logger"
)

// Throttle intervalo mínimo entre sincronizaciones no forzadas de un tenant.
const Throttle = 5 * time.Minute

const asyncTimeout = 30 * time.Second

// Invalidator descarta los permisos cacheados de un tenant (authz).
type Invalidator interface {
	InvalidateTenant(ctx context.Context, tenantID int64)
}

// Syncer sincronizador de permisos.
type Syncer struct {
	store repository.Store
	cache ports.Cache
	inv   Invalidator
	log   *logger.Logger
	now   func() time.Time

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
	wg    sync.WaitGroup
}

// NewSyncer construye el sincronizador. inv puede ser nil.
func NewSyncer(store repository.Store, cache ports.Cache, inv Invalidator, log *logger.Logger) *Syncer {
	return &Syncer{
		store: store,
		cache: cache,
		inv:   inv,
		log:   logger.OrNop(log).Component("permsync"),
		now:   func() time.Time { return time.Now().UTC() },
		locks: map[int64]*sync.Mutex{},
	}
}

func lastRunKey(tenantID int64) string {
	return ports.CacheKey("perm", tenantID, "sync", "last_run")
}

func (s *Syncer) tenantLock(tenantID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[tenantID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[tenantID] = l
	}
	return l
}

func (s *Syncer) throttled(ctx context.Context, tenantID int64) bool {
	if s.cache == nil {
		return false
	}
	var last int64
	found, err := s.cache.Get(ctx, lastRunKey(tenantID), &last)
	if err != nil || !found {
		return false
	}
	return s.now().Sub(time.Unix(last, 0)) < Throttle
}

// Sync recoge los códigos declarados e inserta en bloque los que falten. Sin force es
// no-op si la última ejecución del tenant fue hace menos de 5 minutos.
func (s *Syncer) Sync(ctx context.Context, tenantID int64, force bool) (*dto.PermissionSyncResult, error) {
	l := s.tenantLock(tenantID)
	l.Lock()
	defer l.Unlock()
	log := s.log.Tenant(tenantID)

	if !force && s.throttled(ctx, tenantID) {
		return &dto.PermissionSyncResult{Throttled: true}, nil
	}
	codes, err := s.collect(ctx, tenantID)
	if err != nil {
		log.Warn().Err(err).Msg("recolección de permisos fallida")
		return nil, err
	}
	existing, err := s.store.Permissions().List(ctx, tenantID, "")
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(existing))
	for _, p := range existing {
		have[p.Code] = true
	}
	var missing []*entity.Permission
	for _, code := range codes {
		if !have[code] {
			missing = append(missing, permission.Build(tenantID, code, "自动同步权限: "+code, false))
		}
	}
	created := 0
	if len(missing) > 0 {
		if created, err = s.store.Permissions().BulkCreate(ctx, missing); err != nil {
			log.Warn().Int("missing", len(missing)).Err(err).Msg("alta de permisos fallida")
			return nil, err
		}
		if s.inv != nil {
			s.inv.InvalidateTenant(ctx, tenantID)
		}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, lastRunKey(tenantID), s.now().Unix(), Throttle); err != nil {
			log.Warn().Err(err).Msg("no se pudo registrar la última sincronización")
		}
	}
	log.Debug().Int("scanned", len(codes)).Int("created", created).Msg("permisos sincronizados")
	return &dto.PermissionSyncResult{Created: created, Scanned: len(codes)}, nil
}

// collect une los códigos del núcleo, de los menús (derivando y persistiendo los que
// falten, sólo en menús hoja) y de los manifiestos, más sus permisos de alcance de datos.
func (s *Syncer) collect(ctx context.Context, tenantID int64) ([]string, error) {
	set := map[string]struct{}{}
	for _, c := range permission.CoreCodes {
		set[c] = struct{}{}
	}

	menus, err := s.store.Menus().List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	parents := map[int64]bool{}
	for _, m := range menus {
		if m.ParentID != nil {
			parents[*m.ParentID] = true
		}
	}
	for _, m := range menus {
		if m.PermissionCode != "" {
			set[m.PermissionCode] = struct{}{}
			continue
		}
		if parents[m.ID] {
			continue
		}
		code, ok := permission.MenuCode(m.Path, m.MetaNode())
		if !ok {
			continue
		}
		if err := s.store.Menus().UpdatePermissionCode(ctx, tenantID, m.ID, code); err != nil {
			return nil, err
		}
		set[code] = struct{}{}
	}

	apps, err := s.store.Applications().List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, a := range apps {
		if !a.IsInstalled || !a.IsActive {
			continue
		}
		for _, c := range permission.ManifestCodes(a.Manifest) {
			set[c] = struct{}{}
		}
	}

	base := make([]string, 0, len(set))
	for c := range set {
		base = append(base, c)
	}
	for _, c := range permission.DataScopeCodes(base) {
		set[c] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// Trigger lanza una sincronización forzada en segundo plano; los errores solo se registran.
func (s *Syncer) Trigger(tenantID int64) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()
		if _, err := s.Sync(ctx, tenantID, true); err != nil {
			s.log.Error().Int64("tenant_id", tenantID).Err(err).Msg("sincronización asíncrona fallida")
		}
	}()
}

// Wait espera a que terminen las sincronizaciones lanzadas con Trigger.
func (s *Syncer) Wait() { s.wg.Wait() }

// SyncAll sincroniza (sin forzar) todos los tenants activos.
func (s *Syncer) SyncAll(ctx context.Context) {
	ids, err := s.store.Tenants().ListActiveIDs(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("no se pudieron listar los tenants activos")
		return
	}
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.Sync(ctx, id, false); err != nil {
			s.log.Error().Int64("tenant_id", id).Err(err).Msg("sincronización programada fallida")
		}
	}
}
