// Package org administra la estructura de cada tenant: usuarios, departamentos,
// puestos, menús, aplicaciones y diccionarios de datos.
package org

import (
	"context"
	"time"

	"github.com/riveredge/platform-kernel/internal/application/ports"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
	"github.com/riveredge/platform-kernel/pkg/logger"
	"github.com/riveredge/platform-kernel/pkg/password"
)

// SyncTrigger lanza una sincronización forzada de permisos (permsync.Syncer).
type SyncTrigger interface {
	Trigger(tenantID int64)
}

// PermissionInvalidator descarta permisos cacheados de un usuario (authz).
type PermissionInvalidator interface {
	InvalidateUser(ctx context.Context, tenantID, userID int64)
}

// Deps dependencias del caso de uso. Cache, Sync e Invalidator son opcionales.
type Deps struct {
	Store       repository.Store
	Tx          ports.TxRunner
	Cache       ports.Cache
	CacheTTL    time.Duration
	Sync        SyncTrigger
	Invalidator PermissionInvalidator
	Log         *logger.Logger
	// Hash por defecto password.Hash.
	Hash              func(string) (string, error)
	PasswordMinLength int
}

// OrgUseCase casos de uso de organización.
type OrgUseCase struct {
	store   repository.Store
	tx      ports.TxRunner
	cache   ports.Cache
	ttl     time.Duration
	sync    SyncTrigger
	inv     PermissionInvalidator
	log     *logger.Logger
	hash    func(string) (string, error)
	minPass int
}

// NewOrgUseCase construye el caso de uso.
func NewOrgUseCase(d Deps) *OrgUseCase {
	uc := &OrgUseCase{
		store:   d.Store,
		tx:      d.Tx,
		cache:   d.Cache,
		ttl:     ports.ClampTTL(d.CacheTTL),
		sync:    d.Sync,
		inv:     d.Invalidator,
		log:     logger.OrNop(d.Log).Component("org"),
		hash:    d.Hash,
		minPass: d.PasswordMinLength,
	}
	if uc.hash == nil {
		uc.hash = password.Hash
	}
	if uc.minPass <= 0 {
		uc.minPass = 8
	}
	return uc
}

func (uc *OrgUseCase) triggerSync(tenantID int64) {
	if uc.sync != nil {
		uc.sync.Trigger(tenantID)
	}
}
