// Package tenant implementa el ciclo de vida de organizaciones: registro, aprobación,
// activación y aprovisionamiento de datos iniciales.
package tenant

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/ports"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
	"github.com/riveredge/platform-kernel/pkg/logger"
	"github.com/riveredge/platform-kernel/pkg/password"
)

var domainRe = regexp.MustCompile(`^[a-z0-9-]{1,100}$`)

const (
	domainAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	domainLength   = 8
	domainAttempts = 10
)

// Options dependencias opcionales.
type Options struct {
	PasswordMinLength int
	// Hash por defecto password.Hash.
	Hash func(string) (string, error)
	Now  func() time.Time
}

// TenantUseCase registro y ciclo de vida de organizaciones.
type TenantUseCase struct {
	store     repository.Store
	tx        ports.TxRunner
	log       *logger.Logger
	minPass   int
	hash      func(string) (string, error)
	now       func() time.Time
	newDomain func() (string, error)
}

// NewTenantUseCase construye el caso de uso.
func NewTenantUseCase(store repository.Store, tx ports.TxRunner, log *logger.Logger, opts Options) *TenantUseCase {
	uc := &TenantUseCase{
		store:     store,
		tx:        tx,
		log:       logger.OrNop(log).Component("tenant"),
		minPass:   opts.PasswordMinLength,
		hash:      opts.Hash,
		now:       opts.Now,
		newDomain: randomDomain,
	}
	if uc.minPass <= 0 {
		uc.minPass = 8
	}
	if uc.hash == nil {
		uc.hash = password.Hash
	}
	if uc.now == nil {
		uc.now = func() time.Time { return time.Now().UTC() }
	}
	return uc
}

func randomDomain() (string, error) {
	b := make([]byte, domainLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(domainAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = domainAlphabet[n.Int64()]
	}
	return string(b), nil
}

// ValidDomain indica si el dominio cumple ^[a-z0-9-]{1,100}$.
func ValidDomain(d string) bool { return domainRe.MatchString(d) }

func (uc *TenantUseCase) validateCredentials(username, pass string) error {
	if strings.TrimSpace(username) == "" {
		return domain.Validation("用户名不能为空")
	}
	if len(pass) < uc.minPass {
		return domain.Validation("密码长度不能少于 %d 位", uc.minPass)
	}
	return nil
}

// CheckDomain valida formato y disponibilidad de un dominio.
func (uc *TenantUseCase) CheckDomain(ctx context.Context, d string) (*dto.DomainCheckResponse, error) {
	d = strings.ToLower(strings.TrimSpace(d))
	res := &dto.DomainCheckResponse{Domain: d, Valid: ValidDomain(d)}
	if !res.Valid {
		return res, nil
	}
	existing, err := uc.store.Tenants().GetByDomain(ctx, d)
	if err != nil {
		return nil, err
	}
	res.Available = existing == nil
	return res, nil
}

func (uc *TenantUseCase) resolveDomain(ctx context.Context, s repository.Store, requested string) (string, error) {
	if requested != "" {
		d := strings.ToLower(strings.TrimSpace(requested))
		if !ValidDomain(d) {
			return "", domain.Validation("域名格式无效: %s", requested)
		}
		existing, err := s.Tenants().GetByDomain(ctx, d)
		if err != nil {
			return "", err
		}
		if existing != nil {
			return "", domain.TenantExists(existing.ID, existing.Name)
		}
		return d, nil
	}
	for i := 0; i < domainAttempts; i++ {
		d, err := uc.newDomain()
		if err != nil {
			return "", err
		}
		existing, err := s.Tenants().GetByDomain(ctx, d)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return d, nil
		}
	}
	return "", domain.Business("无法生成唯一的组织域名，请手动指定")
}

// RegisterOrganization crea un tenant inactivo (trial) con su administrador activo y
// siembra los datos iniciales.
func (uc *TenantUseCase) RegisterOrganization(ctx context.Context, in dto.RegisterOrganizationRequest) (*dto.RegisterResponse, error) {
	if strings.TrimSpace(in.TenantName) == "" {
		return nil, domain.Validation("组织名称不能为空")
	}
	if err := uc.validateCredentials(in.Username, in.Password); err != nil {
		return nil, err
	}
	hash, err := uc.hash(in.Password)
	if err != nil {
		return nil, err
	}
	var (
		res      dto.RegisterResponse
		resolved string
	)
	err = uc.tx.Run(ctx, func(s repository.Store) error {
		d, err := uc.resolveDomain(ctx, s, in.TenantDomain)
		if err != nil {
			return err
		}
		resolved = d
		t := &entity.Tenant{
			Name:       strings.TrimSpace(in.TenantName),
			Domain:     d,
			Status:     entity.TenantInactive,
			Plan:       entity.PlanTrial,
			MaxUsers:   10,
			MaxStorage: 1024,
		}
		t.SetSetting(entity.SettingRegisteredBy, in.Username)
		if in.Description != "" {
			t.SetSetting(entity.SettingDescription, in.Description)
		}
		if err := s.Tenants().Create(ctx, t); err != nil {
			return err
		}
		u := &entity.User{
			TenantID:      t.ID,
			Username:      in.Username,
			PasswordHash:  hash,
			Email:         in.Email,
			FullName:      in.FullName,
			Phone:         in.Phone,
			IsActive:      true,
			IsTenantAdmin: true,
			Source:        entity.SourceOrganization,
		}
		if err := s.Users().Create(ctx, u); err != nil {
			return err
		}
		if _, err := initializeTenantData(ctx, s, t.ID); err != nil {
			return err
		}
		if err := assignRole(ctx, s, t.ID, u.ID, entity.RoleTenantAdmin); err != nil {
			return err
		}
		res = dto.RegisterResponse{Tenant: t, User: u, Message: "组织注册成功，等待平台审核"}
		return nil
	})
	if err != nil && errors.Is(err, domain.ErrDuplicate) && resolved != "" {
		// La transacción abortada no admite más lecturas: se consulta fuera.
		if existing, rerr := uc.store.Tenants().GetByDomain(ctx, resolved); rerr == nil && existing != nil {
			err = domain.TenantExists(existing.ID, existing.Name)
		}
	}
	if err != nil {
		uc.log.Warn().Str("domain", in.TenantDomain).Err(err).Msg("registro de organización fallido")
		return nil, err
	}
	uc.log.Info().Int64("tenant_id", res.Tenant.ID).Str("domain", res.Tenant.Domain).Msg("organización registrada")
	return &res, nil
}

// RegisterPersonal registra un usuario individual. Sin tenant_id cae en el tenant por
// defecto (creándolo si no existe); con invite_code válido queda activo; sin código
// el tenant debe estar activo y settings.require_approval decide si queda pendiente.
func (uc *TenantUseCase) RegisterPersonal(ctx context.Context, in dto.RegisterPersonalRequest) (*dto.RegisterResponse, error) {
	if err := uc.validateCredentials(in.Username, in.Password); err != nil {
		return nil, err
	}
	hash, err := uc.hash(in.Password)
	if err != nil {
		return nil, err
	}
	var res dto.RegisterResponse
	register := func(s repository.Store) error {
		var (
			t   *entity.Tenant
			err error
		)
		active, source := true, entity.SourcePersonal
		if in.TenantID == nil {
			if t, err = ensureDefaultTenant(ctx, s); err != nil {
				return err
			}
		} else {
			if t, err = s.Tenants().GetByID(ctx, *in.TenantID); err != nil {
				return err
			}
			if t == nil {
				return domain.NotFound("组织", *in.TenantID)
			}
			if in.InviteCode != "" {
				if t.InviteCode() == "" || t.InviteCode() != in.InviteCode {
					return domain.Validation("邀请码无效")
				}
				source = entity.SourceInviteCode
			} else {
				if !t.IsActive() {
					return domain.Business("组织未激活，无法注册")
				}
				active = !t.RequiresApproval()
			}
		}
		u, err := createMember(ctx, s, t.ID, in.Username, hash, in.Email, in.FullName, in.Phone, active, source)
		if err != nil {
			return err
		}
		msg := "注册成功"
		if !active {
			msg = "注册成功，等待组织管理员审核"
		}
		res = dto.RegisterResponse{Tenant: t, User: u, Message: msg}
		return nil
	}
	err = uc.tx.Run(ctx, register)
	if err != nil && in.TenantID == nil && errors.Is(err, domain.ErrDuplicate) {
		// Otro proceso creó el tenant por defecto a la vez; el reintento lo encuentra.
		err = uc.tx.Run(ctx, register)
	}
	if err != nil {
		uc.log.Warn().Str("username", in.Username).Err(err).Msg("registro personal fallido")
		return nil, err
	}
	uc.log.Info().Int64("tenant_id", res.Tenant.ID).Int64("user_id", res.User.ID).Msg("usuario registrado")
	return &res, nil
}

// JoinTenant crea un usuario inactivo en el tenant indicado; el administrador lo activa después.
func (uc *TenantUseCase) JoinTenant(ctx context.Context, in dto.JoinTenantRequest) (*dto.RegisterResponse, error) {
	if err := uc.validateCredentials(in.Username, in.Password); err != nil {
		return nil, err
	}
	hash, err := uc.hash(in.Password)
	if err != nil {
		return nil, err
	}
	var res dto.RegisterResponse
	err = uc.tx.Run(ctx, func(s repository.Store) error {
		t, err := s.Tenants().GetByID(ctx, in.TenantID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.NotFound("组织", in.TenantID)
		}
		if t.Status == entity.TenantSuspended {
			return domain.Business("组织已停用，无法申请加入")
		}
		u, err := createMember(ctx, s, t.ID, in.Username, hash, in.Email, in.FullName, in.Phone, false, entity.SourceJoinRequest)
		if err != nil {
			return err
		}
		res = dto.RegisterResponse{Tenant: t, User: u, Message: "申请已提交，等待组织管理员审核"}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func createMember(ctx context.Context, s repository.Store, tenantID int64, username, hash, email, fullName, phone string, active bool, source string) (*entity.User, error) {
	existing, err := s.Users().GetByUsername(ctx, tenantID, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Validation("用户名 %s 已被使用", username)
	}
	u := &entity.User{
		TenantID:     tenantID,
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		FullName:     fullName,
		Phone:        phone,
		IsActive:     active,
		Source:       source,
	}
	if err := s.Users().Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.Validation("用户名 %s 已被使用", username)
		}
		return nil, err
	}
	if err := assignRole(ctx, s, tenantID, u.ID, entity.RoleEmployee); err != nil {
		return nil, err
	}
	return u, nil
}

func assignRole(ctx context.Context, s repository.Store, tenantID, userID int64, code string) error {
	role, err := s.Roles().GetByCode(ctx, tenantID, code)
	if err != nil || role == nil {
		return err
	}
	current, err := s.Roles().ListUserRoles(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	ids := []int64{role.ID}
	for _, r := range current {
		if r.ID != role.ID {
			ids = append(ids, r.ID)
		}
	}
	return s.Roles().SetUserRoles(ctx, tenantID, userID, ids)
}

// ensureDefaultTenant devuelve el tenant "default", creándolo (enterprise, activo) si falta.
func ensureDefaultTenant(ctx context.Context, s repository.Store) (*entity.Tenant, error) {
	t, err := s.Tenants().GetByDomain(ctx, entity.DefaultTenantDomain)
	if err != nil || t != nil {
		return t, err
	}
	t = &entity.Tenant{
		Name:       "默认组织",
		Domain:     entity.DefaultTenantDomain,
		Status:     entity.TenantActive,
		Plan:       entity.PlanEnterprise,
		Settings:   map[string]any{entity.SettingIsDefault: true},
		MaxUsers:   1000,
		MaxStorage: 10240,
	}
	if err := s.Tenants().Create(ctx, t); err != nil {
		return nil, fmt.Errorf("crear tenant por defecto: %w", err)
	}
	if _, err := initializeTenantData(ctx, s, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

// EnsureDefaultTenant garantiza que exista el tenant por defecto (arranque del servidor).
func (uc *TenantUseCase) EnsureDefaultTenant(ctx context.Context) (*entity.Tenant, error) {
	var t *entity.Tenant
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		var err error
		t, err = ensureDefaultTenant(ctx, s)
		return err
	})
	if err != nil && errors.Is(err, domain.ErrDuplicate) {
		existing, rerr := uc.store.Tenants().GetByDomain(ctx, entity.DefaultTenantDomain)
		if rerr != nil {
			return nil, rerr
		}
		if existing != nil {
			uc.log.Debug().Int64("tenant_id", existing.ID).Msg("tenant por defecto creado por otro proceso")
			return existing, nil
		}
	}
	return t, err
}

func (uc *TenantUseCase) transition(ctx context.Context, id int64, from []string, to string, mutate func(*entity.Tenant)) (*entity.Tenant, error) {
	var out *entity.Tenant
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		t, err := s.Tenants().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.NotFound("组织", id)
		}
		allowed := false
		for _, st := range from {
			if t.Status == st {
				allowed = true
			}
		}
		if !allowed {
			return domain.Business("组织 %s 当前状态为 %s，不能变更为 %s", t.Name, t.Status, to)
		}
		t.Status = to
		if mutate != nil {
			mutate(t)
		}
		if err := s.Tenants().Update(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		uc.log.Warn().Int64("tenant_id", id).Str("to", to).Err(err).Msg("cambio de estado de organización fallido")
		return nil, err
	}
	uc.log.Info().Int64("tenant_id", id).Str("status", to).Msg("estado de organización actualizado")
	return out, nil
}

// Approve inactive → active.
func (uc *TenantUseCase) Approve(ctx context.Context, id int64) (*entity.Tenant, error) {
	return uc.transition(ctx, id, []string{entity.TenantInactive}, entity.TenantActive, nil)
}

// Reject inactive → suspended, guardando el motivo en settings.
func (uc *TenantUseCase) Reject(ctx context.Context, id int64, reason string) (*entity.Tenant, error) {
	return uc.transition(ctx, id, []string{entity.TenantInactive}, entity.TenantSuspended, func(t *entity.Tenant) {
		t.SetSetting(entity.SettingRejectReason, reason)
	})
}

// Activate reactiva un tenant inactivo o suspendido.
func (uc *TenantUseCase) Activate(ctx context.Context, id int64) (*entity.Tenant, error) {
	return uc.transition(ctx, id, []string{entity.TenantInactive, entity.TenantSuspended}, entity.TenantActive, nil)
}

// Deactivate active → inactive. El tenant por defecto no se puede desactivar.
func (uc *TenantUseCase) Deactivate(ctx context.Context, id int64) (*entity.Tenant, error) {
	t, err := uc.store.Tenants().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t != nil && t.Domain == entity.DefaultTenantDomain {
		return nil, domain.Business("默认组织不能停用")
	}
	return uc.transition(ctx, id, []string{entity.TenantActive}, entity.TenantInactive, nil)
}

// Get devuelve un tenant.
func (uc *TenantUseCase) Get(ctx context.Context, id int64) (*entity.Tenant, error) {
	t, err := uc.store.Tenants().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.NotFound("组织", id)
	}
	return t, nil
}

// List lista tenants (superadmin) filtrando por estado y palabra clave.
func (uc *TenantUseCase) List(ctx context.Context, p dto.PageRequest) (dto.ListResponse[*entity.Tenant], error) {
	items, total, err := uc.store.Tenants().List(ctx, p.Filter())
	if err != nil {
		return dto.ListResponse[*entity.Tenant]{}, err
	}
	return dto.NewListResponse(items, p, total), nil
}

// InitializeTenantData vuelve a ejecutar la siembra (idempotente).
func (uc *TenantUseCase) InitializeTenantData(ctx context.Context, tenantID int64) (*dto.ApplyTemplateResult, error) {
	var res *dto.ApplyTemplateResult
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		t, err := s.Tenants().GetByID(ctx, tenantID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.NotFound("组织", tenantID)
		}
		res, err = initializeTenantData(ctx, s, tenantID)
		return err
	})
	return res, err
}

// CreateIndustryTemplate alta de plantilla de plataforma.
func (uc *TenantUseCase) CreateIndustryTemplate(ctx context.Context, in dto.CreateIndustryTemplateRequest) (*entity.IndustryTemplate, error) {
	if strings.TrimSpace(in.Code) == "" || strings.TrimSpace(in.Name) == "" {
		return nil, domain.Validation("模板编码和名称不能为空")
	}
	if err := validateTemplate(in.Config); err != nil {
		return nil, err
	}
	existing, err := uc.store.IndustryTemplates().GetByCode(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Validation("模板编码 %s 已存在", in.Code)
	}
	tpl := &entity.IndustryTemplate{
		Code: in.Code, Name: in.Name, Industry: in.Industry, Description: in.Description,
		Config: in.Config, IsActive: true,
	}
	if err := uc.store.IndustryTemplates().Create(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// ListIndustryTemplates plantillas disponibles.
func (uc *TenantUseCase) ListIndustryTemplates(ctx context.Context) ([]*entity.IndustryTemplate, error) {
	return uc.store.IndustryTemplates().List(ctx)
}

// ApplyIndustryTemplate siembra en el tenant el contenido de la plantilla.
func (uc *TenantUseCase) ApplyIndustryTemplate(ctx context.Context, tenantID, templateID int64) (*dto.ApplyTemplateResult, error) {
	var res *dto.ApplyTemplateResult
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		t, err := s.Tenants().GetByID(ctx, tenantID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.NotFound("组织", tenantID)
		}
		tpl, err := s.IndustryTemplates().GetByID(ctx, templateID)
		if err != nil {
			return err
		}
		if tpl == nil || !tpl.IsActive {
			return domain.NotFound("行业模板", templateID)
		}
		if res, err = applyTemplate(ctx, s, tenantID, tpl); err != nil {
			return err
		}
		t.SetSetting(entity.SettingIndustry, tpl.Code)
		return s.Tenants().Update(ctx, t)
	})
	if err != nil {
		uc.log.Warn().Int64("tenant_id", tenantID).Int64("template_id", templateID).Err(err).Msg("aplicar plantilla fallido")
		return nil, err
	}
	return res, nil
}
