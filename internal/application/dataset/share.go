package dataset

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

const shareAttempts = 5

// newShareToken 32 bytes aleatorios en base64url (43 caracteres).
func newShareToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (uc *DatasetUseCase) shareTTL(in dto.ShareRequest) time.Duration {
	if in.ExpiresInHours <= 0 {
		return defaultShareTTL
	}
	return time.Duration(in.ExpiresInHours) * time.Hour
}

// mint genera un token libre; taken comprueba colisiones.
func (uc *DatasetUseCase) mint(ctx context.Context, taken func(token string) (bool, error)) (string, error) {
	for i := 0; i < shareAttempts; i++ {
		tok, err := uc.token()
		if err != nil {
			return "", err
		}
		used, err := taken(tok)
		if err != nil {
			return "", err
		}
		if !used {
			return tok, nil
		}
	}
	return "", errors.New("no se pudo generar un token de compartición libre")
}

// ShareDataset emite un token público con expiración. Un token previo queda reemplazado.
func (uc *DatasetUseCase) ShareDataset(ctx context.Context, tenantID, id int64, in dto.ShareRequest) (*dto.ShareResponse, error) {
	d, err := uc.dataset(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	tok, err := uc.mint(ctx, func(t string) (bool, error) {
		x, err := uc.store.Datasets().GetByShareToken(ctx, t)
		return x != nil, err
	})
	if err != nil {
		uc.log.Error().Int64("tenant_id", tenantID).Str("code", d.Code).Err(err).Msg("emisión de token fallida")
		return nil, err
	}
	expires := uc.now().Add(uc.shareTTL(in))
	if err := uc.store.Datasets().SetShare(ctx, tenantID, id, entity.Share{Token: tok, ExpiresAt: &expires}); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, tenantID, id)
	uc.log.Info().Int64("tenant_id", tenantID).Str("code", d.Code).Time("expires_at", expires).Msg("dataset compartido")
	return &dto.ShareResponse{ShareToken: tok, ExpiresAt: expires}, nil
}

// UnshareDataset revoca el token.
func (uc *DatasetUseCase) UnshareDataset(ctx context.Context, tenantID, id int64) error {
	if _, err := uc.dataset(ctx, tenantID, id); err != nil {
		return err
	}
	if err := uc.store.Datasets().SetShare(ctx, tenantID, id, entity.Share{}); err != nil {
		return err
	}
	uc.invalidate(ctx, tenantID, id)
	return nil
}

// SharedDataset dataset accesible con token vigente; NotFound en otro caso.
func (uc *DatasetUseCase) SharedDataset(ctx context.Context, token string) (*entity.Dataset, error) {
	if token == "" {
		return nil, domain.NotFound("共享数据集", "")
	}
	d, err := uc.store.Datasets().GetByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if d == nil || !d.Share.Valid(uc.now()) {
		return nil, domain.NotFound("共享数据集", "token")
	}
	return d, nil
}

// ExecuteSharedDataset ejecuta un dataset compartido dentro de su propio tenant.
func (uc *DatasetUseCase) ExecuteSharedDataset(ctx context.Context, token string, in dto.ExecuteQueryRequest) (*dto.ExecuteQueryResponse, error) {
	d, err := uc.SharedDataset(ctx, token)
	if err != nil {
		return nil, err
	}
	return uc.execute(ctx, d, in)
}

// ShareReport emite un token público para un informe.
func (uc *DatasetUseCase) ShareReport(ctx context.Context, tenantID, id int64, in dto.ShareRequest) (*dto.ShareResponse, error) {
	r, err := uc.report(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	tok, err := uc.mint(ctx, func(t string) (bool, error) {
		x, err := uc.store.Reports().GetByShareToken(ctx, t)
		return x != nil, err
	})
	if err != nil {
		uc.log.Error().Int64("tenant_id", tenantID).Str("code", r.Code).Err(err).Msg("emisión de token fallida")
		return nil, err
	}
	expires := uc.now().Add(uc.shareTTL(in))
	if err := uc.store.Reports().SetShare(ctx, tenantID, id, entity.Share{Token: tok, ExpiresAt: &expires}); err != nil {
		return nil, err
	}
	return &dto.ShareResponse{ShareToken: tok, ExpiresAt: expires}, nil
}

// UnshareReport revoca el token del informe.
func (uc *DatasetUseCase) UnshareReport(ctx context.Context, tenantID, id int64) error {
	if _, err := uc.report(ctx, tenantID, id); err != nil {
		return err
	}
	return uc.store.Reports().SetShare(ctx, tenantID, id, entity.Share{})
}

// SharedReport informe accesible con token vigente.
func (uc *DatasetUseCase) SharedReport(ctx context.Context, token string) (*entity.Report, error) {
	if token == "" {
		return nil, domain.NotFound("共享报表", "")
	}
	r, err := uc.store.Reports().GetByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if r == nil || !r.Share.Valid(uc.now()) {
		return nil, domain.NotFound("共享报表", "token")
	}
	return r, nil
}

// ExecuteSharedReport ejecuta el dataset de un informe compartido.
func (uc *DatasetUseCase) ExecuteSharedReport(ctx context.Context, token string, in dto.ExecuteQueryRequest) (*dto.ExecuteQueryResponse, error) {
	r, err := uc.SharedReport(ctx, token)
	if err != nil {
		return nil, err
	}
	d, err := uc.dataset(ctx, r.TenantID, r.DatasetID)
	if err != nil {
		return nil, err
	}
	return uc.execute(ctx, d, in)
}
