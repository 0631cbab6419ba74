package repository

import (
	"context"
	"time"

	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

// DocumentFilter filtro de documentos de un tipo.
type DocumentFilter struct {
	DocType string
	ListFilter
}

// DocumentRepository cabeceras y líneas de documentos de negocio.
type DocumentRepository interface {
	Create(ctx context.Context, d *entity.Document) error
	CreateItems(ctx context.Context, items []*entity.DocumentItem) error
	GetByID(ctx context.Context, tenantID, id int64) (*entity.Document, error)
	// GetByIDForUpdate bloquea la fila (SELECT ... FOR UPDATE).
	GetByIDForUpdate(ctx context.Context, tenantID, id int64) (*entity.Document, error)
	GetByCode(ctx context.Context, tenantID int64, docType, code string) (*entity.Document, error)
	List(ctx context.Context, tenantID int64, f DocumentFilter) ([]*entity.Document, int, error)
	Update(ctx context.Context, d *entity.Document) error
	SoftDelete(ctx context.Context, tenantID, id int64) error
	ListItems(ctx context.Context, tenantID, documentID int64) ([]*entity.DocumentItem, error)
	UpdateItem(ctx context.Context, item *entity.DocumentItem) error
	// ListMovementLines líneas de documentos de los tipos/estados dados con fecha de negocio en [from, to).
	ListMovementLines(ctx context.Context, tenantID int64, docTypes []string, status string, from, to time.Time) ([]*entity.StockMovementLine, error)
	CountByType(ctx context.Context, tenantID int64, docType string, statuses []string) (int, error)
}

// RelationRepository relaciones entre documentos (solo se agregan).
type RelationRepository interface {
	Create(ctx context.Context, r *entity.DocumentRelation) error
	ListBySource(ctx context.Context, tenantID int64, sourceType string, sourceID int64) ([]*entity.DocumentRelation, error)
	ListByTarget(ctx context.Context, tenantID int64, targetType string, targetID int64) ([]*entity.DocumentRelation, error)
}

// ApprovalRepository procesos, instancias e historial de aprobación.
type ApprovalRepository interface {
	CreateProcess(ctx context.Context, p *entity.ApprovalProcess) error
	GetProcess(ctx context.Context, tenantID, id int64) (*entity.ApprovalProcess, error)
	GetProcessByCode(ctx context.Context, tenantID int64, code string) (*entity.ApprovalProcess, error)
	ListProcesses(ctx context.Context, tenantID int64) ([]*entity.ApprovalProcess, error)

	CreateInstance(ctx context.Context, i *entity.ApprovalInstance) error
	GetInstance(ctx context.Context, tenantID, id int64) (*entity.ApprovalInstance, error)
	GetInstanceForUpdate(ctx context.Context, tenantID, id int64) (*entity.ApprovalInstance, error)
	UpdateInstance(ctx context.Context, i *entity.ApprovalInstance) error
	ListPendingForApprover(ctx context.Context, tenantID, approverID int64) ([]*entity.ApprovalInstance, error)

	AddHistory(ctx context.Context, h *entity.ApprovalHistory) error
	ListHistory(ctx context.Context, tenantID, instanceID int64) ([]*entity.ApprovalHistory, error)
}
