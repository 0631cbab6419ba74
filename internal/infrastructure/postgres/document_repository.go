package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

type documentRepo struct{ q Querier }

const documentColumns = `id, uuid, tenant_id, doc_type, code, status, review_status, approval_instance_id,
	approval_status, confirmed, party_id, party_name, warehouse_id, business_date, remarks, extra,
	created_by, updated_by, reviewed_by, reviewed_at, created_at, updated_at`

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var d entity.Document
	err := row.Scan(&d.ID, &d.UUID, &d.TenantID, &d.DocType, &d.Code, &d.Status, &d.ReviewStatus,
		&d.ApprovalInstanceID, &d.ApprovalStatus, &d.Confirmed, &d.PartyID, &d.PartyName, &d.WarehouseID,
		&d.BusinessDate, &d.Remarks, &d.Extra, &d.CreatedBy, &d.UpdatedBy, &d.ReviewedBy, &d.ReviewedAt,
		&d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

// Create guarda la cabecera; las líneas van por CreateItems.
func (r documentRepo) Create(ctx context.Context, d *entity.Document) error {
	d.UUID = newUUID(d.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO documents (uuid, tenant_id, doc_type, code, status, review_status, approval_instance_id,
			approval_status, confirmed, party_id, party_name, warehouse_id, business_date, remarks, extra,
			created_by, updated_by, reviewed_by, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at, updated_at`,
		d.UUID, d.TenantID, d.DocType, d.Code, d.Status, d.ReviewStatus, d.ApprovalInstanceID,
		d.ApprovalStatus, d.Confirmed, d.PartyID, d.PartyName, d.WarehouseID, d.BusinessDate, d.Remarks,
		orEmpty(d.Extra), d.CreatedBy, d.UpdatedBy, d.ReviewedBy, d.ReviewedAt,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	return writeErr("insert document", d.DocType+" "+d.Code, err)
}

func (r documentRepo) CreateItems(ctx context.Context, items []*entity.DocumentItem) error {
	for _, it := range items {
		it.UUID = newUUID(it.UUID)
		err := r.q.QueryRow(ctx, `
			INSERT INTO document_items (uuid, tenant_id, document_id, line_no, material_id, material_code,
				material_name, material_spec, material_unit, quantity, done_quantity, unit_price, warehouse_id,
				source_item_id, remarks)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING id, created_at, updated_at`,
			it.UUID, it.TenantID, it.DocumentID, it.LineNo, it.MaterialID, it.MaterialCode, it.MaterialName,
			it.MaterialSpec, it.MaterialUnit, it.Quantity, it.DoneQuantity, it.UnitPrice, it.WarehouseID,
			it.SourceItemID, it.Remarks,
		).Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert document item %d: %w", it.LineNo, err)
		}
	}
	return nil
}

func (r documentRepo) GetByID(ctx context.Context, tenantID, id int64) (*entity.Document, error) {
	return queryOne(ctx, r.q, "get document", scanDocument,
		`SELECT `+documentColumns+` FROM documents WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

func (r documentRepo) GetByIDForUpdate(ctx context.Context, tenantID, id int64) (*entity.Document, error) {
	return queryOne(ctx, r.q, "get document for update", scanDocument,
		`SELECT `+documentColumns+` FROM documents WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL FOR UPDATE`, tenantID, id)
}

func (r documentRepo) GetByCode(ctx context.Context, tenantID int64, docType, code string) (*entity.Document, error) {
	return queryOne(ctx, r.q, "get document by code", scanDocument, `
		SELECT `+documentColumns+` FROM documents
		WHERE tenant_id = $1 AND doc_type = $2 AND code = $3 AND deleted_at IS NULL`, tenantID, docType, code)
}

func (r documentRepo) List(ctx context.Context, tenantID int64, f repository.DocumentFilter) ([]*entity.Document, int, error) {
	const where = ` FROM documents WHERE tenant_id = $1 AND deleted_at IS NULL
		AND ($2 = '' OR doc_type = $2)
		AND ($3 = '' OR status = $3)
		AND ($4 = '' OR code ILIKE $4 OR party_name ILIKE $4)`
	kw := like(f.Keyword)
	total, err := count(ctx, r.q, "count documents", `SELECT COUNT(*)`+where, tenantID, f.DocType, f.Status, kw)
	if err != nil {
		return nil, 0, err
	}
	limit, offset := pageArgs(f.ListFilter)
	list, err := queryAll(ctx, r.q, "list documents", scanDocument,
		`SELECT `+documentColumns+where+` ORDER BY id LIMIT $5 OFFSET $6`, tenantID, f.DocType, f.Status, kw, limit, offset)
	return list, total, err
}

func (r documentRepo) Update(ctx context.Context, d *entity.Document) error {
	err := r.q.QueryRow(ctx, `
		UPDATE documents SET status = $3, review_status = $4, approval_instance_id = $5, approval_status = $6,
			confirmed = $7, party_id = $8, party_name = $9, warehouse_id = $10, business_date = $11, remarks = $12,
			extra = $13, updated_by = $14, reviewed_by = $15, reviewed_at = $16, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING updated_at`,
		d.TenantID, d.ID, d.Status, d.ReviewStatus, d.ApprovalInstanceID, d.ApprovalStatus, d.Confirmed,
		d.PartyID, d.PartyName, d.WarehouseID, d.BusinessDate, d.Remarks, orEmpty(d.Extra), d.UpdatedBy,
		d.ReviewedBy, d.ReviewedAt,
	).Scan(&d.UpdatedAt)
	return updateErr("update document", d.Code, err)
}

// SoftDelete borra la cabecera y sus líneas.
func (r documentRepo) SoftDelete(ctx context.Context, tenantID, id int64) error {
	if err := execOne(ctx, r.q, "delete document", fmt.Sprint(id),
		`UPDATE documents SET deleted_at = NOW() WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id); err != nil {
		return err
	}
	_, err := r.q.Exec(ctx,
		`UPDATE document_items SET deleted_at = NOW() WHERE tenant_id = $1 AND document_id = $2 AND deleted_at IS NULL`, tenantID, id)
	if err != nil {
		return fmt.Errorf("delete document items: %w", err)
	}
	return nil
}

const documentItemColumns = `id, uuid, tenant_id, document_id, line_no, material_id, material_code, material_name,
	material_spec, material_unit, quantity, done_quantity, unit_price, warehouse_id, source_item_id, remarks,
	created_at, updated_at`

func scanDocumentItem(row pgx.Row) (*entity.DocumentItem, error) {
	var it entity.DocumentItem
	err := row.Scan(&it.ID, &it.UUID, &it.TenantID, &it.DocumentID, &it.LineNo, &it.MaterialID,
		&it.MaterialCode, &it.MaterialName, &it.MaterialSpec, &it.MaterialUnit, &it.Quantity,
		&it.DoneQuantity, &it.UnitPrice, &it.WarehouseID, &it.SourceItemID, &it.Remarks,
		&it.CreatedAt, &it.UpdatedAt)
	return &it, err
}

func (r documentRepo) ListItems(ctx context.Context, tenantID, documentID int64) ([]*entity.DocumentItem, error) {
	return queryAll(ctx, r.q, "list document items", scanDocumentItem, `
		SELECT `+documentItemColumns+` FROM document_items
		WHERE tenant_id = $1 AND document_id = $2 AND deleted_at IS NULL ORDER BY line_no, id`, tenantID, documentID)
}

func (r documentRepo) UpdateItem(ctx context.Context, it *entity.DocumentItem) error {
	err := r.q.QueryRow(ctx, `
		UPDATE document_items SET quantity = $3, done_quantity = $4, unit_price = $5, warehouse_id = $6,
			remarks = $7, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING updated_at`,
		it.TenantID, it.ID, it.Quantity, it.DoneQuantity, it.UnitPrice, it.WarehouseID, it.Remarks,
	).Scan(&it.UpdatedAt)
	return updateErr("update document item", fmt.Sprint(it.ID), err)
}

// ListMovementLines el almacén de la línea tiene prioridad sobre el de la cabecera.
func (r documentRepo) ListMovementLines(ctx context.Context, tenantID int64, docTypes []string, status string, from, to time.Time) ([]*entity.StockMovementLine, error) {
	return queryAll(ctx, r.q, "list movement lines", func(row pgx.Row) (*entity.StockMovementLine, error) {
		var l entity.StockMovementLine
		err := row.Scan(&l.DocumentID, &l.DocType, &l.MaterialID, &l.WarehouseID, &l.Quantity)
		return &l, err
	}, `
		SELECT d.id, d.doc_type, i.material_id, COALESCE(i.warehouse_id, d.warehouse_id, 0), i.quantity
		FROM documents d
		JOIN document_items i ON i.document_id = d.id AND i.deleted_at IS NULL
		WHERE d.tenant_id = $1 AND d.deleted_at IS NULL AND d.doc_type = ANY($2) AND d.status = $3
		  AND d.business_date >= $4 AND d.business_date < $5
		ORDER BY d.id, i.line_no, i.id`, tenantID, docTypes, status, from, to)
}

func (r documentRepo) CountByType(ctx context.Context, tenantID int64, docType string, statuses []string) (int, error) {
	if statuses == nil {
		statuses = []string{}
	}
	return count(ctx, r.q, "count documents by type", `
		SELECT COUNT(*) FROM documents
		WHERE tenant_id = $1 AND doc_type = $2 AND deleted_at IS NULL
		  AND (cardinality($3::text[]) = 0 OR status = ANY($3))`, tenantID, docType, statuses)
}

// ---------------------------------------------------------------------------
// Relaciones
// ---------------------------------------------------------------------------

type relationRepo struct{ q Querier }

const relationColumns = `id, uuid, tenant_id, source_type, source_id, source_code, target_type, target_id,
	target_code, relation_type, relation_mode, relation_desc, created_by, created_at`

func scanRelation(row pgx.Row) (*entity.DocumentRelation, error) {
	var x entity.DocumentRelation
	err := row.Scan(&x.ID, &x.UUID, &x.TenantID, &x.SourceType, &x.SourceID, &x.SourceCode, &x.TargetType,
		&x.TargetID, &x.TargetCode, &x.RelationType, &x.RelationMode, &x.RelationDesc, &x.CreatedBy, &x.CreatedAt)
	return &x, err
}

func (r relationRepo) Create(ctx context.Context, x *entity.DocumentRelation) error {
	x.UUID = newUUID(x.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO document_relations (uuid, tenant_id, source_type, source_id, source_code, target_type,
			target_id, target_code, relation_type, relation_mode, relation_desc, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`,
		x.UUID, x.TenantID, x.SourceType, x.SourceID, x.SourceCode, x.TargetType, x.TargetID, x.TargetCode,
		x.RelationType, x.RelationMode, x.RelationDesc, x.CreatedBy,
	).Scan(&x.ID, &x.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert document relation: %w", err)
	}
	return nil
}

func (r relationRepo) ListBySource(ctx context.Context, tenantID int64, sourceType string, sourceID int64) ([]*entity.DocumentRelation, error) {
	return queryAll(ctx, r.q, "list relations by source", scanRelation, `
		SELECT `+relationColumns+` FROM document_relations
		WHERE tenant_id = $1 AND source_type = $2 AND source_id = $3 ORDER BY id`, tenantID, sourceType, sourceID)
}

func (r relationRepo) ListByTarget(ctx context.Context, tenantID int64, targetType string, targetID int64) ([]*entity.DocumentRelation, error) {
	return queryAll(ctx, r.q, "list relations by target", scanRelation, `
		SELECT `+relationColumns+` FROM document_relations
		WHERE tenant_id = $1 AND target_type = $2 AND target_id = $3 ORDER BY id`, tenantID, targetType, targetID)
}

// ---------------------------------------------------------------------------
// Aprobaciones
// ---------------------------------------------------------------------------

type approvalRepo struct{ q Querier }

func nodesOf(n []entity.ApprovalNode) []entity.ApprovalNode {
	if n == nil {
		return []entity.ApprovalNode{}
	}
	return n
}

const processColumns = `id, uuid, tenant_id, code, name, business_type, nodes, is_active, created_at, updated_at`

func scanProcess(row pgx.Row) (*entity.ApprovalProcess, error) {
	var p entity.ApprovalProcess
	err := row.Scan(&p.ID, &p.UUID, &p.TenantID, &p.Code, &p.Name, &p.BusinessType, &p.Nodes,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r approvalRepo) CreateProcess(ctx context.Context, p *entity.ApprovalProcess) error {
	p.UUID = newUUID(p.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO approval_processes (uuid, tenant_id, code, name, business_type, nodes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		p.UUID, p.TenantID, p.Code, p.Name, p.BusinessType, nodesOf(p.Nodes), p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return writeErr("insert approval process", p.Code, err)
}

func (r approvalRepo) GetProcess(ctx context.Context, tenantID, id int64) (*entity.ApprovalProcess, error) {
	return queryOne(ctx, r.q, "get approval process", scanProcess,
		`SELECT `+processColumns+` FROM approval_processes WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

func (r approvalRepo) GetProcessByCode(ctx context.Context, tenantID int64, code string) (*entity.ApprovalProcess, error) {
	return queryOne(ctx, r.q, "get approval process by code", scanProcess,
		`SELECT `+processColumns+` FROM approval_processes WHERE tenant_id = $1 AND code = $2 AND deleted_at IS NULL`, tenantID, code)
}

func (r approvalRepo) ListProcesses(ctx context.Context, tenantID int64) ([]*entity.ApprovalProcess, error) {
	return queryAll(ctx, r.q, "list approval processes", scanProcess,
		`SELECT `+processColumns+` FROM approval_processes WHERE tenant_id = $1 AND deleted_at IS NULL ORDER BY id`, tenantID)
}

const instanceColumns = `id, uuid, tenant_id, process_id, nodes, business_type, business_id, business_code, title,
	status, current_node, current_approver_id, submitter_id, submitted_at, completed_at, created_at, updated_at`

func scanInstance(row pgx.Row) (*entity.ApprovalInstance, error) {
	var i entity.ApprovalInstance
	err := row.Scan(&i.ID, &i.UUID, &i.TenantID, &i.ProcessID, &i.Nodes, &i.BusinessType, &i.BusinessID,
		&i.BusinessCode, &i.Title, &i.Status, &i.CurrentNode, &i.CurrentApproverID, &i.SubmitterID,
		&i.SubmittedAt, &i.CompletedAt, &i.CreatedAt, &i.UpdatedAt)
	return &i, err
}

func (r approvalRepo) CreateInstance(ctx context.Context, i *entity.ApprovalInstance) error {
	i.UUID = newUUID(i.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO approval_instances (uuid, tenant_id, process_id, nodes, business_type, business_id,
			business_code, title, status, current_node, current_approver_id, submitter_id, submitted_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`,
		i.UUID, i.TenantID, i.ProcessID, nodesOf(i.Nodes), i.BusinessType, i.BusinessID, i.BusinessCode,
		i.Title, i.Status, i.CurrentNode, i.CurrentApproverID, i.SubmitterID, i.SubmittedAt, i.CompletedAt,
	).Scan(&i.ID, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert approval instance: %w", err)
	}
	return nil
}

func (r approvalRepo) GetInstance(ctx context.Context, tenantID, id int64) (*entity.ApprovalInstance, error) {
	return queryOne(ctx, r.q, "get approval instance", scanInstance,
		`SELECT `+instanceColumns+` FROM approval_instances WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

func (r approvalRepo) GetInstanceForUpdate(ctx context.Context, tenantID, id int64) (*entity.ApprovalInstance, error) {
	return queryOne(ctx, r.q, "get approval instance for update", scanInstance,
		`SELECT `+instanceColumns+` FROM approval_instances WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id)
}

func (r approvalRepo) UpdateInstance(ctx context.Context, i *entity.ApprovalInstance) error {
	err := r.q.QueryRow(ctx, `
		UPDATE approval_instances SET status = $3, current_node = $4, current_approver_id = $5,
			completed_at = $6, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
		RETURNING updated_at`,
		i.TenantID, i.ID, i.Status, i.CurrentNode, i.CurrentApproverID, i.CompletedAt,
	).Scan(&i.UpdatedAt)
	return updateErr("update approval instance", fmt.Sprint(i.ID), err)
}

func (r approvalRepo) ListPendingForApprover(ctx context.Context, tenantID, approverID int64) ([]*entity.ApprovalInstance, error) {
	return queryAll(ctx, r.q, "list pending approvals", scanInstance, `
		SELECT `+instanceColumns+` FROM approval_instances
		WHERE tenant_id = $1 AND status = $2 AND current_approver_id = $3
		ORDER BY id`, tenantID, entity.InstancePending, approverID)
}

func (r approvalRepo) AddHistory(ctx context.Context, h *entity.ApprovalHistory) error {
	if h.ActionAt.IsZero() {
		h.ActionAt = time.Now().UTC()
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO approval_history (tenant_id, instance_id, action, action_by, action_at, comment, from_node, to_node)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		h.TenantID, h.InstanceID, h.Action, h.ActionBy, h.ActionAt, h.Comment, h.FromNode, h.ToNode,
	).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("insert approval history: %w", err)
	}
	return nil
}

func (r approvalRepo) ListHistory(ctx context.Context, tenantID, instanceID int64) ([]*entity.ApprovalHistory, error) {
	return queryAll(ctx, r.q, "list approval history", func(row pgx.Row) (*entity.ApprovalHistory, error) {
		var h entity.ApprovalHistory
		err := row.Scan(&h.ID, &h.TenantID, &h.InstanceID, &h.Action, &h.ActionBy, &h.ActionAt,
			&h.Comment, &h.FromNode, &h.ToNode)
		return &h, err
	}, `
		SELECT id, tenant_id, instance_id, action, action_by, action_at, comment, from_node, to_node
		FROM approval_history
		WHERE tenant_id = $1 AND instance_id = $2
		ORDER BY id`, tenantID, instanceID)
}
