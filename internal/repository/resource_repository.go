package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
)

const resourceDetailColumns = `r.id, r.name, r.description, r.activity_id, r.created_by, r.created_at, r.record_status,
        a.name AS activity_name,
        COALESCE(NULLIF(TRIM(u.first_name || ' ' || u.last_name), ''), u.phone_number) AS creator_name`

const resourceDetailJoins = `FROM resources r
JOIN activities a ON a.id = r.activity_id
JOIN users u ON u.id = r.created_by`

// ResourceRepository owns persistence for the resource catalog.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository constructs the repository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Create inserts a new resource, assigning an id when none is set.
func (r *ResourceRepository) Create(ctx context.Context, resource *models.Resource) error {
	if resource.ID == "" {
		resource.ID = uuid.NewString()
	}
	resource.CreatedAt = time.Now().UTC()
	if resource.RecordStatus == "" {
		resource.RecordStatus = models.RecordActive
	}

	const query = `INSERT INTO resources (id, name, description, activity_id, created_by, created_at, record_status)
        VALUES (:id, :name, :description, :activity_id, :created_by, :created_at, :record_status)`
	if _, err := r.db.NamedExecContext(ctx, query, resource); err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

// FindByID returns a resource by identifier.
func (r *ResourceRepository) FindByID(ctx context.Context, id string) (*models.Resource, error) {
	const query = `SELECT id, name, description, activity_id, created_by, created_at, record_status
        FROM resources WHERE id = $1 AND record_status = $2`
	var resource models.Resource
	if err := r.db.GetContext(ctx, &resource, query, id, models.RecordActive); err != nil {
		return nil, err
	}
	return &resource, nil
}

// FindDetailByID returns a resource with activity and creator context.
func (r *ResourceRepository) FindDetailByID(ctx context.Context, id string) (*models.ResourceDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE r.id = $1 AND r.record_status = $2`,
		resourceDetailColumns, resourceDetailJoins)
	var detail models.ResourceDetail
	if err := r.db.GetContext(ctx, &detail, query, id, models.RecordActive); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns resources matching the filter, newest first.
func (r *ResourceRepository) List(ctx context.Context, filter models.ResourceFilter) ([]models.ResourceDetail, error) {
	where := []string{"r.record_status = $1"}
	args := []interface{}{models.RecordActive}

	if filter.ActivityID != "" {
		where = append(where, fmt.Sprintf("r.activity_id = $%d", len(args)+1))
		args = append(args, filter.ActivityID)
	}
	if filter.CreatedBy != "" {
		where = append(where, fmt.Sprintf("r.created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		where = append(where, fmt.Sprintf("(LOWER(r.name) LIKE $%d OR LOWER(a.name) LIKE $%d)", idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY r.created_at DESC`,
		resourceDetailColumns, resourceDetailJoins, strings.Join(where, " AND "))

	var details []models.ResourceDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return details, nil
}

// Update persists editable resource fields.
func (r *ResourceRepository) Update(ctx context.Context, resource *models.Resource) error {
	const query = `UPDATE resources SET name = :name, description = :description
        WHERE id = :id AND record_status = 'ACTIVE'`
	if _, err := r.db.NamedExecContext(ctx, query, resource); err != nil {
		return fmt.Errorf("update resource: %w", err)
	}
	return nil
}

// Retire soft-deletes a resource.
func (r *ResourceRepository) Retire(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE resources SET record_status = $2 WHERE id = $1`, id, models.RecordRetired); err != nil {
		return fmt.Errorf("retire resource: %w", err)
	}
	return nil
}
