package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
)

// PostgresNodeRepository implements the NodeRepository interface
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(config *RepositoryConfig) repositories.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		logger: config.Logger,
	}
}

const nodeColumns = `id, parent_id, name, is_folder, path, mime_type, size, extracted_text, created_at, updated_at`

// Insert persists a new node. The unique index on (parent_id, name,
// is_folder) is the authority on sibling uniqueness; a violation maps to
// domain.ErrConflict.
func (r *PostgresNodeRepository) Insert(ctx context.Context, node *models.Node) error {
	query := `
		INSERT INTO nodes (parent_id, name, is_folder, path, mime_type, size, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	now := time.Now()
	err := r.pool.QueryRow(ctx, query,
		node.ParentID,
		node.Name,
		node.IsFolder,
		node.Path,
		node.MimeType,
		node.Size,
		now,
		now,
	).Scan(&node.ID, &node.CreatedAt, &node.UpdatedAt)

	if err != nil {
		if isPgDuplicateError(err) {
			return r.conflictError(ctx, node)
		}
		return fmt.Errorf("insert node: %w", err)
	}

	return nil
}

// conflictError builds the duplicate-sibling error, resolving the existing
// node's id best-effort so the caller can point at the conflicting resource.
func (r *PostgresNodeRepository) conflictError(ctx context.Context, node *models.Node) error {
	conflict := &domain.ConflictError{
		Message: fmt.Sprintf("node '%s' already exists", node.Name),
	}

	query := `
		SELECT id FROM nodes
		WHERE COALESCE(parent_id, '00000000-0000-0000-0000-000000000000'::uuid) =
		      COALESCE($1::uuid, '00000000-0000-0000-0000-000000000000'::uuid)
		  AND name = $2 AND is_folder = $3
	`
	if err := r.pool.QueryRow(ctx, query, node.ParentID, node.Name, node.IsFolder).Scan(&conflict.ResourceID); err != nil {
		r.logger.Debug("conflicting node lookup failed", "name", node.Name, "error", err)
	}

	return conflict
}

// GetByID retrieves a node by ID
func (r *PostgresNodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	if !isValidID(id) {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}

	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE id = $1`

	var node models.Node
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&node.ID,
		&node.ParentID,
		&node.Name,
		&node.IsFolder,
		&node.Path,
		&node.MimeType,
		&node.Size,
		&node.ExtractedText,
		&node.CreatedAt,
		&node.UpdatedAt,
	)

	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}

	return &node, nil
}

// ListChildren lists immediate children, folders first, then by name
func (r *PostgresNodeRepository) ListChildren(ctx context.Context, parentID *string) ([]models.Node, error) {
	var query string
	var args []interface{}

	if parentID != nil && !isValidID(*parentID) {
		return nil, nil
	}

	if parentID == nil {
		query = `SELECT ` + nodeColumns + ` FROM nodes WHERE parent_id IS NULL ORDER BY is_folder DESC, name ASC`
	} else {
		query = `SELECT ` + nodeColumns + ` FROM nodes WHERE parent_id = $1 ORDER BY is_folder DESC, name ASC`
		args = append(args, *parentID)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		var node models.Node
		err := rows.Scan(
			&node.ID,
			&node.ParentID,
			&node.Name,
			&node.IsFolder,
			&node.Path,
			&node.MimeType,
			&node.Size,
			&node.ExtractedText,
			&node.CreatedAt,
			&node.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	return nodes, nil
}

// SetExtractedText writes recognized text via a conditional update. Zero
// rows affected means the node was deleted while the extraction job ran;
// that surfaces as ErrNotFound so the worker can treat it as a no-op.
func (r *PostgresNodeRepository) SetExtractedText(ctx context.Context, id string, text string) error {
	if !isValidID(id) {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}

	query := `
		UPDATE nodes
		SET extracted_text = $1, updated_at = $2
		WHERE id = $3 AND is_folder = FALSE
	`

	result, err := r.pool.Exec(ctx, query, text, time.Now(), id)
	if err != nil {
		return fmt.Errorf("set extracted text: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DeleteByID removes a single node record
func (r *PostgresNodeRepository) DeleteByID(ctx context.Context, id string) error {
	if !isValidID(id) {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM nodes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
