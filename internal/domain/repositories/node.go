package repositories

import (
	"context"

	"docvault/internal/domain/models"
)

// NodeRepository defines data access operations for tree nodes.
//
// Implementations must enforce sibling-name uniqueness with a storage-level
// constraint and surface violations as domain.ErrConflict; a separate
// existence check before insert is race-prone and not sufficient.
type NodeRepository interface {
	// Insert persists a new node, assigning ID and timestamps.
	Insert(ctx context.Context, node *models.Node) error

	// GetByID retrieves a node by ID.
	GetByID(ctx context.Context, id string) (*models.Node, error)

	// ListChildren lists immediate children of parentID (nil = root level),
	// folders first, then by name ascending.
	ListChildren(ctx context.Context, parentID *string) ([]models.Node, error)

	// SetExtractedText writes recognized text to a file node. Returns
	// domain.ErrNotFound if the node no longer exists; callers racing a
	// deletion treat that as a no-op.
	SetExtractedText(ctx context.Context, id string, text string) error

	// DeleteByID removes a single node record.
	DeleteByID(ctx context.Context, id string) error
}
