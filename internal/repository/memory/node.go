package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
)

// NodeRepository is a mutex-guarded in-memory implementation of
// repositories.NodeRepository. It mirrors the postgres semantics, including
// sibling uniqueness under concurrent inserts, and backs tests and the
// memory storage driver.
type NodeRepository struct {
	mu    sync.Mutex
	nodes map[string]models.Node
}

func NewNodeRepository() *NodeRepository {
	return &NodeRepository{
		nodes: make(map[string]models.Node),
	}
}

var _ repositories.NodeRepository = (*NodeRepository)(nil)

func (r *NodeRepository) Insert(ctx context.Context, node *models.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.nodes {
		if sameParent(existing.ParentID, node.ParentID) &&
			existing.Name == node.Name &&
			existing.IsFolder == node.IsFolder {
			return &domain.ConflictError{
				Message:    fmt.Sprintf("node '%s' already exists", node.Name),
				ResourceID: existing.ID,
			}
		}
	}

	now := time.Now()
	node.ID = uuid.NewString()
	node.CreatedAt = now
	node.UpdatedAt = now
	r.nodes[node.ID] = *node

	return nil
}

func (r *NodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return &node, nil
}

func (r *NodeRepository) ListChildren(ctx context.Context, parentID *string) ([]models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var nodes []models.Node
	for _, node := range r.nodes {
		if sameParent(node.ParentID, parentID) {
			nodes = append(nodes, node)
		}
	}

	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].IsFolder != nodes[j].IsFolder {
			return nodes[i].IsFolder
		}
		return nodes[i].Name < nodes[j].Name
	})

	return nodes, nil
}

func (r *NodeRepository) SetExtractedText(ctx context.Context, id string, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[id]
	if !ok || node.IsFolder {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}

	node.ExtractedText = &text
	node.UpdatedAt = time.Now()
	r.nodes[id] = node

	return nil
}

func (r *NodeRepository) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodes[id]; !ok {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	delete(r.nodes, id)

	return nil
}

// Len reports the number of stored nodes. Test helper.
func (r *NodeRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
