package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"docvault/internal/blobstore"
	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
)

const maxNodeNameLength = 255

var nameNoSlash = regexp.MustCompile(`^[^/]+$`)

// TreeService owns the invariants of the file tree: sibling-name uniqueness,
// breadcrumb derivation, and cascading deletion with payload reclamation.
type TreeService struct {
	repo   repositories.NodeRepository
	blobs  blobstore.Store
	logger *slog.Logger
}

func NewTreeService(repo repositories.NodeRepository, blobs blobstore.Store, logger *slog.Logger) *TreeService {
	return &TreeService{
		repo:   repo,
		blobs:  blobs,
		logger: logger,
	}
}

// List returns the children of parentID (folders first, then by name) and
// the breadcrumb trail from the root down to parentID.
//
// A nil parentID, or one that does not resolve to an existing folder, is
// treated as the forest root and yields an empty breadcrumb list.
func (s *TreeService) List(ctx context.Context, parentID *string) (*models.Listing, error) {
	var breadcrumbs []models.Breadcrumb

	if parentID != nil {
		parent, err := s.repo.GetByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				parentID = nil
			} else {
				return nil, err
			}
		} else {
			breadcrumbs, err = s.breadcrumbs(ctx, parent)
			if err != nil {
				return nil, err
			}
		}
	}

	children, err := s.repo.ListChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if children == nil {
		children = []models.Node{}
	}
	if breadcrumbs == nil {
		breadcrumbs = []models.Breadcrumb{}
	}

	return &models.Listing{
		Files:       children,
		Breadcrumbs: breadcrumbs,
	}, nil
}

// CreateFolder creates a folder node under parentID.
func (s *TreeService) CreateFolder(ctx context.Context, name string, parentID *string) (*models.Node, error) {
	if err := s.validateName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	parentID, err := s.checkParent(ctx, parentID)
	if err != nil {
		return nil, err
	}

	node := &models.Node{
		ParentID: parentID,
		Name:     name,
		IsFolder: true,
	}

	if err := s.repo.Insert(ctx, node); err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", node.ID,
		"name", node.Name,
		"parent_id", node.ParentID,
	)

	return node, nil
}

// CreateFile creates a file node referencing an already-committed blob.
// It never writes bytes itself; the ingestion path commits the payload
// before calling this.
func (s *TreeService) CreateFile(ctx context.Context, name string, parentID *string, locator string, mimeType string, size int64) (*models.Node, error) {
	if err := s.validateName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if locator == "" {
		return nil, fmt.Errorf("%w: file requires a payload locator", domain.ErrValidation)
	}
	parentID, err := s.checkParent(ctx, parentID)
	if err != nil {
		return nil, err
	}

	node := &models.Node{
		ParentID: parentID,
		Name:     name,
		IsFolder: false,
		Path:     &locator,
		MimeType: &mimeType,
		Size:     size,
	}

	if err := s.repo.Insert(ctx, node); err != nil {
		return nil, err
	}

	s.logger.Info("file created",
		"id", node.ID,
		"name", node.Name,
		"parent_id", node.ParentID,
		"size", node.Size,
	)

	return node, nil
}

// Delete removes a node and, for folders, its entire subtree. Traversal is
// an explicit iterative post-order so children and their payloads are gone
// before the parent record disappears; a mid-failure crash can leave
// orphaned blobs but never a parent pointing at deleted children.
func (s *TreeService) Delete(ctx context.Context, id string) error {
	root, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	type frame struct {
		node     models.Node
		expanded bool
	}

	stack := []frame{{node: *root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.node.IsFolder && !top.expanded {
			stack = append(stack, frame{node: top.node, expanded: true})
			children, err := s.repo.ListChildren(ctx, &top.node.ID)
			if err != nil {
				return fmt.Errorf("list children of %s: %w", top.node.ID, err)
			}
			for _, child := range children {
				stack = append(stack, frame{node: child})
			}
			continue
		}

		s.deletePayload(ctx, &top.node)

		if err := s.repo.DeleteByID(ctx, top.node.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete node %s: %w", top.node.ID, err)
		}
	}

	s.logger.Info("node deleted",
		"id", root.ID,
		"name", root.Name,
		"is_folder", root.IsFolder,
	)

	return nil
}

// deletePayload reclaims a file node's blob. A missing blob is a logged
// anomaly, not a fatal error: a prior partially completed deletion may have
// reclaimed it already, and it must not abort the rest of the cascade.
func (s *TreeService) deletePayload(ctx context.Context, node *models.Node) {
	if node.IsFolder || node.Path == nil {
		return
	}

	if err := s.blobs.Delete(ctx, *node.Path); err != nil {
		s.logger.Warn("payload reclamation failed",
			"node_id", node.ID,
			"locator", *node.Path,
			"error", err,
		)
	}
}

// breadcrumbs walks parent links from folder up to a root, then reverses to
// root-first order. Iterative with a visited set: the tree is append-only so
// cycles cannot form, but a corrupted parent link must not hang the walk.
func (s *TreeService) breadcrumbs(ctx context.Context, folder *models.Node) ([]models.Breadcrumb, error) {
	var trail []models.Breadcrumb
	visited := make(map[string]bool)

	current := folder
	for current != nil {
		if visited[current.ID] {
			return nil, fmt.Errorf("parent cycle detected at node %s", current.ID)
		}
		visited[current.ID] = true

		trail = append(trail, models.Breadcrumb{ID: current.ID, Name: current.Name})

		if current.ParentID == nil {
			break
		}

		parent, err := s.repo.GetByID(ctx, *current.ParentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				break
			}
			return nil, err
		}
		current = parent
	}

	for i, j := 0, len(trail)-1; i < j; i, j = i+1, j-1 {
		trail[i], trail[j] = trail[j], trail[i]
	}

	return trail, nil
}

// checkParent verifies the target parent exists and is a folder. An empty
// string normalizes to nil for root-level nodes.
func (s *TreeService) checkParent(ctx context.Context, parentID *string) (*string, error) {
	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	if parentID == nil {
		return nil, nil
	}

	parent, err := s.repo.GetByID(ctx, *parentID)
	if err != nil {
		return nil, fmt.Errorf("parent folder: %w", err)
	}
	if !parent.IsFolder {
		return nil, fmt.Errorf("%w: parent %s is not a folder", domain.ErrValidation, parent.ID)
	}

	return &parent.ID, nil
}

func (s *TreeService) validateName(name string) error {
	return validation.Validate(name,
		validation.Required,
		validation.Length(1, maxNodeNameLength),
		validation.Match(nameNoSlash).Error("name cannot contain slashes"),
	)
}
