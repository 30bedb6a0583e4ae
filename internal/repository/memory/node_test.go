package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
)

func TestInsert_ConcurrentSiblingsOneWinner(t *testing.T) {
	repo := NewNodeRepository()
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = repo.Insert(ctx, &models.Node{Name: "A", IsFolder: true})
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, domain.ErrConflict)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, repo.Len())
}

func TestInsert_ConflictNamesExistingNode(t *testing.T) {
	repo := NewNodeRepository()
	ctx := context.Background()

	first := &models.Node{Name: "A", IsFolder: true}
	require.NoError(t, repo.Insert(ctx, first))

	err := repo.Insert(ctx, &models.Node{Name: "A", IsFolder: true})
	require.ErrorIs(t, err, domain.ErrConflict)

	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.ID, conflict.ResourceID)
}

func TestInsert_AssignsIDAndTimestamps(t *testing.T) {
	repo := NewNodeRepository()

	node := &models.Node{Name: "A", IsFolder: true}
	require.NoError(t, repo.Insert(context.Background(), node))

	assert.NotEmpty(t, node.ID)
	assert.False(t, node.CreatedAt.IsZero())
	assert.False(t, node.UpdatedAt.IsZero())
}

func TestSetExtractedText(t *testing.T) {
	repo := NewNodeRepository()
	ctx := context.Background()

	locator := "uploads/x"
	node := &models.Node{Name: "doc.txt", Path: &locator}
	require.NoError(t, repo.Insert(ctx, node))

	require.NoError(t, repo.SetExtractedText(ctx, node.ID, "extracted"))

	stored, err := repo.GetByID(ctx, node.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ExtractedText)
	assert.Equal(t, "extracted", *stored.ExtractedText)
}

func TestSetExtractedText_MissingNode(t *testing.T) {
	repo := NewNodeRepository()

	err := repo.SetExtractedText(context.Background(), "gone", "text")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetExtractedText_FolderRejected(t *testing.T) {
	repo := NewNodeRepository()
	ctx := context.Background()

	folder := &models.Node{Name: "A", IsFolder: true}
	require.NoError(t, repo.Insert(ctx, folder))

	err := repo.SetExtractedText(ctx, folder.ID, "text")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListChildren_ScopedToParent(t *testing.T) {
	repo := NewNodeRepository()
	ctx := context.Background()

	parent := &models.Node{Name: "A", IsFolder: true}
	require.NoError(t, repo.Insert(ctx, parent))

	for i := 0; i < 3; i++ {
		child := &models.Node{Name: fmt.Sprintf("child-%d", i), IsFolder: true, ParentID: &parent.ID}
		require.NoError(t, repo.Insert(ctx, child))
	}
	require.NoError(t, repo.Insert(ctx, &models.Node{Name: "other", IsFolder: true}))

	children, err := repo.ListChildren(ctx, &parent.ID)
	require.NoError(t, err)
	assert.Len(t, children, 3)

	roots, err := repo.ListChildren(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, roots, 2)
}

func TestDeleteByID(t *testing.T) {
	repo := NewNodeRepository()
	ctx := context.Background()

	node := &models.Node{Name: "A", IsFolder: true}
	require.NoError(t, repo.Insert(ctx, node))

	require.NoError(t, repo.DeleteByID(ctx, node.ID))
	require.ErrorIs(t, repo.DeleteByID(ctx, node.ID), domain.ErrNotFound)
}
