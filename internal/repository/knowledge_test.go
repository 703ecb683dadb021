//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindfoldhq/mindfold/internal/domain"
	"github.com/mindfoldhq/mindfold/internal/testutil"
)

// unitEmbedding returns a 1536-dim basis vector. Basis vectors give
// exact cosine similarities: 1 against themselves, 0 against any
// other axis.
func unitEmbedding(axis int) []float32 {
	v := make([]float32, domain.EmbeddingDimensions)
	v[axis] = 1
	return v
}

func createTestDomain(ctx context.Context, t *testing.T, domainRepo *DomainRepository, ownerID, name string, createdAt time.Time) *domain.BrainDomain {
	d := &domain.BrainDomain{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, domainRepo.Create(ctx, d))
	return d
}

func TestKnowledgeRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	ownerRepo := NewOwnerRepository(pool)
	domainRepo := NewDomainRepository(pool)
	knowledgeRepo := NewKnowledgeRepository(pool)

	owner := createTestOwner(ctx, t, ownerRepo, "Knowledge Owner")
	now := time.Now().UTC().Truncate(time.Microsecond)
	d := createTestDomain(ctx, t, domainRepo, owner.ID, "Recipes", now)

	item := &domain.KnowledgeItem{
		ID:          uuid.NewString(),
		DomainID:    d.ID,
		OwnerID:     owner.ID,
		Title:       "Sourdough starter",
		Content:     "Feed twice a day at room temperature",
		ContentType: domain.ContentTypeNote,
		Tags:        []string{"baking", "bread"},
		SourceURL:   "https://example.com/sourdough",
		Embedding:   unitEmbedding(0),
		CreatedAt:   now,
	}
	require.NoError(t, knowledgeRepo.Create(ctx, item))

	retrieved, err := knowledgeRepo.GetByOwnerAndID(ctx, owner.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Title, retrieved.Title)
	assert.Equal(t, item.Content, retrieved.Content)
	assert.Equal(t, item.ContentType, retrieved.ContentType)
	assert.Equal(t, item.Tags, retrieved.Tags)
	assert.Equal(t, item.SourceURL, retrieved.SourceURL)
	assert.Len(t, retrieved.Embedding, domain.EmbeddingDimensions)
}

func TestKnowledgeRepository_ListByDomain(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	ownerRepo := NewOwnerRepository(pool)
	domainRepo := NewDomainRepository(pool)
	knowledgeRepo := NewKnowledgeRepository(pool)

	owner := createTestOwner(ctx, t, ownerRepo, "List Owner")
	now := time.Now().UTC().Truncate(time.Microsecond)
	recipes := createTestDomain(ctx, t, domainRepo, owner.ID, "Recipes", now)
	travel := createTestDomain(ctx, t, domainRepo, owner.ID, "Travel", now)

	for i := 0; i < 3; i++ {
		item := &domain.KnowledgeItem{
			ID:          uuid.NewString(),
			DomainID:    recipes.ID,
			OwnerID:     owner.ID,
			Content:     "recipe note",
			ContentType: domain.ContentTypeNote,
			Tags:        []string{},
			Embedding:   unitEmbedding(i),
			CreatedAt:   now.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, knowledgeRepo.Create(ctx, item))
	}

	other := &domain.KnowledgeItem{
		ID:          uuid.NewString(),
		DomainID:    travel.ID,
		OwnerID:     owner.ID,
		Content:     "travel note",
		ContentType: domain.ContentTypeNote,
		Tags:        []string{},
		Embedding:   unitEmbedding(5),
		CreatedAt:   now,
	}
	require.NoError(t, knowledgeRepo.Create(ctx, other))

	items, err := knowledgeRepo.ListByDomain(ctx, owner.ID, recipes.ID)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	for _, item := range items {
		assert.Equal(t, recipes.ID, item.DomainID)
	}
}

func TestKnowledgeRepository_SimilaritiesByDomain(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	ownerRepo := NewOwnerRepository(pool)
	domainRepo := NewDomainRepository(pool)
	knowledgeRepo := NewKnowledgeRepository(pool)

	owner := createTestOwner(ctx, t, ownerRepo, "Sim Owner")
	now := time.Now().UTC().Truncate(time.Microsecond)
	matching := createTestDomain(ctx, t, domainRepo, owner.ID, "Matching", now)
	orthogonal := createTestDomain(ctx, t, domainRepo, owner.ID, "Orthogonal", now.Add(time.Minute))
	empty := createTestDomain(ctx, t, domainRepo, owner.ID, "Empty", now.Add(2*time.Minute))

	aligned := &domain.KnowledgeItem{
		ID: uuid.NewString(), DomainID: matching.ID, OwnerID: owner.ID,
		Content: "aligned", ContentType: domain.ContentTypeNote, Tags: []string{},
		Embedding: unitEmbedding(0), CreatedAt: now,
	}
	require.NoError(t, knowledgeRepo.Create(ctx, aligned))

	unrelated := &domain.KnowledgeItem{
		ID: uuid.NewString(), DomainID: orthogonal.ID, OwnerID: owner.ID,
		Content: "unrelated", ContentType: domain.ContentTypeNote, Tags: []string{},
		Embedding: unitEmbedding(1), CreatedAt: now,
	}
	require.NoError(t, knowledgeRepo.Create(ctx, unrelated))

	sims, err := knowledgeRepo.SimilaritiesByDomain(ctx, owner.ID, unitEmbedding(0))
	require.NoError(t, err)
	require.Len(t, sims, 3)

	byName := map[string]int{}
	for i, s := range sims {
		byName[s.Name] = i
	}

	matchSims := sims[byName["Matching"]].Similarities
	require.Len(t, matchSims, 1)
	assert.InDelta(t, 1.0, matchSims[0], 1e-6)

	orthSims := sims[byName["Orthogonal"]].Similarities
	require.Len(t, orthSims, 1)
	assert.InDelta(t, 0.0, orthSims[0], 1e-6)

	// A domain with no items still shows up, with no similarities.
	assert.Empty(t, sims[byName["Empty"]].Similarities)
}

func TestKnowledgeRepository_SetSourceFile(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	ownerRepo := NewOwnerRepository(pool)
	domainRepo := NewDomainRepository(pool)
	knowledgeRepo := NewKnowledgeRepository(pool)

	owner := createTestOwner(ctx, t, ownerRepo, "Attach Owner")
	now := time.Now().UTC().Truncate(time.Microsecond)
	d := createTestDomain(ctx, t, domainRepo, owner.ID, "Docs", now)

	item := &domain.KnowledgeItem{
		ID: uuid.NewString(), DomainID: d.ID, OwnerID: owner.ID,
		Content: "with attachment", ContentType: domain.ContentTypeDocument, Tags: []string{},
		Embedding: unitEmbedding(0), CreatedAt: now,
	}
	require.NoError(t, knowledgeRepo.Create(ctx, item))

	key := owner.ID + "/" + item.ID + "/report.pdf"
	require.NoError(t, knowledgeRepo.SetSourceFile(ctx, owner.ID, item.ID, key))

	retrieved, err := knowledgeRepo.GetByOwnerAndID(ctx, owner.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, key, retrieved.SourceFile)
}

func TestKnowledgeRepository_Delete(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	ownerRepo := NewOwnerRepository(pool)
	domainRepo := NewDomainRepository(pool)
	knowledgeRepo := NewKnowledgeRepository(pool)

	owner := createTestOwner(ctx, t, ownerRepo, "Delete Owner")
	now := time.Now().UTC().Truncate(time.Microsecond)
	d := createTestDomain(ctx, t, domainRepo, owner.ID, "Scratch", now)

	item := &domain.KnowledgeItem{
		ID: uuid.NewString(), DomainID: d.ID, OwnerID: owner.ID,
		Content: "short-lived", ContentType: domain.ContentTypeNote, Tags: []string{},
		Embedding: unitEmbedding(0), CreatedAt: now,
	}
	require.NoError(t, knowledgeRepo.Create(ctx, item))

	require.NoError(t, knowledgeRepo.Delete(ctx, owner.ID, item.ID))

	_, err := knowledgeRepo.GetByOwnerAndID(ctx, owner.ID, item.ID)
	assert.ErrorIs(t, err, domain.ErrKnowledgeNotFound)

	err = knowledgeRepo.Delete(ctx, owner.ID, item.ID)
	assert.ErrorIs(t, err, domain.ErrKnowledgeNotFound)
}
