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

func createTestOwner(ctx context.Context, t *testing.T, ownerRepo *OwnerRepository, name string) *domain.Owner {
	owner := &domain.Owner{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, ownerRepo.Create(ctx, owner))
	return owner
}

func TestDomainRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	ownerRepo := NewOwnerRepository(pool)
	domainRepo := NewDomainRepository(pool)

	owner := createTestOwner(ctx, t, ownerRepo, "Domain Owner")

	d := &domain.BrainDomain{
		ID:          uuid.NewString(),
		OwnerID:     owner.ID,
		Name:        "Finance",
		Description: "Budgets and invoices",
		Color:       "#00aa44",
		Icon:        "wallet",
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, domainRepo.Create(ctx, d))

	retrieved, err := domainRepo.GetByOwnerAndID(ctx, owner.ID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Name, retrieved.Name)
	assert.Equal(t, d.Description, retrieved.Description)
	assert.Equal(t, d.Color, retrieved.Color)
	assert.Equal(t, d.Icon, retrieved.Icon)
}

func TestDomainRepository_Create_DuplicateName(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	ownerRepo := NewOwnerRepository(pool)
	domainRepo := NewDomainRepository(pool)

	owner := createTestOwner(ctx, t, ownerRepo, "Dup Owner")
	other := createTestOwner(ctx, t, ownerRepo, "Other Owner")

	now := time.Now().UTC().Truncate(time.Microsecond)
	first := &domain.BrainDomain{ID: uuid.NewString(), OwnerID: owner.ID, Name: "Travel", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, domainRepo.Create(ctx, first))

	dup := &domain.BrainDomain{ID: uuid.NewString(), OwnerID: owner.ID, Name: "Travel", CreatedAt: now, UpdatedAt: now}
	err := domainRepo.Create(ctx, dup)
	assert.ErrorIs(t, err, domain.ErrDomainAlreadyExists)

	// Same name under a different owner is fine.
	theirs := &domain.BrainDomain{ID: uuid.NewString(), OwnerID: other.ID, Name: "Travel", CreatedAt: now, UpdatedAt: now}
	assert.NoError(t, domainRepo.Create(ctx, theirs))
}

func TestDomainRepository_GetByOwnerAndID_WrongOwner(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	ownerRepo := NewOwnerRepository(pool)
	domainRepo := NewDomainRepository(pool)

	owner := createTestOwner(ctx, t, ownerRepo, "Owner A")
	stranger := createTestOwner(ctx, t, ownerRepo, "Owner B")

	now := time.Now().UTC().Truncate(time.Microsecond)
	d := &domain.BrainDomain{ID: uuid.NewString(), OwnerID: owner.ID, Name: "Health", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, domainRepo.Create(ctx, d))

	_, err := domainRepo.GetByOwnerAndID(ctx, stranger.ID, d.ID)
	assert.ErrorIs(t, err, domain.ErrDomainNotFound)
}

func TestDomainRepository_Update(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	ownerRepo := NewOwnerRepository(pool)
	domainRepo := NewDomainRepository(pool)

	owner := createTestOwner(ctx, t, ownerRepo, "Update Owner")

	now := time.Now().UTC().Truncate(time.Microsecond)
	d := &domain.BrainDomain{ID: uuid.NewString(), OwnerID: owner.ID, Name: "Work", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, domainRepo.Create(ctx, d))

	d.Name = "Career"
	d.Description = "Job hunting notes"
	d.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, domainRepo.Update(ctx, d))

	retrieved, err := domainRepo.GetByOwnerAndID(ctx, owner.ID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Career", retrieved.Name)
	assert.Equal(t, "Job hunting notes", retrieved.Description)
}

func TestDomainRepository_ListByOwner_Ordering(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	ownerRepo := NewOwnerRepository(pool)
	domainRepo := NewDomainRepository(pool)

	owner := createTestOwner(ctx, t, ownerRepo, "List Owner")

	base := time.Now().UTC().Truncate(time.Microsecond).Add(-time.Hour)
	for i, name := range []string{"First", "Second", "Third"} {
		d := &domain.BrainDomain{
			ID:        uuid.NewString(),
			OwnerID:   owner.ID,
			Name:      name,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, domainRepo.Create(ctx, d))
	}

	domains, err := domainRepo.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, domains, 3)
	assert.Equal(t, "First", domains[0].Name)
	assert.Equal(t, "Second", domains[1].Name)
	assert.Equal(t, "Third", domains[2].Name)
}

func TestDomainRepository_Delete_CascadesKnowledge(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	ownerRepo := NewOwnerRepository(pool)
	domainRepo := NewDomainRepository(pool)
	knowledgeRepo := NewKnowledgeRepository(pool)

	owner := createTestOwner(ctx, t, ownerRepo, "Cascade Owner")

	now := time.Now().UTC().Truncate(time.Microsecond)
	d := &domain.BrainDomain{ID: uuid.NewString(), OwnerID: owner.ID, Name: "Doomed", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, domainRepo.Create(ctx, d))

	item := &domain.KnowledgeItem{
		ID:          uuid.NewString(),
		DomainID:    d.ID,
		OwnerID:     owner.ID,
		Content:     "Will go down with the domain",
		ContentType: domain.ContentTypeNote,
		Tags:        []string{},
		Embedding:   unitEmbedding(0),
		CreatedAt:   now,
	}
	require.NoError(t, knowledgeRepo.Create(ctx, item))

	require.NoError(t, domainRepo.Delete(ctx, owner.ID, d.ID))

	_, err := domainRepo.GetByOwnerAndID(ctx, owner.ID, d.ID)
	assert.ErrorIs(t, err, domain.ErrDomainNotFound)

	_, err = knowledgeRepo.GetByOwnerAndID(ctx, owner.ID, item.ID)
	assert.ErrorIs(t, err, domain.ErrKnowledgeNotFound)
}
