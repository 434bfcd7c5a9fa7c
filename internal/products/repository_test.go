package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shopfront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

func TestRepositoryListByStorePagesNewestFirst(t *testing.T) {
	db := dbtest.Open(t)
	owner := dbtest.SeedUser(t, db)
	store := dbtest.SeedStore(t, db, owner.ID)
	other := dbtest.SeedStore(t, db, owner.ID)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var seeded []*models.Product
	for i := 0; i < 3; i++ {
		seeded = append(seeded, dbtest.SeedProduct(t, db, store.ID, "5.00", dbtest.WithCreatedAt(base.Add(time.Duration(i)*time.Minute))))
	}
	dbtest.SeedProduct(t, db, other.ID, "9.00")

	repo := NewRepository(db)
	ctx := context.Background()

	first, err := repo.ListByStore(ctx, store.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, seeded[2].ID, first.Items[0].ID)
	assert.Equal(t, seeded[1].ID, first.Items[1].ID)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.ListByStore(ctx, store.ID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, seeded[0].ID, second.Items[0].ID)
	assert.Empty(t, second.NextCursor)
}

func TestRepositoryClearNewFlags(t *testing.T) {
	db := dbtest.Open(t)
	owner := dbtest.SeedUser(t, db)
	store := dbtest.SeedStore(t, db, owner.ID)

	now := time.Now().UTC()
	old := dbtest.SeedProduct(t, db, store.ID, "5.00", dbtest.WithCreatedAt(now.Add(-72*time.Hour)))
	fresh := dbtest.SeedProduct(t, db, store.ID, "5.00", dbtest.WithCreatedAt(now.Add(-time.Hour)))

	repo := NewRepository(db)
	n, err := repo.ClearNewFlags(context.Background(), now.Add(-48*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	reloadedOld, err := repo.FindByID(context.Background(), old.ID)
	require.NoError(t, err)
	assert.False(t, reloadedOld.IsNew)
	reloadedFresh, err := repo.FindByID(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.True(t, reloadedFresh.IsNew)

	n, err = repo.ClearNewFlags(context.Background(), now.Add(-48*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRepositoryFindByIDs(t *testing.T) {
	db := dbtest.Open(t)
	owner := dbtest.SeedUser(t, db)
	store := dbtest.SeedStore(t, db, owner.ID)
	a := dbtest.SeedProduct(t, db, store.ID, "1.00")

	rows, err := NewRepository(db).FindByIDs(context.Background(), []uuid.UUID{a.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, a.ID, rows[0].ID)
}
