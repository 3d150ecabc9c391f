package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/mongodb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestDB(t *testing.T) (*MongoRepository, func()) {
	ctx := context.Background()

	mongoContainer, err := tcmongo.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := mongodb.Connect(ctx, uri, "testdb")
	require.NoError(t, err)

	repo := NewMongoRepository(db)
	require.NoError(t, repo.CreateIndexes(ctx))

	cleanup := func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func testItem(ref string, qty int) domain.CartItem {
	return domain.CartItem{
		ProductRef: ref,
		Name:       "Item " + ref,
		UnitPrice:  decimal.RequireFromString("12.75"),
		Quantity:   qty,
	}
}

func TestMongoRepository_GetCart_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	c, err := repo.GetCart(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.Nil(t, c)
}

func TestMongoRepository_AddItem_NewCart(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "buyer-1", testItem("seed-1", 3)))

	c, err := repo.GetCart(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, "buyer-1", c.BuyerID)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "seed-1", c.Items[0].ProductRef)
	assert.Equal(t, "buyer-1", c.Items[0].BuyerID)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, "12.75", c.Items[0].UnitPrice.StringFixed(2))
	assert.False(t, c.CreatedAt.IsZero())
}

func TestMongoRepository_AddItem_ExistingItemIncrements(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "buyer-1", testItem("seed-1", 3)))
	require.NoError(t, repo.AddItem(ctx, "buyer-1", testItem("machine-1", 1)))

	updated := testItem("seed-1", 5)
	updated.UnitPrice = decimal.RequireFromString("11")
	require.NoError(t, repo.AddItem(ctx, "buyer-1", updated))

	c, err := repo.GetCart(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	line, ok := c.Find("seed-1")
	require.True(t, ok)
	assert.Equal(t, 8, line.Quantity)
	assert.Equal(t, "11", line.UnitPrice.String())
}

func TestMongoRepository_AddItem_EnforcesMaxQuantity(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "buyer-1", testItem("seed-1", 90)))
	assert.ErrorIs(t, repo.AddItem(ctx, "buyer-1", testItem("seed-1", 10)), ErrInvalidQuantity)
	require.NoError(t, repo.AddItem(ctx, "buyer-1", testItem("seed-1", 9)))

	c, err := repo.GetCart(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, MaxQuantity, c.Items[0].Quantity)
}

func TestMongoRepository_AddItem_ConcurrentIncrements(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.AddItem(ctx, "buyer-1", testItem("seed-1", 3)))
		}()
	}
	wg.Wait()

	c, err := repo.GetCart(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 30, c.Items[0].Quantity)
}

func TestMongoRepository_SameProductDifferentBuyers(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "buyer-1", testItem("seed-1", 1)))
	require.NoError(t, repo.AddItem(ctx, "buyer-2", testItem("seed-1", 4)))

	c1, err := repo.GetCart(ctx, "buyer-1")
	require.NoError(t, err)
	c2, err := repo.GetCart(ctx, "buyer-2")
	require.NoError(t, err)
	assert.Equal(t, 1, c1.Items[0].Quantity)
	assert.Equal(t, 4, c2.Items[0].Quantity)
	assert.NotEqual(t, c1.Items[0].Key(), c2.Items[0].Key())
}

func TestMongoRepository_UpdateItemQuantity(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "buyer-1", testItem("seed-1", 1)))
	require.NoError(t, repo.UpdateItemQuantity(ctx, "buyer-1", "seed-1", 9))

	c, err := repo.GetCart(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, 9, c.Items[0].Quantity)

	err = repo.UpdateItemQuantity(ctx, "buyer-1", "missing", 2)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestMongoRepository_RemoveItem(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "buyer-1", testItem("seed-1", 1)))
	require.NoError(t, repo.AddItem(ctx, "buyer-1", testItem("machine-1", 1)))
	require.NoError(t, repo.RemoveItem(ctx, "buyer-1", "seed-1"))

	c, err := repo.GetCart(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "machine-1", c.Items[0].ProductRef)

	assert.ErrorIs(t, repo.RemoveItem(ctx, "buyer-1", "seed-1"), ErrItemNotFound)
}

func TestMongoRepository_DeleteCart(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "buyer-1", testItem("seed-1", 1)))
	require.NoError(t, repo.DeleteCart(ctx, "buyer-1"))

	_, err := repo.GetCart(ctx, "buyer-1")
	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.ErrorIs(t, repo.DeleteCart(ctx, "buyer-1"), ErrCartNotFound)
}

func TestMongoRepository_ContextCancellation(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := repo.GetCart(ctx, "buyer-1")
	assert.Error(t, err)
}
