package orders

import (
	"context"
	"testing"
	"time"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/mongodb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupMongo(t *testing.T) (*MongoRepository, func()) {
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

func setupPostgres(t *testing.T) (*PostgresRepository, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "./migrations",
	}

	repo, err := NewPostgresRepository(creds)
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations(creds))

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return repo, cleanup
}

func TestMongoRepository(t *testing.T) {
	repo, cleanup := setupMongo(t)
	defer cleanup()
	exerciseRepository(t, repo)
}

func TestPostgresRepository(t *testing.T) {
	repo, cleanup := setupPostgres(t)
	defer cleanup()
	exerciseRepository(t, repo)

	t.Run("malformed id is not found", func(t *testing.T) {
		_, err := repo.GetOrderByID(context.Background(), "not-a-uuid")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

// exerciseRepository runs the behaviour both backends share. Every subtest
// uses its own group token so they can share one database.
func exerciseRepository(t *testing.T, repo Repository) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		p := testPayload("farmer-a")
		p.GroupToken = uuid.NewString()

		id, err := repo.CreateOrder(ctx, p)
		require.NoError(t, err)
		require.NotEmpty(t, id)

		got, err := repo.GetOrderByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, domain.OrderStatusPending, got.Status)
		assert.Equal(t, "farmer-a", got.SellerID)
		assert.Equal(t, "Pune", got.ShippingAddress.City)
		require.Len(t, got.Items, 1)
		assert.Equal(t, domain.KindSeed, got.Items[0].Kind)
		assert.Equal(t, 4, got.Items[0].Quantity)
		assert.True(t, p.Items[0].UnitPrice.Equal(got.Items[0].UnitPrice))
		assert.True(t, p.TaxPrice.Equal(got.TaxPrice))
		assert.True(t, p.TotalPrice.Equal(got.TotalPrice))
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := repo.GetOrderByID(ctx, domain.OrderID(uuid.NewString()))
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("duplicate seller in group", func(t *testing.T) {
		p := testPayload("farmer-a")
		p.GroupToken = uuid.NewString()

		_, err := repo.CreateOrder(ctx, p)
		require.NoError(t, err)
		_, err = repo.CreateOrder(ctx, p)
		assert.ErrorIs(t, err, ErrDuplicateOrder)
	})

	t.Run("list by buyer seller and group", func(t *testing.T) {
		group := uuid.NewString()
		buyer := "buyer-" + group
		for _, seller := range []string{"seller-x-" + group, "seller-y-" + group} {
			p := testPayload(seller)
			p.GroupToken = group
			p.BuyerID = buyer
			_, err := repo.CreateOrder(ctx, p)
			require.NoError(t, err)
		}

		byGroup, err := repo.ListOrdersByGroupToken(ctx, group)
		require.NoError(t, err)
		assert.Len(t, byGroup, 2)

		byBuyer, err := repo.ListOrdersByBuyer(ctx, buyer)
		require.NoError(t, err)
		assert.Len(t, byBuyer, 2)

		bySeller, err := repo.ListOrdersBySeller(ctx, "seller-x-"+group)
		require.NoError(t, err)
		require.Len(t, bySeller, 1)
		assert.Equal(t, group, bySeller[0].GroupToken)

		none, err := repo.ListOrdersByBuyer(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("mark for review", func(t *testing.T) {
		group := uuid.NewString()
		var ids []domain.OrderID
		for _, seller := range []string{"a", "b", "c"} {
			p := testPayload(seller)
			p.GroupToken = group
			id, err := repo.CreateOrder(ctx, p)
			require.NoError(t, err)
			ids = append(ids, id)
		}

		n, err := repo.MarkForReview(ctx, ids[:2])
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		for i, id := range ids {
			got, err := repo.GetOrderByID(ctx, id)
			require.NoError(t, err)
			if i < 2 {
				assert.Equal(t, domain.OrderStatusNeedsReview, got.Status)
			} else {
				assert.Equal(t, domain.OrderStatusPending, got.Status)
			}
		}

		n, err = repo.MarkForReview(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
