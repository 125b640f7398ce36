//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/spec-kit/sweet-shop/internal/domain"
	"github.com/spec-kit/sweet-shop/internal/persistence"
	"github.com/spec-kit/sweet-shop/internal/repository"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "sweetshop_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/sweetshop_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.MaxConns = 16
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, zap.NewNop()))
	_, err = pool.Exec(ctx, `TRUNCATE items, users RESTART IDENTITY`)
	require.NoError(t, err)
	return pool
}

func TestUserRepository_UniqueEmail(t *testing.T) {
	ctx := context.Background()
	users := repository.NewUserRepository(newPool(t))

	first := &domain.User{Email: "a@shop.test", PasswordHash: "h1", Role: domain.RoleAdmin}
	require.NoError(t, users.Create(ctx, first))
	require.NotZero(t, first.ID)

	second := &domain.User{Email: "a@shop.test", PasswordHash: "h2", Role: domain.RoleUser}
	assert.ErrorIs(t, users.Create(ctx, second), repository.ErrConflict)

	stored, err := users.GetByEmail(ctx, "a@shop.test")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, domain.RoleAdmin, stored.Role)
	assert.Equal(t, "h1", stored.PasswordHash)

	_, err = users.GetByEmail(ctx, "A@shop.test")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestItemRepository_CRUDAndSearch(t *testing.T) {
	ctx := context.Background()
	items := repository.NewItemRepository(newPool(t))

	for _, it := range []domain.Item{
		{Name: "Gummy Bears", Category: "Candy", Price: 3.49, Quantity: 10},
		{Name: "Chocolate Bar", Category: "Candy Bar", Price: 2.99, Quantity: 5},
		{Name: "Dark 100% Cocoa", Category: "chocolate", Price: 6.00, Quantity: 1},
	} {
		it := it
		require.NoError(t, items.Create(ctx, &it))
	}

	category := "CANDY"
	got, err := items.List(ctx, domain.ItemFilter{Category: &category})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Gummy Bears", got[0].Name)

	name := "100%"
	got, err = items.List(ctx, domain.ItemFilter{Name: &name})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Dark 100% Cocoa", got[0].Name)

	minPrice, maxPrice := 2.99, 3.49
	got, err = items.List(ctx, domain.ItemFilter{MinPrice: &minPrice, MaxPrice: &maxPrice})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	newPrice := 4.25
	updated, err := items.Update(ctx, 1, domain.ItemPatch{Price: &newPrice})
	require.NoError(t, err)
	assert.InDelta(t, 4.25, updated.Price, 0.001)
	assert.Equal(t, "Gummy Bears", updated.Name)

	_, err = items.Update(ctx, 999, domain.ItemPatch{Price: &newPrice})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, items.Delete(ctx, 2))
	assert.ErrorIs(t, items.Delete(ctx, 2), repository.ErrNotFound)
}

func TestItemRepository_DecrementFloor(t *testing.T) {
	ctx := context.Background()
	items := repository.NewItemRepository(newPool(t))

	item := &domain.Item{Name: "Choc", Category: "Chocolate", Price: 2.99, Quantity: 0}
	require.NoError(t, items.Create(ctx, item))

	_, err := items.ConditionalDecrement(ctx, item.ID)
	assert.ErrorIs(t, err, repository.ErrPreconditionFailed)

	_, err = items.ConditionalDecrement(ctx, 424242)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	restocked, err := items.Increment(ctx, item.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, restocked.Quantity)

	bought, err := items.ConditionalDecrement(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, bought.Quantity)

	_, err = items.Increment(ctx, 424242, 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestItemRepository_CreateReturnsStoredRow(t *testing.T) {
	ctx := context.Background()
	items := repository.NewItemRepository(newPool(t))

	item := &domain.Item{Name: "Nougat", Category: "Candy", Price: 2.999, Quantity: 1}
	require.NoError(t, items.Create(ctx, item))
	assert.Equal(t, 3.0, item.Price)
	assert.False(t, item.CreatedAt.IsZero())

	stored, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Price, stored.Price)

	finer := 1.005
	updated, err := items.Update(ctx, item.ID, domain.ItemPatch{Price: &finer})
	require.NoError(t, err)
	stored, err = items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.Price, updated.Price)
}

func TestItemRepository_ValuesOutOfRange(t *testing.T) {
	ctx := context.Background()
	items := repository.NewItemRepository(newPool(t))

	top := &domain.Item{Name: "Gold Bar", Category: "Luxury", Price: domain.MaxPrice, Quantity: 3_000_000_000}
	require.NoError(t, items.Create(ctx, top))
	assert.Equal(t, domain.MaxPrice, top.Price)
	assert.Equal(t, 3_000_000_000, top.Quantity)

	err := items.Create(ctx, &domain.Item{Name: "Too Dear", Category: "Luxury", Price: 1e10})
	assert.ErrorIs(t, err, repository.ErrOutOfRange)

	wide := 1e12
	_, err = items.Update(ctx, top.ID, domain.ItemPatch{Price: &wide})
	assert.ErrorIs(t, err, repository.ErrOutOfRange)

	_, err = items.Increment(ctx, top.ID, math.MaxInt64)
	assert.ErrorIs(t, err, repository.ErrOutOfRange)

	stored, err := items.GetByID(ctx, top.ID)
	require.NoError(t, err)
	assert.Equal(t, 3_000_000_000, stored.Quantity)
}

func TestItemRepository_ConcurrentPurchasesNeverOversell(t *testing.T) {
	ctx := context.Background()
	items := repository.NewItemRepository(newPool(t))

	const stock, buyers = 5, 40
	item := &domain.Item{Name: "Limited", Category: "Candy", Price: 1, Quantity: stock}
	require.NoError(t, items.Create(ctx, item))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		soldOut   int
	)
	start := make(chan struct{})
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := items.ConditionalDecrement(ctx, item.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, repository.ErrPreconditionFailed):
				soldOut++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, stock, successes)
	assert.Equal(t, buyers-stock, soldOut)

	final, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, final.Quantity)
}
