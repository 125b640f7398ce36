package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/sweet-shop/internal/domain"
	"github.com/spec-kit/sweet-shop/internal/repository"
)

// stubUserRepo mirrors the Postgres contract: email is a unique key.
type stubUserRepo struct {
	mu      sync.Mutex
	nextID  int64
	byEmail map[string]domain.User
	creates int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: make(map[string]domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if _, exists := r.byEmail[user.Email]; exists {
		return repository.ErrConflict
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.byEmail[user.Email] = *user
	return nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

// mockUserRepo is used where a test needs to inject store failures.
type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

// stubItemRepo keeps rows in memory behind one mutex, which gives the same
// per-row linearizability the conditional UPDATE gives in Postgres.
type stubItemRepo struct {
	mu         sync.Mutex
	nextID     int64
	items      map[int64]domain.Item
	lastFilter domain.ItemFilter
	failWith   error
}

func newStubItemRepo() *stubItemRepo {
	return &stubItemRepo{items: make(map[int64]domain.Item)}
}

func (r *stubItemRepo) Create(_ context.Context, item *domain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.nextID++
	item.ID = r.nextID
	item.Price = toCents(item.Price)
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	r.items[item.ID] = *item
	return nil
}

func (r *stubItemRepo) GetByID(_ context.Context, id int64) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	item, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &item, nil
}

func (r *stubItemRepo) Update(_ context.Context, id int64, patch domain.ItemPatch) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.Price != nil {
		item.Price = toCents(*patch.Price)
	}
	if patch.Quantity != nil {
		item.Quantity = *patch.Quantity
	}
	item.UpdatedAt = time.Now()
	r.items[id] = item
	return &item, nil
}

func (r *stubItemRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *stubItemRepo) List(_ context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	r.lastFilter = filter
	out := make([]domain.Item, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubItemRepo) ConditionalDecrement(_ context.Context, id int64) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	item, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if item.Quantity <= 0 {
		return nil, repository.ErrPreconditionFailed
	}
	item.Quantity--
	r.items[id] = item
	return &item, nil
}

func (r *stubItemRepo) Increment(_ context.Context, id int64, amount int) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if amount > math.MaxInt-item.Quantity {
		return nil, fmt.Errorf("%w: bigint out of range", repository.ErrOutOfRange)
	}
	item.Quantity += amount
	r.items[id] = item
	return &item, nil
}

func (r *stubItemRepo) quantity(id int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id].Quantity
}

// toCents mirrors the NUMERIC(12,2) column rounding.
func toCents(p float64) float64 {
	return math.Round(p*100) / 100
}
