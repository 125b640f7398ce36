package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sweet-shop/internal/domain"
)

// ItemRepository is the inventory store. Every stock mutation is a single
// statement so concurrent callers are serialized by the row lock.
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	Update(ctx context.Context, id int64, patch domain.ItemPatch) (*domain.Item, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error)
	ConditionalDecrement(ctx context.Context, id int64) (*domain.Item, error)
	Increment(ctx context.Context, id int64, amount int) (*domain.Item, error)
}

const itemColumns = `id, name, category, price::float8, quantity, created_at, updated_at`

type itemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository instantiates repository.
func NewItemRepository(pool *pgxpool.Pool) ItemRepository {
	return &itemRepository{pool: pool}
}

// Create inserts the item and overwrites it with the stored row, so the price
// the caller sees is the one rounded to cents by the column type.
func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	query := `
        INSERT INTO items (name, category, price, quantity)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + itemColumns
	stored, err := r.fetchSingle(ctx, query, item.Name, item.Category, item.Price, item.Quantity)
	if err != nil {
		return err
	}
	*item = *stored
	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *itemRepository) Update(ctx context.Context, id int64, patch domain.ItemPatch) (*domain.Item, error) {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 5)

	if patch.Name != nil {
		args = append(args, *patch.Name)
		sets = append(sets, fmt.Sprintf("name=$%d", len(args)))
	}
	if patch.Category != nil {
		args = append(args, *patch.Category)
		sets = append(sets, fmt.Sprintf("category=$%d", len(args)))
	}
	if patch.Price != nil {
		args = append(args, *patch.Price)
		sets = append(sets, fmt.Sprintf("price=$%d", len(args)))
	}
	if patch.Quantity != nil {
		args = append(args, *patch.Quantity)
		sets = append(sets, fmt.Sprintf("quantity=$%d", len(args)))
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at=NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE items SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), itemColumns)
	return r.fetchSingle(ctx, query, args...)
}

func (r *itemRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *itemRepository) List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	query, args := buildItemListQuery(filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// ConditionalDecrement takes one unit of stock if any is left. The guard and
// the write are one statement; the follow-up probe only explains a miss.
func (r *itemRepository) ConditionalDecrement(ctx context.Context, id int64) (*domain.Item, error) {
	query := `
        UPDATE items SET quantity = quantity - 1, updated_at = NOW()
        WHERE id = $1 AND quantity > 0
        RETURNING ` + itemColumns
	item, err := r.fetchSingle(ctx, query, id)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM items WHERE id=$1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("probe item: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrPreconditionFailed
}

func (r *itemRepository) Increment(ctx context.Context, id int64, amount int) (*domain.Item, error) {
	query := `
        UPDATE items SET quantity = quantity + $2, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + itemColumns
	return r.fetchSingle(ctx, query, id, amount)
}

func (r *itemRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Item, error) {
	var item domain.Item
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&item.ID,
		&item.Name,
		&item.Category,
		&item.Price,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isOutOfRange(err) {
			return nil, fmt.Errorf("%w: %v", ErrOutOfRange, err)
		}
		return nil, fmt.Errorf("select item: %w", err)
	}
	return &item, nil
}

// buildItemListQuery renders the AND-combined search. Nil or blank fields do
// not filter.
func buildItemListQuery(filter domain.ItemFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Name != nil && strings.TrimSpace(*filter.Name) != "" {
		args = append(args, "%"+escapeLike(strings.TrimSpace(*filter.Name))+"%")
		clauses = append(clauses, fmt.Sprintf(`name ILIKE $%d ESCAPE '\'`, len(args)))
	}
	if filter.Category != nil && strings.TrimSpace(*filter.Category) != "" {
		args = append(args, strings.TrimSpace(*filter.Category))
		clauses = append(clauses, fmt.Sprintf("LOWER(category) = LOWER($%d)", len(args)))
	}
	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		clauses = append(clauses, fmt.Sprintf("price >= $%d", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		clauses = append(clauses, fmt.Sprintf("price <= $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM items WHERE %s ORDER BY id`,
		itemColumns, strings.Join(clauses, " AND "))
	return query, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanItems(rows pgx.Rows) ([]domain.Item, error) {
	result := make([]domain.Item, 0)
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Category,
			&item.Price,
			&item.Quantity,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}
