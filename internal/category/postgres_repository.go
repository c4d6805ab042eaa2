package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new category record.
func (r *PostgresRepository) Create(ctx context.Context, c *Category) error {
	query := `
		INSERT INTO categories (game_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, c.GameID, c.Name).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}

	return nil
}

// GetByID retrieves a single category by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	query := `SELECT id, game_id, name, created_at FROM categories WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// ListByGame retrieves the categories of one game in creation order.
func (r *PostgresRepository) ListByGame(ctx context.Context, gameID uuid.UUID) ([]Category, error) {
	query := `
		SELECT id, game_id, name, created_at
		FROM categories
		WHERE game_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.GameID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category rows: %w", err)
	}

	if categories == nil {
		categories = []Category{}
	}

	return categories, nil
}

// Rename sets a category's name.
func (r *PostgresRepository) Rename(ctx context.Context, id uuid.UUID, name string) (*Category, error) {
	query := `
		UPDATE categories
		SET name = $1
		WHERE id = $2
		RETURNING id, game_id, name, created_at`

	return r.scanOne(ctx, query, name, id)
}

// Delete removes a category row. Returns ErrCategoryHasQuestions if
// questions still reference it (FK RESTRICT).
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrCategoryHasQuestions
		}
		return fmt.Errorf("deleting category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, query, args...).Scan(&c.ID, &c.GameID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("querying category: %w", err)
	}
	return &c, nil
}
