package game

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

// selectGame joins the owner name and the category/question counts shown in the catalog.
const selectGame = `
	SELECT g.id, g.name, g.owner_id, u.username, g.visibility, g.status,
	       (SELECT COUNT(*) FROM categories c WHERE c.game_id = g.id),
	       (SELECT COUNT(*) FROM questions q JOIN categories c ON q.category_id = c.id WHERE c.game_id = g.id),
	       g.created_at, g.updated_at
	FROM games g
	JOIN users u ON g.owner_id = u.id`

// Create inserts a new game record. Visibility defaults to private and status to active.
func (r *PostgresRepository) Create(ctx context.Context, g *Game) error {
	if g.Visibility == "" {
		g.Visibility = VisibilityPrivate
	}
	if g.Status == "" {
		g.Status = StatusActive
	}

	query := `
		INSERT INTO games (name, owner_id, visibility, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, g.Name, g.OwnerID, g.Visibility, g.Status).
		Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting game: %w", err)
	}

	return nil
}

// GetByID retrieves a single game by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Game, error) {
	return r.scanOne(ctx, selectGame+` WHERE g.id = $1`, id)
}

// List retrieves every game, newest first. Filtering by viewer happens in Visible.
func (r *PostgresRepository) List(ctx context.Context) ([]Game, error) {
	rows, err := r.pool.Query(ctx, selectGame+` ORDER BY g.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		var g Game
		err := rows.Scan(
			&g.ID, &g.Name, &g.OwnerID, &g.OwnerName, &g.Visibility, &g.Status,
			&g.CategoryCount, &g.QuestionCount, &g.CreatedAt, &g.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning game row: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating game rows: %w", err)
	}

	if games == nil {
		games = []Game{}
	}

	return games, nil
}

// Update modifies name, visibility and status on a game.
func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Game, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if fields.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *fields.Name)
		argIdx++
	}
	if fields.Visibility != nil {
		setClauses = append(setClauses, fmt.Sprintf("visibility = $%d", argIdx))
		args = append(args, *fields.Visibility)
		argIdx++
	}
	if fields.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *fields.Status)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE games SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argIdx)

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating game: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrGameNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete removes a game row. Returns ErrGameHasCategories if categories still
// reference it (FK RESTRICT).
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrGameHasCategories
		}
		return fmt.Errorf("deleting game: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrGameNotFound
	}

	return nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Game, error) {
	var g Game
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&g.ID, &g.Name, &g.OwnerID, &g.OwnerName, &g.Visibility, &g.Status,
		&g.CategoryCount, &g.QuestionCount, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("scanning game row: %w", err)
	}
	return &g, nil
}
