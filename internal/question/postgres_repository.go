package question

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

const questionColumns = `id, category_id, question, answer, points, image_url, created_at, updated_at`

// Create inserts a new question record.
func (r *PostgresRepository) Create(ctx context.Context, q *Question) error {
	query := `
		INSERT INTO questions (category_id, question, answer, points, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, q.CategoryID, q.Question, q.Answer, q.Points, q.ImageURL).
		Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting question: %w", err)
	}

	return nil
}

// GetByID retrieves a single question by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Question, error) {
	return r.scanOne(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
}

// ListByCategory retrieves the questions of one category ordered by points.
func (r *PostgresRepository) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]Question, error) {
	query := `
		SELECT ` + questionColumns + `
		FROM questions
		WHERE category_id = $1
		ORDER BY points ASC, created_at ASC`

	rows, err := r.pool.Query(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		var q Question
		err := rows.Scan(&q.ID, &q.CategoryID, &q.Question, &q.Answer, &q.Points, &q.ImageURL, &q.CreatedAt, &q.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning question row: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating question rows: %w", err)
	}

	if questions == nil {
		questions = []Question{}
	}

	return questions, nil
}

// CountByCategory returns the number of questions in a category.
func (r *PostgresRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM questions WHERE category_id = $1", categoryID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting questions: %w", err)
	}
	return count, nil
}

// Update modifies the editable fields of a question.
func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Question, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if fields.Question != nil {
		setClauses = append(setClauses, fmt.Sprintf("question = $%d", argIdx))
		args = append(args, *fields.Question)
		argIdx++
	}
	if fields.Answer != nil {
		setClauses = append(setClauses, fmt.Sprintf("answer = $%d", argIdx))
		args = append(args, *fields.Answer)
		argIdx++
	}
	if fields.Points != nil {
		setClauses = append(setClauses, fmt.Sprintf("points = $%d", argIdx))
		args = append(args, *fields.Points)
		argIdx++
	}
	if fields.ImageURL != nil {
		setClauses = append(setClauses, fmt.Sprintf("image_url = NULLIF($%d, '')", argIdx))
		args = append(args, *fields.ImageURL)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE questions
		SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(setClauses, ", "), argIdx, questionColumns)

	return r.scanOne(ctx, query, args...)
}

// Delete removes a single question.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting question: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrQuestionNotFound
	}

	return nil
}

// DeleteByCategory removes every question of a category and returns how many were deleted.
func (r *PostgresRepository) DeleteByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE category_id = $1`, categoryID)
	if err != nil {
		return 0, fmt.Errorf("deleting questions by category: %w", err)
	}
	return int(result.RowsAffected()), nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Question, error) {
	var q Question
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&q.ID, &q.CategoryID, &q.Question, &q.Answer, &q.Points, &q.ImageURL, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("querying question: %w", err)
	}
	return &q, nil
}
