package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
)

type questionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) ports.QuestionRepository {
	return &questionRepository{
		db: db,
	}
}

const questionColumns = `id, author_id, title, content, tags, is_ai_generated, views, upvotes, downvotes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (*domain.Question, error) {
	var q domain.Question
	err := row.Scan(
		&q.ID, &q.AuthorID, &q.Title, &q.Content, pq.Array(&q.Tags), &q.AIGenerated, &q.Views,
		&q.Upvotes, &q.Downvotes, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *questionRepository) Save(ctx context.Context, question *domain.Question) error {
	tags := question.Tags
	if tags == nil {
		tags = []string{}
	}

	query := `
		INSERT INTO questions (id, author_id, title, content, tags, is_ai_generated, views, upvotes, downvotes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		question.ID, question.AuthorID, question.Title, question.Content, pq.Array(tags),
		question.AIGenerated, question.Views, question.Upvotes, question.Downvotes, question.CreatedAt, question.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save question: %w", err)
	}
	return nil
}

func (r *questionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	return r.get(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
}

// GetForUpdate conflicts with the FOR KEY SHARE taken by vote transactions
// and by the foreign key check of new answers, so those finish first.
func (r *questionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	return r.get(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1 FOR UPDATE`, id)
}

func (r *questionRepository) RecordView(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	return r.get(ctx, `UPDATE questions SET views = views + 1 WHERE id = $1 RETURNING `+questionColumns, id)
}

func (r *questionRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.Question, error) {
	q, err := scanQuestion(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

func (r *questionRepository) Update(ctx context.Context, question *domain.Question) error {
	tags := question.Tags
	if tags == nil {
		tags = []string{}
	}

	query := `
		UPDATE questions
		SET title = $2, content = $3, tags = $4, updated_at = $5
		WHERE id = $1
	`
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		question.ID, question.Title, question.Content, pq.Array(tags), question.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	return expectOne(res, domain.ErrQuestionNotFound)
}

func (r *questionRepository) List(ctx context.Context, limit, offset int, tag string) ([]*domain.Question, error) {
	query := `
		SELECT ` + questionColumns + `
		FROM questions
		WHERE $3::text = '' OR $3::text = ANY (tags)
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, limit, offset, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []*domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

func (r *questionRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	return listIDs(ctx, conn(ctx, r.db), `SELECT id FROM questions`)
}

// Delete removes the question. Its answers go with it through the foreign key.
func (r *questionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return expectOne(res, domain.ErrQuestionNotFound)
}

// expectOne returns notFound when the statement touched no row.
func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func listIDs(ctx context.Context, db dbtx, query string) ([]uuid.UUID, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
