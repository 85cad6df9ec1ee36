package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
)

type answerRepository struct {
	db *sql.DB
}

func NewAnswerRepository(db *sql.DB) ports.AnswerRepository {
	return &answerRepository{
		db: db,
	}
}

const answerColumns = `id, question_id, author_id, content, is_ai_generated, is_accepted, upvotes, downvotes, created_at, updated_at`

func scanAnswer(row rowScanner) (*domain.Answer, error) {
	var a domain.Answer
	err := row.Scan(
		&a.ID, &a.QuestionID, &a.AuthorID, &a.Content, &a.AIGenerated, &a.Accepted,
		&a.Upvotes, &a.Downvotes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *answerRepository) Save(ctx context.Context, answer *domain.Answer) error {
	query := `
		INSERT INTO answers (id, question_id, author_id, content, is_ai_generated, is_accepted, upvotes, downvotes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		answer.ID, answer.QuestionID, answer.AuthorID, answer.Content, answer.AIGenerated, answer.Accepted,
		answer.Upvotes, answer.Downvotes, answer.CreatedAt, answer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(mapError(err), domain.ErrTargetNotFound) {
			return domain.ErrQuestionNotFound
		}
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}

func (r *answerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Answer, error) {
	return r.get(ctx, `SELECT `+answerColumns+` FROM answers WHERE id = $1`, id)
}

func (r *answerRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Answer, error) {
	return r.get(ctx, `SELECT `+answerColumns+` FROM answers WHERE id = $1 FOR UPDATE`, id)
}

func (r *answerRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.Answer, error) {
	a, err := scanAnswer(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAnswerNotFound
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return a, nil
}

func (r *answerRepository) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]*domain.Answer, error) {
	query := `SELECT ` + answerColumns + ` FROM answers WHERE question_id = $1 ORDER BY created_at ASC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	var answers []*domain.Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, nil
}

func (r *answerRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	return listIDs(ctx, conn(ctx, r.db), `SELECT id FROM answers`)
}

func (r *answerRepository) Update(ctx context.Context, answer *domain.Answer) error {
	query := `UPDATE answers SET content = $2, updated_at = $3 WHERE id = $1`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, answer.ID, answer.Content, answer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update answer: %w", err)
	}
	return expectOne(res, domain.ErrAnswerNotFound)
}

// Accept clears the previous acceptance before setting the new one; the
// partial unique index allows a single accepted answer per question.
func (r *answerRepository) Accept(ctx context.Context, questionID, answerID uuid.UUID) error {
	db := conn(ctx, r.db)

	unset := `UPDATE answers SET is_accepted = FALSE WHERE question_id = $1 AND is_accepted AND id <> $2`
	if _, err := db.ExecContext(ctx, unset, questionID, answerID); err != nil {
		return fmt.Errorf("failed to clear accepted answer: %w", mapError(err))
	}

	accept := `UPDATE answers SET is_accepted = TRUE WHERE id = $1 AND question_id = $2`
	res, err := db.ExecContext(ctx, accept, answerID, questionID)
	if err != nil {
		return fmt.Errorf("failed to accept answer: %w", mapError(err))
	}
	return expectOne(res, domain.ErrAnswerNotFound)
}

func (r *answerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM answers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete answer: %w", err)
	}
	return expectOne(res, domain.ErrAnswerNotFound)
}
