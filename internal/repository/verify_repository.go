package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peerrent/verification/internal/domain"
)

type VerifyRepository interface {
	// Step status
	SetStepStatus(ctx context.Context, userID int64, step domain.Step, status domain.StepStatus) error

	// Email verification tokens
	CreateEmailToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	ConsumeEmailToken(ctx context.Context, token string) (userID int64, err error)
	DeleteExpiredTokens(ctx context.Context) (int64, error)

	// Identity documents
	SaveDocuments(ctx context.Context, userID int64, front, back *domain.DocumentUpload, status string) error
	ListDocuments(ctx context.Context, userID int64) ([]domain.IdentityDocument, error)
}

type verifyRepository struct {
	pool *pgxpool.Pool
}

func NewVerifyRepository(pool *pgxpool.Pool) VerifyRepository {
	return &verifyRepository{pool: pool}
}

// stepColumn maps a step to its status column on the users table. Columns
// are fixed identifiers, never user input.
func stepColumn(step domain.Step) (string, error) {
	switch step {
	case domain.StepProfile:
		return "profile_status", nil
	case domain.StepEmail:
		return "email_status", nil
	case domain.StepPhone:
		return "phone_status", nil
	case domain.StepID:
		return "id_status", nil
	case domain.StepAddress:
		return "address_status", nil
	default:
		return "", fmt.Errorf("unknown step: %v", step)
	}
}

func (r *verifyRepository) SetStepStatus(ctx context.Context, userID int64, step domain.Step, status domain.StepStatus) error {
	col, err := stepColumn(step)
	if err != nil {
		return err
	}

	q := `UPDATE users SET ` + col + ` = $2, updated_at = now() WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, userID, string(status))
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *verifyRepository) CreateEmailToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	const q = `
		INSERT INTO email_verification_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, userID, token, expiresAt)
	return err
}

func (r *verifyRepository) ConsumeEmailToken(ctx context.Context, token string) (int64, error) {
	const q = `
		UPDATE email_verification_tokens
		SET used_at = now()
		WHERE token = $1
		  AND used_at IS NULL
		  AND expires_at > now()
		RETURNING user_id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var userID int64
	err := r.pool.QueryRow(ctx, q, token).Scan(&userID)
	if err == pgx.ErrNoRows {
		return 0, nil // invalid, used, or expired
	}
	return userID, err
}

func (r *verifyRepository) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	const q = `
		DELETE FROM email_verification_tokens
		WHERE (used_at IS NOT NULL AND used_at < now() - interval '30 days')
		   OR (used_at IS NULL AND expires_at < now() - interval '7 days')`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

func (r *verifyRepository) SaveDocuments(ctx context.Context, userID int64, front, back *domain.DocumentUpload, status string) error {
	const q = `
		INSERT INTO identity_documents (user_id, side, filename, content_type, size_bytes, status)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, doc := range []*domain.DocumentUpload{front, back} {
		if _, err := tx.Exec(ctx, q, userID, string(doc.Side), doc.Filename, doc.ContentType, doc.SizeBytes, status); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *verifyRepository) ListDocuments(ctx context.Context, userID int64) ([]domain.IdentityDocument, error) {
	const q = `
		SELECT id, user_id, side, filename, content_type, size_bytes, status, created_at
		FROM identity_documents
		WHERE user_id = $1
		ORDER BY created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.IdentityDocument
	for rows.Next() {
		var d domain.IdentityDocument
		var side string
		if err := rows.Scan(&d.ID, &d.UserID, &side, &d.Filename, &d.ContentType, &d.SizeBytes, &d.Status, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Side = domain.DocumentSide(side)
		docs = append(docs, d)
	}

	return docs, rows.Err()
}
