package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"viewergate/internal/biometric"
	"viewergate/internal/profile/models"
	id "viewergate/pkg/domain"
	"viewergate/pkg/platform/sentinel"
	"viewergate/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists profiles in the verification_profiles table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p *models.VerificationProfile) error {
	var age sql.NullInt64
	if p.AgeDetected != nil {
		age = sql.NullInt64{Int64: int64(*p.AgeDetected), Valid: true}
	}
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO verification_profiles (
			account_id, full_name, username, email, estimated_age, gender, is_verified,
			verified_at, deletion_requested_at, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, uuid.UUID(p.AccountID), p.DisplayName, p.Username, p.Email, age, string(p.GenderDetected),
		p.IsVerified, p.VerifiedAt, p.DeletionRequestedAt, p.Version, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// Update writes the mutable columns, guarded by the previous version.
func (s *PostgresStore) Update(ctx context.Context, p *models.VerificationProfile) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE verification_profiles
		SET deletion_requested_at = $2, version = $3, updated_at = $4
		WHERE account_id = $1 AND version = $5
	`, uuid.UUID(p.AccountID), p.DeletionRequestedAt, p.Version, p.UpdatedAt, p.Version-1)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile rows affected: %w", err)
	}
	if rows == 1 {
		return nil
	}
	var exists bool
	if err := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM verification_profiles WHERE account_id = $1)`,
		uuid.UUID(p.AccountID)).Scan(&exists); err != nil {
		return fmt.Errorf("check profile existence: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func (s *PostgresStore) FindByAccountID(ctx context.Context, accountID id.AccountID) (*models.VerificationProfile, error) {
	var (
		p      models.VerificationProfile
		gender string
		age    sql.NullInt64
		verAt  sql.NullTime
		delAt  sql.NullTime
	)
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT full_name, username, email, estimated_age, gender, is_verified,
		       verified_at, deletion_requested_at, version, created_at, updated_at
		FROM verification_profiles
		WHERE account_id = $1
	`, uuid.UUID(accountID)).Scan(&p.DisplayName, &p.Username, &p.Email, &age, &gender, &p.IsVerified,
		&verAt, &delAt, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	p.AccountID = accountID
	p.GenderDetected = biometric.ParseGender(gender)
	if age.Valid {
		v := int(age.Int64)
		p.AgeDetected = &v
	}
	if verAt.Valid {
		v := verAt.Time
		p.VerifiedAt = &v
	}
	if delAt.Valid {
		v := delAt.Time
		p.DeletionRequestedAt = &v
	}
	return &p, nil
}
