package postgres

import (
	"context"
	"database/sql"
	"fmt"

	id "viewergate/pkg/domain"
	audit "viewergate/pkg/platform/audit"

	"github.com/google/uuid"
)

// Store implements audit.Store on the audit_events table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	var accountID any
	if !event.AccountID.IsNil() {
		accountID = uuid.UUID(event.AccountID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, category, occurred_at, account_id, action, subject, decision, reason, request_id, device)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, uuid.New(), string(category), event.Timestamp, accountID, event.Action,
		event.Subject, event.Decision, event.Reason, event.RequestID, event.Device)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByAccount(ctx context.Context, accountID id.AccountID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, occurred_at, action, subject, decision, reason, request_id, device
		FROM audit_events
		WHERE account_id = $1
		ORDER BY occurred_at ASC, id ASC
	`, uuid.UUID(accountID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var e audit.Event
		var category string
		if err := rows.Scan(&category, &e.Timestamp, &e.Action, &e.Subject, &e.Decision, &e.Reason, &e.RequestID, &e.Device); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		e.AccountID = accountID
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
