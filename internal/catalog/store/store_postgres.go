package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"viewergate/internal/catalog/models"
	"viewergate/pkg/platform/sentinel"
	"viewergate/pkg/platform/tx"
)

// PostgresStore reads the catalog from catalog_entities and catalog_collabs.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const entityColumns = `key, display_name, identifiers, cover_ref, outbound_link, gender_sensitive, position`

func scanEntity(row interface{ Scan(...any) error }) (models.Entity, error) {
	var e models.Entity
	err := row.Scan(&e.Key, &e.DisplayName, pq.Array(&e.Identifiers), &e.CoverRef, &e.OutboundLink, &e.GenderSensitive, &e.Position)
	return e, err
}

func (s *PostgresStore) ListEntities(ctx context.Context) ([]models.Entity, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+entityColumns+` FROM catalog_entities ORDER BY position, key`)
	if err != nil {
		return nil, fmt.Errorf("list catalog entities: %w", err)
	}
	defer rows.Close()

	var out []models.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog entity: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog entities: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindEntity(ctx context.Context, key string) (*models.Entity, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+entityColumns+` FROM catalog_entities WHERE lower(key) = lower($1)`, key)
	e, err := scanEntity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find catalog entity: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) ListCollabs(ctx context.Context) ([]models.Collab, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT id, title, member_keys, cover_ref, outbound_link, position
		FROM catalog_collabs ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list catalog collabs: %w", err)
	}
	defer rows.Close()

	var out []models.Collab
	for rows.Next() {
		var c models.Collab
		if err := rows.Scan(&c.ID, &c.Title, pq.Array(&c.MemberKeys), &c.CoverRef, &c.OutboundLink, &c.Position); err != nil {
			return nil, fmt.Errorf("scan catalog collab: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog collabs: %w", err)
	}
	return out, nil
}

// Replace swaps the catalog contents in one transaction so readers never see
// a half-loaded catalog.
func (s *PostgresStore) Replace(ctx context.Context, entities []models.Entity, collabs []models.Collab) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		exec := tx.Exec(ctx, s.db)
		if _, err := exec.ExecContext(ctx, `DELETE FROM catalog_collabs`); err != nil {
			return fmt.Errorf("clear catalog collabs: %w", err)
		}
		if _, err := exec.ExecContext(ctx, `DELETE FROM catalog_entities`); err != nil {
			return fmt.Errorf("clear catalog entities: %w", err)
		}
		for _, e := range entities {
			if _, err := exec.ExecContext(ctx, `
				INSERT INTO catalog_entities (`+entityColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				e.Key, e.DisplayName, pq.Array(e.Identifiers), e.CoverRef, e.OutboundLink, e.GenderSensitive, e.Position,
			); err != nil {
				return fmt.Errorf("insert catalog entity %q: %w", e.Key, err)
			}
		}
		for _, c := range collabs {
			if _, err := exec.ExecContext(ctx, `
				INSERT INTO catalog_collabs (id, title, member_keys, cover_ref, outbound_link, position)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				c.ID, c.Title, pq.Array(c.MemberKeys), c.CoverRef, c.OutboundLink, c.Position,
			); err != nil {
				return fmt.Errorf("insert catalog collab %q: %w", c.ID, err)
			}
		}
		return nil
	})
}
