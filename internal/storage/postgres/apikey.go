package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/dram-store/internal/domain/auth"
)

const (
	findIdentityByHashSQL = `SELECT key_hash, user_id, name, role FROM api_keys WHERE key_hash = $1`

	upsertAPIKeySQL = `INSERT INTO api_keys (key_hash, user_id, name, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key_hash) DO UPDATE SET user_id = EXCLUDED.user_id, name = EXCLUDED.name, role = EXCLUDED.role`
)

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository implements auth.Repository backed by PostgreSQL.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository returns an APIKeyRepository that uses the given pool.
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// FindByHash looks up the identity owning an API key hash.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.Identity, error) {
	rows, err := r.pool.Query(ctx, findIdentityByHashSQL, hash)
	if err != nil {
		return nil, fmt.Errorf("finding api key: %w", err)
	}

	id, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (auth.Identity, error) {
		var (
			ident auth.Identity
			role  string
		)
		err := row.Scan(&ident.KeyHash, &ident.UserID, &ident.Name, &role)
		ident.Role = auth.Role(role)
		return ident, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUnauthorized
		}
		return nil, fmt.Errorf("finding api key: %w", err)
	}
	return &id, nil
}

// Upsert stores an API key hash with its identity. Used by cmd/seed-db.
func (r *APIKeyRepository) Upsert(ctx context.Context, id *auth.Identity) error {
	_, err := r.pool.Exec(ctx, upsertAPIKeySQL, id.KeyHash, id.UserID, id.Name, string(id.Role))
	if err != nil {
		return fmt.Errorf("upserting api key for %q: %w", id.UserID, err)
	}
	return nil
}
