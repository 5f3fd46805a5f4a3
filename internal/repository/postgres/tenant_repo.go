package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lendora/lendora-backend/internal/domain"
)

// TenantRepository implements domain.TenantRepository using PostgreSQL
type TenantRepository struct {
	pool *pgxpool.Pool
}

// NewTenantRepository creates a new TenantRepository
func NewTenantRepository(pool *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{pool: pool}
}

// GetByAuth0ID retrieves a tenant by its Auth0 subject
func (r *TenantRepository) GetByAuth0ID(auth0ID string) (*domain.Tenant, error) {
	ctx := context.Background()

	query := `SELECT id, name, auth0_id, created_at
		FROM tenants
		WHERE auth0_id = $1`

	var tenant domain.Tenant
	err := r.pool.QueryRow(ctx, query, auth0ID).Scan(
		&tenant.ID, &tenant.Name, &tenant.Auth0ID, &tenant.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return &tenant, nil
}
