package domain

import "time"

// Tenant is a lending organization. Every loan and payment belongs to exactly
// one tenant, and all queries are scoped by tenant ID.
type Tenant struct {
	ID        int32     `json:"id"`
	Name      string    `json:"name"`
	Auth0ID   string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

type TenantRepository interface {
	GetByAuth0ID(auth0ID string) (*Tenant, error)
}
