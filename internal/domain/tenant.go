package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxTenantNameLen = 200

var ErrTenantNameInvalid = errors.New("name is required and must be at most 200 characters")

// Tenant owns learners, networks and assessments. Requests authenticate
// as a tenant by API key; only the key's hash is stored.
type Tenant struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	APIKeyHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Normalize trims the name and checks its length.
func (t *Tenant) Normalize() error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" || len(t.Name) > maxTenantNameLen {
		return ErrTenantNameInvalid
	}
	return nil
}
