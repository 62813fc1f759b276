package domain

import (
	"time"

	"github.com/Harshitk-cp/aptnet/internal/netfile"
	"github.com/google/uuid"
)

// Network is a stored network definition. The summary fields are filled
// in from a successful compile when the network is created.
type Network struct {
	ID         uuid.UUID           `json:"id"`
	TenantID   uuid.UUID           `json:"tenant_id,omitempty"`
	Name       string              `json:"name"`
	Definition *netfile.Definition `json:"definition"`
	Variables  int                 `json:"variables"`
	Cliques    int                 `json:"cliques"`
	TotalSize  int                 `json:"total_size"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}
