package domain

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantRole separates ordinary members from administrators. The
// administrator is the trusted verification reporter and the reputation
// allow-list operator.
type ParticipantRole string

const (
	RoleMember ParticipantRole = "MEMBER"
	RoleAdmin  ParticipantRole = "ADMIN"
)

// Participant is a registered identity. Any member may act as lender or
// borrower; the distinction is per-offer and per-loan, not per-account.
type Participant struct {
	ID           uuid.UUID       `json:"id"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"` // Never expose
	Role         ParticipantRole `json:"role"`
	CreatedAt    time.Time       `json:"created_at"`
}

// IsAdmin returns true for the trusted reporter role.
func (p *Participant) IsAdmin() bool {
	return p.Role == RoleAdmin
}
