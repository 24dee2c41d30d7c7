package domain

import (
	"time"

	"github.com/google/uuid"
)

// EngineID identifies the lending engine itself: it owns the escrow
// account and appears on the reputation store's authorized-writer list.
var EngineID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// EscrowAccountID is the reserved account holding offer principal and loan
// collateral while the engine controls them.
var EscrowAccountID = EngineID

// Account is a native-value ledger account. Balance is in the smallest
// value unit and never goes below zero; a debit past zero fails the
// enclosing operation.
type Account struct {
	Owner     uuid.UUID `json:"owner"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
