package domain

import (
	"time"

	"github.com/google/uuid"
)

// BasisPointDivisor converts basis-point rates and ratios to fractions.
// 10000 bp = 100%.
const BasisPointDivisor = 10000

// LoanOffer represents a lender's standing terms awaiting a matching
// borrower. Offers are immutable after creation except for the Active flag,
// which transitions true -> false at most once (origination or cancellation).
type LoanOffer struct {
	ID              int64     `json:"id"`
	Lender          uuid.UUID `json:"lender"`
	Amount          int64     `json:"amount"`           // Principal, smallest value unit
	InterestRate    int64     `json:"interest_rate"`    // Basis points
	Duration        int64     `json:"duration"`         // Seconds
	CollateralRatio int64     `json:"collateral_ratio"` // Basis points of principal
	MinScore        int64     `json:"min_score"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
}

// RequiredCollateral returns the minimum collateral deposit for this offer,
// floored per basis-point arithmetic.
func (o *LoanOffer) RequiredCollateral() int64 {
	return o.Amount * o.CollateralRatio / BasisPointDivisor
}
