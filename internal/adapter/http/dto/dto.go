package dto

// RegisterRequest is the request body for participant registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,safe_id"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the request body for participant login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	ParticipantID string `json:"participant_id"`
	Username      string `json:"username"`
	Role          string `json:"role"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// CreateOfferRequest is the request body for publishing a loan offer.
type CreateOfferRequest struct {
	Amount          int64 `json:"amount" binding:"required,gt=0"`
	InterestRate    int64 `json:"interest_rate" binding:"min=0"` // Basis points
	Duration        int64 `json:"duration" binding:"required,gt=0"`
	CollateralRatio int64 `json:"collateral_ratio" binding:"min=0"` // Basis points
	MinScore        int64 `json:"min_score" binding:"min=0"`
}

// OfferResponse is the response body for offer reads and writes.
type OfferResponse struct {
	ID              int64  `json:"id"`
	Lender          string `json:"lender"`
	Amount          int64  `json:"amount"`
	InterestRate    int64  `json:"interest_rate"`
	Duration        int64  `json:"duration"`
	CollateralRatio int64  `json:"collateral_ratio"`
	MinScore        int64  `json:"min_score"`
	Active          bool   `json:"active"`
	CreatedAt       string `json:"created_at"`
}

// SubmitProofRequest is the request body for submitting an attestation for
// off-chain verification. Proof is the opaque attestation blob, base64 in
// JSON.
type SubmitProofRequest struct {
	ProofHash string `json:"proof_hash" binding:"required,proof_hash"`
	Proof     []byte `json:"proof,omitempty"`
}

// RecordVerificationRequest is the request body for the trusted reporter's
// verification result delivery.
type RecordVerificationRequest struct {
	ProofHash string `json:"proof_hash" binding:"required,proof_hash"`
	Borrower  string `json:"borrower" binding:"required,uuid"`
	IsValid   bool   `json:"is_valid"`
	Score     int64  `json:"score" binding:"min=0"`
}

// RequestLoanRequest is the request body for loan origination. Collateral
// is debited from the borrower's account on success.
type RequestLoanRequest struct {
	OfferID    int64  `json:"offer_id" binding:"required,gt=0"`
	ProofHash  string `json:"proof_hash" binding:"required,proof_hash"`
	Collateral int64  `json:"collateral" binding:"required,gt=0"`
}

// MakePaymentRequest is the request body for a loan repayment.
type MakePaymentRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// LoanResponse is the response body for loan reads and writes.
type LoanResponse struct {
	ID               int64  `json:"id"`
	OfferID          int64  `json:"offer_id"`
	Borrower         string `json:"borrower"`
	Lender           string `json:"lender"`
	Amount           int64  `json:"amount"`
	InterestRate     int64  `json:"interest_rate"`
	Duration         int64  `json:"duration"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	CollateralAmount int64  `json:"collateral_amount"`
	Status           string `json:"status"`
	ScoreSnapshot    int64  `json:"score_snapshot"`
	AmountRepaid     int64  `json:"amount_repaid"`
	TotalDue         int64  `json:"total_due"`
	NextPaymentDue   string `json:"next_payment_due"`
	PaymentInterval  int64  `json:"payment_interval"`
}

// EventResponse is the response body for settlement log entries.
type EventResponse struct {
	Sequence  int64       `json:"sequence"`
	Type      string      `json:"type"`
	Actor     string      `json:"actor"`
	OfferID   *int64      `json:"offer_id,omitempty"`
	LoanID    *int64      `json:"loan_id,omitempty"`
	ProofHash string      `json:"proof_hash,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	CreatedAt string      `json:"created_at"`
}

// DepositRequest is the request body for account funding.
type DepositRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// AccountResponse is the response body for balance reads and deposits.
type AccountResponse struct {
	Owner   string `json:"owner"`
	Balance int64  `json:"balance"`
}

// ScoreResponse is the response body for reputation reads.
type ScoreResponse struct {
	Participant string `json:"participant"`
	Score       int64  `json:"score"`
}

// ReputationWriterRequest is the request body for allow-list mutations.
type ReputationWriterRequest struct {
	Caller string `json:"caller" binding:"required,uuid"`
}

// InitializeScoreRequest is the request body for seeding a baseline score.
type InitializeScoreRequest struct {
	Participant string `json:"participant" binding:"required,uuid"`
	Score       int64  `json:"score" binding:"min=0"`
}
