package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType identifies a lifecycle event in the settlement log.
type EventType string

const (
	EventOfferCreated         EventType = "OfferCreated"
	EventOfferCancelled       EventType = "OfferCancelled"
	EventProofReceived        EventType = "ProofReceived"
	EventProofVerified        EventType = "ProofVerified"
	EventLoanRequested        EventType = "LoanRequested"
	EventLoanApproved         EventType = "LoanApproved"
	EventLoanFunded           EventType = "LoanFunded"
	EventPaymentMade          EventType = "PaymentMade"
	EventLoanRepaid           EventType = "LoanRepaid"
	EventLoanDefaulted        EventType = "LoanDefaulted"
	EventCollateralLiquidated EventType = "CollateralLiquidated"
	EventReputationUpdated    EventType = "ReputationUpdated"
)

// Event is an append-only settlement log entry. Sequence is globally
// monotonic so external indexers can replay the log in order.
type Event struct {
	Sequence  int64           `json:"sequence"`
	Type      EventType       `json:"type"`
	Actor     uuid.UUID       `json:"actor"`
	OfferID   *int64          `json:"offer_id,omitempty"`
	LoanID    *int64          `json:"loan_id,omitempty"`
	ProofHash *ProofHash      `json:"proof_hash,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEvent builds an unsequenced event; the event store assigns Sequence
// on append.
func NewEvent(t EventType, actor uuid.UUID, at time.Time) *Event {
	return &Event{Type: t, Actor: actor, CreatedAt: at}
}

// WithOffer attaches the offer index key.
func (e *Event) WithOffer(id int64) *Event {
	e.OfferID = &id
	return e
}

// WithLoan attaches the loan index key.
func (e *Event) WithLoan(id int64) *Event {
	e.LoanID = &id
	return e
}

// WithProof attaches the proof hash index key.
func (e *Event) WithProof(h ProofHash) *Event {
	e.ProofHash = &h
	return e
}

// WithPayload marshals v into the event payload. Marshal failures are
// swallowed; the payload is advisory detail, the indexed keys are the
// contract.
func (e *Event) WithPayload(v interface{}) *Event {
	if b, err := json.Marshal(v); err == nil {
		e.Payload = b
	}
	return e
}
