package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProofHashLen is the hex length of a 32-byte proof digest.
const ProofHashLen = 64

// ProofHash is the content-addressed identifier of an off-chain
// creditworthiness attestation: a 32-byte digest in lowercase hex.
type ProofHash string

// ParseProofHash validates and normalizes a proof hash string.
func ParseProofHash(s string) (ProofHash, error) {
	s = strings.ToLower(strings.TrimPrefix(s, "0x"))
	if len(s) != ProofHashLen {
		return "", fmt.Errorf("proof hash must be %d hex characters, got %d", ProofHashLen, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("proof hash is not valid hex: %w", err)
	}
	return ProofHash(s), nil
}

func (p ProofHash) String() string { return string(p) }

// VerificationResult is the cached outcome of an off-chain proof
// verification, delivered by the trusted reporter. A result backs at most
// one loan: Processed must be false at origination and is set true
// atomically with it. Re-reporting the same hash overwrites the entry and
// resets Processed.
type VerificationResult struct {
	ProofHash  ProofHash `json:"proof_hash"`
	Borrower   uuid.UUID `json:"borrower"`
	IsValid    bool      `json:"is_valid"`
	Score      int64     `json:"score"`
	Processed  bool      `json:"processed"`
	ReportedAt time.Time `json:"reported_at"`
}

// ProofSubmission is a queued request for off-chain verification, produced
// by submitProof and consumed by the attestation worker.
type ProofSubmission struct {
	ProofHash ProofHash `json:"proof_hash"`
	Submitter uuid.UUID `json:"submitter"`
	Proof     []byte    `json:"proof,omitempty"` // Opaque attestation blob for the oracle
}
