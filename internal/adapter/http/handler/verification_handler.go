package handler

import (
	"zk-lending-engine/internal/adapter/http/dto"
	"zk-lending-engine/internal/core/domain"
	"zk-lending-engine/internal/core/ports"
	"zk-lending-engine/pkg/apperror"
	"zk-lending-engine/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VerificationHandler handles proof submission and the trusted reporter's
// verification results.
type VerificationHandler struct {
	lendingSvc ports.LendingService
}

// NewVerificationHandler creates a new VerificationHandler.
func NewVerificationHandler(lendingSvc ports.LendingService) *VerificationHandler {
	return &VerificationHandler{lendingSvc: lendingSvc}
}

// SubmitProof handles POST /api/v1/proofs, queueing an attestation for
// off-chain verification.
func (h *VerificationHandler) SubmitProof(c *gin.Context) {
	submitter, ok := caller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.SubmitProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	proofHash, err := domain.ParseProofHash(req.ProofHash)
	if err != nil {
		response.Error(c, apperror.ErrInvalidProofHash())
		return
	}

	if err := h.lendingSvc.SubmitProof(c.Request.Context(), submitter, domain.ProofSubmission{
		ProofHash: proofHash,
		Submitter: submitter,
		Proof:     req.Proof,
	}); err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"proof_hash": proofHash.String(), "status": "submitted"})
}

// RecordVerification handles POST /api/v1/verifications, the trusted
// reporter's result delivery. Admin only.
func (h *VerificationHandler) RecordVerification(c *gin.Context) {
	reporter, ok := caller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.RecordVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	proofHash, err := domain.ParseProofHash(req.ProofHash)
	if err != nil {
		response.Error(c, apperror.ErrInvalidProofHash())
		return
	}
	borrower, err := uuid.Parse(req.Borrower)
	if err != nil {
		response.Error(c, apperror.Validation("invalid borrower id"))
		return
	}

	if err := h.lendingSvc.RecordVerification(c.Request.Context(), reporter, ports.RecordVerificationRequest{
		ProofHash: proofHash,
		Borrower:  borrower,
		IsValid:   req.IsValid,
		Score:     req.Score,
	}); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"proof_hash": proofHash.String(), "status": "recorded"})
}
