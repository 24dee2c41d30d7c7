package handler

import (
	"encoding/json"
	"time"

	"zk-lending-engine/internal/adapter/http/dto"
	"zk-lending-engine/internal/core/domain"
	"zk-lending-engine/internal/core/ports"
	"zk-lending-engine/pkg/apperror"
	"zk-lending-engine/pkg/response"

	"github.com/gin-gonic/gin"
)

// LoanHandler handles loan lifecycle endpoints.
type LoanHandler struct {
	lendingSvc ports.LendingService
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(lendingSvc ports.LendingService) *LoanHandler {
	return &LoanHandler{lendingSvc: lendingSvc}
}

// Request handles POST /api/v1/loans, originating a loan against an offer.
func (h *LoanHandler) Request(c *gin.Context) {
	borrower, ok := caller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.RequestLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	proofHash, err := domain.ParseProofHash(req.ProofHash)
	if err != nil {
		response.Error(c, apperror.ErrInvalidProofHash())
		return
	}

	loan, err := h.lendingSvc.RequestLoan(c.Request.Context(), ports.RequestLoanRequest{
		Borrower:   borrower,
		OfferID:    req.OfferID,
		ProofHash:  proofHash,
		Collateral: req.Collateral,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toLoanResponse(loan))
}

// MakePayment handles POST /api/v1/loans/:id/payments.
func (h *LoanHandler) MakePayment(c *gin.Context) {
	borrower, ok := caller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	loanID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.MakePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	loan, err := h.lendingSvc.MakePayment(c.Request.Context(), ports.MakePaymentRequest{
		Borrower: borrower,
		LoanID:   loanID,
		Amount:   req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toLoanResponse(loan))
}

// CheckDefault handles POST /api/v1/loans/:id/check-default. Any
// participant may trigger the check.
func (h *LoanHandler) CheckDefault(c *gin.Context) {
	participant, ok := caller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	loanID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	loan, err := h.lendingSvc.CheckDefault(c.Request.Context(), participant, loanID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toLoanResponse(loan))
}

// Get handles GET /api/v1/loans/:id.
func (h *LoanHandler) Get(c *gin.Context) {
	loanID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	loan, err := h.lendingSvc.GetLoan(c.Request.Context(), loanID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toLoanResponse(loan))
}

// List handles GET /api/v1/loans?role=borrower|lender, defaulting to the
// caller's borrowed loans.
func (h *LoanHandler) List(c *gin.Context) {
	participant, ok := caller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var (
		loans []domain.Loan
		err   error
	)
	switch role := c.DefaultQuery("role", "borrower"); role {
	case "borrower":
		loans, err = h.lendingSvc.ListBorrowerLoans(c.Request.Context(), participant)
	case "lender":
		loans, err = h.lendingSvc.ListLenderLoans(c.Request.Context(), participant)
	default:
		response.Error(c, apperror.Validation("role must be borrower or lender"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.LoanResponse, 0, len(loans))
	for i := range loans {
		items = append(items, toLoanResponse(&loans[i]))
	}
	response.OK(c, items)
}

// ListEvents handles GET /api/v1/loans/:id/events.
func (h *LoanHandler) ListEvents(c *gin.Context) {
	loanID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	events, err := h.lendingSvc.ListLoanEvents(c.Request.Context(), loanID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		items = append(items, toEventResponse(&events[i]))
	}
	response.OK(c, items)
}

func toLoanResponse(l *domain.Loan) dto.LoanResponse {
	return dto.LoanResponse{
		ID:               l.ID,
		OfferID:          l.OfferID,
		Borrower:         l.Borrower.String(),
		Lender:           l.Lender.String(),
		Amount:           l.Amount,
		InterestRate:     l.InterestRate,
		Duration:         l.Duration,
		StartTime:        l.StartTime.UTC().Format(time.RFC3339),
		EndTime:          l.EndTime.UTC().Format(time.RFC3339),
		CollateralAmount: l.CollateralAmount,
		Status:           string(l.Status),
		ScoreSnapshot:    l.ScoreSnapshot,
		AmountRepaid:     l.AmountRepaid,
		TotalDue:         l.TotalDue(),
		NextPaymentDue:   l.NextPaymentDue.UTC().Format(time.RFC3339),
		PaymentInterval:  l.PaymentInterval,
	}
}

func toEventResponse(e *domain.Event) dto.EventResponse {
	resp := dto.EventResponse{
		Sequence:  e.Sequence,
		Type:      string(e.Type),
		Actor:     e.Actor.String(),
		OfferID:   e.OfferID,
		LoanID:    e.LoanID,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
	}
	if e.ProofHash != nil {
		resp.ProofHash = e.ProofHash.String()
	}
	if len(e.Payload) > 0 {
		var payload interface{}
		if err := json.Unmarshal(e.Payload, &payload); err == nil {
			resp.Payload = payload
		}
	}
	return resp
}
