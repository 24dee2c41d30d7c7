package handler

import (
	"strconv"
	"time"

	"zk-lending-engine/internal/adapter/http/dto"
	"zk-lending-engine/internal/adapter/http/middleware"
	"zk-lending-engine/internal/core/domain"
	"zk-lending-engine/internal/core/ports"
	"zk-lending-engine/pkg/apperror"
	"zk-lending-engine/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OfferHandler handles loan offer endpoints.
type OfferHandler struct {
	lendingSvc ports.LendingService
}

// NewOfferHandler creates a new OfferHandler.
func NewOfferHandler(lendingSvc ports.LendingService) *OfferHandler {
	return &OfferHandler{lendingSvc: lendingSvc}
}

// Create handles POST /api/v1/offers.
func (h *OfferHandler) Create(c *gin.Context) {
	lender, ok := caller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	offer, err := h.lendingSvc.CreateOffer(c.Request.Context(), ports.CreateOfferRequest{
		Lender:          lender,
		Amount:          req.Amount,
		InterestRate:    req.InterestRate,
		Duration:        req.Duration,
		CollateralRatio: req.CollateralRatio,
		MinScore:        req.MinScore,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toOfferResponse(offer))
}

// Cancel handles POST /api/v1/offers/:id/cancel.
func (h *OfferHandler) Cancel(c *gin.Context) {
	lender, ok := caller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	offerID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	offer, err := h.lendingSvc.CancelOffer(c.Request.Context(), lender, offerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toOfferResponse(offer))
}

// Get handles GET /api/v1/offers/:id.
func (h *OfferHandler) Get(c *gin.Context) {
	offerID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	offer, err := h.lendingSvc.GetOffer(c.Request.Context(), offerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toOfferResponse(offer))
}

// ListMine handles GET /api/v1/offers, listing the caller's offers.
func (h *OfferHandler) ListMine(c *gin.Context) {
	lender, ok := caller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	offers, err := h.lendingSvc.ListLenderOffers(c.Request.Context(), lender)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.OfferResponse, 0, len(offers))
	for i := range offers {
		items = append(items, toOfferResponse(&offers[i]))
	}
	response.OK(c, items)
}

// caller returns the authenticated participant ID placed by JWTAuth.
func caller(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.CtxParticipantID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Validation("invalid " + name + " path parameter")
	}
	return id, nil
}

func toOfferResponse(o *domain.LoanOffer) dto.OfferResponse {
	return dto.OfferResponse{
		ID:              o.ID,
		Lender:          o.Lender.String(),
		Amount:          o.Amount,
		InterestRate:    o.InterestRate,
		Duration:        o.Duration,
		CollateralRatio: o.CollateralRatio,
		MinScore:        o.MinScore,
		Active:          o.Active,
		CreatedAt:       o.CreatedAt.UTC().Format(time.RFC3339),
	}
}
