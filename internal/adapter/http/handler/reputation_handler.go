package handler

import (
	"zk-lending-engine/internal/adapter/http/dto"
	"zk-lending-engine/internal/core/ports"
	"zk-lending-engine/pkg/apperror"
	"zk-lending-engine/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReputationHandler handles reputation score reads and the
// authorized-writer allow-list.
type ReputationHandler struct {
	reputationSvc ports.ReputationService
}

// NewReputationHandler creates a new ReputationHandler.
func NewReputationHandler(reputationSvc ports.ReputationService) *ReputationHandler {
	return &ReputationHandler{reputationSvc: reputationSvc}
}

// GetScore handles GET /api/v1/reputation/:participant_id. Unseen
// participants read as zero.
func (h *ReputationHandler) GetScore(c *gin.Context) {
	participant, err := uuid.Parse(c.Param("participant_id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid participant_id path parameter"))
		return
	}

	score, err := h.reputationSvc.GetScore(c.Request.Context(), participant)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ScoreResponse{
		Participant: participant.String(),
		Score:       score,
	})
}

// InitializeScore handles POST /api/v1/reputation/scores. Seeds a baseline
// score for a participant whose score is still the zero sentinel; an
// already-scored participant is left untouched. The caller must be on the
// writer allow-list, so an administrator typically allow-lists themselves
// first via POST /reputation/writers.
func (h *ReputationHandler) InitializeScore(c *gin.Context) {
	writerID, ok := caller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.InitializeScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	participant, err := uuid.Parse(req.Participant)
	if err != nil {
		response.Error(c, apperror.Validation("invalid participant id"))
		return
	}

	if err := h.reputationSvc.InitializeScore(c.Request.Context(), nil, writerID, participant, req.Score); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ScoreResponse{
		Participant: participant.String(),
		Score:       req.Score,
	})
}

// AuthorizeWriter handles POST /api/v1/reputation/writers. Admin only.
func (h *ReputationHandler) AuthorizeWriter(c *gin.Context) {
	admin, ok := caller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.ReputationWriterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	writer, err := uuid.Parse(req.Caller)
	if err != nil {
		response.Error(c, apperror.Validation("invalid caller id"))
		return
	}

	if err := h.reputationSvc.AuthorizeCaller(c.Request.Context(), admin, writer); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"caller": writer.String(), "authorized": true})
}

// DeauthorizeWriter handles DELETE /api/v1/reputation/writers/:caller_id.
// Admin only.
func (h *ReputationHandler) DeauthorizeWriter(c *gin.Context) {
	admin, ok := caller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	writer, err := uuid.Parse(c.Param("caller_id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid caller_id path parameter"))
		return
	}

	if err := h.reputationSvc.DeauthorizeCaller(c.Request.Context(), admin, writer); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"caller": writer.String(), "authorized": false})
}
