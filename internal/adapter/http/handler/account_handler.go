package handler

import (
	"zk-lending-engine/internal/adapter/http/dto"
	"zk-lending-engine/internal/core/domain"
	"zk-lending-engine/internal/core/ports"
	"zk-lending-engine/pkg/apperror"
	"zk-lending-engine/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles native-value account endpoints.
type AccountHandler struct {
	accountSvc ports.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc ports.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// Deposit handles POST /api/v1/accounts/deposit.
func (h *AccountHandler) Deposit(c *gin.Context) {
	owner, ok := caller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	account, err := h.accountSvc.Deposit(c.Request.Context(), owner, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toAccountResponse(account))
}

// GetBalance handles GET /api/v1/accounts/balance.
func (h *AccountHandler) GetBalance(c *gin.Context) {
	owner, ok := caller(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	account, err := h.accountSvc.GetBalance(c.Request.Context(), owner)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toAccountResponse(account))
}

func toAccountResponse(a *domain.Account) dto.AccountResponse {
	return dto.AccountResponse{
		Owner:   a.Owner.String(),
		Balance: a.Balance,
	}
}
