package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"zk-lending-engine/internal/adapter/http/dto"
	"zk-lending-engine/internal/adapter/http/middleware"
	"zk-lending-engine/internal/core/domain"
	"zk-lending-engine/internal/core/ports"
	"zk-lending-engine/internal/core/ports/mocks"
	"zk-lending-engine/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testProofHashStr = "ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12"

// authedContext builds a test context carrying an authenticated caller.
func authedContext(t *testing.T, w *httptest.ResponseRecorder, participant uuid.UUID, method, path string, body interface{}) *gin.Context {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.CtxParticipantID, participant)
	return c
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}

// --- Auth Handler Tests ---

func TestRegister_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	participantID := uuid.New()
	mockAuth.EXPECT().Register(gomock.Any(), "alice", "password123").Return(&domain.Participant{
		ID:       participantID,
		Username: "alice",
		Role:     domain.RoleMember,
	}, nil)

	body, _ := json.Marshal(dto.RegisterRequest{Username: "alice", Password: "password123"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, participantID.String(), data["participant_id"])
	assert.Equal(t, "alice", data["username"])
	assert.Equal(t, "MEMBER", data["role"])
}

func TestRegister_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	// Empty body => binding error
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader([]byte("{}")))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_UsernameTaken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Register(gomock.Any(), "taken", "password123").Return(nil, apperror.ErrUsernameExists())

	body, _ := json.Marshal(dto.RegisterRequest{Username: "taken", Password: "password123"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	expiry := time.Now().Add(time.Hour)
	mockAuth.EXPECT().Login(gomock.Any(), "alice", "password123").Return("jwt-token", expiry, nil)

	body, _ := json.Marshal(dto.LoginRequest{Username: "alice", Password: "password123"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Login(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "jwt-token", data["token"])
	assert.Equal(t, float64(expiry.Unix()), data["expiry"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Login(gomock.Any(), "alice", "wrong").Return("", time.Time{}, apperror.ErrInvalidCredentials())

	body, _ := json.Marshal(dto.LoginRequest{Username: "alice", Password: "wrong"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Offer Handler Tests ---

func TestCreateOffer_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLending := mocks.NewMockLendingService(ctrl)
	h := NewOfferHandler(mockLending)

	lender := uuid.New()
	mockLending.EXPECT().CreateOffer(gomock.Any(), ports.CreateOfferRequest{
		Lender:          lender,
		Amount:          1000,
		InterestRate:    500,
		Duration:        86400,
		CollateralRatio: 15000,
		MinScore:        600,
	}).Return(&domain.LoanOffer{
		ID:              1,
		Lender:          lender,
		Amount:          1000,
		InterestRate:    500,
		Duration:        86400,
		CollateralRatio: 15000,
		MinScore:        600,
		Active:          true,
		CreatedAt:       time.Now(),
	}, nil)

	w := httptest.NewRecorder()
	c := authedContext(t, w, lender, http.MethodPost, "/api/v1/offers", dto.CreateOfferRequest{
		Amount:          1000,
		InterestRate:    500,
		Duration:        86400,
		CollateralRatio: 15000,
		MinScore:        600,
	})

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(1), data["id"])
	assert.Equal(t, lender.String(), data["lender"])
	assert.Equal(t, true, data["active"])
}

func TestCreateOffer_Unauthenticated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLending := mocks.NewMockLendingService(ctrl)
	h := NewOfferHandler(mockLending)

	body, _ := json.Marshal(dto.CreateOfferRequest{Amount: 1000, Duration: 86400})

	// No participant on context => 401.
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/offers", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCancelOffer_WrongLender(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLending := mocks.NewMockLendingService(ctrl)
	h := NewOfferHandler(mockLending)

	stranger := uuid.New()
	mockLending.EXPECT().CancelOffer(gomock.Any(), stranger, int64(9)).Return(nil, apperror.ErrOnlyLender())

	w := httptest.NewRecorder()
	c := authedContext(t, w, stranger, http.MethodPost, "/api/v1/offers/9/cancel", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}

	h.Cancel(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCancelOffer_BadPathParam(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLending := mocks.NewMockLendingService(ctrl)
	h := NewOfferHandler(mockLending)

	w := httptest.NewRecorder()
	c := authedContext(t, w, uuid.New(), http.MethodPost, "/api/v1/offers/abc/cancel", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	h.Cancel(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Proof / Verification Handler Tests ---

func TestSubmitProof_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLending := mocks.NewMockLendingService(ctrl)
	h := NewVerificationHandler(mockLending)

	submitter := uuid.New()
	hash := domain.ProofHash(testProofHashStr)
	mockLending.EXPECT().SubmitProof(gomock.Any(), submitter, domain.ProofSubmission{
		ProofHash: hash,
		Submitter: submitter,
		Proof:     []byte("blob"),
	}).Return(nil)

	w := httptest.NewRecorder()
	c := authedContext(t, w, submitter, http.MethodPost, "/api/v1/proofs", dto.SubmitProofRequest{
		ProofHash: testProofHashStr,
		Proof:     []byte("blob"),
	})

	h.SubmitProof(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, testProofHashStr, data["proof_hash"])
}

func TestSubmitProof_NormalizesHexPrefix(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLending := mocks.NewMockLendingService(ctrl)
	h := NewVerificationHandler(mockLending)

	submitter := uuid.New()
	hash := domain.ProofHash(testProofHashStr)
	mockLending.EXPECT().SubmitProof(gomock.Any(), submitter, domain.ProofSubmission{
		ProofHash: hash,
		Submitter: submitter,
	}).Return(nil)

	w := httptest.NewRecorder()
	c := authedContext(t, w, submitter, http.MethodPost, "/api/v1/proofs", dto.SubmitProofRequest{
		ProofHash: "0x" + testProofHashStr,
	})

	h.SubmitProof(c)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestSubmitProof_InvalidHash(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLending := mocks.NewMockLendingService(ctrl)
	h := NewVerificationHandler(mockLending)

	w := httptest.NewRecorder()
	c := authedContext(t, w, uuid.New(), http.MethodPost, "/api/v1/proofs", map[string]string{
		"proof_hash": "not-hex",
	})

	h.SubmitProof(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordVerification_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLending := mocks.NewMockLendingService(ctrl)
	h := NewVerificationHandler(mockLending)

	reporter := uuid.New()
	borrower := uuid.New()
	mockLending.EXPECT().RecordVerification(gomock.Any(), reporter, ports.RecordVerificationRequest{
		ProofHash: domain.ProofHash(testProofHashStr),
		Borrower:  borrower,
		IsValid:   true,
		Score:     720,
	}).Return(nil)

	w := httptest.NewRecorder()
	c := authedContext(t, w, reporter, http.MethodPost, "/api/v1/verifications", dto.RecordVerificationRequest{
		ProofHash: testProofHashStr,
		Borrower:  borrower.String(),
		IsValid:   true,
		Score:     720,
	})

	h.RecordVerification(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

// --- Loan Handler Tests ---

func sampleLoan(borrower, lender uuid.UUID) *domain.Loan {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Loan{
		ID:               5,
		OfferID:          2,
		Borrower:         borrower,
		Lender:           lender,
		Amount:           1000,
		InterestRate:     1000,
		Duration:         3600,
		StartTime:        now,
		EndTime:          now.Add(time.Hour),
		CollateralAmount: 1500,
		Status:           domain.LoanStatusActive,
		ScoreSnapshot:    700,
		NextPaymentDue:   now.Add(15 * time.Minute),
		PaymentInterval:  900,
	}
}

func TestRequestLoan_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLending := mocks.NewMockLendingService(ctrl)
	h := NewLoanHandler(mockLending)

	borrower := uuid.New()
	lender := uuid.New()
	mockLending.EXPECT().RequestLoan(gomock.Any(), ports.RequestLoanRequest{
		Borrower:   borrower,
		OfferID:    2,
		ProofHash:  domain.ProofHash(testProofHashStr),
		Collateral: 1500,
	}).Return(sampleLoan(borrower, lender), nil)

	w := httptest.NewRecorder()
	c := authedContext(t, w, borrower, http.MethodPost, "/api/v1/loans", dto.RequestLoanRequest{
		OfferID:    2,
		ProofHash:  testProofHashStr,
		Collateral: 1500,
	})

	h.Request(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(5), data["id"])
	assert.Equal(t, "ACTIVE", data["status"])
	assert.Equal(t, float64(1100), data["total_due"])
}

func TestRequestLoan_PreconditionFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLending := mocks.NewMockLendingService(ctrl)
	h := NewLoanHandler(mockLending)

	borrower := uuid.New()
	mockLending.EXPECT().RequestLoan(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrReputationTooLow())

	w := httptest.NewRecorder()
	c := authedContext(t, w, borrower, http.MethodPost, "/api/v1/loans", dto.RequestLoanRequest{
		OfferID:    2,
		ProofHash:  testProofHashStr,
		Collateral: 1500,
	})

	h.Request(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "reputation too low", resp["message"])
}

func TestMakePayment_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLending := mocks.NewMockLendingService(ctrl)
	h := NewLoanHandler(mockLending)

	borrower := uuid.New()
	loan := sampleLoan(borrower, uuid.New())
	loan.AmountRepaid = 300
	mockLending.EXPECT().MakePayment(gomock.Any(), ports.MakePaymentRequest{
		Borrower: borrower,
		LoanID:   5,
		Amount:   300,
	}).Return(loan, nil)

	w := httptest.NewRecorder()
	c := authedContext(t, w, borrower, http.MethodPost, "/api/v1/loans/5/payments", dto.MakePaymentRequest{Amount: 300})
	c.Params = gin.Params{{Key: "id", Value: "5"}}

	h.MakePayment(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(300), data["amount_repaid"])
}

func TestCheckDefault_Liquidated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLending := mocks.NewMockLendingService(ctrl)
	h := NewLoanHandler(mockLending)

	participant := uuid.New()
	loan := sampleLoan(uuid.New(), uuid.New())
	loan.Status = domain.LoanStatusDefaulted
	mockLending.EXPECT().CheckDefault(gomock.Any(), participant, int64(5)).Return(loan, nil)

	w := httptest.NewRecorder()
	c := authedContext(t, w, participant, http.MethodPost, "/api/v1/loans/5/check-default", nil)
	c.Params = gin.Params{{Key: "id", Value: "5"}}

	h.CheckDefault(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "DEFAULTED", data["status"])
}

func TestListLoans_RoleFilter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLending := mocks.NewMockLendingService(ctrl)
	h := NewLoanHandler(mockLending)

	lender := uuid.New()
	mockLending.EXPECT().ListLenderLoans(gomock.Any(), lender).Return([]domain.Loan{*sampleLoan(uuid.New(), lender)}, nil)

	w := httptest.NewRecorder()
	c := authedContext(t, w, lender, http.MethodGet, "/api/v1/loans?role=lender", nil)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items := resp["data"].([]interface{})
	require.Len(t, items, 1)
}

func TestListLoans_BadRole(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLending := mocks.NewMockLendingService(ctrl)
	h := NewLoanHandler(mockLending)

	w := httptest.NewRecorder()
	c := authedContext(t, w, uuid.New(), http.MethodGet, "/api/v1/loans?role=escrow", nil)

	h.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEvents_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLending := mocks.NewMockLendingService(ctrl)
	h := NewLoanHandler(mockLending)

	loanID := int64(5)
	actor := uuid.New()
	hash := domain.ProofHash(testProofHashStr)
	mockLending.EXPECT().ListLoanEvents(gomock.Any(), loanID).Return([]domain.Event{
		{
			Sequence:  1,
			Type:      domain.EventLoanRequested,
			Actor:     actor,
			LoanID:    &loanID,
			ProofHash: &hash,
			Payload:   json.RawMessage(`{"collateral":1500}`),
			CreatedAt: time.Now(),
		},
	}, nil)

	w := httptest.NewRecorder()
	c := authedContext(t, w, actor, http.MethodGet, "/api/v1/loans/5/events", nil)
	c.Params = gin.Params{{Key: "id", Value: "5"}}

	h.ListEvents(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items := resp["data"].([]interface{})
	require.Len(t, items, 1)
	entry := items[0].(map[string]interface{})
	assert.Equal(t, "LoanRequested", entry["type"])
	assert.Equal(t, testProofHashStr, entry["proof_hash"])
	payload := entry["payload"].(map[string]interface{})
	assert.Equal(t, float64(1500), payload["collateral"])
}

// --- Account Handler Tests ---

func TestDeposit_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAccount := mocks.NewMockAccountService(ctrl)
	h := NewAccountHandler(mockAccount)

	owner := uuid.New()
	mockAccount.EXPECT().Deposit(gomock.Any(), owner, int64(500)).Return(&domain.Account{
		Owner:   owner,
		Balance: 750,
	}, nil)

	w := httptest.NewRecorder()
	c := authedContext(t, w, owner, http.MethodPost, "/api/v1/accounts/deposit", dto.DepositRequest{Amount: 500})

	h.Deposit(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(750), data["balance"])
}

func TestDeposit_NonPositiveAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAccount := mocks.NewMockAccountService(ctrl)
	h := NewAccountHandler(mockAccount)

	w := httptest.NewRecorder()
	c := authedContext(t, w, uuid.New(), http.MethodPost, "/api/v1/accounts/deposit", map[string]int64{"amount": -5})

	h.Deposit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBalance_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAccount := mocks.NewMockAccountService(ctrl)
	h := NewAccountHandler(mockAccount)

	owner := uuid.New()
	mockAccount.EXPECT().GetBalance(gomock.Any(), owner).Return(&domain.Account{Owner: owner, Balance: 42}, nil)

	w := httptest.NewRecorder()
	c := authedContext(t, w, owner, http.MethodGet, "/api/v1/accounts/balance", nil)

	h.GetBalance(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(42), data["balance"])
}

// --- Reputation Handler Tests ---

func TestGetScore_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReputation := mocks.NewMockReputationService(ctrl)
	h := NewReputationHandler(mockReputation)

	participant := uuid.New()
	mockReputation.EXPECT().GetScore(gomock.Any(), participant).Return(int64(680), nil)

	w := httptest.NewRecorder()
	c := authedContext(t, w, uuid.New(), http.MethodGet, "/api/v1/reputation/"+participant.String(), nil)
	c.Params = gin.Params{{Key: "participant_id", Value: participant.String()}}

	h.GetScore(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(680), data["score"])
}

func TestAuthorizeWriter_NonAdmin(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReputation := mocks.NewMockReputationService(ctrl)
	h := NewReputationHandler(mockReputation)

	admin := uuid.New()
	writer := uuid.New()
	mockReputation.EXPECT().AuthorizeCaller(gomock.Any(), admin, writer).Return(apperror.ErrAdminOnly())

	w := httptest.NewRecorder()
	c := authedContext(t, w, admin, http.MethodPost, "/api/v1/reputation/writers", dto.ReputationWriterRequest{Caller: writer.String()})

	h.AuthorizeWriter(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInitializeScore_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReputation := mocks.NewMockReputationService(ctrl)
	h := NewReputationHandler(mockReputation)

	admin := uuid.New()
	participant := uuid.New()
	mockReputation.EXPECT().InitializeScore(gomock.Any(), nil, admin, participant, int64(500)).Return(nil)

	w := httptest.NewRecorder()
	c := authedContext(t, w, admin, http.MethodPost, "/api/v1/reputation/scores", dto.InitializeScoreRequest{
		Participant: participant.String(),
		Score:       500,
	})

	h.InitializeScore(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(500), data["score"])
}

func TestInitializeScore_UnauthorizedWriter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReputation := mocks.NewMockReputationService(ctrl)
	h := NewReputationHandler(mockReputation)

	admin := uuid.New()
	participant := uuid.New()
	mockReputation.EXPECT().InitializeScore(gomock.Any(), nil, admin, participant, int64(500)).
		Return(apperror.ErrCallerNotAuthorized())

	w := httptest.NewRecorder()
	c := authedContext(t, w, admin, http.MethodPost, "/api/v1/reputation/scores", dto.InitializeScoreRequest{
		Participant: participant.String(),
		Score:       500,
	})

	h.InitializeScore(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

// --- Health Handler Tests ---

func TestHealthCheck_AllHealthy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pg := mocks.NewMockHealthChecker(ctrl)
	pg.EXPECT().Ping(gomock.Any()).Return(nil)
	pg.EXPECT().Name().Return("postgresql").AnyTimes()

	rd := mocks.NewMockHealthChecker(ctrl)
	rd.EXPECT().Ping(gomock.Any()).Return(nil)
	rd.EXPECT().Name().Return("redis").AnyTimes()

	router := gin.New()
	router.GET("/health", HealthCheck(pg, rd))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pg := mocks.NewMockHealthChecker(ctrl)
	pg.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
	pg.EXPECT().Name().Return("postgresql").AnyTimes()

	router := gin.New()
	router.GET("/health", HealthCheck(pg))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
}
