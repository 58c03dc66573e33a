package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/corebank/lending-engine/internal/config"
	"github.com/corebank/lending-engine/internal/domain"
	"github.com/corebank/lending-engine/internal/mocks"
	"github.com/corebank/lending-engine/internal/service"
	apperr "github.com/corebank/lending-engine/pkg/errors"
)

type handlerDeps struct {
	loanRepo    *mocks.MockLoanRepository
	accountRepo *mocks.MockAccountRepository
	txnRepo     *mocks.MockTransactionRepository
}

// newTestRouter wires a real service over mocked stores so handler tests
// exercise the full decode, service and error-mapping path.
func newTestRouter(t *testing.T) (*mux.Router, *handlerDeps) {
	t.Helper()

	deps := &handlerDeps{
		loanRepo:    &mocks.MockLoanRepository{},
		accountRepo: &mocks.MockAccountRepository{},
		txnRepo:     &mocks.MockTransactionRepository{},
	}
	transactor := &mocks.MockTransactor{}
	loanCache := &mocks.MockLoanCache{}
	sink := &mocks.MockEventSink{}

	transactor.On("WithinTransaction", mock.Anything).Return().Maybe()
	loanCache.On("Get", mock.Anything, mock.Anything).Return(nil, false).Maybe()
	loanCache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return().Maybe()
	loanCache.On("Invalidate", mock.Anything, mock.Anything).Return().Maybe()
	sink.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return().Maybe()

	cfg := &config.Config{
		Business: config.BusinessConfig{
			DefaultInterestRate:      "12",
			PreclosurePenaltyPercent: "2",
			ClosureTolerance:         "1",
			DefaultThresholdMonths:   3,
			LoanCacheTTL:             "10m",
		},
	}

	svc := service.NewLendingService(
		deps.loanRepo, deps.accountRepo, deps.txnRepo, transactor,
		loanCache, sink, cfg, zap.NewNop(),
	)
	h := NewLendingHandler(svc, zap.NewNop())

	router := mux.NewRouter()
	router.HandleFunc("/api/v1/loans", h.ApplyLoan).Methods("POST")
	router.HandleFunc("/api/v1/loans/{loanId}", h.GetLoan).Methods("GET")
	router.HandleFunc("/api/v1/loans/{loanId}/approve", h.ApproveLoan).Methods("POST")
	router.HandleFunc("/api/v1/loans/{loanId}/reject", h.RejectLoan).Methods("POST")
	router.HandleFunc("/api/v1/loans/{loanId}/emi", h.PayEMI).Methods("POST")
	router.HandleFunc("/api/v1/loans/{loanId}/preclose", h.PreCloseLoan).Methods("POST")
	router.HandleFunc("/api/v1/borrowers/{borrowerId}/loans", h.ListLoans).Methods("GET")
	router.HandleFunc("/api/v1/borrowers/{borrowerId}/bills", h.GetDueBills).Methods("GET")

	return router, deps
}

func doRequest(router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	return resp.Code
}

func testLoan(borrowerID string, status domain.LoanStatus) *domain.Loan {
	loan := &domain.Loan{
		ID:                       uuid.New(),
		BorrowerID:               borrowerID,
		LoanType:                 domain.LoanTypePersonal,
		PrincipalAmount:          decimal.NewFromInt(120000),
		InterestRate:             decimal.NewFromInt(12),
		TenureMonths:             12,
		EMIAmount:                decimal.RequireFromString("10661.86"),
		RemainingPrincipal:       decimal.NewFromInt(120000),
		Status:                   status,
		PreclosurePenaltyPercent: decimal.NewFromInt(2),
	}
	if status != domain.LoanStatusPending && status != domain.LoanStatusRejected {
		start := time.Now().AddDate(0, -2, 0)
		loan.StartDate = &start
	}
	return loan
}

func TestApplyLoanHandler(t *testing.T) {
	t.Run("Valid application returns 201", func(t *testing.T) {
		router, deps := newTestRouter(t)
		deps.loanRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		rec := doRequest(router, http.MethodPost, "/api/v1/loans", map[string]interface{}{
			"borrower_id":      "borrower-1",
			"loan_type":        "Personal",
			"principal_amount": 120000,
			"tenure_months":    12,
			"interest_rate":    12,
		})

		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Success bool        `json:"success"`
			Data    domain.Loan `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, domain.LoanStatusPending, resp.Data.Status)
		assert.Equal(t, "borrower-1", resp.Data.BorrowerID)
	})

	t.Run("Malformed JSON returns 400", func(t *testing.T) {
		router, _ := newTestRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Missing required fields returns 400", func(t *testing.T) {
		router, deps := newTestRouter(t)

		rec := doRequest(router, http.MethodPost, "/api/v1/loans", map[string]interface{}{
			"loan_type": "Personal",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		deps.loanRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Unknown loan type returns 400 with code", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := doRequest(router, http.MethodPost, "/api/v1/loans", map[string]interface{}{
			"borrower_id":      "borrower-1",
			"loan_type":        "Payday",
			"principal_amount": 120000,
			"tenure_months":    12,
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apperr.ErrCodeInvalidLoanRequest, errorCode(t, rec))
	})
}

func TestGetLoanHandler(t *testing.T) {
	t.Run("Invalid UUID returns 400", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := doRequest(router, http.MethodGet, "/api/v1/loans/not-a-uuid?borrower_id=borrower-1", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Missing borrower_id returns 400", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := doRequest(router, http.MethodGet, "/api/v1/loans/"+uuid.NewString(), nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Unknown loan returns 404", func(t *testing.T) {
		router, deps := newTestRouter(t)
		loanID := uuid.New()
		deps.loanRepo.On("GetByID", mock.Anything, loanID).Return(nil, sql.ErrNoRows)

		rec := doRequest(router, http.MethodGet, "/api/v1/loans/"+loanID.String()+"?borrower_id=borrower-1", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apperr.ErrCodeLoanNotFound, errorCode(t, rec))
	})

	t.Run("Someone else's loan returns 404", func(t *testing.T) {
		router, deps := newTestRouter(t)
		loan := testLoan("borrower-1", domain.LoanStatusActive)
		deps.loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)

		rec := doRequest(router, http.MethodGet, "/api/v1/loans/"+loan.ID.String()+"?borrower_id=intruder", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestApproveLoanHandler_StateConflict(t *testing.T) {
	router, deps := newTestRouter(t)
	loan := testLoan("borrower-1", domain.LoanStatusActive)
	deps.loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)

	rec := doRequest(router, http.MethodPost, "/api/v1/loans/"+loan.ID.String()+"/approve", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperr.ErrCodeInvalidLoanState, errorCode(t, rec))
}

func TestPayEMIHandler(t *testing.T) {
	t.Run("Insufficient balance returns 422", func(t *testing.T) {
		router, deps := newTestRouter(t)
		loan := testLoan("borrower-1", domain.LoanStatusActive)
		wallet := &domain.Account{
			ID:      uuid.New(),
			OwnerID: "borrower-1",
			Type:    domain.AccountTypeWallet,
			Balance: decimal.NewFromInt(10),
		}

		deps.loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
		deps.accountRepo.On("GetByOwnerAndType", mock.Anything, "borrower-1", domain.AccountTypeWallet).Return(wallet, nil)
		deps.accountRepo.On("GetByOwnerAndType", mock.Anything, "borrower-1", domain.AccountTypeSavings).Return(nil, sql.ErrNoRows)

		rec := doRequest(router, http.MethodPost, "/api/v1/loans/"+loan.ID.String()+"/emi",
			map[string]interface{}{"borrower_id": "borrower-1"})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, apperr.ErrCodeInsufficientBalance, errorCode(t, rec))
	})

	t.Run("Missing borrower in body returns 400", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := doRequest(router, http.MethodPost, "/api/v1/loans/"+uuid.NewString()+"/emi",
			map[string]interface{}{})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Closed loan returns 409", func(t *testing.T) {
		router, deps := newTestRouter(t)
		loan := testLoan("borrower-1", domain.LoanStatusClosed)
		deps.loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)

		rec := doRequest(router, http.MethodPost, "/api/v1/loans/"+loan.ID.String()+"/emi",
			map[string]interface{}{"borrower_id": "borrower-1"})

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestListLoansHandler(t *testing.T) {
	router, deps := newTestRouter(t)
	loans := []*domain.Loan{testLoan("borrower-1", domain.LoanStatusActive)}
	deps.loanRepo.On("GetByBorrower", mock.Anything, "borrower-1").Return(loans, nil)

	rec := doRequest(router, http.MethodGet, "/api/v1/borrowers/borrower-1/loans", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool           `json:"success"`
		Data    []*domain.Loan `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, loans[0].ID, resp.Data[0].ID)
}

func TestGetDueBillsHandler(t *testing.T) {
	router, deps := newTestRouter(t)
	loan := testLoan("borrower-1", domain.LoanStatusActive)
	deps.loanRepo.On("GetByBorrower", mock.Anything, "borrower-1").Return([]*domain.Loan{loan}, nil)

	rec := doRequest(router, http.MethodGet, "/api/v1/borrowers/borrower-1/bills", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []*domain.DueBill `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, loan.ID, resp.Data[0].LoanID)
	assert.Equal(t, domain.DueBillOverdue, resp.Data[0].Status)
}

func TestPreCloseHandler(t *testing.T) {
	router, deps := newTestRouter(t)
	loan := testLoan("borrower-1", domain.LoanStatusActive)
	loan.RemainingPrincipal = decimal.NewFromInt(50000)
	savings := &domain.Account{
		ID:      uuid.New(),
		OwnerID: "borrower-1",
		Type:    domain.AccountTypeSavings,
		Balance: decimal.NewFromInt(60000),
	}

	deps.loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
	deps.accountRepo.On("GetByOwnerAndType", mock.Anything, "borrower-1", domain.AccountTypeSavings).Return(savings, nil)
	deps.loanRepo.On("Save", mock.Anything, loan).Return(nil)
	deps.accountRepo.On("AdjustBalance", mock.Anything, savings.ID, mock.Anything).Return(savings, nil)
	deps.txnRepo.On("Record", mock.Anything, mock.Anything).Return(uuid.New(), nil)

	rec := doRequest(router, http.MethodPost, "/api/v1/loans/"+loan.ID.String()+"/preclose",
		map[string]interface{}{"borrower_id": "borrower-1"})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data domain.PreCloseResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Penalty.Equal(decimal.NewFromInt(1000)), "penalty %s", resp.Data.Penalty)
	assert.True(t, resp.Data.TotalPayable.Equal(decimal.NewFromInt(51000)), "total %s", resp.Data.TotalPayable)
	assert.Equal(t, domain.LoanStatusClosed, resp.Data.Loan.Status)
}
