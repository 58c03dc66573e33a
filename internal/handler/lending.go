package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/corebank/lending-engine/internal/domain"
	"github.com/corebank/lending-engine/internal/service"
	"github.com/corebank/lending-engine/pkg/response"
)

type LendingHandler struct {
	service   *service.LendingService
	validator *validator.Validate
	logger    *zap.Logger
}

func NewLendingHandler(service *service.LendingService, logger *zap.Logger) *LendingHandler {
	return &LendingHandler{
		service:   service,
		validator: validator.New(),
		logger:    logger,
	}
}

// ApplyLoan handles POST /loans
func (h *LendingHandler) ApplyLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.ApplyLoanRequest
	if !h.bind(w, r, &req) {
		return
	}

	loan, err := h.service.ApplyLoan(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Created(w, loan)
}

// ApproveLoan handles POST /loans/{loanId}/approve
func (h *LendingHandler) ApproveLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanID(w, r)
	if !ok {
		return
	}

	loan, err := h.service.ApproveLoan(r.Context(), loanID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, loan)
}

// RejectLoan handles POST /loans/{loanId}/reject
func (h *LendingHandler) RejectLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanID(w, r)
	if !ok {
		return
	}

	loan, err := h.service.RejectLoan(r.Context(), loanID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, loan)
}

// GetLoan handles GET /loans/{loanId}?borrower_id=...
func (h *LendingHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanID(w, r)
	if !ok {
		return
	}

	borrowerID := r.URL.Query().Get("borrower_id")
	if borrowerID == "" {
		response.BadRequest(w, "borrower_id is required")
		return
	}

	loan, err := h.service.GetLoanDetails(r.Context(), loanID, borrowerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, loan)
}

// ListLoans handles GET /borrowers/{borrowerId}/loans
func (h *LendingHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	borrowerID := mux.Vars(r)["borrowerId"]

	loans, err := h.service.GetLoansForBorrower(r.Context(), borrowerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, loans)
}

// GetDueBills handles GET /borrowers/{borrowerId}/bills
func (h *LendingHandler) GetDueBills(w http.ResponseWriter, r *http.Request) {
	borrowerID := mux.Vars(r)["borrowerId"]

	bills, err := h.service.GetDueBills(r.Context(), borrowerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, bills)
}

// PayEMI handles POST /loans/{loanId}/emi
func (h *LendingHandler) PayEMI(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanID(w, r)
	if !ok {
		return
	}

	var req domain.PayEMIRequest
	if !h.bind(w, r, &req) {
		return
	}

	loan, err := h.service.PayEMI(r.Context(), loanID, req.BorrowerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, loan)
}

// PreCloseLoan handles POST /loans/{loanId}/preclose
func (h *LendingHandler) PreCloseLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanID(w, r)
	if !ok {
		return
	}

	var req domain.PreCloseRequest
	if !h.bind(w, r, &req) {
		return
	}

	result, err := h.service.PreCloseLoan(r.Context(), loanID, req.BorrowerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, result)
}

func (h *LendingHandler) bind(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "invalid request body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		response.BadRequest(w, err.Error())
		return false
	}
	return true
}

func (h *LendingHandler) loanID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := mux.Vars(r)["loanId"]
	loanID, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(w, "invalid loan ID")
		return uuid.Nil, false
	}
	return loanID, true
}

func (h *LendingHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	response.FromError(w, err)
}
