package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/AlexZinkM/phantom-wallet/internal/authflow"
	"github.com/AlexZinkM/phantom-wallet/internal/model"

	"go.uber.org/zap"
)

// Authorizer runs signature-gated operations
type Authorizer interface {
	RequestAuthorization(ctx context.Context, desc model.OperationDescriptor) (*authflow.Attempt, error)
	RunStressTest(ctx context.Context) (*model.StressTestResponse, error)
	Flags(ctx context.Context) (*model.FlagsResponse, error)
}

// OperationsHandler serves the operation endpoints
type OperationsHandler struct {
	flow   Authorizer
	logger *zap.Logger
}

// NewOperationsHandler creates a new OperationsHandler
func NewOperationsHandler(flow Authorizer, logger *zap.Logger) *OperationsHandler {
	return &OperationsHandler{flow: flow, logger: logger.Named("http.operations")}
}

// Request handles POST /operations
// @Summary      Authorize and run an operation
// @Description  Signs the operation message with the connected wallet and, once signed, runs the operation and credits PHAN
// @Tags         operations
// @Accept       json
// @Produce      json
// @Param        request  body      model.OperationDescriptor  true  "Operation"
// @Success      200      {object}  model.AttemptResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      403      {object}  model.AttemptResponse
// @Failure      409      {object}  model.ErrorResponse
// @Failure      500      {object}  model.AttemptResponse
// @Router       /operations [post]
func (h *OperationsHandler) Request(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var desc model.OperationDescriptor
	if err := json.NewDecoder(r.Body).Decode(&desc); err != nil {
		writeError(w, http.StatusBadRequest, model.CodeInvalidRequest, err)
		return
	}

	attempt, err := h.flow.RequestAuthorization(r.Context(), desc)
	if attempt == nil {
		writeFailure(w, h.logger, err)
		return
	}
	if err != nil {
		status, code := errorStatus(err)
		h.logger.Info("operation attempt failed",
			zap.String("operation", string(desc.Type)),
			zap.String("state", string(attempt.State)),
			zap.String("code", string(code)))
		writeJSON(w, status, attempt.Response())
		return
	}
	writeJSON(w, http.StatusOK, attempt.Response())
}

// Flags handles GET /operations/flags
// @Summary      Operation progress
// @Description  Returns completion flags and suite progress of the connected account
// @Tags         operations
// @Produce      json
// @Success      200  {object}  model.FlagsResponse
// @Failure      401  {object}  model.ErrorResponse
// @Router       /operations/flags [get]
func (h *OperationsHandler) Flags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	resp, err := h.flow.Flags(r.Context())
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// StressTest handles POST /operations/stress-test
// @Summary      Run stress test
// @Description  Runs every operation type once through the authorization flow
// @Tags         operations
// @Produce      json
// @Success      200  {object}  model.StressTestResponse
// @Failure      401  {object}  model.ErrorResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /operations/stress-test [post]
func (h *OperationsHandler) StressTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	resp, err := h.flow.RunStressTest(r.Context())
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
