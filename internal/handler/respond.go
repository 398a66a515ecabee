package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexZinkM/phantom-wallet/internal/authflow"
	"github.com/AlexZinkM/phantom-wallet/internal/model"
	"github.com/AlexZinkM/phantom-wallet/internal/rewards"
	"github.com/AlexZinkM/phantom-wallet/internal/signatures"
	"github.com/AlexZinkM/phantom-wallet/internal/wallet"

	"go.uber.org/zap"
)

// AccountSource resolves the connected account
type AccountSource interface {
	Account() (string, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code model.ErrorCode, err error) {
	writeJSON(w, status, model.NewErrorResponse(code, err))
}

// writeFailure maps err to a status and logs server-side failures
func writeFailure(w http.ResponseWriter, logger *zap.Logger, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("code", string(code)), zap.Error(err))
	}
	writeError(w, status, code, err)
}

func errorStatus(err error) (int, model.ErrorCode) {
	switch {
	case errors.Is(err, wallet.ErrNotConnected):
		return http.StatusUnauthorized, model.CodeNotConnected
	case errors.Is(err, wallet.ErrUserRejected):
		return http.StatusForbidden, model.CodeUserRejected
	case errors.Is(err, wallet.ErrProviderNotFound):
		return http.StatusNotFound, model.CodeProviderNotFound
	case errors.Is(err, wallet.ErrConnectInProgress), errors.Is(err, authflow.ErrOperationInProgress):
		return http.StatusConflict, model.CodeInProgress
	case errors.Is(err, wallet.ErrSigningUnsupported):
		return http.StatusUnprocessableEntity, model.CodeSigningUnsupported
	case errors.Is(err, authflow.ErrInvalidDescriptor):
		return http.StatusBadRequest, model.CodeInvalidOperation
	case errors.Is(err, authflow.ErrAlreadyCompleted):
		return http.StatusConflict, model.CodeAlreadyCompleted
	case errors.Is(err, rewards.ErrInvalidAmount):
		return http.StatusBadRequest, model.CodeInvalidAmount
	case errors.Is(err, rewards.ErrUnknownFeature), errors.Is(err, signatures.ErrNotFound):
		return http.StatusNotFound, model.CodeNotFound
	case errors.Is(err, rewards.ErrAlreadyUnlocked):
		return http.StatusConflict, model.CodeAlreadyUnlocked
	case errors.Is(err, rewards.ErrInsufficientBalance):
		return http.StatusPaymentRequired, model.CodeInsufficientBalance
	case wallet.IsConnectError(err):
		return http.StatusBadGateway, model.CodeConnectFailed
	case wallet.IsSigningError(err):
		return http.StatusBadGateway, model.CodeSigningFailed
	case authflow.IsExecutionError(err):
		return http.StatusInternalServerError, model.CodeExecutionFailed
	}
	return http.StatusInternalServerError, model.CodeInternal
}
