package model

// ErrorCode is the machine-readable reason of an API error
type ErrorCode string

const (
	CodeInvalidRequest      ErrorCode = "invalid_request"
	CodeNotConnected        ErrorCode = "not_connected"
	CodeUserRejected        ErrorCode = "user_rejected"
	CodeProviderNotFound    ErrorCode = "provider_not_found"
	CodeInProgress          ErrorCode = "in_progress"
	CodeSigningUnsupported  ErrorCode = "signing_unsupported"
	CodeInvalidOperation    ErrorCode = "invalid_operation"
	CodeAlreadyCompleted    ErrorCode = "already_completed"
	CodeInvalidAmount       ErrorCode = "invalid_amount"
	CodeNotFound            ErrorCode = "not_found"
	CodeAlreadyUnlocked     ErrorCode = "already_unlocked"
	CodeInsufficientBalance ErrorCode = "insufficient_balance"
	CodeConnectFailed       ErrorCode = "connect_failed"
	CodeSigningFailed       ErrorCode = "signing_failed"
	CodeExecutionFailed     ErrorCode = "execution_failed"
	CodeSendFailed          ErrorCode = "send_failed"
	CodeBalanceUnavailable  ErrorCode = "balance_unavailable"
	CodePriceUnavailable    ErrorCode = "price_unavailable"
	CodeInternal            ErrorCode = "internal"
)

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Error string    `json:"error"`
	Code  ErrorCode `json:"code,omitempty"`
}

// NewErrorResponse builds the response body for err. Internal failures do not
// leak the underlying error text.
func NewErrorResponse(code ErrorCode, err error) ErrorResponse {
	if code == CodeInternal {
		return ErrorResponse{Error: "internal error", Code: code}
	}
	return ErrorResponse{Error: err.Error(), Code: code}
}
