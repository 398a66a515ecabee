package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexZinkM/phantom-wallet/internal/model"

	"go.uber.org/zap"
)

// Session is the wallet session surface served over HTTP
type Session interface {
	AccountSource
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context)
	Snapshot() model.SessionResponse
	RefreshBalance(ctx context.Context) error
	SendTransaction(ctx context.Context, to, amount, memo string) (string, error)
	Receive() (*model.ReceiveResponse, error)
	Portfolio(ctx context.Context) (*model.PortfolioResponse, error)
}

// WalletHandler serves the wallet session endpoints
type WalletHandler struct {
	session Session
	logger  *zap.Logger
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(session Session, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{session: session, logger: logger.Named("http.wallet")}
}

// Connect handles POST /wallet/connect
// @Summary      Connect wallet
// @Description  Discovers a wallet provider and requests account access
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.SessionResponse
// @Failure      403  {object}  model.ErrorResponse
// @Failure      404  {object}  model.ErrorResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /wallet/connect [post]
func (h *WalletHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	if err := h.session.Connect(r.Context()); err != nil {
		writeFailure(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// Disconnect handles POST /wallet/disconnect
// @Summary      Disconnect wallet
// @Description  Clears the session and its persisted flags
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.SessionResponse
// @Router       /wallet/disconnect [post]
func (h *WalletHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	h.session.Disconnect(r.Context())
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// GetSession handles GET /wallet/session
// @Summary      Get session
// @Description  Returns connection state, account, chain and assets
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.SessionResponse
// @Router       /wallet/session [get]
func (h *WalletHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// RefreshBalance handles POST /wallet/balance
// @Summary      Refresh balances
// @Description  Re-reads the native and PHAN balances of the connected account
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.SessionResponse
// @Failure      401  {object}  model.ErrorResponse
// @Router       /wallet/balance [post]
func (h *WalletHandler) RefreshBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	if _, err := h.session.Account(); err != nil {
		writeFailure(w, h.logger, err)
		return
	}
	if err := h.session.RefreshBalance(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, model.CodeBalanceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// Send handles POST /wallet/send
// @Summary      Send native asset
// @Description  Sends the native asset of the connected provider to the specified address
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.SendRequest  true  "Transfer data"
// @Success      200      {object}  model.SendResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      403      {object}  model.ErrorResponse
// @Router       /wallet/send [post]
func (h *WalletHandler) Send(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.CodeInvalidRequest, err)
		return
	}
	if req.ToAddress == "" || req.Amount == "" {
		writeError(w, http.StatusBadRequest, model.CodeInvalidRequest, errors.New("toAddress and amount are required"))
		return
	}

	txID, err := h.session.SendTransaction(r.Context(), req.ToAddress, req.Amount, req.Memo)
	if err != nil {
		status, code := errorStatus(err)
		if code == model.CodeInternal {
			status, code = http.StatusBadRequest, model.CodeSendFailed
		}
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SendResponse{TxID: txID})
}

// Receive handles GET /wallet/receive
// @Summary      Receive address
// @Description  Returns the connected address with a base64 PNG QR code
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.ReceiveResponse
// @Failure      401  {object}  model.ErrorResponse
// @Router       /wallet/receive [get]
func (h *WalletHandler) Receive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	resp, err := h.session.Receive()
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Portfolio handles GET /wallet/portfolio
// @Summary      Portfolio value
// @Description  Values the session's assets in the configured currency
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.PortfolioResponse
// @Failure      401  {object}  model.ErrorResponse
// @Failure      502  {object}  model.ErrorResponse
// @Router       /wallet/portfolio [get]
func (h *WalletHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	resp, err := h.session.Portfolio(r.Context())
	if err != nil {
		status, code := errorStatus(err)
		if code == model.CodeInternal {
			status, code = http.StatusBadGateway, model.CodePriceUnavailable
		}
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
