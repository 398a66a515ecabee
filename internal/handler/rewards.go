package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/AlexZinkM/phantom-wallet/internal/common"
	"github.com/AlexZinkM/phantom-wallet/internal/model"
	"github.com/AlexZinkM/phantom-wallet/internal/rewards"

	"go.uber.org/zap"
)

// RewardSyncer refreshes the session's PHAN asset
type RewardSyncer interface {
	AccountSource
	SyncRewardBalance(ctx context.Context) error
}

// RewardsHandler serves the PHAN balance and feature purchases
type RewardsHandler struct {
	accounts RewardSyncer
	ledger   *rewards.Ledger
	logger   *zap.Logger
}

// NewRewardsHandler creates a new RewardsHandler
func NewRewardsHandler(accounts RewardSyncer, ledger *rewards.Ledger, logger *zap.Logger) *RewardsHandler {
	return &RewardsHandler{accounts: accounts, ledger: ledger, logger: logger.Named("http.rewards")}
}

// sync pushes a changed PHAN balance into the session view
func (h *RewardsHandler) sync(r *http.Request) {
	if err := h.accounts.SyncRewardBalance(r.Context()); err != nil {
		h.logger.Warn("failed to sync reward balance", zap.Error(err))
	}
}

// Get handles GET /rewards
// @Summary      Rewards summary
// @Description  Returns the PHAN balance, rank and feature catalog of the connected account
// @Tags         rewards
// @Produce      json
// @Success      200  {object}  model.RewardsResponse
// @Failure      401  {object}  model.ErrorResponse
// @Router       /rewards [get]
func (h *RewardsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	account, err := h.accounts.Account()
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}
	resp, err := h.ledger.Summary(r.Context(), account)
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Spend handles POST /rewards/spend
// @Summary      Spend PHAN
// @Description  Debits PHAN when the balance covers the amount; success is false otherwise
// @Tags         rewards
// @Accept       json
// @Produce      json
// @Param        request  body      model.SpendRequest  true  "Amount"
// @Success      200      {object}  model.SpendResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /rewards/spend [post]
func (h *RewardsHandler) Spend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.SpendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.CodeInvalidRequest, err)
		return
	}
	amount, err := common.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.CodeInvalidAmount, err)
		return
	}
	account, err := h.accounts.Account()
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}

	ok, balance, err := h.ledger.Spend(r.Context(), account, amount)
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}
	if ok {
		h.sync(r)
	}
	writeJSON(w, http.StatusOK, model.SpendResponse{Success: ok, Balance: balance.String()})
}

// Unlock handles POST /rewards/unlock
// @Summary      Unlock feature
// @Description  Buys a premium feature with PHAN
// @Tags         rewards
// @Accept       json
// @Produce      json
// @Param        request  body      model.UnlockRequest  true  "Feature id"
// @Success      200      {object}  model.SpendResponse
// @Failure      402      {object}  model.ErrorResponse
// @Failure      404      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /rewards/unlock [post]
func (h *RewardsHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.UnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.CodeInvalidRequest, err)
		return
	}
	account, err := h.accounts.Account()
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}

	balance, err := h.ledger.Unlock(r.Context(), account, req.Feature)
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}
	h.sync(r)
	writeJSON(w, http.StatusOK, model.SpendResponse{Success: true, Balance: balance.String()})
}
