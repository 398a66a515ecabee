package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/AlexZinkM/phantom-wallet/internal/model"
	"github.com/AlexZinkM/phantom-wallet/internal/signatures"

	"go.uber.org/zap"
)

// SignaturesHandler serves the signature log of the connected account
type SignaturesHandler struct {
	accounts AccountSource
	log      *signatures.Log
	logger   *zap.Logger
}

// NewSignaturesHandler creates a new SignaturesHandler
func NewSignaturesHandler(accounts AccountSource, log *signatures.Log, logger *zap.Logger) *SignaturesHandler {
	return &SignaturesHandler{accounts: accounts, log: log, logger: logger.Named("http.signatures")}
}

// List handles GET /signatures
// @Summary      List signatures
// @Description  Lists signature records with status counts, optionally filtered by operation, signature or id
// @Tags         signatures
// @Produce      json
// @Param        search  query     string  false  "Case-insensitive search term"
// @Success      200     {object}  model.SignatureListResponse
// @Failure      401     {object}  model.ErrorResponse
// @Router       /signatures [get]
func (h *SignaturesHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	account, err := h.accounts.Account()
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}

	all, err := h.log.List(r.Context(), account)
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}
	found, err := h.log.Search(r.Context(), account, r.URL.Query().Get("search"))
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, model.SignatureListResponse{
		Account:    account,
		Stats:      signatures.Stats(all),
		Signatures: found,
	})
}

// Export handles GET /signatures/export
// @Summary      Export signatures
// @Description  Downloads the signature log as a JSON file
// @Tags         signatures
// @Produce      json
// @Success      200  {array}   model.SignatureRecord
// @Failure      401  {object}  model.ErrorResponse
// @Router       /signatures/export [get]
func (h *SignaturesHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	account, err := h.accounts.Account()
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}
	data, err := h.log.Export(r.Context(), account)
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "phan-signatures-"+account+".json"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Inspect handles GET /signatures/inspect
// @Summary      Inspect signature
// @Description  Runs format, validity, timestamp and operation checks on one record
// @Tags         signatures
// @Produce      json
// @Param        id   query     string  true  "Signature record id"
// @Success      200  {object}  model.InspectionResponse
// @Failure      400  {object}  model.ErrorResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /signatures/inspect [get]
func (h *SignaturesHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, model.CodeInvalidRequest, errors.New("id is required"))
		return
	}
	account, err := h.accounts.Account()
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}

	resp, err := h.log.Inspect(r.Context(), account, id)
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
