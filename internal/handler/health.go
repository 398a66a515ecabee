package handler

import (
	"net/http"

	"github.com/AlexZinkM/phantom-wallet/internal/model"
)

// HealthResponse represents response for GET /health
type HealthResponse struct {
	Status          string                `json:"status"`
	ConnectionState model.ConnectionState `json:"connectionState"`
	BridgedWallets  int                   `json:"bridgedWallets"`
}

// BridgeCounter reports how many wallets are attached over the bridge
type BridgeCounter interface {
	Count() int
}

// Health handles GET /health
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  handler.HealthResponse
// @Router       /health [get]
func Health(session Session, bridge BridgeCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
			return
		}

		resp := HealthResponse{
			Status:          "ok",
			ConnectionState: session.Snapshot().ConnectionState,
		}
		if bridge != nil {
			resp.BridgedWallets = bridge.Count()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
