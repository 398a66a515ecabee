package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/AlexZinkM/phantom-wallet/internal/handler"
	"github.com/AlexZinkM/phantom-wallet/internal/provider"
	"github.com/AlexZinkM/phantom-wallet/internal/rewards"
	"github.com/AlexZinkM/phantom-wallet/internal/signatures"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Session is what the router needs from the wallet session
type Session interface {
	handler.Session
	handler.RewardSyncer
}

// Deps are the services exposed over HTTP
type Deps struct {
	Session    Session
	Flow       handler.Authorizer
	Signatures *signatures.Log
	Ledger     *rewards.Ledger
	// Hub is optional; without it external wallets cannot attach
	Hub    *provider.Hub
	Logger *zap.Logger
}

// SetupRouter sets up router with handlers
func SetupRouter(d Deps) (http.Handler, error) {
	if d.Session == nil || d.Flow == nil || d.Signatures == nil || d.Ledger == nil {
		return nil, errors.New("router requires session, flow, signature log and ledger")
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	walletHandler := handler.NewWalletHandler(d.Session, logger)
	operationsHandler := handler.NewOperationsHandler(d.Flow, logger)
	signaturesHandler := handler.NewSignaturesHandler(d.Session, d.Signatures, logger)
	rewardsHandler := handler.NewRewardsHandler(d.Session, d.Ledger, logger)

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	var bridge handler.BridgeCounter
	if d.Hub != nil {
		mux.Handle("/provider/ws", d.Hub)
		bridge = d.Hub
	}
	mux.HandleFunc("/health", handler.Health(d.Session, bridge))

	// Wallet endpoints
	mux.HandleFunc("/wallet/connect", walletHandler.Connect)
	mux.HandleFunc("/wallet/disconnect", walletHandler.Disconnect)
	mux.HandleFunc("/wallet/session", walletHandler.GetSession)
	mux.HandleFunc("/wallet/balance", walletHandler.RefreshBalance)
	mux.HandleFunc("/wallet/send", walletHandler.Send)
	mux.HandleFunc("/wallet/receive", walletHandler.Receive)
	mux.HandleFunc("/wallet/portfolio", walletHandler.Portfolio)

	// Operation endpoints
	mux.HandleFunc("/operations", operationsHandler.Request)
	mux.HandleFunc("/operations/flags", operationsHandler.Flags)
	mux.HandleFunc("/operations/stress-test", operationsHandler.StressTest)

	// Signature log endpoints
	mux.HandleFunc("/signatures", signaturesHandler.List)
	mux.HandleFunc("/signatures/export", signaturesHandler.Export)
	mux.HandleFunc("/signatures/inspect", signaturesHandler.Inspect)

	// Rewards endpoints
	mux.HandleFunc("/rewards", rewardsHandler.Get)
	mux.HandleFunc("/rewards/spend", rewardsHandler.Spend)
	mux.HandleFunc("/rewards/unlock", rewardsHandler.Unlock)

	return accessLog(mux, logger.Named("http")), nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap exposes the underlying writer to http.ResponseController
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func accessLog(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/provider/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
