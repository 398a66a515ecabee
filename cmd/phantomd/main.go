// Command phantomd serves the phantom wallet API: wallet session, signature-gated
// operations, the signature log and PHAN rewards.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/AlexZinkM/phantom-wallet/docs"
	"github.com/AlexZinkM/phantom-wallet/internal/api"
	"github.com/AlexZinkM/phantom-wallet/internal/authflow"
	"github.com/AlexZinkM/phantom-wallet/internal/client"
	"github.com/AlexZinkM/phantom-wallet/internal/config"
	"github.com/AlexZinkM/phantom-wallet/internal/logging"
	"github.com/AlexZinkM/phantom-wallet/internal/model"
	"github.com/AlexZinkM/phantom-wallet/internal/provider"
	"github.com/AlexZinkM/phantom-wallet/internal/rewards"
	"github.com/AlexZinkM/phantom-wallet/internal/signatures"
	"github.com/AlexZinkM/phantom-wallet/internal/signing"
	"github.com/AlexZinkM/phantom-wallet/internal/storage"
	"github.com/AlexZinkM/phantom-wallet/internal/wallet"

	"go.uber.org/zap"
)

const (
	shutdownTimeout = 10 * time.Second
	initTimeout     = 30 * time.Second
)

// @title        Phantom Wallet API
// @version      1.0
// @description  Wallet session, signature-gated operations, signature log and PHAN rewards.
// @BasePath     /
func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := config.Get()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	store, err := storage.OpenSQLite(cfg.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	registry := provider.NewRegistry(logger)

	var keystore *provider.KeystoreProvider
	if cfg.KeystoreFilePath != "" {
		keystore, err = openKeystore(cfg, logger)
		if err != nil {
			return err
		}
		defer keystore.Lock()

		registry.OnRequest(func() {
			registry.Announce(provider.Detail{Info: keystore.Info(), Provider: keystore})
		})
		if cfg.FallbackProvider == "keystore" {
			registry.SetInjected(keystore)
		}
		logger.Info("keystore provider ready", logging.Account(keystore.Address()))
	}

	hub := provider.NewHub(registry, provider.NativeCurrency{
		Symbol:   cfg.BridgeNativeSymbol,
		Name:     cfg.BridgeNativeName,
		Decimals: cfg.BridgeNativeDecimals,
	}, cfg.BridgeRequestTimeout(), logger)
	defer hub.Close()

	ledger := rewards.NewLedger(store, logger)
	log := signatures.NewLog(store, logger)

	session := wallet.New(wallet.Config{
		DiscoveryWindow: cfg.DiscoveryWindow(),
		Match:           provider.MatchName(cfg.DiscoveryMatch),
		AllowSimulated:  cfg.AllowSimulatedSignatures,
		PriceCoinID:     cfg.PriceCoinID,
		PriceCurrency:   cfg.PriceCurrency,
	}, registry, store, ledger, client.NewCoinGeckoClient(), signing.NewSimulatedSigner(cfg.SignDelay()), logger)
	defer session.Teardown()

	allowRepeat := make([]model.OperationType, 0, len(cfg.AllowRepeat))
	for _, s := range cfg.AllowRepeat {
		t := model.OperationType(s)
		if !t.Valid() {
			return fmt.Errorf("ALLOW_REPEAT: unknown operation type %q", s)
		}
		allowRepeat = append(allowRepeat, t)
	}
	flow := authflow.New(authflow.Config{
		StepDelay:              cfg.StepDelay(),
		FailureRate:            cfg.FailureRate,
		StressFailureRate:      cfg.StressFailureRate,
		RecordFailedSignatures: cfg.RecordFailedSignatures,
		AllowRepeat:            allowRepeat,
	}, session, log, ledger, store, logger)

	router, err := api.SetupRouter(api.Deps{
		Session:    session,
		Flow:       flow,
		Signatures: log,
		Ledger:     ledger,
		Hub:        hub,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// restore after the listener is up so bridge wallets can dial in first
	initDone := make(chan struct{})
	go func() {
		defer close(initDone)
		select {
		case <-time.After(cfg.ReconnectGrace()):
		case <-ctx.Done():
			return
		}
		initCtx, cancel := context.WithTimeout(ctx, initTimeout)
		defer cancel()
		session.Init(initCtx)
	}()

	select {
	case err := <-errCh:
		stop()
		<-initDone
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	<-initDone
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// drop the session before its provider goes away so the persisted flags survive
	session.Teardown()
	// bridged sockets are hijacked and not tracked by Shutdown
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func openKeystore(cfg *config.Config, logger *zap.Logger) (*provider.KeystoreProvider, error) {
	if err := config.PromptForPassword(); err != nil {
		return nil, err
	}
	password, err := config.GetKeystorePasswordBytes()
	if err != nil {
		return nil, err
	}
	defer clear(password)

	return provider.OpenKeystore(provider.KeystoreConfig{
		FilePath: cfg.KeystoreFilePath,
		Password: password,
		RPCURL:   cfg.SolanaRPCURL,
		ChainID:  cfg.KeystoreChainID,
		Cooldown: cfg.SendCooldownDuration(),
	}, logger)
}
