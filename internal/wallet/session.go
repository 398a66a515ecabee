// Package wallet owns the single wallet session: provider discovery, the
// connect/disconnect lifecycle, account and chain tracking, and balances.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/phantom-wallet/internal/common"
	"github.com/AlexZinkM/phantom-wallet/internal/logging"
	"github.com/AlexZinkM/phantom-wallet/internal/model"
	"github.com/AlexZinkM/phantom-wallet/internal/provider"
	"github.com/AlexZinkM/phantom-wallet/internal/rewards"
	"github.com/AlexZinkM/phantom-wallet/internal/signing"
	"github.com/AlexZinkM/phantom-wallet/internal/storage"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Persisted session flags
const (
	connectedKey = "wallet_connected"
	addressKey   = "wallet_address"
)

// PHAN asset metadata
const (
	PhanSymbol   = "PHAN"
	phanName     = "Phantom Token"
	phanDecimals = 18
	phanLogo     = "👻"
)

// eventRefreshTimeout bounds the balance refresh triggered by an account switch
const eventRefreshTimeout = 30 * time.Second

// PriceSource quotes asset prices for portfolio valuation
type PriceSource interface {
	GetPrice(ctx context.Context, coinID, currency string) (decimal.Decimal, error)
}

// Config tunes a Session
type Config struct {
	DiscoveryWindow time.Duration
	Match           provider.Matcher
	// AllowSimulated permits labelled simulated signatures when the provider cannot sign
	AllowSimulated bool
	PriceCoinID    string
	PriceCurrency  string
}

// Session is the wallet session. It is created once by the application root;
// Init restores a persisted session and Teardown releases provider subscriptions.
type Session struct {
	cfg       Config
	registry  *provider.Registry
	store     storage.Store
	ledger    *rewards.Ledger
	prices    PriceSource
	simulated signing.Signer
	logger    *zap.Logger

	mu          sync.Mutex
	state       model.ConnectionState
	account     string
	chainID     string
	provider    provider.Provider
	assets      []model.Asset
	unsubscribe func()
	// epoch changes whenever the session is established or torn down;
	// results computed under an older epoch are discarded
	epoch      uint64
	refreshSeq uint64
	appliedSeq uint64
}

// New creates a disconnected session
func New(cfg Config, registry *provider.Registry, store storage.Store, ledger *rewards.Ledger,
	prices PriceSource, simulated signing.Signer, logger *zap.Logger) *Session {
	return &Session{
		cfg:       cfg,
		registry:  registry,
		store:     store,
		ledger:    ledger,
		prices:    prices,
		simulated: simulated,
		logger:    logger.Named("wallet"),
		state:     model.StateDisconnected,
		assets:    []model.Asset{},
	}
}

// Init silently restores a persisted session. The restored account must be the
// persisted one. Any failure leaves the session cleanly disconnected; the error
// is only logged. A cancelled ctx keeps the persisted flags.
func (s *Session) Init(ctx context.Context) {
	var wasConnected bool
	if _, err := storage.GetJSON(ctx, s.store, connectedKey, &wasConnected); err != nil {
		s.logger.Warn("ignoring unreadable session flag", zap.Error(err))
	}
	if !wasConnected {
		return
	}
	var address string
	if _, err := storage.GetJSON(ctx, s.store, addressKey, &address); err != nil {
		s.logger.Warn("ignoring unreadable session address", zap.Error(err))
	}

	s.mu.Lock()
	if s.state != model.StateDisconnected {
		s.mu.Unlock()
		return
	}
	s.state = model.StateConnecting
	epoch := s.epoch
	s.mu.Unlock()

	err := s.establish(ctx, epoch, func(p provider.Provider) ([]string, error) {
		// silent path: never prompt, only reuse an existing grant
		list, err := p.Accounts(ctx)
		if err != nil || address == "" {
			return list, err
		}
		return preferAccount(list, address)
	})
	if err != nil {
		if ctx.Err() != nil {
			s.logger.Info("auto-reconnect interrupted", zap.Error(err))
			s.Teardown()
			return
		}
		s.logger.Info("auto-reconnect failed, clearing session", zap.Error(err))
		s.Disconnect(ctx)
		return
	}
	s.logger.Info("session restored", logging.Account(s.currentAccount()))
}

// preferAccount moves address to the front of list, failing when the provider
// no longer grants it.
func preferAccount(list []string, address string) ([]string, error) {
	for i, a := range list {
		if strings.EqualFold(a, address) {
			out := make([]string, 0, len(list))
			out = append(out, a)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...), nil
		}
	}
	return nil, fmt.Errorf("persisted account %s is not granted by the provider", address)
}

// Teardown drops the provider subscription and in-memory state but keeps the
// persisted flags so the next start can auto-reconnect.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// Connect discovers a provider and requests account access.
// It settles in Connected on success and Disconnected on failure.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case model.StateConnecting:
		s.mu.Unlock()
		return ErrConnectInProgress
	case model.StateConnected:
		s.mu.Unlock()
		return nil
	}
	s.state = model.StateConnecting
	epoch := s.epoch
	s.mu.Unlock()

	err := s.establish(ctx, epoch, func(p provider.Provider) ([]string, error) {
		return p.RequestAccounts(ctx)
	})
	if err != nil {
		s.mu.Lock()
		if s.epoch == epoch && s.state == model.StateConnecting {
			s.state = model.StateDisconnected
		}
		s.mu.Unlock()
		s.logger.Warn("connect failed", zap.Error(err))
		return err
	}

	s.logger.Info("wallet connected", logging.Account(s.currentAccount()))
	return nil
}

// establish runs discovery and account access and, if the session was not
// torn down meanwhile, commits the connected state
func (s *Session) establish(ctx context.Context, epoch uint64, accounts func(provider.Provider) ([]string, error)) error {
	p, ok := s.registry.Discover(ctx, s.cfg.DiscoveryWindow, s.cfg.Match)
	if !ok {
		return ErrProviderNotFound
	}

	list, err := accounts(p)
	if err != nil {
		if provider.IsUserRejected(err) {
			return fmt.Errorf("%w: %v", ErrUserRejected, err)
		}
		return &ConnectError{Err: err}
	}
	if len(list) == 0 {
		return &ConnectError{Err: errors.New("provider returned no accounts")}
	}

	chainID, err := p.ChainID(ctx)
	if err != nil {
		return &ConnectError{Err: fmt.Errorf("failed to read chain id: %w", err)}
	}

	s.mu.Lock()
	if s.epoch != epoch || s.state != model.StateConnecting {
		s.mu.Unlock()
		return &ConnectError{Err: errors.New("connection cancelled")}
	}
	s.epoch++
	s.state = model.StateConnected
	s.account = list[0]
	s.chainID = chainID
	s.provider = p
	s.assets = []model.Asset{}
	s.unsubscribe = p.Subscribe(s.eventHandler(s.epoch))
	account := s.account
	s.mu.Unlock()

	s.persist(ctx, account)

	if err := s.RefreshBalance(ctx); err != nil {
		s.logger.Warn("initial balance refresh failed", zap.Error(err))
	}
	return nil
}

// Disconnect clears the session and the persisted flags. It is idempotent.
func (s *Session) Disconnect(ctx context.Context) {
	s.mu.Lock()
	wasConnected := s.state == model.StateConnected
	s.clearLocked()
	s.mu.Unlock()

	for _, key := range []string{connectedKey, addressKey} {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to clear session flag", zap.String("key", key), zap.Error(err))
		}
	}
	if wasConnected {
		s.logger.Info("wallet disconnected")
	}
}

func (s *Session) clearLocked() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.epoch++
	s.state = model.StateDisconnected
	s.account = ""
	s.chainID = ""
	s.provider = nil
	s.assets = []model.Asset{}
}

func (s *Session) persist(ctx context.Context, account string) {
	if err := storage.SetJSON(ctx, s.store, connectedKey, true); err != nil {
		s.logger.Warn("failed to persist session flag", zap.Error(err))
	}
	if err := storage.SetJSON(ctx, s.store, addressKey, account); err != nil {
		s.logger.Warn("failed to persist session address", zap.Error(err))
	}
}

func (s *Session) eventHandler(epoch uint64) func(provider.Event) {
	return func(ev provider.Event) {
		switch ev.Type {
		case provider.EventAccountsChanged:
			if len(ev.Accounts) == 0 {
				s.mu.Lock()
				current := s.epoch == epoch
				s.mu.Unlock()
				if current {
					s.logger.Info("provider removed account")
					s.Disconnect(context.Background())
				}
				return
			}

			s.mu.Lock()
			if s.epoch != epoch || s.account == ev.Accounts[0] {
				s.mu.Unlock()
				return
			}
			s.account = ev.Accounts[0]
			s.assets = []model.Asset{}
			s.mu.Unlock()

			s.logger.Info("account changed", logging.Account(ev.Accounts[0]))
			s.persist(context.Background(), ev.Accounts[0])
			// events may arrive on the provider's read loop, so balance requests go elsewhere
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), eventRefreshTimeout)
				defer cancel()
				if err := s.RefreshBalance(ctx); err != nil {
					s.logger.Warn("balance refresh after account change failed", zap.Error(err))
				}
			}()
		case provider.EventChainChanged:
			s.mu.Lock()
			if s.epoch == epoch {
				s.chainID = ev.ChainID
			}
			s.mu.Unlock()
			s.logger.Info("chain changed", zap.String("chain_id", ev.ChainID))
		}
	}
}

// RefreshBalance fetches the native balance and merges in the PHAN balance.
// It is a no-op when not connected. Of overlapping refreshes, a result older
// than the last applied one is dropped.
func (s *Session) RefreshBalance(ctx context.Context) error {
	s.mu.Lock()
	if s.state != model.StateConnected {
		s.mu.Unlock()
		return nil
	}
	p, account, epoch := s.provider, s.account, s.epoch
	s.refreshSeq++
	seq := s.refreshSeq
	s.mu.Unlock()

	native, err := p.Balance(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to fetch balance: %w", err)
	}
	phan, err := s.ledger.Balance(ctx, account)
	if err != nil {
		return err
	}

	assets := buildAssets(p.Native(), native, phan)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.account != account || seq < s.appliedSeq {
		s.logger.Debug("dropping stale balance result", zap.Uint64("seq", seq))
		return nil
	}
	s.appliedSeq = seq
	s.assets = assets
	return nil
}

// SyncRewardBalance re-reads the PHAN balance into the asset list
func (s *Session) SyncRewardBalance(ctx context.Context) error {
	s.mu.Lock()
	if s.state != model.StateConnected {
		s.mu.Unlock()
		return nil
	}
	account, epoch := s.account, s.epoch
	s.mu.Unlock()

	phan, err := s.ledger.Balance(ctx, account)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.account != account {
		return nil
	}
	s.assets = upsertAsset(s.assets, phanAsset(phan))
	return nil
}

func buildAssets(native provider.NativeCurrency, base *big.Int, phan decimal.Decimal) []model.Asset {
	assets := []model.Asset{{
		Symbol:   native.Symbol,
		Name:     native.Name,
		Balance:  common.ToDisplay(base, native.Decimals),
		Decimals: native.Decimals,
		Logo:     native.Logo,
	}}
	return upsertAsset(assets, phanAsset(phan))
}

func phanAsset(balance decimal.Decimal) model.Asset {
	return model.Asset{
		Symbol:   PhanSymbol,
		Name:     phanName,
		Balance:  balance.String(),
		Decimals: phanDecimals,
		Logo:     phanLogo,
	}
}

// upsertAsset replaces the entry with the same symbol or appends a new one
func upsertAsset(assets []model.Asset, a model.Asset) []model.Asset {
	out := make([]model.Asset, 0, len(assets)+1)
	replaced := false
	for _, cur := range assets {
		if cur.Symbol == a.Symbol {
			if !replaced {
				out = append(out, a)
				replaced = true
			}
			continue
		}
		out = append(out, cur)
	}
	if !replaced {
		out = append(out, a)
	}
	return out
}

// Snapshot returns the current session view
func (s *Session) Snapshot() model.SessionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := model.SessionResponse{
		ConnectionState: s.state,
		Assets:          append([]model.Asset{}, s.assets...),
	}
	if s.account != "" {
		account := s.account
		resp.Account = &account
	}
	if s.chainID != "" {
		chainID := s.chainID
		resp.ChainID = &chainID
	}
	if s.provider != nil {
		resp.Provider = s.provider.Info().Name
	}
	return resp
}

// Account returns the connected account
func (s *Session) Account() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateConnected {
		return "", ErrNotConnected
	}
	return s.account, nil
}

func (s *Session) currentAccount() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account
}

func (s *Session) connected() (provider.Provider, string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateConnected {
		return nil, "", "", ErrNotConnected
	}
	return s.provider, s.account, s.chainID, nil
}

// SignMessage signs message for the connected account. The provider's own
// signing is used when it has the capability; otherwise, or when the provider
// reports the method as unsupported, a labelled simulated signature is
// produced if allowed.
func (s *Session) SignMessage(ctx context.Context, message string) (signing.Signature, string, error) {
	p, account, _, err := s.connected()
	if err != nil {
		return signing.Signature{}, "", err
	}

	var signer signing.Signer
	ms, native := p.(provider.MessageSigner)
	if native {
		signer = signing.NewProviderSigner(ms)
	} else if s.cfg.AllowSimulated && s.simulated != nil {
		signer = s.simulated
	} else {
		return signing.Signature{}, account, &SigningError{Err: ErrSigningUnsupported}
	}

	sig, err := signer.Sign(ctx, account, message)
	if err != nil && native && provider.IsUnsupported(err) {
		if !s.cfg.AllowSimulated || s.simulated == nil {
			return signing.Signature{}, account, &SigningError{Err: fmt.Errorf("%w: %v", ErrSigningUnsupported, err)}
		}
		s.logger.Info("provider cannot sign, using simulated signature", zap.Error(err))
		sig, err = s.simulated.Sign(ctx, account, message)
	}
	if err != nil {
		if provider.IsUserRejected(err) {
			err = fmt.Errorf("%w: %v", ErrUserRejected, err)
		}
		return signing.Signature{}, account, &SigningError{Err: err}
	}
	return sig, account, nil
}

// SendTransaction transfers amount (display units of the native asset) to address
func (s *Session) SendTransaction(ctx context.Context, to, amount, memo string) (string, error) {
	p, account, _, err := s.connected()
	if err != nil {
		return "", err
	}
	if to == "" {
		return "", errors.New("recipient address is required")
	}

	value, err := common.ToBaseUnits(amount, p.Native().Decimals)
	if err != nil {
		return "", err
	}
	if value.Sign() <= 0 {
		return "", errors.New("amount must be greater than zero")
	}

	txID, err := p.SendTransaction(ctx, provider.TxRequest{From: account, To: to, Value: value, Memo: memo})
	if err != nil {
		if provider.IsUserRejected(err) {
			return "", fmt.Errorf("%w: %v", ErrUserRejected, err)
		}
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	s.logger.Info("transaction sent", logging.Account(account), zap.String("tx_id", txID))
	if err := s.RefreshBalance(ctx); err != nil {
		s.logger.Warn("balance refresh after send failed", zap.Error(err))
	}
	return txID, nil
}

// Receive returns the connected address with a QR code for it
func (s *Session) Receive() (*model.ReceiveResponse, error) {
	_, account, chainID, err := s.connected()
	if err != nil {
		return nil, err
	}
	qr, err := common.QRCodePNG(account)
	if err != nil {
		return nil, err
	}
	return &model.ReceiveResponse{Address: account, ChainID: chainID, QR: qr}, nil
}

// Portfolio values the session's assets. Only the native asset is priced;
// PHAN has no market value.
func (s *Session) Portfolio(ctx context.Context) (*model.PortfolioResponse, error) {
	p, account, _, err := s.connected()
	if err != nil {
		return nil, err
	}
	snap := s.Snapshot()
	native := p.Native().Symbol

	price, err := s.prices.GetPrice(ctx, s.cfg.PriceCoinID, s.cfg.PriceCurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to price portfolio: %w", err)
	}

	total := decimal.Zero
	lines := make([]model.PortfolioLine, 0, len(snap.Assets))
	for _, a := range snap.Assets {
		line := model.PortfolioLine{Asset: a}
		if a.Symbol == native {
			bal, err := decimal.NewFromString(a.Balance)
			if err != nil {
				return nil, fmt.Errorf("invalid balance for %s: %w", a.Symbol, err)
			}
			value := bal.Mul(price)
			total = total.Add(value)
			line.Price = price.String()
			line.Value = value.StringFixed(2)
		}
		lines = append(lines, line)
	}

	return &model.PortfolioResponse{
		Account:  account,
		Currency: s.cfg.PriceCurrency,
		Total:    total.StringFixed(2),
		Lines:    lines,
	}, nil
}
