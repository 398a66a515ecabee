package wallet

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AlexZinkM/phantom-wallet/internal/model"
	"github.com/AlexZinkM/phantom-wallet/internal/provider"
	"github.com/AlexZinkM/phantom-wallet/internal/provider/providertest"
	"github.com/AlexZinkM/phantom-wallet/internal/rewards"
	"github.com/AlexZinkM/phantom-wallet/internal/signing"
	"github.com/AlexZinkM/phantom-wallet/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	acct  = "0xabc0000000000000000000000000000000000001"
	acct2 = "0xdef0000000000000000000000000000000000002"
)

var oneSEI = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

type fixedPrice struct {
	price decimal.Decimal
	err   error
}

func (f fixedPrice) GetPrice(ctx context.Context, coinID, currency string) (decimal.Decimal, error) {
	return f.price, f.err
}

type harness struct {
	session  *Session
	registry *provider.Registry
	store    storage.Store
	ledger   *rewards.Ledger
}

func newHarness(t *testing.T, announced ...provider.Provider) *harness {
	t.Helper()
	return newHarnessWithStore(t, storage.NewMemory(), announced...)
}

func newHarnessWithStore(t *testing.T, store storage.Store, announced ...provider.Provider) *harness {
	t.Helper()
	registry := provider.NewRegistry(zap.NewNop())
	registry.OnRequest(func() {
		for _, p := range announced {
			registry.Announce(provider.Detail{Info: p.Info(), Provider: p})
		}
	})
	ledger := rewards.NewLedger(store, zap.NewNop())
	cfg := Config{
		DiscoveryWindow: 20 * time.Millisecond,
		Match:           provider.MatchName("sei"),
		AllowSimulated:  true,
		PriceCoinID:     "sei-network",
		PriceCurrency:   "usd",
	}
	s := New(cfg, registry, store, ledger, fixedPrice{price: decimal.RequireFromString("0.5")},
		signing.NewSimulatedSigner(0), zap.NewNop())
	t.Cleanup(s.Teardown)
	return &harness{session: s, registry: registry, store: store, ledger: ledger}
}

func assertCleared(t *testing.T, snap model.SessionResponse) {
	t.Helper()
	assert.Equal(t, model.StateDisconnected, snap.ConnectionState)
	assert.Nil(t, snap.Account)
	assert.Nil(t, snap.ChainID)
	assert.Empty(t, snap.Assets)
	assert.Empty(t, snap.Provider)
}

func TestConnectWithoutProvider(t *testing.T) {
	h := newHarness(t)
	err := h.session.Connect(context.Background())
	assert.ErrorIs(t, err, ErrProviderNotFound)
	assertCleared(t, h.session.Snapshot())
}

func TestConnectPopulatesSession(t *testing.T) {
	fake := providertest.New("Sei Wallet", acct)
	fake.SetBalance(acct, new(big.Int).Mul(big.NewInt(3), oneSEI))
	h := newHarness(t, providertest.New("MetaMask", acct2), fake)
	ctx := context.Background()
	_, err := h.ledger.Credit(ctx, acct, decimal.NewFromInt(150))
	require.NoError(t, err)

	require.NoError(t, h.session.Connect(ctx))

	snap := h.session.Snapshot()
	assert.Equal(t, model.StateConnected, snap.ConnectionState)
	require.NotNil(t, snap.Account)
	assert.Equal(t, acct, *snap.Account)
	require.NotNil(t, snap.ChainID)
	assert.Equal(t, "0x531", *snap.ChainID)
	assert.Equal(t, "Sei Wallet", snap.Provider)
	require.Len(t, snap.Assets, 2)
	assert.Equal(t, "SEI", snap.Assets[0].Symbol)
	assert.Equal(t, "3.000000", snap.Assets[0].Balance)
	assert.Equal(t, PhanSymbol, snap.Assets[1].Symbol)
	assert.Equal(t, "150", snap.Assets[1].Balance)

	var connected bool
	_, err = storage.GetJSON(ctx, h.store, connectedKey, &connected)
	require.NoError(t, err)
	assert.True(t, connected)
	var address string
	_, err = storage.GetJSON(ctx, h.store, addressKey, &address)
	require.NoError(t, err)
	assert.Equal(t, acct, address)

	// connecting again is a no-op
	require.NoError(t, h.session.Connect(ctx))
	assert.Equal(t, 1, fake.Subscribers())
}

func TestConnectUserRejected(t *testing.T) {
	fake := providertest.New("Sei Wallet", acct)
	fake.RequestErr = &provider.RPCError{Code: provider.CodeUserRejected, Message: "User rejected"}
	h := newHarness(t, fake)

	err := h.session.Connect(context.Background())
	assert.ErrorIs(t, err, ErrUserRejected)
	assertCleared(t, h.session.Snapshot())
}

func TestConnectProviderFailure(t *testing.T) {
	fake := providertest.New("Sei Wallet", acct)
	fake.RequestErr = errors.New("wallet crashed")
	h := newHarness(t, fake)

	err := h.session.Connect(context.Background())
	assert.True(t, IsConnectError(err))
	assertCleared(t, h.session.Snapshot())

	empty := providertest.New("Sei Empty")
	h = newHarness(t, empty)
	err = h.session.Connect(context.Background())
	assert.True(t, IsConnectError(err))
	assertCleared(t, h.session.Snapshot())
}

func TestConcurrentConnectIsRejected(t *testing.T) {
	h := newHarness(t, providertest.New("Sei Wallet", acct))
	h.session.cfg.DiscoveryWindow = 200 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- h.session.Connect(context.Background()) }()

	require.Eventually(t, func() bool {
		return h.session.Snapshot().ConnectionState == model.StateConnecting
	}, time.Second, time.Millisecond)
	assert.ErrorIs(t, h.session.Connect(context.Background()), ErrConnectInProgress)

	require.NoError(t, <-done)
	assert.Equal(t, model.StateConnected, h.session.Snapshot().ConnectionState)
}

func TestDisconnectDuringConnectCancels(t *testing.T) {
	h := newHarness(t, providertest.New("Sei Wallet", acct))
	h.session.cfg.DiscoveryWindow = 100 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- h.session.Connect(context.Background()) }()
	require.Eventually(t, func() bool {
		return h.session.Snapshot().ConnectionState == model.StateConnecting
	}, time.Second, time.Millisecond)

	h.session.Disconnect(context.Background())
	assert.True(t, IsConnectError(<-done))
	assertCleared(t, h.session.Snapshot())
}

func TestDisconnectConnectDisconnectClears(t *testing.T) {
	fake := providertest.New("Sei Wallet", acct)
	h := newHarness(t, fake)
	ctx := context.Background()

	h.session.Disconnect(ctx)
	first := h.session.Snapshot()
	assertCleared(t, first)

	require.NoError(t, h.session.Connect(ctx))
	h.session.Disconnect(ctx)
	h.session.Disconnect(ctx)

	assert.Equal(t, first, h.session.Snapshot())
	assert.Equal(t, 0, fake.Subscribers())

	_, ok, err := h.store.Get(ctx, connectedKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProviderEvents(t *testing.T) {
	fake := providertest.New("Sei Wallet", acct)
	fake.SetBalance(acct2, oneSEI)
	h := newHarness(t, fake)
	ctx := context.Background()
	require.NoError(t, h.session.Connect(ctx))

	fake.Emit(provider.Event{Type: provider.EventChainChanged, ChainID: "0x1"})
	snap := h.session.Snapshot()
	assert.Equal(t, "0x1", *snap.ChainID)
	assert.Equal(t, acct, *snap.Account)

	fake.Emit(provider.Event{Type: provider.EventAccountsChanged, Accounts: []string{acct2}})
	assert.Equal(t, acct2, *h.session.Snapshot().Account)
	require.Eventually(t, func() bool {
		assets := h.session.Snapshot().Assets
		return len(assets) == 2 && assets[0].Balance == "1.000000"
	}, time.Second, 5*time.Millisecond)

	fake.Emit(provider.Event{Type: provider.EventAccountsChanged, Accounts: []string{}})
	assertCleared(t, h.session.Snapshot())
}

func TestEventsFromOldSessionAreIgnored(t *testing.T) {
	fake := providertest.New("Sei Wallet", acct)
	h := newHarness(t, fake)
	ctx := context.Background()
	require.NoError(t, h.session.Connect(ctx))

	stale := h.session.eventHandler(h.session.epoch - 1)
	stale(provider.Event{Type: provider.EventChainChanged, ChainID: "0x999"})
	stale(provider.Event{Type: provider.EventAccountsChanged, Accounts: []string{}})

	snap := h.session.Snapshot()
	assert.Equal(t, model.StateConnected, snap.ConnectionState)
	assert.Equal(t, "0x531", *snap.ChainID)
}

func TestRefreshBalanceNoopWhenDisconnected(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.RefreshBalance(context.Background()))
	assert.Empty(t, h.session.Snapshot().Assets)
}

func TestRefreshBalanceDropsStaleResult(t *testing.T) {
	fake := providertest.New("Sei Wallet", acct)
	h := newHarness(t, fake)
	ctx := context.Background()
	require.NoError(t, h.session.Connect(ctx))

	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32
	fake.BalanceHook = func(ctx context.Context, account string) (*big.Int, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return big.NewInt(1), nil
		}
		return new(big.Int).Mul(big.NewInt(2), oneSEI), nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, h.session.RefreshBalance(ctx))
	}()
	<-started

	require.NoError(t, h.session.RefreshBalance(ctx))
	assert.Equal(t, "2.000000", h.session.Snapshot().Assets[0].Balance)

	close(release)
	wg.Wait()

	assets := h.session.Snapshot().Assets
	require.Len(t, assets, 2)
	assert.Equal(t, "2.000000", assets[0].Balance)
}

func TestRefreshBalanceError(t *testing.T) {
	fake := providertest.New("Sei Wallet", acct)
	h := newHarness(t, fake)
	require.NoError(t, h.session.Connect(context.Background()))

	fake.BalanceHook = func(ctx context.Context, account string) (*big.Int, error) {
		return nil, errors.New("rpc down")
	}
	assert.Error(t, h.session.RefreshBalance(context.Background()))
	assert.Len(t, h.session.Snapshot().Assets, 2)
}

func TestInitRestoresSession(t *testing.T) {
	store := storage.NewMemory()
	ctx := context.Background()
	require.NoError(t, storage.SetJSON(ctx, store, connectedKey, true))
	require.NoError(t, storage.SetJSON(ctx, store, addressKey, acct))

	fake := providertest.New("Sei Wallet", acct)
	// a silent restore must not prompt
	fake.RequestErr = errors.New("prompted")
	h := newHarnessWithStore(t, store, fake)

	h.session.Init(ctx)
	snap := h.session.Snapshot()
	assert.Equal(t, model.StateConnected, snap.ConnectionState)
	assert.Equal(t, acct, *snap.Account)
}

func TestInitFailureDisconnectsCleanly(t *testing.T) {
	ctx := context.Background()
	cases := map[string][]provider.Provider{
		"no provider":        nil,
		"no granted account": {providertest.New("Sei Wallet")},
	}
	for name, announced := range cases {
		t.Run(name, func(t *testing.T) {
			store := storage.NewMemory()
			require.NoError(t, storage.SetJSON(ctx, store, connectedKey, true))
			h := newHarnessWithStore(t, store, announced...)

			h.session.Init(ctx)
			assertCleared(t, h.session.Snapshot())
			_, ok, err := store.Get(ctx, connectedKey)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestInitRestoresPersistedAccountOnly(t *testing.T) {
	ctx := context.Background()
	persisted := func(t *testing.T) storage.Store {
		store := storage.NewMemory()
		require.NoError(t, storage.SetJSON(ctx, store, connectedKey, true))
		require.NoError(t, storage.SetJSON(ctx, store, addressKey, acct))
		return store
	}

	t.Run("other account granted", func(t *testing.T) {
		store := persisted(t)
		h := newHarnessWithStore(t, store, providertest.New("Sei Wallet", acct2))

		h.session.Init(ctx)
		assertCleared(t, h.session.Snapshot())
		_, ok, err := store.Get(ctx, addressKey)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("persisted account listed second", func(t *testing.T) {
		h := newHarnessWithStore(t, persisted(t), providertest.New("Sei Wallet", acct2, acct))

		h.session.Init(ctx)
		snap := h.session.Snapshot()
		assert.Equal(t, model.StateConnected, snap.ConnectionState)
		assert.Equal(t, acct, *snap.Account)
	})
}

func TestInitInterruptedKeepsPersistedFlags(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, storage.SetJSON(context.Background(), store, connectedKey, true))
	h := newHarnessWithStore(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.session.Init(ctx)
	assertCleared(t, h.session.Snapshot())

	_, ok, err := store.Get(context.Background(), connectedKey)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInitWithoutFlagDoesNothing(t *testing.T) {
	fake := providertest.New("Sei Wallet", acct)
	h := newHarness(t, fake)
	h.session.Init(context.Background())
	assertCleared(t, h.session.Snapshot())
}

func TestTeardownKeepsPersistedFlags(t *testing.T) {
	fake := providertest.New("Sei Wallet", acct)
	h := newHarness(t, fake)
	ctx := context.Background()
	require.NoError(t, h.session.Connect(ctx))

	h.session.Teardown()
	assertCleared(t, h.session.Snapshot())
	assert.Equal(t, 0, fake.Subscribers())
	// a provider going away after teardown must not reach the session
	fake.Emit(provider.Event{Type: provider.EventAccountsChanged, Accounts: []string{}})

	_, ok, err := h.store.Get(ctx, connectedKey)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSignMessage(t *testing.T) {
	ctx := context.Background()

	_, _, err := newHarness(t).session.SignMessage(ctx, "m")
	assert.ErrorIs(t, err, ErrNotConnected)

	signer := providertest.NewSigner("Sei Wallet", acct)
	h := newHarness(t, signer)
	require.NoError(t, h.session.Connect(ctx))
	sig, account, err := h.session.SignMessage(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, acct, account)
	assert.Equal(t, provider.SchemePersonalSign, sig.Scheme)
	assert.False(t, sig.Simulated)

	signer.SignErr = &provider.RPCError{Code: provider.CodeUserRejected, Message: "no"}
	_, _, err = h.session.SignMessage(ctx, "m")
	assert.True(t, IsSigningError(err))
	assert.ErrorIs(t, err, ErrUserRejected)
}

func TestSignMessageSimulatedFallback(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, providertest.New("Sei Wallet", acct))
	require.NoError(t, h.session.Connect(ctx))

	sig, _, err := h.session.SignMessage(ctx, "m")
	require.NoError(t, err)
	assert.True(t, sig.Simulated)
	assert.Equal(t, signing.SchemeSimulated, sig.Scheme)

	h.session.cfg.AllowSimulated = false
	_, _, err = h.session.SignMessage(ctx, "m")
	assert.True(t, IsSigningError(err))
	assert.ErrorIs(t, err, ErrSigningUnsupported)
}

func TestSignMessageFallsBackWhenProviderRefusesMethod(t *testing.T) {
	ctx := context.Background()
	for name, code := range map[string]int{
		"unsupported":      provider.CodeUnsupported,
		"method not found": provider.CodeMethodNotFound,
	} {
		t.Run(name, func(t *testing.T) {
			signer := providertest.NewSigner("Sei Wallet", acct)
			signer.SignErr = &provider.RPCError{Code: code, Message: "personal_sign not available"}
			h := newHarness(t, signer)
			require.NoError(t, h.session.Connect(ctx))

			sig, account, err := h.session.SignMessage(ctx, "m")
			require.NoError(t, err)
			assert.Equal(t, acct, account)
			assert.True(t, sig.Simulated)
			assert.Equal(t, signing.SchemeSimulated, sig.Scheme)

			h.session.cfg.AllowSimulated = false
			_, _, err = h.session.SignMessage(ctx, "m")
			assert.True(t, IsSigningError(err))
			assert.ErrorIs(t, err, ErrSigningUnsupported)
		})
	}
}

func TestSendTransaction(t *testing.T) {
	ctx := context.Background()

	_, err := newHarness(t).session.SendTransaction(ctx, "0xdef", "1", "")
	assert.ErrorIs(t, err, ErrNotConnected)

	fake := providertest.New("Sei Wallet", acct)
	h := newHarness(t, fake)
	require.NoError(t, h.session.Connect(ctx))

	txID, err := h.session.SendTransaction(ctx, acct2, "1.5", "rent")
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", txID)

	sent := fake.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, acct, sent[0].From)
	assert.Equal(t, acct2, sent[0].To)
	assert.Equal(t, "1500000000000000000", sent[0].Value.String())
	assert.Equal(t, "rent", sent[0].Memo)

	_, err = h.session.SendTransaction(ctx, acct2, "0", "")
	assert.Error(t, err)
	_, err = h.session.SendTransaction(ctx, acct2, "abc", "")
	assert.Error(t, err)

	fake.SendErr = &provider.RPCError{Code: provider.CodeUserRejected, Message: "no"}
	_, err = h.session.SendTransaction(ctx, acct2, "1", "")
	assert.ErrorIs(t, err, ErrUserRejected)
}

func TestSyncRewardBalance(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, providertest.New("Sei Wallet", acct))
	require.NoError(t, h.session.Connect(ctx))

	_, err := h.ledger.Credit(ctx, acct, decimal.NewFromInt(75))
	require.NoError(t, err)
	require.NoError(t, h.session.SyncRewardBalance(ctx))

	assets := h.session.Snapshot().Assets
	require.Len(t, assets, 2)
	assert.Equal(t, PhanSymbol, assets[1].Symbol)
	assert.Equal(t, "75", assets[1].Balance)
}

func TestReceive(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, providertest.New("Sei Wallet", acct))
	_, err := h.session.Receive()
	assert.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, h.session.Connect(ctx))
	resp, err := h.session.Receive()
	require.NoError(t, err)
	assert.Equal(t, acct, resp.Address)
	assert.Equal(t, "0x531", resp.ChainID)
	assert.NotEmpty(t, resp.QR)
}

func TestPortfolio(t *testing.T) {
	ctx := context.Background()
	fake := providertest.New("Sei Wallet", acct)
	fake.SetBalance(acct, new(big.Int).Mul(big.NewInt(4), oneSEI))
	h := newHarness(t, fake)
	require.NoError(t, h.session.Connect(ctx))

	p, err := h.session.Portfolio(ctx)
	require.NoError(t, err)
	assert.Equal(t, "usd", p.Currency)
	assert.Equal(t, "2.00", p.Total)
	require.Len(t, p.Lines, 2)
	assert.Equal(t, "0.5", p.Lines[0].Price)
	assert.Equal(t, "2.00", p.Lines[0].Value)
	assert.Empty(t, p.Lines[1].Price)

	h.session.prices = fixedPrice{err: errors.New("rate limited")}
	_, err = h.session.Portfolio(ctx)
	assert.Error(t, err)
}

func TestUpsertAssetKeepsOnePerSymbol(t *testing.T) {
	assets := []model.Asset{{Symbol: "SEI"}, {Symbol: "PHAN", Balance: "1"}, {Symbol: "PHAN", Balance: "2"}}
	out := upsertAsset(assets, model.Asset{Symbol: "PHAN", Balance: "3"})
	require.Len(t, out, 2)
	assert.Equal(t, "3", out[1].Balance)
}
