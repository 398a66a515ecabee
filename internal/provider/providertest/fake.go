// Package providertest provides an in-memory wallet provider for tests.
package providertest

import (
	"context"
	"math/big"
	"sync"

	"github.com/AlexZinkM/phantom-wallet/internal/provider"
)

// Fake is a scriptable provider. Zero values give an account-less wallet.
type Fake struct {
	mu sync.Mutex

	info     provider.Info
	native   provider.NativeCurrency
	accounts []string
	chainID  string
	balances map[string]*big.Int

	// RequestErr is returned by RequestAccounts when set
	RequestErr error
	// BalanceHook runs before Balance returns; it may block to order concurrent calls
	BalanceHook func(ctx context.Context, account string) (*big.Int, error)
	// SendErr is returned by SendTransaction when set
	SendErr error

	sent        []provider.TxRequest
	subscribers map[int]func(provider.Event)
	nextSub     int
}

// New creates a fake wallet with the given name and accounts
func New(name string, accounts ...string) *Fake {
	return &Fake{
		info:     provider.Info{UUID: "uuid-" + name, Name: name, RDNS: "test." + name},
		native:   provider.NativeCurrency{Symbol: "SEI", Name: "Sei Network", Decimals: 18, Logo: "S"},
		accounts: accounts,
		chainID:  "0x531",
		balances: make(map[string]*big.Int),
	}
}

// WithInfo overrides the announced info
func (f *Fake) WithInfo(info provider.Info) *Fake {
	f.info = info
	return f
}

// SetBalance sets the native balance of account in base units
func (f *Fake) SetBalance(account string, v *big.Int) {
	f.mu.Lock()
	f.balances[account] = v
	f.mu.Unlock()
}

// Sent returns the transactions submitted so far
func (f *Fake) Sent() []provider.TxRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]provider.TxRequest{}, f.sent...)
}

// Subscribers returns the number of active subscriptions
func (f *Fake) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

// Emit delivers ev to every subscriber
func (f *Fake) Emit(ev provider.Event) {
	f.mu.Lock()
	if ev.Type == provider.EventAccountsChanged {
		f.accounts = ev.Accounts
	}
	if ev.Type == provider.EventChainChanged {
		f.chainID = ev.ChainID
	}
	subs := make([]func(provider.Event), 0, len(f.subscribers))
	for _, fn := range f.subscribers {
		subs = append(subs, fn)
	}
	f.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func (f *Fake) Info() provider.Info { return f.info }

func (f *Fake) Native() provider.NativeCurrency { return f.native }

func (f *Fake) ChainID(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chainID, nil
}

func (f *Fake) RequestAccounts(ctx context.Context) ([]string, error) {
	if f.RequestErr != nil {
		return nil, f.RequestErr
	}
	return f.Accounts(ctx)
}

func (f *Fake) Accounts(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.accounts...), nil
}

func (f *Fake) Balance(ctx context.Context, account string) (*big.Int, error) {
	if f.BalanceHook != nil {
		return f.BalanceHook(ctx, account)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.balances[account]; ok {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

func (f *Fake) SendTransaction(ctx context.Context, tx provider.TxRequest) (string, error) {
	if f.SendErr != nil {
		return "", f.SendErr
	}
	f.mu.Lock()
	f.sent = append(f.sent, tx)
	f.mu.Unlock()
	return "0xfeed", nil
}

func (f *Fake) Subscribe(fn func(provider.Event)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribers == nil {
		f.subscribers = make(map[int]func(provider.Event))
	}
	id := f.nextSub
	f.nextSub++
	f.subscribers[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.subscribers, id)
		f.mu.Unlock()
	}
}

// Signer is a Fake that can also sign messages
type Signer struct {
	*Fake
	// SignErr is returned by SignMessage when set
	SignErr error
}

// NewSigner creates a signing fake wallet
func NewSigner(name string, accounts ...string) *Signer {
	return &Signer{Fake: New(name, accounts...)}
}

func (s *Signer) SignMessage(ctx context.Context, account, message string) (provider.SignedMessage, error) {
	if s.SignErr != nil {
		return provider.SignedMessage{}, s.SignErr
	}
	return provider.SignedMessage{Value: "0xsigned:" + account, Scheme: provider.SchemePersonalSign}, nil
}
