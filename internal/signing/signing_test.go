package signing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/AlexZinkM/phantom-wallet/internal/provider"
	"github.com/AlexZinkM/phantom-wallet/internal/provider/providertest"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const account = "0xabcdef0123456789abcdef0123456789abcdef01"

func TestStringHash(t *testing.T) {
	// "hello".hashCode() = 99162322 = 0x5e918d2
	assert.Equal(t, "5e918d2", stringHash("hello"))
	assert.Equal(t, "0", stringHash(""))
	// overflowing input stays within 32 bits
	assert.LessOrEqual(t, len(stringHash(strings.Repeat("z", 500))), 8)
}

func TestSimulateIsDeterministicAndLabelled(t *testing.T) {
	ts := time.UnixMilli(1700000000000)

	a := Simulate("msg", account, ts)
	b := Simulate("msg", account, ts)
	assert.Equal(t, a, b)
	assert.True(t, a.Simulated)
	assert.Equal(t, SchemeSimulated, a.Scheme)

	h := stringHash("msg" + account + "1700000000000")
	assert.True(t, strings.HasPrefix(a.Value, "0x"+h+"abcdef01"+"18bcfe56800"))
	assert.True(t, strings.HasSuffix(a.Value, h[max(0, len(h)-8):]))

	c := Simulate("other", account, ts)
	assert.NotEqual(t, a.Value, c.Value)
	assert.True(t, WellFormed(a))
}

func TestSimulateShortAccount(t *testing.T) {
	sig := Simulate("m", "0x", time.UnixMilli(1))
	assert.True(t, strings.HasPrefix(sig.Value, "0x"))
}

func TestSimulatedSignerWaitsAndHonoursContext(t *testing.T) {
	s := NewSimulatedSigner(time.Hour)
	var slept time.Duration
	s.sleep = func(ctx context.Context, d time.Duration) error {
		slept = d
		return nil
	}
	s.now = func() time.Time { return time.UnixMilli(42) }

	sig, err := s.Sign(context.Background(), account, "m")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, slept)
	assert.Equal(t, Simulate("m", account, time.UnixMilli(42)), sig)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewSimulatedSigner(time.Hour).Sign(ctx, account, "m")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProviderSigner(t *testing.T) {
	fake := providertest.NewSigner("Sei Wallet", account)
	sig, err := NewProviderSigner(fake).Sign(context.Background(), account, "m")
	require.NoError(t, err)
	assert.False(t, sig.Simulated)
	assert.Equal(t, provider.SchemePersonalSign, sig.Scheme)

	fake.SignErr = errors.New("boom")
	_, err = NewProviderSigner(fake).Sign(context.Background(), account, "m")
	assert.Error(t, err)
}

func TestVerifyEd25519(t *testing.T) {
	wallet := solana.NewWallet()
	address := wallet.PublicKey().String()
	p, err := provider.NewKeystoreProvider(wallet.PrivateKey, "solana:devnet", nil, 0, zap.NewNop())
	require.NoError(t, err)

	sig, err := NewProviderSigner(p).Sign(context.Background(), address, "authorize")
	require.NoError(t, err)
	assert.True(t, WellFormed(sig))

	ok, err := Verify(sig, address, "authorize")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify(sig, address, "authorize twice")
	require.NoError(t, err)
	assert.False(t, ok)

	other := solana.NewWallet().PublicKey().String()
	ok, err = Verify(sig, other, "authorize")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyRejectsUnverifiableSchemes(t *testing.T) {
	_, err := Verify(Simulate("m", account, time.Now()), account, "m")
	assert.ErrorIs(t, err, ErrNotVerifiable)

	_, err = Verify(Signature{Value: "0x" + strings.Repeat("ab", 65), Scheme: provider.SchemePersonalSign}, account, "m")
	assert.ErrorIs(t, err, ErrNotVerifiable)
}

func TestWellFormed(t *testing.T) {
	assert.True(t, WellFormed(Signature{Value: "0x" + strings.Repeat("ab", 65), Scheme: provider.SchemePersonalSign}))
	assert.False(t, WellFormed(Signature{Value: "0xab", Scheme: provider.SchemePersonalSign}))
	assert.False(t, WellFormed(Signature{Value: "nothex", Scheme: SchemeSimulated}))
	assert.False(t, WellFormed(Signature{Value: "x", Scheme: "unknown"}))
}
