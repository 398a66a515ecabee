package provider_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AlexZinkM/phantom-wallet/internal/provider"
	"github.com/AlexZinkM/phantom-wallet/internal/provider/providertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const window = 50 * time.Millisecond

func announceOnRequest(r *provider.Registry, fakes ...*providertest.Fake) {
	r.OnRequest(func() {
		for _, f := range fakes {
			r.Announce(provider.Detail{Info: f.Info(), Provider: f})
		}
	})
}

func TestDiscoverNothing(t *testing.T) {
	r := provider.NewRegistry(zap.NewNop())
	p, ok := r.Discover(context.Background(), window, provider.MatchName("sei"))
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestDiscoverPrefersMatchingAnnouncement(t *testing.T) {
	r := provider.NewRegistry(zap.NewNop())
	metamask := providertest.New("MetaMask")
	sei := providertest.New("Sei Wallet")
	announceOnRequest(r, metamask, sei)
	r.SetInjected(providertest.New("Injected"))

	p, ok := r.Discover(context.Background(), window, provider.MatchName("sei"))
	require.True(t, ok)
	assert.Equal(t, "Sei Wallet", p.Info().Name)
}

func TestDiscoverMatchesRDNS(t *testing.T) {
	r := provider.NewRegistry(zap.NewNop())
	compass := providertest.New("Compass").WithInfo(provider.Info{UUID: "c1", Name: "Compass", RDNS: "io.sei.compass"})
	announceOnRequest(r, providertest.New("MetaMask"), compass)

	p, ok := r.Discover(context.Background(), window, provider.MatchName("SEI"))
	require.True(t, ok)
	assert.Equal(t, "Compass", p.Info().Name)
}

func TestDiscoverFallsBackToInjected(t *testing.T) {
	r := provider.NewRegistry(zap.NewNop())
	announceOnRequest(r, providertest.New("MetaMask"))
	r.SetInjected(providertest.New("Injected"))

	p, ok := r.Discover(context.Background(), window, provider.MatchName("sei"))
	require.True(t, ok)
	assert.Equal(t, "Injected", p.Info().Name)
}

func TestDiscoverDeduplicatesByUUID(t *testing.T) {
	r := provider.NewRegistry(zap.NewNop())
	first := providertest.New("Sei First").WithInfo(provider.Info{UUID: "same", Name: "Sei First"})
	second := providertest.New("Sei Second").WithInfo(provider.Info{UUID: "same", Name: "Sei Second"})
	r.OnRequest(func() {
		r.Announce(provider.Detail{Info: first.Info(), Provider: first})
		r.Announce(provider.Detail{Info: second.Info(), Provider: second})
	})

	p, ok := r.Discover(context.Background(), window, nil)
	require.True(t, ok)
	assert.Equal(t, "Sei First", p.Info().Name)
}

func TestAnnouncementOutsideWindowIsDropped(t *testing.T) {
	r := provider.NewRegistry(zap.NewNop())
	late := providertest.New("Sei Late")
	r.Announce(provider.Detail{Info: late.Info(), Provider: late})

	_, ok := r.Discover(context.Background(), window, provider.MatchName("sei"))
	assert.False(t, ok)
}

func TestDiscoverStopsOnContextCancel(t *testing.T) {
	r := provider.NewRegistry(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, ok := r.Discover(ctx, time.Minute, nil)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestIsUserRejected(t *testing.T) {
	assert.True(t, provider.IsUserRejected(&provider.RPCError{Code: provider.CodeUserRejected, Message: "no"}))
	assert.False(t, provider.IsUserRejected(&provider.RPCError{Code: provider.CodeUnauthorized}))
	assert.False(t, provider.IsUserRejected(context.Canceled))
}

func TestIsUnsupported(t *testing.T) {
	assert.True(t, provider.IsUnsupported(&provider.RPCError{Code: provider.CodeUnsupported}))
	assert.True(t, provider.IsUnsupported(fmt.Errorf("sign: %w", &provider.RPCError{Code: provider.CodeMethodNotFound})))
	assert.False(t, provider.IsUnsupported(&provider.RPCError{Code: provider.CodeUserRejected}))
	assert.False(t, provider.IsUnsupported(context.Canceled))
}
