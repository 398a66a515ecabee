package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDefaults(t *testing.T) {
	require.NoError(t, Init())

	c := Get()
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "sei", c.DiscoveryMatch)
	assert.Equal(t, 100*time.Millisecond, c.DiscoveryWindow())
	assert.Equal(t, 1500*time.Millisecond, c.SignDelay())
	assert.Equal(t, 4*time.Minute, c.SendCooldownDuration())
	assert.Equal(t, int32(18), c.BridgeNativeDecimals)
	assert.Equal(t, []string{"blockchain_deployment", "token_distribution"}, c.AllowRepeat)
	assert.True(t, c.AllowSimulatedSignatures)
	assert.Equal(t, 2*time.Second, c.ReconnectGrace())
}

func TestInitOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOW_REPEAT", "token_creation")
	t.Setenv("STRESS_FAILURE_RATE", "0.25")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("RECONNECT_GRACE_MS", "0")
	require.NoError(t, Init())

	c := Get()
	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, []string{"token_creation"}, c.AllowRepeat)
	assert.InDelta(t, 0.25, c.StressFailureRate, 1e-9)
	assert.Equal(t, "console", c.LogFormat)
	assert.Zero(t, c.ReconnectGrace())
}

func TestInitRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"failure rate above one": {"FAILURE_RATE", "1.5"},
		"unknown fallback":       {"FALLBACK_PROVIDER", "metamask"},
		"zero window":            {"DISCOVERY_WINDOW_MS", "0"},
		"unknown log format":     {"LOG_FORMAT", "xml"},
		"negative grace":         {"RECONNECT_GRACE_MS", "-1"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			assert.Error(t, Init())
		})
	}
}

func TestGetKeystorePasswordBytesReturnsCopy(t *testing.T) {
	passwordBytes = []byte("secret")
	t.Cleanup(func() { passwordBytes = nil })

	out, err := GetKeystorePasswordBytes()
	require.NoError(t, err)
	clear(out)
	assert.Equal(t, []byte("secret"), passwordBytes)
}

func TestGetKeystorePasswordBytesUnset(t *testing.T) {
	passwordBytes = nil
	_, err := GetKeystorePasswordBytes()
	assert.Error(t, err)
}
