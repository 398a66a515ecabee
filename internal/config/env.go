package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// Note: the keystore password is prompted at runtime and stored in memory - use GetKeystorePasswordBytes()
type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	StorePath string `envconfig:"STORE_PATH" default:"phantom.db"`

	// Local keystore provider (optional)
	KeystoreFilePath string `envconfig:"KEYSTORE_FILE_PATH"`
	KeystoreChainID  string `envconfig:"KEYSTORE_CHAIN_ID" default:"solana:mainnet"`
	SolanaRPCURL     string `envconfig:"SOLANA_RPC_URL" default:"https://api.mainnet-beta.solana.com"`
	SendCooldown     int    `envconfig:"SEND_COOLDOWN_MINUTES" default:"4"`

	// Provider discovery
	DiscoveryWindowMS int    `envconfig:"DISCOVERY_WINDOW_MS" default:"100"`
	DiscoveryMatch    string `envconfig:"DISCOVERY_MATCH" default:"sei"`
	FallbackProvider  string `envconfig:"FALLBACK_PROVIDER" default:"keystore"`
	// Time bridge wallets get to dial in before the persisted session is restored
	ReconnectGraceMS int `envconfig:"RECONNECT_GRACE_MS" default:"2000"`

	// Websocket bridge for external wallets
	BridgeNativeSymbol      string `envconfig:"BRIDGE_NATIVE_SYMBOL" default:"SEI"`
	BridgeNativeName        string `envconfig:"BRIDGE_NATIVE_NAME" default:"Sei Network"`
	BridgeNativeDecimals    int32  `envconfig:"BRIDGE_NATIVE_DECIMALS" default:"18"`
	BridgeRequestTimeoutSec int    `envconfig:"BRIDGE_REQUEST_TIMEOUT_SEC" default:"60"`

	// Authorization flow
	SignDelayMS              int      `envconfig:"SIGN_DELAY_MS" default:"1500"`
	StepDelayMS              int      `envconfig:"STEP_DELAY_MS" default:"800"`
	FailureRate              float64  `envconfig:"FAILURE_RATE" default:"0"`
	StressFailureRate        float64  `envconfig:"STRESS_FAILURE_RATE" default:"0.1"`
	AllowSimulatedSignatures bool     `envconfig:"ALLOW_SIMULATED_SIGNATURES" default:"true"`
	RecordFailedSignatures   bool     `envconfig:"RECORD_FAILED_SIGNATURES" default:"true"`
	AllowRepeat              []string `envconfig:"ALLOW_REPEAT" default:"blockchain_deployment,token_distribution"`

	// Portfolio valuation
	PriceCoinID   string `envconfig:"PRICE_COIN_ID" default:"sei-network"`
	PriceCurrency string `envconfig:"PRICE_CURRENCY" default:"usd"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads an optional .env file and then configuration from environment variables.
func Init() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// Validate checks value ranges that envconfig cannot express.
func (c *Config) Validate() error {
	if c.FailureRate < 0 || c.FailureRate > 1 {
		return fmt.Errorf("FAILURE_RATE must be between 0 and 1")
	}
	if c.StressFailureRate < 0 || c.StressFailureRate > 1 {
		return fmt.Errorf("STRESS_FAILURE_RATE must be between 0 and 1")
	}
	if c.DiscoveryWindowMS <= 0 {
		return fmt.Errorf("DISCOVERY_WINDOW_MS must be positive")
	}
	if c.ReconnectGraceMS < 0 {
		return fmt.Errorf("RECONNECT_GRACE_MS must not be negative")
	}
	if c.BridgeNativeDecimals < 0 {
		return fmt.Errorf("BRIDGE_NATIVE_DECIMALS must not be negative")
	}
	switch c.FallbackProvider {
	case "keystore", "none":
	default:
		return fmt.Errorf("FALLBACK_PROVIDER must be keystore or none")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}

// DiscoveryWindow returns the provider announcement window.
func (c *Config) DiscoveryWindow() time.Duration {
	return time.Duration(c.DiscoveryWindowMS) * time.Millisecond
}

// ReconnectGrace returns how long startup waits before restoring the session.
func (c *Config) ReconnectGrace() time.Duration {
	return time.Duration(c.ReconnectGraceMS) * time.Millisecond
}

// SignDelay returns the artificial delay of the simulated signer.
func (c *Config) SignDelay() time.Duration {
	return time.Duration(c.SignDelayMS) * time.Millisecond
}

// StepDelay returns the delay of one simulated effect step.
func (c *Config) StepDelay() time.Duration {
	return time.Duration(c.StepDelayMS) * time.Millisecond
}

// SendCooldownDuration returns the cooldown between keystore transfers.
func (c *Config) SendCooldownDuration() time.Duration {
	return time.Duration(c.SendCooldown) * time.Minute
}

// BridgeRequestTimeout returns how long a bridged wallet may take to answer.
func (c *Config) BridgeRequestTimeout() time.Duration {
	return time.Duration(c.BridgeRequestTimeoutSec) * time.Second
}

var passwordBytes []byte

// PromptForPassword prompts the user for the keystore password in the terminal.
// The password is read without echoing (hidden input) and stored in memory.
// Call this at startup before the server begins handling requests.
func PromptForPassword() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("stdin is not a terminal: run the app interactively to enter password")
	}
	fmt.Fprint(os.Stderr, "Enter keystore password: ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return errors.New("password cannot be empty")
	}

	passwordBytes = make([]byte, len(raw))
	copy(passwordBytes, raw)
	clear(raw)
	return nil
}

// GetKeystorePasswordBytes returns the password stored in memory (from PromptForPassword).
// Returns an error if the password was not set.
// Caller must zero the returned slice after use.
func GetKeystorePasswordBytes() ([]byte, error) {
	if len(passwordBytes) == 0 {
		return nil, errors.New("password not set: call PromptForPassword at startup")
	}
	out := make([]byte, len(passwordBytes))
	copy(out, passwordBytes)
	return out, nil
}
