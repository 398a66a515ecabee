package model

import (
	"fmt"
	"time"
)

// OperationType identifies a sensitive dashboard action
type OperationType string

const (
	OperationBlockchainCreation   OperationType = "blockchain_creation"
	OperationTokenCreation        OperationType = "token_creation"
	OperationBlockchainDeployment OperationType = "blockchain_deployment"
	OperationTokenDistribution    OperationType = "token_distribution"
)

// OperationTypes lists every operation in suite order
var OperationTypes = []OperationType{
	OperationBlockchainCreation,
	OperationTokenCreation,
	OperationBlockchainDeployment,
	OperationTokenDistribution,
}

// Valid reports whether t is a known operation type
func (t OperationType) Valid() bool {
	for _, known := range OperationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Label is the human-readable operation name
func (t OperationType) Label() string {
	switch t {
	case OperationBlockchainCreation:
		return "Blockchain Creation"
	case OperationTokenCreation:
		return "Token Creation"
	case OperationBlockchainDeployment:
		return "Blockchain Deployment"
	case OperationTokenDistribution:
		return "Token Distribution"
	}
	return string(t)
}

// OperationDescriptor is the in-memory record of a pending sensitive action
type OperationDescriptor struct {
	Type         OperationType  `json:"type"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Details      map[string]any `json:"details"`
	EstimatedGas string         `json:"estimatedGas,omitempty"`
}

// Validate validates descriptor fields
func (d *OperationDescriptor) Validate() error {
	if !d.Type.Valid() {
		return fmt.Errorf("unknown operation type %q", d.Type)
	}
	if d.Title == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}

// AttemptState is the state of one authorization attempt
type AttemptState string

const (
	AttemptIdle              AttemptState = "idle"
	AttemptAwaitingSignature AttemptState = "awaiting_signature"
	AttemptSigned            AttemptState = "signed"
	AttemptExecuting         AttemptState = "executing"
	AttemptCompleted         AttemptState = "completed"
	AttemptSignatureFailed   AttemptState = "signature_failed"
	AttemptExecutionFailed   AttemptState = "execution_failed"
)

// Terminal reports whether no further transition can happen
func (s AttemptState) Terminal() bool {
	return s == AttemptCompleted || s == AttemptSignatureFailed || s == AttemptExecutionFailed
}

// AttemptResponse represents response for POST /operations
type AttemptResponse struct {
	ID          string         `json:"id"`
	Operation   OperationType  `json:"operation"`
	State       AttemptState   `json:"state"`
	Transitions []AttemptState `json:"transitions"`
	SignatureID string         `json:"signatureId,omitempty"`
	Signature   string         `json:"signature,omitempty"`
	Scheme      string         `json:"scheme,omitempty"`
	Simulated   bool           `json:"simulated"`
	TxHash      string         `json:"txHash,omitempty"`
	Reward      string         `json:"reward"`
	Bonus       string         `json:"bonus"`
	Balance     string         `json:"balance,omitempty"`
	Steps       []string       `json:"steps"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"startedAt"`
	FinishedAt  time.Time      `json:"finishedAt"`
}

// TestResult is one entry of a stress-test run
type TestResult struct {
	ID        string        `json:"id"`
	Type      OperationType `json:"type"`
	Status    string        `json:"status"` // success, failed
	Timestamp time.Time     `json:"timestamp"`
	Duration  int64         `json:"duration"` // milliseconds
	Details   string        `json:"details"`
}

// StressTestResponse represents response for POST /operations/stress-test
type StressTestResponse struct {
	Results     []TestResult `json:"results"`
	SuccessRate int          `json:"successRate"` // percent
	AvgDuration int64        `json:"avgDuration"` // milliseconds
	Bonus       string       `json:"bonus"`
	Balance     string       `json:"balance"`
}

// FlagsResponse represents response for GET /operations/flags
type FlagsResponse struct {
	Account         string                 `json:"account"`
	Completed       map[OperationType]bool `json:"completed"`
	SuiteProgress   []OperationType        `json:"suiteProgress"`
	SuitesCompleted int                    `json:"suitesCompleted"`
	HasActivity     bool                   `json:"hasActivity"`
}
