package model

import "time"

// SignatureStatus is the lifecycle status of a signature record
type SignatureStatus string

const (
	SignaturePending  SignatureStatus = "pending"
	SignatureVerified SignatureStatus = "verified"
	SignatureFailed   SignatureStatus = "failed"
)

// SignatureRecord pairs an operation with its authorization token.
// Scheme "simulated" marks values that are not cryptographic signatures.
type SignatureRecord struct {
	ID        string          `json:"id"`
	Operation OperationType   `json:"operation"`
	Signature string          `json:"signature"`
	Scheme    string          `json:"scheme"`
	Simulated bool            `json:"simulated"`
	Account   string          `json:"account"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Status    SignatureStatus `json:"status"`
	TxHash    string          `json:"txHash,omitempty"`
}

// SignatureStats summarizes a signature log
type SignatureStats struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
	Pending  int `json:"pending"`
	Failed   int `json:"failed"`
}

// SignatureListResponse represents response for GET /signatures
type SignatureListResponse struct {
	Account    string            `json:"account"`
	Stats      SignatureStats    `json:"stats"`
	Signatures []SignatureRecord `json:"signatures"`
}

// CheckResult is one validation line; Passed is nil when the check cannot be performed
type CheckResult struct {
	Name   string `json:"name"`
	Passed *bool  `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// InspectionResponse represents response for GET /signatures/inspect
type InspectionResponse struct {
	Record SignatureRecord `json:"record"`
	Checks []CheckResult   `json:"checks"`
}
