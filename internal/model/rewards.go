package model

// Feature is a premium feature purchasable with PHAN
type Feature struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Cost     string `json:"cost"`
	Unlocked bool   `json:"unlocked"`
}

// RewardsResponse represents response for GET /rewards
type RewardsResponse struct {
	Account  string    `json:"account"`
	Balance  string    `json:"balance"`
	Rank     int       `json:"rank"`
	Features []Feature `json:"features"`
}

// SpendRequest represents request for POST /rewards/spend
type SpendRequest struct {
	Amount string `json:"amount"`
}

// UnlockRequest represents request for POST /rewards/unlock
type UnlockRequest struct {
	Feature string `json:"feature"`
}

// SpendResponse represents response for POST /rewards/spend and /rewards/unlock
type SpendResponse struct {
	Success bool   `json:"success"`
	Balance string `json:"balance"`
}
