package model

// ConnectionState is the lifecycle state of the wallet session
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
)

// Asset is one balance line of the connected account
type Asset struct {
	Symbol          string `json:"symbol"`
	Name            string `json:"name"`
	Balance         string `json:"balance"` // display units, decimal string
	Decimals        int32  `json:"decimals"`
	ContractAddress string `json:"contractAddress,omitempty"`
	Logo            string `json:"logo"`
}

// SessionResponse represents response for GET /wallet/session
type SessionResponse struct {
	Account         *string         `json:"account"`
	ChainID         *string         `json:"chainId"`
	ConnectionState ConnectionState `json:"connectionState"`
	Provider        string          `json:"provider,omitempty"`
	Assets          []Asset         `json:"assets"`
}

// PortfolioLine is an asset with its valuation
type PortfolioLine struct {
	Asset
	Price string `json:"price,omitempty"`
	Value string `json:"value,omitempty"`
}

// PortfolioResponse represents response for GET /wallet/portfolio
type PortfolioResponse struct {
	Account  string          `json:"account"`
	Currency string          `json:"currency"`
	Total    string          `json:"total"`
	Lines    []PortfolioLine `json:"lines"`
}
