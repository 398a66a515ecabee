package model

// SendRequest represents request for POST /wallet/send
type SendRequest struct {
	ToAddress string `json:"toAddress"`
	Amount    string `json:"amount"`
	Memo      string `json:"memo,omitempty"`
}

// SendResponse represents response for POST /wallet/send
type SendResponse struct {
	TxID string `json:"txId"`
}

// ReceiveResponse represents response for GET /wallet/receive
type ReceiveResponse struct {
	Address string `json:"address"`
	ChainID string `json:"chainId"`
	QR      string `json:"QR"`
}
