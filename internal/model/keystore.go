package model

// KeystoreFile represents .cwt file structure
type KeystoreFile struct {
	Network    string    `json:"network"`
	Address    string    `json:"address"`
	QR         string    `json:"QR"`
	KDF        KDFParams `json:"kdf"`
	Salt       string    `json:"salt"`
	Nonce      string    `json:"nonce"`
	CipherText string    `json:"cipherText"`
}

// KDFParams are the scrypt parameters the key was derived with
type KDFParams struct {
	N      int `json:"n"`
	R      int `json:"r"`
	P      int `json:"p"`
	KeyLen int `json:"keyLen"`
}

// KeystoreData represents decrypted keystore data
type KeystoreData struct {
	PrivateKey []byte `json:"privateKey"` // 64 bytes ed25519 key (stored as base64 in JSON)
	CreatedAt  string `json:"createdAt"`
}
