package crypto

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AlexZinkM/phantom-wallet/internal/common"
	"github.com/AlexZinkM/phantom-wallet/internal/model"

	"github.com/gagliardetto/solana-go"
)

const networkSolana = "solana"

// FileExistsError is an error when file already exists and is not empty
type FileExistsError struct {
	Message string
}

func (e *FileExistsError) Error() string {
	return e.Message
}

// IsFileExistsError checks if error is FileExistsError
func IsFileExistsError(err error) bool {
	_, ok := err.(*FileExistsError)
	return ok
}

// GenerateKeystore creates a new ed25519 keypair and saves it to an encrypted .cwt file.
// Returns the public address.
func GenerateKeystore(filePath string, password []byte, kdf model.KDFParams) (address string, err error) {
	if filepath.Ext(filePath) != ".cwt" {
		return "", fmt.Errorf("file must have .cwt extension")
	}

	if fileInfo, err := os.Stat(filePath); err == nil && fileInfo.Size() > 0 {
		return "", &FileExistsError{Message: "file is not empty"}
	}

	wallet := solana.NewWallet()
	defer clear(wallet.PrivateKey)

	address = wallet.PublicKey().String()

	qrCode, err := common.QRCodePNG(address)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}

	data := &model.KeystoreData{
		PrivateKey: wallet.PrivateKey,
		CreatedAt:  time.Now().Format(time.RFC3339),
	}

	if err := EncryptKeystore(filePath, networkSolana, address, qrCode, data, password, kdf); err != nil {
		return "", fmt.Errorf("failed to encrypt keystore: %w", err)
	}

	return address, nil
}
