// Creates or checks the encrypted .cwt keystore used by the local keystore provider.
// Usage:
//
//	go run ./cmd/keystore -out wallet.cwt
//	go run ./cmd/keystore -check wallet.cwt
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/AlexZinkM/phantom-wallet/internal/crypto"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/term"
)

func main() {
	out := flag.String("out", "", "path of the .cwt keystore to create")
	check := flag.String("check", "", "path of an existing .cwt keystore to decrypt and print")
	flag.Parse()

	var err error
	switch {
	case *out != "":
		err = create(*out)
	case *check != "":
		err = verify(*check)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func create(path string) error {
	password, err := readPassword("Enter keystore password: ")
	if err != nil {
		return err
	}
	defer clear(password)

	confirm, err := readPassword("Repeat keystore password: ")
	if err != nil {
		return err
	}
	defer clear(confirm)
	if !bytes.Equal(password, confirm) {
		return errors.New("passwords do not match")
	}

	address, err := crypto.GenerateKeystore(path, password, crypto.DefaultKDF)
	if err != nil {
		if crypto.IsFileExistsError(err) {
			return fmt.Errorf("%s already holds a keystore: %w", path, err)
		}
		return err
	}
	fmt.Println(address)
	return nil
}

func verify(path string) error {
	if _, err := crypto.ReadKeystoreAddress(path); err != nil {
		return err
	}

	password, err := readPassword("Enter keystore password: ")
	if err != nil {
		return err
	}
	defer clear(password)

	file, data, err := crypto.DecryptKeystore(path, password)
	if err != nil {
		return err
	}
	defer clear(data.PrivateKey)

	derived := solana.PrivateKey(data.PrivateKey).PublicKey().String()
	if file.Address != derived {
		return fmt.Errorf("keystore address mismatch: header %s, key %s", file.Address, derived)
	}
	fmt.Printf("%s (%s, created %s)\n", file.Address, file.Network, data.CreatedAt)
	return nil
}

func readPassword(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal: run interactively to enter password")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("password cannot be empty")
	}
	return raw, nil
}
