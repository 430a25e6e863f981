package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/ethereum/go-ethereum/crypto"
)

// GenKey creates a private key file the wallet and name service can use.
// The file name becomes the account's name.
func GenKey(path string) error {
	if path == "" {
		fmt.Println("help: genkey <path/name.ecdsa>")
		return ErrHelp
	}

	if filepath.Ext(path) != ".ecdsa" {
		path = strings.TrimSuffix(path, filepath.Ext(path)) + ".ecdsa"
	}

	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return fmt.Errorf("generating key: %w", err)
	}

	if err := crypto.SaveECDSA(path, privateKey); err != nil {
		return fmt.Errorf("saving key: %w", err)
	}

	fmt.Println("private key file:", path)
	fmt.Println("account:         ", accounts.PublicKeyToAccountID(privateKey.PublicKey))

	return nil
}
