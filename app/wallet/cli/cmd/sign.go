package cmd

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ardanlabs/paystream/foundation/paystream/accounts"
	"github.com/ardanlabs/paystream/foundation/paystream/client"
	"github.com/ardanlabs/paystream/foundation/paystream/signature"
	"github.com/spf13/cobra"
)

var (
	streamID uint64
	validFor time.Duration
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a withdrawal authorization a relayer can submit for you.",
	Run:   signRun,
}

func init() {
	rootCmd.AddCommand(signCmd)
	signCmd.Flags().Uint64VarP(&streamID, "stream", "s", 0, "Stream to withdraw from.")
	signCmd.Flags().DurationVarP(&validFor, "valid-for", "v", 10*time.Minute, "How long the authorization can be used.")
	signCmd.MarkFlagRequired("stream")
}

func signRun(cmd *cobra.Command, args []string) {
	privateKey, err := loadPrivateKey()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := callContext(cmd)
	defer cancel()

	sw, err := signWithdraw(ctx, node(), privateKey, streamID, validFor)
	if err != nil {
		log.Fatal(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sw); err != nil {
		log.Fatal(err)
	}
}

// signWithdraw signs a withdrawal for the next nonce of the account, bound
// to the node's signing domain.
func signWithdraw(ctx context.Context, nd *client.Client, privateKey *ecdsa.PrivateKey, streamID uint64, validFor time.Duration) (client.SignedWithdraw, error) {
	domain, err := nd.Domain(ctx)
	if err != nil {
		return client.SignedWithdraw{}, fmt.Errorf("reading domain: %w", err)
	}

	info, err := nd.Account(ctx, string(accounts.PublicKeyToAccountID(privateKey.PublicKey)))
	if err != nil {
		return client.SignedWithdraw{}, fmt.Errorf("reading nonce: %w", err)
	}

	msg := signature.Withdraw{
		StreamID: streamID,
		Nonce:    info.Nonce,
		Deadline: uint64(time.Now().Add(validFor).Unix()),
	}

	sig, err := signature.Sign(domain, msg, privateKey)
	if err != nil {
		return client.SignedWithdraw{}, err
	}

	sw := client.SignedWithdraw{
		StreamID:  msg.StreamID,
		Nonce:     msg.Nonce,
		Deadline:  msg.Deadline,
		Signature: signature.SignatureString(sig),
	}

	return sw, nil
}
